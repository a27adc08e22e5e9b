package radius

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/connectwave/portal/internal/pkg/env"
)

// Errors reported by the backend that callers branch on. Not-found and
// disabled plans are permanent conditions, never retry candidates.
var (
	ErrAccountNotFound = errors.New("radius: account not found")
	ErrPlanNotFound    = errors.New("radius: service plan not found")
	ErrPlanDisabled    = errors.New("radius: service plan is disabled")
)

const expiryDateLayout = "2006-01-02 15:04"

// Client talks to the subscriber-management backend (a Radius Manager style
// HTTP API). All operations are plain GETs with query parameters; the
// response envelope is normalized by decodeEnvelope.
type Client struct {
	BaseURL string
	APIUser string
	APIPass string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("RADIUS_API_URL", ""), "/"),
		APIUser: strings.TrimSpace(env.GetEnv("RADIUS_API_USER", "")),
		APIPass: strings.TrimSpace(env.GetEnv("RADIUS_API_PASS", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetAccount looks up a subscriber by username. Returns ErrAccountNotFound
// when the backend has no record for the username.
func (c *Client) GetAccount(ctx context.Context, username string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("radius: username is required")
	}

	payload, err := c.call(ctx, "get_userdata", url.Values{"username": {username}})
	if err != nil {
		if isNotFoundMessage(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	rec, err := unwrapRecord(payload)
	if err != nil {
		return nil, fmt.Errorf("radius: get_userdata: %w", err)
	}
	if len(rec) == 0 {
		return nil, ErrAccountNotFound
	}

	acct := &Account{
		Username:   fieldString(rec, "username"),
		Enabled:    fieldInt(rec, "enableuser") != 0,
		SrvID:      int(fieldInt(rec, "srvid")),
		Expiry:     parseExpiry(fieldString(rec, "expiration")),
		DlBytes:    fieldInt(rec, "dlbytes"),
		UlBytes:    fieldInt(rec, "ulbytes"),
		TotalBytes: fieldInt(rec, "totalbytes"),
		OnlineTime: fieldInt(rec, "onlinetime"),
		Owner:      fieldString(rec, "owner"),
	}
	if acct.Username == "" {
		acct.Username = username
	}
	return acct, nil
}

// GetPlan fetches a service plan descriptor. Plans are never cached; each
// provisioning decision re-reads the current configuration.
func (c *Client) GetPlan(ctx context.Context, srvid int) (*Plan, error) {
	if srvid <= 0 {
		return nil, ErrPlanNotFound
	}

	payload, err := c.call(ctx, "get_srv", url.Values{"srvid": {strconv.Itoa(srvid)}})
	if err != nil {
		if isNotFoundMessage(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	rec, err := unwrapRecord(payload)
	if err != nil {
		return nil, fmt.Errorf("radius: get_srv: %w", err)
	}
	if len(rec) == 0 {
		return nil, ErrPlanNotFound
	}

	plan := &Plan{
		SrvID:           int(fieldInt(rec, "srvid")),
		SrvName:         fieldString(rec, "srvname"),
		UnitPrice:       fieldDecimal(rec, "unitprice"),
		UnitPriceAdd:    fieldDecimal(rec, "unitpriceadd"),
		UnitPriceTax:    fieldDecimal(rec, "unitpricetax"),
		UnitPriceAddTax: fieldDecimal(rec, "unitpriceaddtax"),
		TimeUnitExp:     int(fieldInt(rec, "timeunitexp")),
		TrafficUnitComb: fieldInt(rec, "trafficunitcomb"),
		LimitComb:       int(fieldInt(rec, "limitcomb")),
		Enabled:         fieldInt(rec, "enableservice") != 0,
	}
	if plan.SrvID == 0 {
		plan.SrvID = srvid
	}
	if !plan.Enabled {
		return nil, ErrPlanDisabled
	}
	return plan, nil
}

// CreateAccount registers a new subscriber with the given expiry. The caller
// decides the expiry window; combined payment provisioning passes a minimal
// placeholder window and tops it up via AddCredit afterwards.
func (c *Client) CreateAccount(ctx context.Context, profile NewAccount, expiry time.Time) error {
	if strings.TrimSpace(profile.Username) == "" || strings.TrimSpace(profile.Password) == "" {
		return errors.New("radius: username and password are required")
	}
	if profile.SrvID <= 0 {
		return errors.New("radius: srvid is required")
	}

	params := url.Values{
		"username":   {strings.TrimSpace(profile.Username)},
		"password":   {profile.Password},
		"srvid":      {strconv.Itoa(profile.SrvID)},
		"expiration": {expiry.Format(expiryDateLayout)},
		"enableuser": {"1"},
	}
	if profile.FirstName != "" {
		params.Set("firstname", profile.FirstName)
	}
	if profile.Email != "" {
		params.Set("email", profile.Email)
	}
	if profile.Phone != "" {
		params.Set("mobile", profile.Phone)
	}

	_, err := c.call(ctx, "new_user", params)
	if err != nil {
		return fmt.Errorf("radius: new_user: %w", err)
	}
	return nil
}

// AddCredit applies traffic bytes and day credit to an existing subscriber.
// The backend may echo the resulting expiry; when it does, that value is
// authoritative for the caller.
func (c *Client) AddCredit(ctx context.Context, username string, dlBytes, ulBytes, totalBytes int64, days int) (*CreditResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("radius: username is required")
	}
	if days <= 0 {
		return nil, errors.New("radius: credit days must be positive")
	}

	params := url.Values{
		"username":   {username},
		"dlbytes":    {strconv.FormatInt(dlBytes, 10)},
		"ulbytes":    {strconv.FormatInt(ulBytes, 10)},
		"totalbytes": {strconv.FormatInt(totalBytes, 10)},
		"expiration": {strconv.Itoa(days)},
	}

	payload, err := c.call(ctx, "add_credits", params)
	if err != nil {
		return nil, fmt.Errorf("radius: add_credits: %w", err)
	}

	result := &CreditResult{}
	if rec, err := unwrapRecord(payload); err == nil {
		if raw := fieldString(rec, "expiration"); raw != "" {
			result.NewExpiry = parseExpiry(raw)
		}
	}
	return result, nil
}

// call performs one backend operation and returns the success payload.
func (c *Client) call(ctx context.Context, op string, params url.Values) (json.RawMessage, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("RADIUS_API_URL is not configured")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid RADIUS_API_URL: %w", err)
	}
	q := u.Query()
	q.Set("apiuser", c.APIUser)
	q.Set("apipass", c.APIPass)
	q.Set("op", op)
	for key, vals := range params {
		for _, v := range vals {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("radius: %s failed: status=%d body=%s", op, resp.StatusCode, truncateBody(body))
	}

	code, payload, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("radius: %s: %w", op, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("radius: %s rejected (code=%d): %s", op, code, payloadMessage(payload))
	}
	return payload, nil
}

func isNotFoundMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no such") || strings.Contains(msg, "unknown user")
}

func parseExpiry(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "0000-00-00") {
		return time.Time{}
	}
	for _, layout := range []string{expiryDateLayout, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

func fieldString(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func fieldInt(rec map[string]any, key string) int64 {
	switch v := rec[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func fieldDecimal(rec map[string]any, key string) decimal.Decimal {
	switch v := rec[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
