package models

import "time"

// Customer is the local shadow record of a subscriber account. The subscriber
// backend stays authoritative for account state; this row only exists for
// commission attribution and reporting and is upserted opportunistically.
type Customer struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"type:varchar(64);not null;index:ux_customers_username,unique" json:"username"`
	Email          string     `gorm:"type:varchar(200);default:''" json:"email"`
	Phone          string     `gorm:"type:varchar(30);default:''" json:"phone"`
	ServicePlanID  int        `gorm:"not null;default:0" json:"service_plan_id"`
	LocationID     *uint      `gorm:"index" json:"location_id,omitempty"`
	AccountOwnerID *uint      `gorm:"index" json:"account_owner_id,omitempty"`
	LastRenewalAt  *time.Time `gorm:"type:timestamp;default:null" json:"last_renewal_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
