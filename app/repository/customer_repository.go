package repository

import (
	"errors"

	"github.com/connectwave/portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// UpsertByUsername creates or refreshes the shadow record for a subscriber.
// Empty incoming contact fields never clobber stored ones; attribution is
// opportunistic, not authoritative.
func (r *customerRepository) UpsertByUsername(c *models.Customer) error {
	assignments := map[string]interface{}{
		"service_plan_id": c.ServicePlanID,
		"updated_at":      gorm.Expr("CURRENT_TIMESTAMP"),
	}
	if c.Email != "" {
		assignments["email"] = c.Email
	}
	if c.Phone != "" {
		assignments["phone"] = c.Phone
	}
	if c.LocationID != nil {
		assignments["location_id"] = *c.LocationID
	}
	if c.AccountOwnerID != nil {
		assignments["account_owner_id"] = *c.AccountOwnerID
	}
	if c.LastRenewalAt != nil {
		assignments["last_renewal_at"] = *c.LastRenewalAt
	}

	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(c).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("username = ?", c.Username).First(c).Error
}

// GetByUsername retrieves a customer by username. Returns (nil, nil) when no
// shadow record exists yet.
func (r *customerRepository) GetByUsername(username string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.Where("username = ?", username).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetByID retrieves a customer by its ID
func (r *customerRepository) GetByID(id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// List retrieves customers with pagination
func (r *customerRepository) List(offset, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&customers).Error
	return customers, err
}

// Count returns the total number of customers
func (r *customerRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Customer{}).Count(&count).Error
	return count, err
}
