package repository

import (
	"errors"

	"github.com/connectwave/portal/app/models"
	"gorm.io/gorm"
)

// accountOwnerRepository implements the AccountOwnerRepository interface
type accountOwnerRepository struct {
	db *gorm.DB
}

// NewAccountOwnerRepository creates a new account owner repository instance
func NewAccountOwnerRepository(db *gorm.DB) AccountOwnerRepository {
	return &accountOwnerRepository{db: db}
}

// Create creates a new account owner
func (r *accountOwnerRepository) Create(owner *models.AccountOwner) error {
	return r.db.Create(owner).Error
}

// GetActiveByUsername resolves the backend's owner tag to a known active
// owner. Returns (nil, nil) when the tag matches nobody; commission then
// falls back to the default bookkeeping rate.
func (r *accountOwnerRepository) GetActiveByUsername(ownerUsername string) (*models.AccountOwner, error) {
	var owner models.AccountOwner
	err := r.db.Where("owner_username = ? AND is_active = ?", ownerUsername, true).First(&owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &owner, nil
}

// GetByID retrieves an account owner by its ID
func (r *accountOwnerRepository) GetByID(id uint) (*models.AccountOwner, error) {
	var owner models.AccountOwner
	if err := r.db.First(&owner, id).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

// List retrieves account owners with pagination
func (r *accountOwnerRepository) List(offset, limit int) ([]models.AccountOwner, error) {
	var owners []models.AccountOwner
	err := r.db.Order("display_name ASC").Offset(offset).Limit(limit).Find(&owners).Error
	return owners, err
}

// Update persists changes to an account owner
func (r *accountOwnerRepository) Update(owner *models.AccountOwner) error {
	return r.db.Save(owner).Error
}
