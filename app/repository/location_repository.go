package repository

import (
	"github.com/connectwave/portal/app/models"
	"gorm.io/gorm"
)

// locationRepository implements the LocationRepository interface
type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new location repository instance
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

// GetByID retrieves a location by its ID
func (r *locationRepository) GetByID(id uint) (*models.Location, error) {
	var loc models.Location
	if err := r.db.First(&loc, id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

// GetActive retrieves all active locations
func (r *locationRepository) GetActive() ([]models.Location, error) {
	var locations []models.Location
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&locations).Error
	return locations, err
}
