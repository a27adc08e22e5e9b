package models

import "time"

// Location is a hotspot/service location. Location CRUD lives in the admin
// surface; this model only exists so payments and customers can be attributed
// to the location the subscriber signed up at.
type Location struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	ShortCode string    `gorm:"type:varchar(20);not null;index:ux_locations_short_code,unique" json:"short_code"`
	Address   string    `gorm:"type:varchar(255);default:''" json:"address"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
