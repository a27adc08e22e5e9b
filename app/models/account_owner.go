package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountOwner is a commission recipient. OwnerUsername maps to the
// subscriber backend's "owner" tag on an account.
type AccountOwner struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OwnerUsername  string          `gorm:"type:varchar(64);not null;index:ux_account_owners_username,unique" json:"owner_username"`
	DisplayName    string          `gorm:"type:varchar(150);default:''" json:"display_name"`
	Email          string          `gorm:"type:varchar(200);default:''" json:"email"`
	Phone          string          `gorm:"type:varchar(30);default:''" json:"phone"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	IsActive       bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
