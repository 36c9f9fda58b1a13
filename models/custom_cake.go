package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Custom cake sizes
const (
	CakeSizeSmall  = "small"
	CakeSizeMedium = "medium"
	CakeSizeLarge  = "large"
)

// CustomCake is a cake designed by a customer. Its price is computed by the server when the
// design is saved and is what an order item referencing it is charged.
type CustomCake struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Size      string          `gorm:"not null" json:"size"`
	Flavor    string          `gorm:"not null" json:"flavor"`
	Frosting  string          `gorm:"not null" json:"frosting"`
	Tiers     int             `gorm:"not null;default:1;check:tiers BETWEEN 1 AND 3" json:"tiers"`
	Message   string          `json:"message"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name for the CustomCake model
func (CustomCake) TableName() string {
	return "custom_cakes"
}
