package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalogue item owned by a main baker
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Category     string          `gorm:"not null;index" json:"category"`
	ImageKey     *string         `json:"-"`
	ImageURL     *string         `gorm:"-" json:"image_url,omitempty"`
	MainBakerID  uint            `gorm:"not null;index" json:"main_baker_id"`
	MainBaker    *User           `gorm:"foreignKey:MainBakerID" json:"main_baker,omitempty"`
	IsNew        bool            `gorm:"not null;default:false" json:"is_new"`
	IsBestSeller bool            `gorm:"not null;default:false" json:"is_best_seller"`
	IsAvailable  bool            `gorm:"not null;default:true" json:"is_available"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
