package models

import "time"

// Review is a customer's rating of a delivered order. One review per order.
type Review struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	OrderID            uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	User               *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JuniorBakerID      *uint     `gorm:"index" json:"junior_baker_id,omitempty"`
	MainBakerID        *uint     `gorm:"index" json:"main_baker_id,omitempty"`
	Rating             int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment            string    `gorm:"type:text" json:"comment"`
	IsVerifiedPurchase bool      `gorm:"not null;default:true" json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}
