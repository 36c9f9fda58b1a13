package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values
const (
	OrderStatusPending      = "pending"
	OrderStatusProcessing   = "processing"
	OrderStatusQualityCheck = "quality_check"
	OrderStatusReady        = "ready"
	OrderStatusDelivered    = "delivered"
	OrderStatusCancelled    = "cancelled"
)

// orderTransitions lists, for every status, the statuses it may move to
var orderTransitions = map[string][]string{
	OrderStatusPending:      {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:   {OrderStatusQualityCheck, OrderStatusCancelled},
	OrderStatusQualityCheck: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:        {OrderStatusDelivered},
}

// ValidOrderStatus reports whether status is a known order status
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusQualityCheck,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminalOrderStatus reports whether no further transition is possible from status
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// CanTransition reports whether the transition table allows from -> to
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents a customer order placed at checkout
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderCode     string          `gorm:"uniqueIndex;not null" json:"order_code"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Customer      *User           `gorm:"foreignKey:UserID" json:"customer,omitempty"`
	Status        string          `gorm:"not null;default:'pending';index" json:"status"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	MainBakerID   *uint           `gorm:"index" json:"main_baker_id"`   // nullable until routed or assigned
	MainBaker     *User           `gorm:"foreignKey:MainBakerID" json:"main_baker,omitempty"`
	JuniorBakerID *uint           `gorm:"index" json:"junior_baker_id"` // nullable until assigned
	JuniorBaker   *User           `gorm:"foreignKey:JuniorBakerID" json:"junior_baker,omitempty"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Shipping      ShippingInfo    `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_info"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsParticipant reports whether userID is the customer or one of the assigned bakers
func (o Order) IsParticipant(userID uint) bool {
	if o.UserID == userID {
		return true
	}
	if o.MainBakerID != nil && *o.MainBakerID == userID {
		return true
	}
	return o.JuniorBakerID != nil && *o.JuniorBakerID == userID
}

// ShippingInfo is the delivery address captured at checkout
type ShippingInfo struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Notes      string `gorm:"type:text" json:"notes,omitempty"`
}

// OrderItem is one line of an order. Exactly one of ProductID and CustomCakeID is set.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	ProductID    *uint           `gorm:"index" json:"product_id,omitempty"`
	Product      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CustomCakeID *uint           `gorm:"index" json:"custom_cake_id,omitempty"`
	CustomCake   *CustomCake     `gorm:"foreignKey:CustomCakeID" json:"custom_cake,omitempty"`
	Quantity     int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	PricePerItem decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_item"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal returns price per item times quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PricePerItem.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
