package models

import "time"

// Baker application status values
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// BakerApplication is a customer's request to join a main baker's team
type BakerApplication struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Applicant     *User      `gorm:"foreignKey:UserID" json:"applicant,omitempty"`
	MainBakerID   uint       `gorm:"not null;index" json:"main_baker_id"`
	MainBaker     *User      `gorm:"foreignKey:MainBakerID" json:"main_baker,omitempty"`
	CurrentRole   string     `gorm:"not null" json:"current_role"`
	RequestedRole string     `gorm:"not null;default:'junior_baker'" json:"requested_role"`
	Reason        string     `gorm:"type:text;not null" json:"reason"`
	Status        string     `gorm:"not null;default:'pending';index" json:"status"`
	ReviewedBy    *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	RejectReason  *string    `json:"reject_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the BakerApplication model
func (BakerApplication) TableName() string {
	return "baker_applications"
}
