package models

import (
	"time"

	"gorm.io/gorm"
)

// Role values stored on User.Role
const (
	RoleCustomer    = "customer"
	RoleJuniorBaker = "junior_baker"
	RoleMainBaker   = "main_baker"
	RoleAdmin       = "admin"
)

// ValidRole reports whether role is one of the known user roles
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleJuniorBaker, RoleMainBaker, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system (customer, junior baker, main baker or admin).
// The main baker a junior baker works for is not stored here; it is derived from the
// active BakerTeam row.
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	Username        string         `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash    string         `gorm:"not null" json:"-"`
	FullName        string         `gorm:"not null" json:"full_name"`
	Role            string         `gorm:"not null;default:'customer';index" json:"role"`
	ProfileImageKey *string        `json:"-"`                                  // nullable, S3 key of the profile image
	ProfileImageURL *string        `gorm:"-" json:"profile_image,omitempty"` // computed, presigned URL
	CompletedOrders int            `gorm:"not null;default:0" json:"completed_orders"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsBaker reports whether the user works in a baker team
func (u User) IsBaker() bool {
	return u.Role == RoleJuniorBaker || u.Role == RoleMainBaker
}
