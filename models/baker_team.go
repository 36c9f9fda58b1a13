package models

import "time"

// BakerTeam assigns a junior baker to a main baker. Historical rows are kept with
// IsActive=false; a junior baker has at most one active row.
type BakerTeam struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	MainBakerID   uint       `gorm:"not null;index" json:"main_baker_id"`
	MainBaker     *User      `gorm:"foreignKey:MainBakerID" json:"main_baker,omitempty"`
	JuniorBakerID uint       `gorm:"not null;index" json:"junior_baker_id"`
	JuniorBaker   *User      `gorm:"foreignKey:JuniorBakerID" json:"junior_baker,omitempty"`
	IsActive      bool       `gorm:"not null;default:true;index" json:"is_active"`
	AssignedAt    time.Time  `gorm:"not null" json:"assigned_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// TableName specifies the table name for the BakerTeam model
func (BakerTeam) TableName() string {
	return "baker_teams"
}
