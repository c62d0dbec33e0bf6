package models

// User represents the user model in the database
type User struct {
	Base
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	PinHash  string `gorm:"not null" json:"-"`
	// ClearanceLevel is display-only profile data.
	ClearanceLevel int `gorm:"not null;default:1" json:"clearance_level"`
}
