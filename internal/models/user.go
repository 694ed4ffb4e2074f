// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account that can donate and request items.
// Donor and recipient roles are not stored; see UserRoles.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"unique;not null" json:"username"`
	Email       string         `gorm:"unique;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	Bio         string         `json:"bio"`
	City        string         `gorm:"size:50" json:"city"`
	State       string         `gorm:"size:50" json:"state"`
	PhoneNumber string         `gorm:"size:15" json:"phone_number"`
	IsVerified  bool           `gorm:"default:false" json:"is_verified"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserRoles is derived from a user's donations and requests.
type UserRoles struct {
	IsDonor     bool `json:"is_donor"`
	IsRecipient bool `json:"is_recipient"`
}
