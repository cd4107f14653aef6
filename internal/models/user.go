package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAssessmentDeveloper UserRole = "assessment_developer"
	RoleAssessmentReviewer  UserRole = "assessment_reviewer"
	RoleAdmin               UserRole = "admin"
)

// AllRoles is every role a staff account can hold.
var AllRoles = []UserRole{RoleAssessmentDeveloper, RoleAssessmentReviewer, RoleAdmin}

func (r UserRole) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid"`
	Email        string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string `json:"-" gorm:"not null;size:255"`

	// Password reset
	ResetPasswordToken   *string    `json:"-" gorm:"size:128;index"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Account *Account `json:"account,omitempty" gorm:"foreignKey:UserID"`
}

// Role returns the role of the attached account, or "" when the user has none.
func (u *User) Role() UserRole {
	if u.Account == nil {
		return ""
	}
	return u.Account.Role
}

type Account struct {
	ID        string   `json:"id" gorm:"primaryKey;type:uuid"`
	FirstName string   `json:"first_name" gorm:"not null;size:100"`
	LastName  string   `json:"last_name" gorm:"not null;size:100"`
	Role      UserRole `json:"role" gorm:"not null;size:50"`
	UserID    string   `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (Account) TableName() string {
	return "accounts"
}
