package domain

import (
	"time"

	"gorm.io/gorm"
)

// User is an authenticated account. Government users have no
// OrganizationID; supplier users belong to exactly one organization.
type User struct {
	ID             uint    `gorm:"primaryKey" json:"user_id"`
	Email          string  `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash   string  `gorm:"column:password_hash;not null" json:"-"`
	FullName       string  `gorm:"column:full_name;not null" json:"full_name"`
	OrganizationID *uint   `gorm:"column:organization_id;index" json:"organization_id"`
	Roles          string  `gorm:"column:roles;not null;default:''" json:"roles"` // comma-separated role names
	IsActive       bool    `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// RoleList splits the stored comma-separated roles.
func (u *User) RoleList() []string {
	var out []string
	start := 0
	s := u.Roles
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// AsActor builds the Actor passed to core operations.
func (u *User) AsActor() Actor {
	return Actor{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID,
		DisplayName:    u.FullName,
		Roles:          u.RoleList(),
	}
}
