package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RolePatient      Role = "patient"
	RolePractitioner Role = "practitioner"
	RoleAdmin        Role = "admin"
)

type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Email     string       `gorm:"not null;uniqueIndex" json:"email"`
	FirstName string       `gorm:"column:first_name" json:"first_name"`
	LastName  string       `gorm:"column:last_name" json:"last_name"`
	Phone     string       `gorm:"column:phone" json:"phone,omitempty"`
	Role      Role         `gorm:"column:role;not null;default:patient" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Projection is the caller-facing view of a user attached to admitted
// realtime connections.
type Projection struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

func (u *User) Project() Projection {
	return Projection{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
