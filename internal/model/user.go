package model

import (
	"time"
)

// User roles. Admins are unrestricted; managers review only their
// authorized languages.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleEditor  = "editor"
	RoleViewer  = "viewer"
)

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:255"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	Role         string     `json:"role" gorm:"size:20;default:editor"`
	Languages    StringList `json:"languages" gorm:"type:text"` // languages a manager may review
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
