package domain

import (
	"time"

	"github.com/google/uuid"
)

// Master-data records (supermarkets, categories, units) can be "base" records:
// OwnerUserID == nil means the record is visible to every user but editable by
// none of them.

// Supermarket represents a store where purchases happen
type Supermarket struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OwnerUserID *uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	Name        string     `json:"name" db:"name"`
	Address     string     `json:"address" db:"address"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted   bool       `json:"-" db:"is_deleted"`
}

// Category groups generic items for analytics rollups
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OwnerUserID *uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	Name        string     `json:"name" db:"name"`
	Icon        string     `json:"icon" db:"icon"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted   bool       `json:"-" db:"is_deleted"`
}

// Unit is a measurement unit for quantities (kg, l, piece)
type Unit struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	OwnerUserID  *uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	Name         string     `json:"name" db:"name"`
	Abbreviation string     `json:"abbreviation" db:"abbreviation"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted    bool       `json:"-" db:"is_deleted"`
}

// IsBase reports whether the supermarket is a system-wide record.
func (s *Supermarket) IsBase() bool { return s.OwnerUserID == nil }

// IsBase reports whether the category is a system-wide record.
func (c *Category) IsBase() bool { return c.OwnerUserID == nil }

// IsBase reports whether the unit is a system-wide record.
func (u *Unit) IsBase() bool { return u.OwnerUserID == nil }
