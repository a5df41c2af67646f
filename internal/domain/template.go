package domain

import (
	"time"

	"github.com/google/uuid"
)

// Template is a named, reusable shopping list skeleton
type Template struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	Name        string    `json:"name" db:"name"`
	Tags        []string  `json:"tags" db:"tags"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	IsDeleted   bool      `json:"-" db:"is_deleted"`
}

// TemplateItem is one entry in a template. It stores no price; prices are
// resolved at purchase-generation time.
type TemplateItem struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	TemplateID    uuid.UUID  `json:"template_id" db:"template_id"`
	GenericItemID uuid.UUID  `json:"generic_item_id" db:"generic_item_id"`
	DefaultQty    *float64   `json:"default_qty" db:"default_qty"`
	DefaultUnitID *uuid.UUID `json:"default_unit_id" db:"default_unit_id"`
	SortOrder     int        `json:"sort_order" db:"sort_order"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted     bool       `json:"-" db:"is_deleted"`
}
