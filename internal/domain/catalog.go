package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenericItem represents a product class ("milk") owned by a single user.
// GlobalPrice is a reference price used when no supermarket-specific
// observation exists.
type GenericItem struct {
	ID                   uuid.UUID   `json:"id" db:"id"`
	OwnerUserID          uuid.UUID   `json:"owner_user_id" db:"owner_user_id"`
	CanonicalName        string      `json:"canonical_name" db:"canonical_name"`
	Aliases              []string    `json:"aliases" db:"aliases"`
	PrimaryCategoryID    *uuid.UUID  `json:"primary_category_id" db:"primary_category_id"`
	SecondaryCategoryIDs []uuid.UUID `json:"secondary_category_ids" db:"secondary_category_ids"`
	ImageURL             string      `json:"image_url" db:"image_url"`
	GlobalPrice          *float64    `json:"global_price" db:"global_price"`
	CurrencyCode         string      `json:"currency_code" db:"currency_code"`
	LastPriceUpdate      *time.Time  `json:"last_price_update" db:"last_price_update"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" db:"updated_at"`
	IsDeleted            bool        `json:"-" db:"is_deleted"`
}

// BrandProduct is a purchasable variant of a GenericItem (brand + presentation,
// e.g. "Bimbo 600g").
type BrandProduct struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	OwnerUserID   uuid.UUID  `json:"owner_user_id" db:"owner_user_id"`
	GenericItemID uuid.UUID  `json:"generic_item_id" db:"generic_item_id"`
	Brand         string     `json:"brand" db:"brand"`
	Presentation  string     `json:"presentation" db:"presentation"`
	ImageURL      string     `json:"image_url" db:"image_url"`
	GlobalPrice   *float64   `json:"global_price" db:"global_price"`
	CurrencyCode  string     `json:"currency_code" db:"currency_code"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted     bool       `json:"-" db:"is_deleted"`
}

// DisplayName is the label analytics uses for brand rankings.
func (b *BrandProduct) DisplayName() string {
	return b.Brand + " " + b.Presentation
}

// PriceObservation is an immutable fact: this BrandProduct cost UnitPrice at
// this Supermarket on ObservedAt. A nil UnitPrice means "seen but price
// unknown". Observations are append-only.
type PriceObservation struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	OwnerUserID      uuid.UUID  `json:"owner_user_id" db:"owner_user_id"`
	BrandProductID   uuid.UUID  `json:"brand_product_id" db:"brand_product_id"`
	SupermarketID    uuid.UUID  `json:"supermarket_id" db:"supermarket_id"`
	UnitPrice        *float64   `json:"unit_price" db:"unit_price"`
	CurrencyCode     string     `json:"currency_code" db:"currency_code"`
	ObservedAt       time.Time  `json:"observed_at" db:"observed_at"`
	SourcePurchaseID *uuid.UUID `json:"source_purchase_id" db:"source_purchase_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	IsDeleted        bool       `json:"-" db:"is_deleted"`
}
