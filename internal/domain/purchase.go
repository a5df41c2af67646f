package domain

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus is the lifecycle state of a shopping trip
type PurchaseStatus string

const (
	PurchaseStatusDraft     PurchaseStatus = "draft"
	PurchaseStatusCompleted PurchaseStatus = "completed"
)

// Purchase is one shopping trip. Totals stay nil until completion.
type Purchase struct {
	ID                  uuid.UUID      `json:"id" db:"id"`
	OwnerUserID         uuid.UUID      `json:"owner_user_id" db:"owner_user_id"`
	SupermarketID       *uuid.UUID     `json:"supermarket_id" db:"supermarket_id"`
	Date                time.Time      `json:"date" db:"date"`
	CurrencyCode        string         `json:"currency_code" db:"currency_code"`
	SelectedTemplateIDs []uuid.UUID    `json:"selected_template_ids" db:"selected_template_ids"`
	Status              PurchaseStatus `json:"status" db:"status"`
	TotalPaid           *float64       `json:"total_paid" db:"total_paid"`
	Subtotal            *float64       `json:"subtotal" db:"subtotal"`
	Discount            *float64       `json:"discount" db:"discount"`
	Tax                 *float64       `json:"tax" db:"tax"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
	IsDeleted           bool           `json:"-" db:"is_deleted"`
}

// IsCompleted reports whether the purchase has been finished.
func (p *Purchase) IsCompleted() bool { return p.Status == PurchaseStatusCompleted }

// PurchaseLine is one row within a purchase. LineAmountOverride, when set,
// replaces qty*unitPrice as the line total.
type PurchaseLine struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	PurchaseID         uuid.UUID  `json:"purchase_id" db:"purchase_id"`
	GenericItemID      uuid.UUID  `json:"generic_item_id" db:"generic_item_id"`
	BrandProductID     *uuid.UUID `json:"brand_product_id" db:"brand_product_id"`
	Qty                *float64   `json:"qty" db:"qty"`
	UnitID             *uuid.UUID `json:"unit_id" db:"unit_id"`
	UnitPrice          *float64   `json:"unit_price" db:"unit_price"`
	Checked            bool       `json:"checked" db:"checked"`
	LineAmountOverride *float64   `json:"line_amount_override" db:"line_amount_override"`
	Note               string     `json:"note" db:"note"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted          bool       `json:"-" db:"is_deleted"`
}

// Amount computes the effective line total: the manual override when present,
// qty*unitPrice when both are known, zero otherwise.
func (l *PurchaseLine) Amount() float64 {
	if l.LineAmountOverride != nil {
		return *l.LineAmountOverride
	}
	if l.UnitPrice != nil && l.Qty != nil {
		return *l.UnitPrice * *l.Qty
	}
	return 0
}

// LineUpdate carries a partial update for a purchase line. Each field is
// tri-state: not set, set to null, or set to a value. Only set fields are
// merged into the line.
type LineUpdate struct {
	BrandProductID     Optional[uuid.UUID]
	Qty                Optional[float64]
	UnitID             Optional[uuid.UUID]
	UnitPrice          Optional[float64]
	Checked            Optional[bool]
	LineAmountOverride Optional[float64]
	Note               Optional[string]
}
