// Package memory provides map-backed implementations of the repository
// interfaces. The engines run against it interchangeably with the postgres
// backend; service tests use it directly.
package memory

import (
	"sync"

	"despensa/internal/domain"

	"github.com/google/uuid"
)

// Store holds all in-memory tables behind one lock. A single lock keeps the
// purchase-completion write atomic the same way the postgres backend keeps it
// in one transaction.
type Store struct {
	mu sync.RWMutex

	users             map[uuid.UUID]*domain.User
	refreshTokens     map[string]*domain.RefreshToken
	supermarkets      map[uuid.UUID]*domain.Supermarket
	categories        map[uuid.UUID]*domain.Category
	units             map[uuid.UUID]*domain.Unit
	genericItems      map[uuid.UUID]*domain.GenericItem
	brandProducts     map[uuid.UUID]*domain.BrandProduct
	templates         map[uuid.UUID]*domain.Template
	templateItems     map[uuid.UUID]*domain.TemplateItem
	purchases         map[uuid.UUID]*domain.Purchase
	purchaseLines     map[uuid.UUID]*domain.PurchaseLine
	priceObservations map[uuid.UUID]*domain.PriceObservation

	// insertion order for lines and observations; map iteration alone would
	// not give the stable ordering the postgres backend guarantees
	lineOrder map[uuid.UUID]int64
	obsOrder  map[uuid.UUID]int64
	seq       int64
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		users:             make(map[uuid.UUID]*domain.User),
		refreshTokens:     make(map[string]*domain.RefreshToken),
		supermarkets:      make(map[uuid.UUID]*domain.Supermarket),
		categories:        make(map[uuid.UUID]*domain.Category),
		units:             make(map[uuid.UUID]*domain.Unit),
		genericItems:      make(map[uuid.UUID]*domain.GenericItem),
		brandProducts:     make(map[uuid.UUID]*domain.BrandProduct),
		templates:         make(map[uuid.UUID]*domain.Template),
		templateItems:     make(map[uuid.UUID]*domain.TemplateItem),
		purchases:         make(map[uuid.UUID]*domain.Purchase),
		purchaseLines:     make(map[uuid.UUID]*domain.PurchaseLine),
		priceObservations: make(map[uuid.UUID]*domain.PriceObservation),
		lineOrder:         make(map[uuid.UUID]int64),
		obsOrder:          make(map[uuid.UUID]int64),
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}
