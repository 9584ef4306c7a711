package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/eugenenazirov/supply-planner/internal/procurement"
)

// DefaultMaxOffers bounds the catalog size when no limit is configured.
const DefaultMaxOffers = 1000

var (
	// ErrTooManyOffers indicates the provided catalog exceeds the configured limit.
	ErrTooManyOffers = errors.New("offer catalog exceeds the configured limit")
)

var defaultOffers = []procurement.Offer{
	{ID: 111, Count: 42, Price: 9.0, Pack: 2},
	{ID: 222, Count: 77, Price: 11.0, Pack: 10},
	{ID: 333, Count: 103, Price: 10.0, Pack: 50},
	{ID: 444, Count: 65, Price: 12.0, Pack: 5},
}

// Storage provides access to the supplier offers used by the planner.
type Storage interface {
	GetOffers() ([]procurement.Offer, error)
	SetOffers(offers []procurement.Offer) error
}

// MemoryStorage keeps the offer catalog in-memory and guards access with a RWMutex.
// Offers are stored as given; screening malformed offers is left to the planner.
type MemoryStorage struct {
	mu        sync.RWMutex
	offers    []procurement.Offer
	maxOffers int
}

// NewMemoryStorage initialises storage with a copy of the default offers.
// A non-positive maxOffers falls back to DefaultMaxOffers.
func NewMemoryStorage(maxOffers int) *MemoryStorage {
	if maxOffers <= 0 {
		maxOffers = DefaultMaxOffers
	}
	return &MemoryStorage{
		offers:    cloneAndSort(defaultOffers),
		maxOffers: maxOffers,
	}
}

// DefaultOffers returns a copy of the default offer catalog.
func DefaultOffers() []procurement.Offer {
	return cloneAndSort(defaultOffers)
}

// GetOffers returns a defensive copy of the current catalog ordered by supplier id.
func (s *MemoryStorage) GetOffers() ([]procurement.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneAndSort(s.offers), nil
}

// SetOffers replaces the catalog.
func (s *MemoryStorage) SetOffers(offers []procurement.Offer) error {
	if len(offers) > s.maxOffers {
		return fmt.Errorf("%w: %d offers, limit %d", ErrTooManyOffers, len(offers), s.maxOffers)
	}

	sorted := cloneAndSort(offers)

	s.mu.Lock()
	s.offers = sorted
	s.mu.Unlock()

	return nil
}

func cloneAndSort(src []procurement.Offer) []procurement.Offer {
	if len(src) == 0 {
		return []procurement.Offer{}
	}

	out := make([]procurement.Offer, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
