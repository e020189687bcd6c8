package collection

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bilguunDash/online-shopping-sub000/events"
	"github.com/bilguunDash/online-shopping-sub000/kvstore"
)

// Mode selects what Upsert does when the product is already present.
type Mode int

const (
	// Toggle removes an already-present product (wishlist semantics).
	Toggle Mode = iota
	// Merge adds the incoming quantity onto the existing entry (cart
	// mirror semantics).
	Merge
)

// Storage keys for the two collection instances.
const (
	cartStorageKey     = "cartItems"
	wishlistStorageKey = "wishlistItems"
)

// Store is a durable, ordered, deduplicated product collection. All methods
// are safe for concurrent use. A mutation's change event is published only
// after its durable write completed and the store's lock is released, so a
// subscriber that re-reads the collection on notification observes the
// mutation that triggered it.
type Store struct {
	mu      sync.Mutex
	storage kvstore.Store
	key     string
	channel string
	mode    Mode
	bus     *events.Bus
	logger  zerolog.Logger
	// countChannel, when set, additionally publishes a CountEvent after
	// every mutation. Used by the cart mirror for badge rendering.
	countChannel string
}

// NewCart returns the cart-mirror collection: Merge semantics plus count
// events for badge subscribers.
func NewCart(storage kvstore.Store, bus *events.Bus) *Store {
	return &Store{
		storage:      storage,
		key:          cartStorageKey,
		channel:      events.CartChanged,
		countChannel: events.CartCountChanged,
		mode:         Merge,
		bus:          bus,
		logger:       log.Logger,
	}
}

// NewWishlist returns the wishlist collection with Toggle semantics.
func NewWishlist(storage kvstore.Store, bus *events.Bus) *Store {
	return &Store{
		storage: storage,
		key:     wishlistStorageKey,
		channel: events.WishlistChanged,
		mode:    Toggle,
		bus:     bus,
		logger:  log.Logger,
	}
}

// List returns the persisted collection. A missing value reads as empty; a
// value that fails to parse, or parses to something other than a sequence,
// self-heals: the store resets to empty, persists the reset, logs a warning
// and returns empty. Corruption is never surfaced to the caller.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ctx)
}

// Upsert canonicalizes the item's identity and applies the store's mode: a
// product already present is removed (Toggle) or merged (Merge); an absent
// one is inserted with render-safe defaults. Returns the updated collection.
func (s *Store) Upsert(ctx context.Context, item Entry) ([]Entry, error) {
	return s.mutate(ctx, func(entries []Entry) []Entry {
		idx := indexOf(entries, item.ProductID)
		switch {
		case idx >= 0 && s.mode == Toggle:
			return append(entries[:idx], entries[idx+1:]...)
		case idx >= 0:
			qty := item.Quantity
			if qty <= 0 {
				qty = 1
			}
			entries[idx].Quantity += qty
			return entries
		default:
			return append(entries, item.normalize())
		}
	})
}

// Remove filters out the entry with the given product ID. Removing an absent
// product persists and publishes the unchanged collection.
func (s *Store) Remove(ctx context.Context, productID int64) ([]Entry, error) {
	return s.mutate(ctx, func(entries []Entry) []Entry {
		if idx := indexOf(entries, productID); idx >= 0 {
			return append(entries[:idx], entries[idx+1:]...)
		}
		return entries
	})
}

// Clear resets the collection to empty.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func([]Entry) []Entry {
		return []Entry{}
	})
	return err
}

// Count returns the number of entries currently persisted.
func (s *Store) Count(ctx context.Context) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Contains reports whether the product is currently in the collection.
func (s *Store) Contains(ctx context.Context, productID int64) (bool, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(entries, productID) >= 0, nil
}

// mutate runs the read-modify-persist cycle under the lock, then publishes
// with the lock released so notified subscribers can re-read the store.
func (s *Store) mutate(ctx context.Context, apply func([]Entry) []Entry) ([]Entry, error) {
	s.mu.Lock()
	entries, err := s.listLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	entries = apply(entries)
	if err := s.persistLocked(ctx, entries); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.bus.Publish(s.channel, entries)
	if s.countChannel != "" {
		s.bus.Publish(s.countChannel, events.CountEvent{Count: len(entries)})
	}
	return entries, nil
}

func (s *Store) listLocked(ctx context.Context) ([]Entry, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading collection %q", s.key)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn().Str("key", s.key).Msg("persisted collection unreadable, resetting to empty")
		if resetErr := s.storage.Set(ctx, s.key, "[]"); resetErr != nil {
			return nil, errors.Wrapf(resetErr, "resetting collection %q", s.key)
		}
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (s *Store) persistLocked(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrapf(err, "encoding collection %q", s.key)
	}
	return errors.Wrapf(s.storage.Set(ctx, s.key, string(data)), "persisting collection %q", s.key)
}

func indexOf(entries []Entry, productID int64) int {
	for i, e := range entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}
