// Package events provides the synchronous in-process publish/subscribe bus
// that decouples the session and collection layers from the components
// rendering their state. Delivery is fire-and-forget: only handlers subscribed
// in this process at publish time are notified.
package events

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Channel names published by the client and collection layers.
const (
	// AuthError carries an AuthErrorEvent whenever a session becomes invalid.
	AuthError = "auth-error"
	// CartChanged and WishlistChanged carry the updated []collection.Entry.
	CartChanged     = "cart-changed"
	WishlistChanged = "wishlist-changed"
	// CartCountChanged carries a CountEvent with the new cart size.
	CartCountChanged = "cart-count-changed"
)

// AuthErrorEvent is the detail payload on the AuthError channel.
type AuthErrorEvent struct {
	Status        int
	Message       string
	CartOperation bool
}

// CountEvent is the detail payload on the CartCountChanged channel.
type CountEvent struct {
	Count int
}

// Handler receives the detail payload of a published event.
type Handler func(detail any)

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously, in subscription order, to all handlers
// registered on a channel. A panicking handler does not prevent delivery to
// the handlers after it.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	channels map[string][]subscriber
	logger   zerolog.Logger
}

func New() *Bus {
	return &Bus{
		channels: make(map[string][]subscriber),
		logger:   log.Logger,
	}
}

// Subscribe registers handler on channel and returns the matching unsubscribe
// function. Callers pair the two across a component's lifetime; calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(channel string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.channels[channel] = append(b.channels[channel], subscriber{id: id, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.channels[channel]
		for i, s := range subs {
			if s.id == id {
				b.channels[channel] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers detail to every handler currently subscribed on channel,
// synchronously and in registration order, at most once per handler.
func (b *Bus) Publish(channel string, detail any) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.channels[channel]))
	copy(subs, b.channels[channel])
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(channel, s, detail)
	}
}

func (b *Bus) deliver(channel string, s subscriber, detail any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().Str("channel", channel).Interface("panic", r).Msg("event handler panicked")
		}
	}()
	s.handler(detail)
}
