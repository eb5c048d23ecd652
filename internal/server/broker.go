package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/memorama/internal/game"
)

// frame is one encoded game event ready for a subscriber.
type frame struct {
	Type string
	Data []byte
}

// Broker is an in-process pub/sub for game events, keyed by game ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan frame]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan frame]struct{}),
	}
}

// Subscribe returns a channel that receives encoded events for the given game.
func (b *Broker) Subscribe(gameID string) chan frame {
	ch := make(chan frame, 16)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan frame]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(gameID string, ch chan frame) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of open subscriptions for a game.
func (b *Broker) Subscribers(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[gameID])
}

// Publish sends an event to all subscribers of the given game. It never
// blocks: sessions call it with their lock held.
func (b *Broker) Publish(gameID string, event game.Event) {
	data, _ := json.Marshal(event)
	f := frame{Type: string(event.Type), Data: data}

	b.mu.RLock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- f:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
