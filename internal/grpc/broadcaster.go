package grpc

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/santiagocoriap/quakescope/internal/models"
)

// Broadcaster fans raised alerts out to the active gRPC streams.
type Broadcaster struct {
	subscribers map[uint64]chan *models.Alert
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *models.Alert),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan *models.Alert) {
	id := b.nextID.Add(1)
	ch := make(chan *models.Alert, 100) // Buffer for alerts raised in one poll

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast fans a out to every subscriber.
func (b *Broadcaster) Broadcast(a *models.Alert) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- a:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

func (b *Broadcaster) Name() string {
	return "grpc"
}

// Publish broadcasts a copy of a. It never fails.
func (b *Broadcaster) Publish(_ context.Context, a models.Alert) error {
	b.Broadcast(&a)
	return nil
}
