// Package store persists the current venue set. Every write replaces the
// whole set; reads are ordered by distance.
package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nearme/internal/failure"
	"nearme/internal/models"
	"nearme/internal/observability"
)

// Repository is a durable table of venues. ReplaceAll must delete the old
// set and insert the new one atomically; List returns rows ordered by
// distance ascending, ties in insertion order.
type Repository interface {
	ReplaceAll(ctx context.Context, venues []models.Venue) error
	List(ctx context.Context) ([]models.Venue, error)
	Close() error
}

// Change is delivered to subscribers after a replace-all has committed.
type Change struct {
	Venues     []models.Venue
	ReplacedAt time.Time
}

// VenueStore wraps a Repository with identity assignment and change
// notification. It has a single writer, the refresh coordinator.
type VenueStore struct {
	repo Repository

	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(Change)
}

func New(repo Repository) *VenueStore {
	return &VenueStore{
		repo:        repo,
		subscribers: make(map[int]func(Change)),
	}
}

// ReplaceAll swaps the stored set for venues and then notifies subscribers
// with the committed, ordered set. A failed write is a persistence error and
// leaves the previous set in place.
func (s *VenueStore) ReplaceAll(ctx context.Context, venues []models.Venue) error {
	rows := make([]models.Venue, len(venues))
	for i, v := range venues {
		v.ID = uuid.NewString()
		rows[i] = v
	}

	if err := s.repo.ReplaceAll(ctx, rows); err != nil {
		log.Printf("Failed to replace venues: %v", err)
		return failure.NewPersistence(err)
	}

	// The new set is committed at this point, so a failed read-back still
	// notifies, with the rows as written.
	current, err := s.repo.List(ctx)
	if err != nil {
		log.Printf("Failed to read back venues after replace, notifying with written rows: %v", err)
		current = rows
		sort.SliceStable(current, func(i, j int) bool { return current[i].Distance < current[j].Distance })
	}
	change := Change{Venues: current, ReplacedAt: time.Now().UTC()}
	observability.RecordReplace(len(current), change.ReplacedAt)
	log.Printf("Replaced venue set with %d venues", len(current))
	s.notify(change)
	return nil
}

// List returns the stored venues ordered by distance ascending.
func (s *VenueStore) List(ctx context.Context) ([]models.Venue, error) {
	venues, err := s.repo.List(ctx)
	if err != nil {
		return nil, failure.NewPersistence(fmt.Errorf("failed to list venues: %w", err))
	}
	return venues, nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs on the writer's goroutine and must not block.
func (s *VenueStore) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *VenueStore) Close() error {
	return s.repo.Close()
}

func (s *VenueStore) notify(c Change) {
	s.mu.Lock()
	subs := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}
