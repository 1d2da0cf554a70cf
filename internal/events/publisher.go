// Package events announces committed venue set replacements on Kafka.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"nearme/internal/models"
	"nearme/internal/store"
)

// EventType is carried in the event_type header of every message.
const EventType = "venues.replaced"

// VenuesReplaced is the payload published after each replace-all.
type VenuesReplaced struct {
	EventID    string         `json:"event_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Count      int            `json:"count"`
	Venues     []models.Venue `json:"venues"`
}

type messagePublisher interface {
	Publish(ctx context.Context, key string, value []byte, headers ...kafka.Header) error
}

// Publisher queues store changes and delivers them from its own goroutine,
// so the store writer never waits on the broker.
type Publisher struct {
	producer messagePublisher
	key      string
	timeout  time.Duration
	queue    chan store.Change
	done     chan struct{}
}

// NewPublisher creates a publisher keyed by key, usually the device or
// installation id.
func NewPublisher(producer messagePublisher, key string) *Publisher {
	return &Publisher{
		producer: producer,
		key:      key,
		timeout:  10 * time.Second,
		queue:    make(chan store.Change, 16),
		done:     make(chan struct{}),
	}
}

// OnChange enqueues c. If the queue is full the oldest pending event is
// dropped; the newest set is the one that matters.
func (p *Publisher) OnChange(c store.Change) {
	for {
		select {
		case p.queue <- c:
			return
		default:
		}
		select {
		case dropped := <-p.queue:
			log.Printf("Event queue full, dropping venues event from %s", dropped.ReplacedAt.Format(time.RFC3339))
		default:
		}
	}
}

// Start delivers queued events until ctx is done. It should be called in a
// goroutine.
func (p *Publisher) Start(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-p.queue:
			if err := p.publish(ctx, c); err != nil {
				log.Printf("Failed to publish %s event: %v", EventType, err)
			}
		}
	}
}

// Wait blocks until Start has returned.
func (p *Publisher) Wait() { <-p.done }

func (p *Publisher) publish(ctx context.Context, c store.Change) error {
	venues := c.Venues
	if venues == nil {
		venues = []models.Venue{}
	}
	payload, err := json.Marshal(VenuesReplaced{
		EventID:    uuid.NewString(),
		OccurredAt: c.ReplacedAt,
		Count:      len(venues),
		Venues:     venues,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.producer.Publish(ctx, p.key, payload, kafka.Header{Key: "event_type", Value: []byte(EventType)})
}
