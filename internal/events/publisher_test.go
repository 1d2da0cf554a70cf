package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"nearme/internal/models"
	"nearme/internal/store"
	"nearme/pkg/kafkaclient"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	fail error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func startPublisher(t *testing.T, w *recordingWriter) *Publisher {
	t.Helper()
	p := NewPublisher(kafkaclient.NewProducerWithWriter(w), "device-1")
	ctx, cancel := context.WithCancel(context.Background())
	go p.Start(ctx)
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})
	return p
}

func TestPublisher_PublishesReplacement(t *testing.T) {
	w := &recordingWriter{}
	p := startPublisher(t, w)

	replacedAt := time.Date(2021, 11, 19, 12, 0, 0, 0, time.UTC)
	p.OnChange(store.Change{
		Venues:     []models.Venue{{ID: "1", Name: "Blue Bottle", Distance: 10}, {ID: "2", Name: "Deli", Distance: 30}},
		ReplacedAt: replacedAt,
	})

	require.Eventually(t, func() bool { return len(w.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
	msg := w.messages()[0]
	require.Equal(t, "device-1", string(msg.Key))
	require.Equal(t, EventType, string(msg.Headers[0].Value))

	var event VenuesReplaced
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	require.NotEmpty(t, event.EventID)
	require.Equal(t, 2, event.Count)
	require.True(t, replacedAt.Equal(event.OccurredAt))
	require.Equal(t, "Blue Bottle", event.Venues[0].Name)
}

func TestPublisher_EmptySetIsAnEmptyArray(t *testing.T) {
	w := &recordingWriter{}
	p := startPublisher(t, w)

	p.OnChange(store.Change{ReplacedAt: time.Now().UTC()})

	require.Eventually(t, func() bool { return len(w.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Contains(t, string(w.messages()[0].Value), `"venues":[]`)
}

func TestPublisher_BrokerFailureDoesNotStopDelivery(t *testing.T) {
	w := &recordingWriter{fail: errors.New("leader not available")}
	p := startPublisher(t, w)

	p.OnChange(store.Change{ReplacedAt: time.Now().UTC()})
	time.Sleep(50 * time.Millisecond)

	w.mu.Lock()
	w.fail = nil
	w.mu.Unlock()
	p.OnChange(store.Change{ReplacedAt: time.Now().UTC()})

	require.Eventually(t, func() bool { return len(w.messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestPublisher_OnChangeNeverBlocks(t *testing.T) {
	p := NewPublisher(kafkaclient.NewProducerWithWriter(&recordingWriter{}), "device-1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.OnChange(store.Change{Venues: []models.Venue{{Distance: i}}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnChange blocked without a running publisher")
	}
	require.Len(t, p.queue, cap(p.queue))
	latest := <-p.queue
	require.Equal(t, 100-cap(p.queue), latest.Venues[0].Distance)
}
