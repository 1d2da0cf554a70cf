// Package kafkaclient wraps segmentio/kafka-go for the two streams the client
// touches: a consumer for device location fixes and a producer for venue
// change events.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader is the subset of *kafka.Reader the consumer uses.
// This allows for easy mocking in unit tests.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs a fetch loop and hands messages out on a channel. Offsets
// are committed explicitly by whoever processed the message.
type Consumer struct {
	reader   Reader
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	messages chan kafka.Message
}

// NewConsumer creates a consumer group reader for one topic.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
		// Offsets are committed manually after a fix is delivered.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       1e6,
		MaxWait:        500 * time.Millisecond,
	})
	return NewConsumerWithReader(reader)
}

// NewConsumerWithReader builds a consumer around an existing reader.
func NewConsumerWithReader(reader Reader) *Consumer {
	return &Consumer{
		reader:   reader,
		doneChan: make(chan struct{}),
		messages: make(chan kafka.Message),
	}
}

// Messages returns the channel fed by Start. It is closed when the loop exits.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messages
}

// CommitOffset acknowledges a processed message.
func (c *Consumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	return c.reader.CommitMessages(ctx, msg)
}

// Start begins the fetch loop in a separate goroutine.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messages)

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.doneChan:
				return
			default:
			}

			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return
				}
				log.Printf("Error fetching kafka message: %v", err)
				// Back off to prevent a tight error loop.
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				case <-c.doneChan:
					return
				}
				continue
			}

			select {
			case c.messages <- msg:
			case <-ctx.Done():
				return
			case <-c.doneChan:
				return
			}
		}
	}()
}

// Stop ends the fetch loop and closes the reader. It is safe to call twice.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.doneChan)
		if err := c.reader.Close(); err != nil {
			log.Printf("Failed to close kafka reader: %v", err)
		}
		c.wg.Wait()
	})
}
