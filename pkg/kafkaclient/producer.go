package kafkaclient

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes keyed messages to a single topic.
type Producer struct {
	writer Writer
}

// NewProducer creates a synchronous producer for topic.
func NewProducer(brokers []string, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Balancer:     &kafka.Hash{},
		Async:        false,
	})
}

func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{writer: w}
}

// Publish writes one message.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers ...kafka.Header) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
