package location

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"nearme/models"
)

var errMissingCoordinates = errors.New("payload has no coordinates")

// StaticFeed reports one fixed position and then waits for cancellation.
type StaticFeed struct {
	At models.Coordinates
}

func (f StaticFeed) Run(ctx context.Context, emit func(models.Fix)) error {
	emit(models.Fix{Coordinates: f.At, Source: "static"})
	<-ctx.Done()
	return ctx.Err()
}

// MessageSource is a stream of kafka messages with explicit commits,
// satisfied by *kafkaclient.Consumer.
type MessageSource interface {
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// KafkaFeed decodes device fixes published as JSON, either a models.Fix
// or bare {"lat":..,"lon":..} coordinates.
type KafkaFeed struct {
	src MessageSource
}

func NewKafkaFeed(src MessageSource) *KafkaFeed {
	return &KafkaFeed{src: src}
}

func (f *KafkaFeed) Run(ctx context.Context, emit func(models.Fix)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-f.src.Messages():
			if !ok {
				return nil
			}
			fix, err := DecodeFix(msg.Value)
			if err != nil {
				log.Printf("Error decoding location fix at offset %d: %v", msg.Offset, err)
			} else {
				fix.Source = "kafka"
				emit(fix)
			}
			if err := f.src.CommitOffset(ctx, msg); err != nil {
				log.Printf("Failed to commit location offset %d: %v", msg.Offset, err)
			}
		}
	}
}

// DecodeFix parses a fix payload.
func DecodeFix(data []byte) (models.Fix, error) {
	var raw struct {
		Coordinates *models.Coordinates `json:"coordinates"`
		Lat         *float64            `json:"lat"`
		Lon         *float64            `json:"lon"`
		Lng         *float64            `json:"lng"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Fix{}, err
	}
	switch {
	case raw.Coordinates != nil:
		return models.Fix{Coordinates: *raw.Coordinates}, nil
	case raw.Lat != nil && raw.Lon != nil:
		return models.Fix{Coordinates: models.Coordinates{Lat: *raw.Lat, Lon: *raw.Lon}}, nil
	case raw.Lat != nil && raw.Lng != nil:
		return models.Fix{Coordinates: models.Coordinates{Lat: *raw.Lat, Lon: *raw.Lng}}, nil
	}
	return models.Fix{}, errMissingCoordinates
}
