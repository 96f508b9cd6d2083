package messaging

import (
	"context"
)

// Publisher defines the interface for publishing pipeline messages
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Publish marshals payload to JSON and publishes it on topic.
	// dedupID is used by the broker to drop duplicate publishes; empty disables dedup.
	Publish(ctx context.Context, topic Topic, dedupID string, payload interface{}) error
	// Close closes the connection
	Close()
}
