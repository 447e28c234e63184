package messaging

import (
	"context"

	"github.com/guifgccc7/argosight-ingest/internal/domain"
)

// Publisher defines the interface for publishing position change events
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishPosition publishes a committed position row to the message broker
	PublishPosition(ctx context.Context, record *domain.PositionRecord) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher connection closes
	CloseChan() <-chan struct{}
}
