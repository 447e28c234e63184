package messaging

import (
	"context"

	"github.com/guifgccc7/argosight-ingest/internal/domain"
)

// ReportHandler is called for each decoded position report, in arrival order
type ReportHandler func(report *domain.PositionReport) error

// FeedSubscriber defines the interface for the upstream AIS position stream.
// One subscription spans one bounded session; it does not reconnect on error.
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/feed_subscriber.go -package=mocks -mock_names=FeedSubscriber=MockFeedSubscriber
type FeedSubscriber interface {
	// SubscribeReports opens the stream and invokes handler per report until
	// the context ends or the transport fails
	SubscribeReports(ctx context.Context, handler ReportHandler) error

	// Close closes the connection and cleans up resources
	Close()
}

// EventHandler is called when a position change event is received
type EventHandler func(event *domain.ChangeEvent) error

// ChangeSubscriber defines the interface for consuming position change events.
// A subscriber that connects late only receives events emitted after it
// connects; prior state must be reconciled with a bulk load.
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/change_subscriber.go -package=mocks -mock_names=ChangeSubscriber=MockChangeSubscriber
type ChangeSubscriber interface {
	// SubscribeChanges blocks consuming events until the context ends
	SubscribeChanges(ctx context.Context, handler EventHandler) error

	// Close closes the connection and cleans up resources
	Close()
}
