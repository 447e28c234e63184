package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/guifgccc7/argosight-ingest/internal/adapter"
	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/logger"
	"github.com/guifgccc7/argosight-ingest/internal/messaging"
)

const (
	// eventSchema and eventTable route change events; they carry no other meaning
	eventSchema = "public"
	eventTable  = "vessel_positions"

	// subjectPrefix scopes all position change subjects
	subjectPrefix = "positions.insert"
)

// Config holds the configuration for the NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWait        time.Duration
	MaxDeliver     int
}

type publisher struct {
	nc        adapter.NatsConn
	js        adapter.JetStream
	json      adapter.JSON
	closeCh   chan struct{}
	closeOnce *sync.Once
}

// NewPublisher creates a new NATS JetStream change-event publisher and
// ensures the positions stream exists
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	closeCh := make(chan struct{})
	closeOnce := &sync.Once{}

	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
			closeOnce.Do(func() { close(closeCh) })
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	if err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{subjectPrefix + ".>"},
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create positions stream: %w", err)
	}

	return &publisher{
		nc:        nc,
		js:        js,
		json:      jsonAdapter,
		closeCh:   closeCh,
		closeOnce: closeOnce,
	}, nil
}

// PublishPosition publishes one committed position row as a change event.
// Events for the same vessel share a subject, so they are delivered in
// insertion order; no ordering holds across vessels.
func (p *publisher) PublishPosition(ctx context.Context, record *domain.PositionRecord) error {
	event := domain.ChangeEvent{
		Type:   domain.ChangeEventInsert,
		Schema: eventSchema,
		Table:  eventTable,
		Record: *record,
	}

	data, err := p.json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, record.MMSI)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}
	p.nc.Close()
}

// CloseChan returns a channel that is closed when the NATS connection closes
func (p *publisher) CloseChan() <-chan struct{} {
	return p.closeCh
}
