package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/guifgccc7/argosight-ingest/internal/adapter"
	"github.com/guifgccc7/argosight-ingest/internal/domain"
	"github.com/guifgccc7/argosight-ingest/internal/logger"
	"github.com/guifgccc7/argosight-ingest/internal/messaging"
)

// DefaultIdleTimeout bounds how long the read loop waits for the next frame
const DefaultIdleTimeout = 90 * time.Second

// GlobalBoundingBox subscribes to position reports from the whole globe
var GlobalBoundingBox = [][][]float64{{{-90, -180}, {90, 180}}}

// Config holds the configuration for the AIS feed client
type Config struct {
	URL           string
	APIKey        string        // opaque credential sent in the subscription message
	BoundingBoxes [][][]float64 // [lat,lon] polygon corners; global when empty
	IdleTimeout   time.Duration
}

// SubscriptionMessage is the one outbound message written after connect
type SubscriptionMessage struct {
	Credential         string        `json:"credential"`
	BoundingBoxes      [][][]float64 `json:"boundingBoxes"`
	FilterByVesselType bool          `json:"filterByVesselType"`
	FilterMessageTypes []string      `json:"filterMessageTypes"`
}

type client struct {
	dialer adapter.WSDialer
	json   adapter.JSON
	config Config
	stats  *domain.SessionStats

	mu   sync.Mutex
	conn adapter.WSConn
}

// NewClient creates a new AIS feed client. A missing credential is a
// configuration error: the session must never open.
func NewClient(cfg Config, dialer adapter.WSDialer, jsonAdapter adapter.JSON, stats *domain.SessionStats) (messaging.FeedSubscriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ErrMissingCredential
	}
	if len(cfg.BoundingBoxes) == 0 {
		cfg.BoundingBoxes = GlobalBoundingBox
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}

	return &client{
		dialer: dialer,
		json:   jsonAdapter,
		config: cfg,
		stats:  stats,
	}, nil
}

// SubscribeReports opens the stream, authenticates, and forwards decoded
// position reports one at a time in arrival order. It returns when the
// context ends (session expiry) or the transport fails; it never retries
// within a session.
func (c *client) SubscribeReports(ctx context.Context, handler messaging.ReportHandler) error {
	conn, err := c.dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial feed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	sub := SubscriptionMessage{
		Credential:         c.config.APIKey,
		BoundingBoxes:      c.config.BoundingBoxes,
		FilterMessageTypes: []string{domain.MessageTypePositionReport},
	}
	if err := conn.WriteJSON(sub); err != nil {
		c.Close()
		return fmt.Errorf("failed to write subscription message: %w", err)
	}

	frames := make(chan []byte, 64)
	errCh := make(chan error, 1)

	go func() {
		for {
			if err := conn.SetReadDeadline(time.Now().Add(c.config.IdleTimeout)); err != nil {
				errCh <- err
				return
			}
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			// The feed wraps payloads in either text or binary frames
			if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
				continue
			}
			frames <- data
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// Session duration elapsed: force-close regardless of outstanding work
			c.Close()
			return ctx.Err()
		case err := <-errCh:
			logger.WarnCtx(ctx, "Feed transport closed", zap.Error(err))
			c.Close()
			return fmt.Errorf("feed transport error: %w", err)
		case data := <-frames:
			c.handleFrame(ctx, data, handler)
		}
	}
}

// handleFrame decodes one inbound frame and forwards the position report if
// the message kind matches. Decode failures are counted and swallowed.
func (c *client) handleFrame(ctx context.Context, data []byte, handler messaging.ReportHandler) {
	var envelope domain.Envelope
	if err := c.json.Unmarshal(data, &envelope); err != nil {
		c.stats.IncErrors()
		logger.DebugCtx(ctx, "Dropping undecodable frame", zap.Error(err))
		return
	}

	if envelope.MessageType != domain.MessageTypePositionReport {
		return
	}
	report := envelope.Message.PositionReport
	if report == nil {
		c.stats.IncErrors()
		logger.DebugCtx(ctx, "Position report envelope missing payload")
		return
	}

	if err := handler(report); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("mmsi", report.MMSI()))
	}
}

// Close force-closes the websocket connection, unblocking the read loop
func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
}
