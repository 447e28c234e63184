package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn defines an interface for websocket connection operations to enable mocking
//
//go:generate mockgen -source=websocket.go -destination=../mocks/websocket.go -package=mocks -mock_names=WSConn=MockWSConn
type WSConn interface {
	// ReadMessage blocks until the next frame arrives and returns its type and payload
	ReadMessage() (messageType int, p []byte, err error)
	// WriteJSON writes the JSON encoding of v as a single text frame
	WriteJSON(v interface{}) error
	// SetReadDeadline sets the deadline for future ReadMessage calls
	SetReadDeadline(t time.Time) error
	// Close closes the underlying network connection
	Close() error
}

// WSDialer defines an interface for dialing websocket connections
//
//go:generate mockgen -source=websocket.go -destination=../mocks/websocket.go -package=mocks -mock_names=WSDialer=MockWSDialer
type WSDialer interface {
	DialContext(ctx context.Context, url string, header http.Header) (WSConn, error)
}

// RealWSDialer implements WSDialer using the gorilla/websocket package
type RealWSDialer struct{}

// NewWSDialer creates a new real websocket dialer
func NewWSDialer() WSDialer {
	return &RealWSDialer{}
}

func (d *RealWSDialer) DialContext(ctx context.Context, url string, header http.Header) (WSConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
