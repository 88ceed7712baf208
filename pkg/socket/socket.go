// Package socket emits ride events to the backend's Socket.IO endpoint over a
// plain WebSocket transport.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"driverbot/pkg/logger"
)

const (
	EventRideStarted = "ride_started"

	// Engine.IO / Socket.IO v4 packet prefixes.
	packetOpen    = "0"
	packetPing    = "2"
	packetPong    = "3"
	packetConnect = "40"
	packetEvent   = "42"

	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
)

var ErrHandshake = errors.New("socket.io handshake failed")

// RideStarted is the payload of the ride_started event.
type RideStarted struct {
	DriverID  int64  `json:"driver_id"`
	BookingID string `json:"bookingId"`
}

type Dialer struct {
	endpoint string
	log      logger.ILogger
	dialer   *websocket.Dialer
}

// NewDialer takes the configured socket server URL (http, https, ws or wss).
func NewDialer(serverURL string, log logger.ILogger) (*Dialer, error) {
	endpoint, err := endpointURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Dialer{
		endpoint: endpoint,
		log:      log,
		dialer:   &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}, nil
}

func endpointURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Conn is one open Socket.IO session on the default namespace.
type Conn struct {
	ws      *websocket.Conn
	log     logger.ILogger
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// Dial opens the connection and completes the Engine.IO open and namespace
// connect exchange. Server pings are answered until Close.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	ws, _, err := d.dialer.DialContext(ctx, d.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial socket: %w", err)
	}

	conn := &Conn{ws: ws, log: d.log, done: make(chan struct{})}
	if err := conn.handshake(); err != nil {
		ws.Close()
		return nil, err
	}
	go conn.readLoop()

	d.log.Debug("socket connected", logger.String("endpoint", d.endpoint))
	return conn, nil
}

func (c *Conn) handshake() error {
	_ = c.ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer c.ws.SetReadDeadline(time.Time{})

	_, open, err := c.ws.ReadMessage()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if !strings.HasPrefix(string(open), packetOpen) {
		return fmt.Errorf("%w: unexpected open packet %q", ErrHandshake, open)
	}

	if err := c.write(packetConnect); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	_, ack, err := c.ws.ReadMessage()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if !strings.HasPrefix(string(ack), packetConnect) {
		return fmt.Errorf("%w: namespace connect refused %q", ErrHandshake, ack)
	}
	return nil
}

// readLoop keeps the session alive. Anything other than a ping is dropped.
func (c *Conn) readLoop() {
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Debug("socket read stopped", logger.Error(err))
			}
			return
		}
		if string(msg) == packetPing {
			if err := c.write(packetPong); err != nil {
				c.log.Warning("socket pong failed", logger.Error(err))
				return
			}
		}
	}
}

// Emit sends one event and returns as soon as the frame is written.
func (c *Conn) Emit(event string, payload any) error {
	frame, err := json.Marshal([]any{event, payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	return c.write(packetEvent + string(frame))
}

func (c *Conn) write(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
