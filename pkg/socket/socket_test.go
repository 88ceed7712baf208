package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverbot/pkg/logger"
)

var upgrader = websocket.Upgrader{}

// fakeServer speaks just enough Socket.IO v4 and forwards every frame it reads after connect.
func fakeServer(t *testing.T, acceptConnect bool) (*httptest.Server, <-chan string) {
	t.Helper()
	frames := make(chan string, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/socket.io/", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("EIO"))
		assert.Equal(t, "websocket", r.URL.Query().Get("transport"))

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		ws.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"abc","pingInterval":25000,"pingTimeout":20000}`))
		_, msg, err := ws.ReadMessage()
		if err != nil || string(msg) != "40" {
			return
		}
		if !acceptConnect {
			ws.WriteMessage(websocket.TextMessage, []byte(`44{"message":"nope"}`))
			return
		}
		ws.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"def"}`))
		ws.WriteMessage(websocket.TextMessage, []byte(`2`))

		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				close(frames)
				return
			}
			frames <- string(msg)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, frames
}

func next(t *testing.T, frames <-chan string) string {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return ""
	}
}

func TestEndpointURL(t *testing.T) {
	got, err := endpointURL("https://xlr-ai.com")
	require.NoError(t, err)
	assert.Equal(t, "wss://xlr-ai.com/socket.io/?EIO=4&transport=websocket", got)

	got, err = endpointURL("http://localhost:3000/")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000/socket.io/?EIO=4&transport=websocket", got)

	_, err = endpointURL("ftp://example.com")
	assert.Error(t, err)
}

func TestEmitRideStarted(t *testing.T) {
	srv, frames := fakeServer(t, true)
	d, err := NewDialer(srv.URL, logger.NewNop())
	require.NoError(t, err)

	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "3", next(t, frames), "ping answered with pong")

	require.NoError(t, conn.Emit(EventRideStarted, RideStarted{DriverID: 27, BookingID: "BK-1"}))

	frame := next(t, frames)
	require.True(t, strings.HasPrefix(frame, "42"), frame)

	var event []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "42")), &event))
	require.Len(t, event, 2)
	assert.JSONEq(t, `"ride_started"`, string(event[0]))
	assert.JSONEq(t, `{"driver_id":27,"bookingId":"BK-1"}`, string(event[1]))
}

func TestDialFailsWhenNamespaceRefused(t *testing.T) {
	srv, _ := fakeServer(t, false)
	d, err := NewDialer(srv.URL, logger.NewNop())
	require.NoError(t, err)

	_, err = d.Dial(context.Background())
	assert.ErrorIs(t, err, ErrHandshake)
}

func TestCloseIsIdempotent(t *testing.T) {
	srv, _ := fakeServer(t, true)
	d, err := NewDialer(srv.URL, logger.NewNop())
	require.NoError(t, err)

	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}
