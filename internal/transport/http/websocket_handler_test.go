package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxfeedback/internal/shared/testutil"
	ws "cxfeedback/internal/websocket"
	"cxfeedback/pkg/contracts/events"
)

func newWebSocketServer(t *testing.T, allowed []string) (*httptest.Server, *ws.Hub) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := ws.NewHub(logger, nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(NewWebSocketHandler(hub, allowed, 1024, 1024, logger))
	t.Cleanup(server.Close)
	return server, hub
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketHandler_Connect(t *testing.T) {
	server, hub := newWebSocketServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type events.MessageType `json:"type"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, events.MessageTypeConnect, msg.Type)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_Origins(t *testing.T) {
	server, _ := newWebSocketServer(t, []string{"http://feedback.example"})

	tests := []struct {
		name   string
		origin string
		allow  bool
	}{
		{name: "configured origin", origin: "http://feedback.example", allow: true},
		{name: "same host", origin: server.URL, allow: true},
		{name: "foreign origin", origin: "http://evil.example", allow: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			header.Set("Origin", tt.origin)
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server), header)
			if tt.allow {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
