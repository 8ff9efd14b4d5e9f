package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxfeedback/internal/feedback"
	"cxfeedback/internal/infrastructure"
	"cxfeedback/internal/notifier"
	"cxfeedback/internal/shared/testutil"
	"cxfeedback/pkg/contracts/events"
)

type envelope struct {
	Type    events.MessageType `json:"type"`
	TraceID string             `json:"trace_id"`
	Data    json.RawMessage    `json:"data"`
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func newTestClient(hub *Hub, id string, buffer int) *Client {
	return &Client{
		id:          id,
		hub:         hub,
		send:        make(chan []byte, buffer),
		connectedAt: time.Now(),
		remoteAddr:  "127.0.0.1:8080",
		logger:      hub.logger,
	}
}

func receive(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return envelope{}
	}
}

func receiveStatus(t *testing.T, c *Client) events.SubmissionStatus {
	t.Helper()
	env := receive(t, c)
	require.Equal(t, events.MessageTypeSubmission, env.Type)
	var status events.SubmissionStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	return status
}

func criteria() feedback.Criteria {
	return feedback.Criteria{
		Start:  feedback.NewDate(2025, time.March, 1),
		End:    feedback.NewDate(2025, time.March, 31),
		Center: "TEP",
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, nil)

	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.logger)
	assert.Equal(t, defaultPingPeriod, hub.pingPeriod)
	assert.Equal(t, defaultPongWait, hub.pongWait)
	assert.False(t, hub.running)
}

func TestHubWithKeepalive(t *testing.T) {
	hub := NewHub(nil, nil).WithKeepalive(30*time.Second, 45*time.Second)
	assert.Equal(t, 30*time.Second, hub.pingPeriod)
	assert.Equal(t, 45*time.Second, hub.pongWait)

	hub = NewHub(nil, nil).WithKeepalive(90*time.Second, 60*time.Second)
	assert.Equal(t, 54*time.Second, hub.pingPeriod)
}

func TestHubStartStop(t *testing.T) {
	hub := NewHub(nil, nil)

	hub.Start()
	hub.Start()
	assert.True(t, hub.running)

	hub.Stop()
	hub.Stop()
	assert.False(t, hub.running)

	// registering after stop must not block
	done := make(chan struct{})
	go func() {
		hub.Register(newTestClient(hub, "late", 1))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Register blocked on a stopped hub")
	}
}

func TestHubRegisterSendsConnectMessage(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub, "client-1", 8)

	hub.Register(client)

	env := receive(t, client)
	assert.Equal(t, events.MessageTypeConnect, env.Type)

	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, "client-1", data["client_id"])
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubBroadcastsSubmissionStatus(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub, "client-1", 8)
	hub.Register(client)
	receive(t, client)

	ctx := infrastructure.WithTraceID(context.Background(), "trace-42")
	hub.Started(ctx, "sub-1", criteria())

	loading := receiveStatus(t, client)
	assert.Equal(t, events.StatusLoading, loading.Status)
	assert.Equal(t, "sub-1", loading.SubmissionID)
	assert.Equal(t, "Loading feedback...", loading.Message)
	assert.Equal(t, "2025-03-01", loading.StartDate)
	assert.False(t, loading.Terminal())

	hub.Notify(ctx, notifier.Outcome{
		SubmissionID: "sub-1",
		State:        notifier.StateSuccess,
		Criteria:     criteria(),
		Count:        3,
		Delivered:    []string{"clipboard"},
		Diagnostics:  feedback.Diagnostics{Examined: 7, Matched: 3, UnparseableDate: 1, MissingCenter: 1},
	})

	done := receiveStatus(t, client)
	assert.Equal(t, events.StatusSuccess, done.Status)
	assert.Equal(t, 3, done.Count)
	assert.Equal(t, 2, done.Skipped)
	assert.Equal(t, []string{"clipboard"}, done.Delivered)
	assert.Equal(t, "Exported 3 feedback rows for TEP to clipboard.", done.Message)
	assert.True(t, done.Terminal())
}

func TestHubIgnoresUnstartedSubmissions(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub, "client-1", 8)
	hub.Register(client)
	receive(t, client)

	hub.Notify(context.Background(), notifier.Outcome{SubmissionID: "sub-2", State: notifier.StateValidation})

	hub.mu.RLock()
	assert.Nil(t, hub.last, "a rejected form is not replayed")
	hub.mu.RUnlock()

	hub.Started(context.Background(), "sub-3", criteria())
	status := receiveStatus(t, client)
	assert.Equal(t, events.StatusLoading, status.Status, "the validation outcome was never sent")
	assert.Equal(t, "sub-3", status.SubmissionID)

	hub.Notify(context.Background(), notifier.Outcome{SubmissionID: "sub-3", State: notifier.StateEmpty, Criteria: criteria()})
	assert.Equal(t, events.StatusEmpty, receiveStatus(t, client).Status)

	// a repeated outcome for a finished submission is dropped
	hub.Notify(context.Background(), notifier.Outcome{SubmissionID: "sub-3", State: notifier.StateSuccess})
	select {
	case msg := <-client.send:
		t.Fatalf("unexpected message: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubReplaysLastStatus(t *testing.T) {
	hub := newTestHub(t)
	hub.Started(context.Background(), "sub-1", criteria())

	// the broadcast reaches nobody, but is remembered
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.last != nil && len(hub.broadcast) == 0
	}, time.Second, 5*time.Millisecond)

	client := newTestClient(hub, "late", 8)
	hub.Register(client)

	assert.Equal(t, events.MessageTypeConnect, receive(t, client).Type)
	assert.Equal(t, events.StatusLoading, receiveStatus(t, client).Status)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := newTestHub(t)
	slow := newTestClient(hub, "slow", 1)
	hub.Register(slow)
	require.Eventually(t, func() bool { return len(slow.send) == 1 }, time.Second, 5*time.Millisecond)

	// the connect message fills the buffer; the next send overflows it
	hub.Started(context.Background(), "sub-1", criteria())

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, hub.GetHubMetrics()["messages_dropped"])
}

func TestHubUnregister(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub, "client-1", 8)
	hub.Register(client)
	receive(t, client)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok, "send channel should be closed")

	// a second unregister is harmless
	hub.Unregister(client)
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.Start()
	client := newTestClient(hub, "client-1", 8)
	hub.Register(client)
	receive(t, client)

	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestClientWritePump(t *testing.T) {
	hub := NewHub(nil, nil)
	conn := NewMockConnection()
	logger, _ := testutil.NewTestLogger(t)
	client := NewClient(hub, conn, "trace-1", logger)

	assert.NotEmpty(t, client.ID())
	assert.Equal(t, "127.0.0.1:8080", client.remoteAddr)

	client.send <- []byte(`{"type":"connect"}`)
	close(client.send)
	client.WritePump()

	written := conn.GetWrittenMessages()
	require.Len(t, written, 2)
	assert.Equal(t, websocket.TextMessage, written[0].Type)
	assert.JSONEq(t, `{"type":"connect"}`, string(written[0].Data))
	assert.Equal(t, websocket.CloseMessage, written[1].Type)
	assert.True(t, conn.Closed)
}

func TestClientReadPump(t *testing.T) {
	hub := newTestHub(t)
	conn := NewMockConnection()
	conn.AddReadMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`), nil)
	conn.AddReadMessage(websocket.TextMessage, []byte("hello\nthere"), nil)

	logger, handler := testutil.NewTestLogger(t)
	client := NewClient(hub, conn, "", logger)
	hub.Register(client)

	client.ReadPump()

	assert.EqualValues(t, 2, client.messagesReceived)
	assert.Equal(t, int64(maxMessageSize), conn.ReadLimit)
	assert.NotNil(t, conn.PongHandler)
	assert.True(t, conn.Closed)
	assert.True(t, handler.ContainsMessage("Heartbeat received"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
