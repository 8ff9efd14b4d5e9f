package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cxfeedback/internal/feedback"
	"cxfeedback/internal/infrastructure"
	"cxfeedback/internal/notifier"
	"cxfeedback/pkg/contracts/events"
)

// broadcastQueue is the number of messages that may wait for the hub loop.
const broadcastQueue = 64

// Hub maintains the set of active clients and broadcasts submission status
// to them. It implements notifier.Notifier and notifier.StartNotifier.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// last is the most recent submission status, replayed to new clients
	last []byte

	// active holds submissions that passed validation and have not finished
	active map[string]struct{}

	logger  *slog.Logger
	metrics *infrastructure.Metrics

	pingPeriod time.Duration
	pongWait   time.Duration

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		active:     make(map[string]struct{}),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// WithKeepalive sets the ping period and pong deadline used by clients. The
// ping period is clamped below pongWait.
func (h *Hub) WithKeepalive(pingPeriod, pongWait time.Duration) *Hub {
	if pongWait > 0 {
		h.pongWait = pongWait
	}
	if pingPeriod > 0 {
		h.pingPeriod = pingPeriod
	}
	if h.pingPeriod >= h.pongWait {
		h.pingPeriod = (h.pongWait * 9) / 10
	}
	return h
}

// Start starts the hub loop. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop. Every client send happens here, under the
// lock, so Stop can close send channels safely.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	ctx := client.context()

	h.mu.Lock()
	h.clients[client] = true
	h.totalConnections++
	count := len(h.clients)
	last := h.last
	h.mu.Unlock()

	h.metrics.WebSocketClientsChanged(ctx, 1)
	h.logger.InfoContext(ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	connMsg, err := encode(ctx, events.MessageTypeConnect, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	})
	if err == nil {
		h.sendTo(ctx, client, connMsg)
	}
	if last != nil {
		h.sendTo(ctx, client, last)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	ctx := client.context()
	h.metrics.WebSocketClientsChanged(ctx, -1)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

// sendTo queues message for one client, dropping the client when its
// buffer is full.
func (h *Hub) sendTo(ctx context.Context, client *Client, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(ctx, client, message)
}

func (h *Hub) sendLocked(ctx context.Context, client *Client, message []byte) bool {
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- message:
		h.messagesSent++
		h.metrics.WebSocketMessage(ctx, "sent", "ok")
		return true
	default:
		close(client.send)
		delete(h.clients, client)
		h.messagesDropped++
		h.metrics.WebSocketMessage(ctx, "sent", "dropped")
		h.metrics.WebSocketClientsChanged(ctx, -1)
		h.logger.WarnContext(ctx, "Client send buffer full, disconnecting",
			slog.String("client_id", client.id))
		return false
	}
}

func (h *Hub) fanOut(message []byte) {
	ctx := context.Background()

	h.mu.Lock()
	total := len(h.clients)
	failed := 0
	for client := range h.clients {
		if !h.sendLocked(client.context(), client, message) {
			failed++
		}
	}
	h.mu.Unlock()

	h.logger.DebugContext(ctx, "Broadcast message to clients",
		slog.Int("client_count", total),
		slog.Int("message_size", len(message)))
	if failed > 0 {
		h.logger.WarnContext(ctx, "Some clients failed to receive broadcast",
			slog.Int("success_count", total-failed),
			slog.Int("fail_count", failed))
	}
}

// Broadcast queues a pre-encoded message for every client. It never blocks
// the caller; when the queue is full the message is dropped.
func (h *Hub) Broadcast(ctx context.Context, message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.mu.Lock()
		h.messagesDropped++
		h.mu.Unlock()
		h.metrics.WebSocketMessage(ctx, "sent", "dropped")
		h.logger.WarnContext(ctx, "Broadcast queue full, message dropped",
			slog.Int("message_size", len(message)))
	}
}

// Started implements notifier.StartNotifier: pages show a loading state.
func (h *Hub) Started(ctx context.Context, submissionID string, c feedback.Criteria) {
	h.mu.Lock()
	h.active[submissionID] = struct{}{}
	h.mu.Unlock()

	status := statusFor(submissionID, c)
	status.Status = events.StatusLoading
	status.Message = "Loading feedback..."
	h.publish(ctx, status)
}

// Notify implements notifier.Notifier. Only submissions announced through
// Started are published; a rejected form stays with the operator who sent it.
func (h *Hub) Notify(ctx context.Context, o notifier.Outcome) {
	h.mu.Lock()
	_, ok := h.active[o.SubmissionID]
	delete(h.active, o.SubmissionID)
	h.mu.Unlock()
	if !ok {
		h.logger.DebugContext(ctx, "outcome not published, submission never started",
			slog.String("submission_id", o.SubmissionID),
			slog.String("state", string(o.State)))
		return
	}

	status := statusFor(o.SubmissionID, o.Criteria)
	status.Status = string(o.State)
	status.Count = o.Count
	status.Skipped = o.Diagnostics.Unreadable()
	status.Delivered = o.Delivered
	status.Message = o.Message()
	h.publish(ctx, status)
}

func statusFor(id string, c feedback.Criteria) events.SubmissionStatus {
	s := events.SubmissionStatus{
		SubmissionID: id,
		Center:       c.Center,
		UpdatedAt:    time.Now().UTC(),
	}
	if !c.Start.IsZero() {
		s.StartDate = c.Start.String()
	}
	if !c.End.IsZero() {
		s.EndDate = c.End.String()
	}
	return s
}

func (h *Hub) publish(ctx context.Context, status events.SubmissionStatus) {
	message, err := encode(ctx, events.MessageTypeSubmission, status)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.last = message
	h.mu.Unlock()

	h.Broadcast(ctx, message)
}

func encode(ctx context.Context, t events.MessageType, data interface{}) ([]byte, error) {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.NewString(),
			Type:      t,
			Timestamp: time.Now().UTC(),
			TraceID:   infrastructure.GetTraceID(ctx),
		},
		Data: data,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		infrastructure.GetLogger().ErrorContext(ctx, "Error marshaling websocket message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(t)))
	}
	return b, err
}

// Register adds a client to the hub. It returns without registering once
// the hub is stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop stops the hub loop and closes every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// GetHubMetrics returns current hub counters
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}
