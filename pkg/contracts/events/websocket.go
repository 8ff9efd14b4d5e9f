// Package events contains the WebSocket message contracts used to report
// export submissions to connected pages.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeSubmission carries every state change of a submission.
	MessageTypeSubmission MessageType = "submission:status"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// Submission states as seen by a page. Loading precedes exactly one of the
// terminal states.
const (
	StatusLoading    = "loading"
	StatusValidation = "validation"
	StatusSchema     = "schema"
	StatusEmpty      = "empty"
	StatusSuccess    = "success"
	StatusFailure    = "failure"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// SubmissionStatus is the payload of MessageTypeSubmission.
type SubmissionStatus struct {
	SubmissionID string    `json:"submission_id"`
	Status       string    `json:"status"`
	Center       string    `json:"center,omitempty"`
	StartDate    string    `json:"start_date,omitempty"`
	EndDate      string    `json:"end_date,omitempty"`
	Count        int       `json:"count"`
	Skipped      int       `json:"skipped"`
	Delivered    []string  `json:"delivered,omitempty"`
	Message      string    `json:"message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Terminal reports whether status ends a submission.
func (s SubmissionStatus) Terminal() bool {
	return s.Status != StatusLoading
}

// ErrorPayload is the payload of MessageTypeError.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
