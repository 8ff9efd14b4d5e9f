package api

import "time"

// Diagnostics counts how the examined rows were sorted.
type Diagnostics struct {
	Examined        int `json:"examined"`
	Matched         int `json:"matched"`
	UnparseableDate int `json:"unparseable_date"`
	OutOfRange      int `json:"out_of_range"`
	MissingCenter   int `json:"missing_center"`
	CenterMismatch  int `json:"center_mismatch"`
}

// Artifact is one rendered export. Text formats carry Content; binary
// formats carry base64 in ContentBase64.
type Artifact struct {
	Format        string `json:"format"`
	FileName      string `json:"file_name,omitempty"`
	MIMEType      string `json:"mime_type"`
	Content       string `json:"content,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
	DownloadURL   string `json:"download_url,omitempty"`
}

// ExportResponse is the result of one submission.
type ExportResponse struct {
	ID          string      `json:"id"`
	State       string      `json:"state"`
	Message     string      `json:"message"`
	Count       int         `json:"count"`
	Center      string      `json:"center"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Header      []string    `json:"header,omitempty"`
	Rows        [][]string  `json:"rows,omitempty"`
	Artifacts   []Artifact  `json:"artifacts,omitempty"`
	Delivered   []string    `json:"delivered,omitempty"`
	Errors      []string    `json:"errors,omitempty"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Duration    string      `json:"duration"`
	CompletedAt time.Time   `json:"completed_at"`
}

// RecentResponse is the read-only view of the last days of feedback.
type RecentResponse struct {
	Days        int         `json:"days"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Header      []string    `json:"header"`
	Rows        [][]string  `json:"rows"`
	Count       int         `json:"count"`
	Message     string      `json:"message,omitempty"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// CentersResponse lists the call centers an operator may choose.
type CentersResponse struct {
	Centers []string `json:"centers"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
