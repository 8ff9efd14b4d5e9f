package config

import "time"

// Application constants
const (
	AppName    = "CX Feedback Exporter"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable: CXF_SERVER_PORT,
	// CXF_SHEETS_API_KEY, ...
	EnvPrefix = "CXF"

	// LegacyAPIKeyEnv is read when CXF_SHEETS_API_KEY is unset so existing
	// .env files from the browser build keep working.
	LegacyAPIKeyEnv = "REACT_APP_SHEETS_API_KEY"

	// Sheets source defaults
	DefaultSpreadsheetID = "1kjUS4purNu0_r0dSYO3knyMb8DqVPkFRpue8VcaoxeA"
	DefaultSheetRange    = "2026!A:L"
	DefaultSheetsTimeout = 30 * time.Second

	// Source modes
	ModeAPI  = "api"
	ModeREST = "rest"
	ModeXLSX = "xlsx"
	ModeCSV  = "csv"

	// Export defaults
	DefaultOutputDir  = "exports"
	DefaultSheetName  = "Feedback"
	DefaultRecentDays = 7

	// Clipboard modes for the CLI
	ClipboardAuto    = "auto"
	ClipboardSystem  = "system"
	ClipboardConsole = "console"
	ClipboardNone    = "none"

	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
)

// DefaultCenters is the fixed set of call centers an operator can pick.
var DefaultCenters = []string{"TEP", "Buwelo", "WNS", "Concentrix"}
