package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"40"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// SheetsConfig selects and configures the feedback source. Mode is one of
// api, rest, xlsx, csv; Endpoint overrides the Google API base URL.
type SheetsConfig struct {
	Mode            string        `yaml:"mode" envconfig:"MODE" default:"api"`
	SpreadsheetID   string        `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID" default:"1kjUS4purNu0_r0dSYO3knyMb8DqVPkFRpue8VcaoxeA"`
	Range           string        `yaml:"range" envconfig:"RANGE" default:"2026!A:L"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	Endpoint        string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	LocalPath       string        `yaml:"local_path" envconfig:"LOCAL_PATH"`
}

// Location is the resource handed to the source: the spreadsheet id for
// remote modes, the file path for local ones.
func (s SheetsConfig) Location() string {
	switch s.Mode {
	case ModeXLSX, ModeCSV:
		return s.LocalPath
	default:
		return s.SpreadsheetID
	}
}

// ExportConfig contains export and delivery settings. OutputDir is where the
// CLI saves CSV and XLSX files. The web server returns them in the response
// and keeps a copy only when ArchiveDir is set.
type ExportConfig struct {
	OutputDir   string   `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"exports"`
	ArchiveDir  string   `yaml:"archive_dir" envconfig:"ARCHIVE_DIR"`
	Centers     []string `yaml:"centers" envconfig:"CENTERS" default:"TEP,Buwelo,WNS,Concentrix"`
	RecentDays  int      `yaml:"recent_days" envconfig:"RECENT_DAYS" default:"7"`
	SheetName   string   `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"Feedback"`
	ColumnWidth float64  `yaml:"column_width" envconfig:"COLUMN_WIDTH" default:"22"`
	CSVBOM      bool     `yaml:"csv_bom" envconfig:"CSV_BOM" default:"false"`
	Formats     string   `yaml:"formats" envconfig:"FORMATS" default:"html,text,csv,xlsx"`
	Clipboard   string   `yaml:"clipboard" envconfig:"CLIPBOARD" default:"auto"`
	RichCopy    bool     `yaml:"rich_copy" envconfig:"RICH_COPY" default:"true"`
	MaxInFlight int64    `yaml:"max_in_flight" envconfig:"MAX_IN_FLIGHT" default:"1"`
}

// CanonicalCenter returns the configured spelling of name, matched
// case-insensitively after trimming.
func (e ExportConfig) CanonicalCenter(name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range e.Centers {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return c, true
		}
	}
	return "", false
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"cx-feedback-exporter"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// Override adjusts a loaded configuration before it is validated. Command
// line flags are applied this way.
type Override func(*Config)

// Load loads configuration from .env, environment variables and config file.
// Precedence, highest first: overrides, process environment, .env, YAML
// file, defaults.
func Load(overrides ...Override) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFile(getConfigFilePath(), overrides...)
}

// LoadFile is Load without the .env step and with an explicit YAML path;
// an empty path means environment only.
func LoadFile(configFile string, overrides ...Override) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		if cfg, err = mergeFile(cfg, data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	if cfg.Sheets.APIKey == "" {
		cfg.Sheets.APIKey = os.Getenv(LegacyAPIKeyEnv)
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// mergeFile applies the YAML document over envConfig. Keys present in the
// file win over defaults; variables set in the environment win over the file.
func mergeFile(envConfig Config, data []byte) (Config, error) {
	merged := envConfig
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return Config{}, err
	}
	restoreEnv(reflect.ValueOf(&merged).Elem(), reflect.ValueOf(envConfig), EnvPrefix)
	return merged, nil
}

// restoreEnv copies back every field whose environment variable is set.
func restoreEnv(dst, src reflect.Value, prefix string) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := prefix + "_" + field.Tag.Get("envconfig")

		if field.Type.Kind() == reflect.Struct {
			restoreEnv(dst.Field(i), src.Field(i), key)
			continue
		}
		if _, set := os.LookupEnv(key); set {
			dst.Field(i).Set(src.Field(i))
		}
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	switch c.Sheets.Mode {
	case ModeAPI, ModeREST:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("sheets mode %q requires a spreadsheet id", c.Sheets.Mode)
		}
	case ModeXLSX, ModeCSV:
		if c.Sheets.LocalPath == "" {
			return fmt.Errorf("sheets mode %q requires a local path", c.Sheets.Mode)
		}
	default:
		return fmt.Errorf("unknown sheets mode: %q", c.Sheets.Mode)
	}

	if c.Sheets.Timeout <= 0 {
		return fmt.Errorf("sheets timeout must be positive")
	}

	if len(c.Export.Centers) == 0 {
		return fmt.Errorf("at least one call center must be configured")
	}

	if c.Export.RecentDays <= 0 {
		return fmt.Errorf("recent window must be at least one day")
	}

	if c.Export.MaxInFlight <= 0 {
		return fmt.Errorf("max in-flight submissions must be positive")
	}

	switch c.Export.Clipboard {
	case ClipboardAuto, ClipboardSystem, ClipboardConsole, ClipboardNone:
	default:
		return fmt.Errorf("invalid clipboard mode: %q", c.Export.Clipboard)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Sheets: SheetsConfig{
			Mode:          ModeAPI,
			SpreadsheetID: DefaultSpreadsheetID,
			Range:         DefaultSheetRange,
			Timeout:       DefaultSheetsTimeout,
		},
		Export: ExportConfig{
			OutputDir:   DefaultOutputDir,
			Centers:     append([]string(nil), DefaultCenters...),
			RecentDays:  DefaultRecentDays,
			SheetName:   DefaultSheetName,
			ColumnWidth: 22,
			Formats:     "html,text,csv,xlsx",
			Clipboard:   ClipboardAuto,
			RichCopy:    true,
			MaxInFlight: 1,
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			ServiceName:    "cx-feedback-exporter",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
