package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	checks    map[string]CheckFunc
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// CheckFunc reports the readiness of one dependency.
type CheckFunc func(ctx context.Context) ServiceHealth

// ClientCounter is implemented by the websocket hub.
type ClientCounter interface {
	ClientCount() int
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	WebSocketClients int     `json:"websocket_clients"`
	Goroutines       int     `json:"goroutines"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a health service. clients may be nil.
func NewHealthService(version, buildTime string, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		checks:    make(map[string]CheckFunc),
		clients:   clients,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Register adds a readiness check under name. Not safe to call while
// checks are running; register everything during wiring.
func (hs *HealthService) Register(name string, check CheckFunc) {
	hs.checks[name] = check
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck runs every registered check. The service is ready only
// when all of them are.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]ServiceHealth, len(hs.checks)+1),
	}

	status.Services["websocket"] = hs.checkWebSocketHealth()
	for name, check := range hs.checks {
		status.Services[name] = check(ctx)
	}

	var notReady []string
	for name, sh := range status.Services {
		if sh.Status != "ready" {
			notReady = append(notReady, name)
		}
	}
	if len(notReady) > 0 {
		sort.Strings(notReady)
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("services", notReady))
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Uptime is the time since the service was created.
func (hs *HealthService) Uptime() time.Duration {
	return time.Since(hs.startTime)
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if hs.clients != nil {
		stats.WebSocketClients = hs.clients.ClientCount()
	}
	return stats
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: "ready", Message: "WebSocket feed disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.clients.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// SourceCheck reports whether a feedback source is configured.
func SourceCheck(mode, location string) CheckFunc {
	return func(context.Context) ServiceHealth {
		if location == "" {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("no feedback source configured for mode %q", mode),
			}
		}
		return ServiceHealth{Status: "ready", Message: mode + " source configured"}
	}
}

// OutputDirCheck reports whether exports can be written to dir.
func OutputDirCheck(dir string) CheckFunc {
	return func(context.Context) ServiceHealth {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("Cannot create output directory: %v", err),
			}
		}
		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("Cannot write to output directory: %v", err),
			}
		}
		name := f.Name()
		f.Close()
		os.Remove(name)

		return ServiceHealth{Status: "ready", Message: "Output directory is writable"}
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     hs.SystemStats(ctx),
	}
}
