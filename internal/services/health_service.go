package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"surveydash/internal/sheets"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	source    sheets.RowSource
	startTime time.Time
	logger    *slog.Logger
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
	Latency string `json:"latency,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version, buildTime string, source sheets.RowSource, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		source:    source,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready when the survey source answers with rows.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"source": hs.checkSource(ctx),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
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
	if hs.source != nil {
		result["source"] = hs.source.Describe()
	}

	return result
}

// checkSource fetches the sheet once
func (hs *HealthService) checkSource(ctx context.Context) ServiceHealth {
	if hs.source == nil {
		return ServiceHealth{Status: "not_ready", Message: "no survey source configured"}
	}

	start := time.Now()
	raw, err := hs.source.Fetch(ctx)
	latency := time.Since(start).String()
	if err != nil {
		hs.logger.WarnContext(ctx, "readiness probe failed",
			slog.String("source", hs.source.Describe()),
			slog.String("error", err.Error()))
		return ServiceHealth{
			Status:  "not_ready",
			Message: err.Error(),
			Latency: latency,
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%s returned %d rows", hs.source.Describe(), len(raw)),
		Latency: latency,
	}
}
