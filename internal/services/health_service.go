package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"avocadoanalytics/pkg/contracts"
	"avocadoanalytics/pkg/contracts/domain"
)

// Health status values
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// DatasetInfo is the part of the dashboard service the health checks need
type DatasetInfo interface {
	Summary(ctx context.Context) domain.DatasetSummary
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HubStatus is the part of the WebSocket hub the health checks need
type HubStatus interface {
	Running() bool
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	dataset   DatasetInfo
	queryLog  Pinger
	hub       HubStatus
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
}

// NewHealthService creates a health service. A nil queryLog or hub is reported
// as disabled rather than not ready.
func NewHealthService(ds DatasetInfo, queryLog Pinger, hub HubStatus, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		dataset:   ds,
		queryLog:  queryLog,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports whether the dataset is loaded, the query log reachable
// and the hub running
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"dataset":   hs.checkDataset(ctx),
			"query_log": hs.checkQueryLog(ctx),
			"websocket": hs.checkHub(),
		},
	}

	for name, service := range status.Services {
		if service.Status == StatusNotReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "service not ready",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information plus process uptime
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"api_version":  info.APIVersion,
		"data_format":  info.DataFormat,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataset(ctx context.Context) ServiceHealth {
	if hs.dataset == nil {
		return ServiceHealth{Status: StatusNotReady, Message: ErrNoDataset.Error()}
	}
	summary := hs.dataset.Summary(ctx)
	if summary.Rows == 0 {
		return ServiceHealth{Status: StatusNotReady, Message: "dataset is empty"}
	}
	msg := fmt.Sprintf("%d rows from %s (%s..%s)", summary.Rows, summary.Source,
		domain.FormatDate(summary.Bounds.Min), domain.FormatDate(summary.Bounds.Max))
	return ServiceHealth{Status: StatusReady, Message: msg}
}

func (hs *HealthService) checkQueryLog(ctx context.Context) ServiceHealth {
	if hs.queryLog == nil {
		return ServiceHealth{Status: StatusReady, Message: "disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := hs.queryLog.Ping(ctx); err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("query log unreachable: %v", err)}
	}
	return ServiceHealth{Status: StatusReady}
}

func (hs *HealthService) checkHub() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: StatusReady, Message: "disabled"}
	}
	if !hs.hub.Running() {
		return ServiceHealth{Status: StatusNotReady, Message: "websocket hub is not running"}
	}
	return ServiceHealth{Status: StatusReady, Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount())}
}
