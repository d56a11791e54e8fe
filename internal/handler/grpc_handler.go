package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported by the gRPC health service.
const ServiceName = "mdgovernance.v1.Governance"

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GRPCHandler exposes gRPC health checks backed by periodic store pings
type GRPCHandler struct {
	health   *health.Server
	store    Pinger
	interval time.Duration
	logger   zerolog.Logger
}

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(store Pinger, interval time.Duration, logger zerolog.Logger) *GRPCHandler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &GRPCHandler{
		health:   health.NewServer(),
		store:    store,
		interval: interval,
		logger:   logger.With().Str("handler", "grpc").Logger(),
	}
}

// Register attaches the health and reflection services to srv.
func (h *GRPCHandler) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, h.health)
	reflection.Register(srv)
}

// Check pings the store once and records the result.
func (h *GRPCHandler) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn().Err(err).Msg("Store ping failed")
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
	return status
}

// Run checks the store every interval until ctx is done, then marks the
// service as shutting down.
func (h *GRPCHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Server returns the underlying health server.
func (h *GRPCHandler) Server() healthpb.HealthServer {
	return h.health
}
