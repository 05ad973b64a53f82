package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probe reports whether a backing dependency is usable.
type Probe func(ctx context.Context) error

// HealthRegistrar exposes grpc.health.v1 for the overall server ("") and for
// each named service.
type HealthRegistrar struct {
	srv      *health.Server
	services []string
	log      *slog.Logger
}

func NewHealthRegistrar(log *slog.Logger, services ...string) *HealthRegistrar {
	return &HealthRegistrar{
		srv:      health.NewServer(),
		services: services,
		log:      log,
	}
}

func (h *HealthRegistrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
	h.set(healthpb.HealthCheckResponse_SERVING)
}

func (h *HealthRegistrar) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", st)
	for _, name := range h.services {
		h.srv.SetServingStatus(name, st)
	}
}

// Watch runs probe every interval and flips every status to NOT_SERVING while
// it fails. Returns when ctx is done.
func (h *HealthRegistrar) Watch(ctx context.Context, interval time.Duration, probe Probe) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pctx, cancel := context.WithTimeout(ctx, interval)
		err := probe(pctx)
		cancel()

		switch {
		case err != nil && healthy:
			h.log.Warn("dependency probe failed", "err", err)
			h.set(healthpb.HealthCheckResponse_NOT_SERVING)
			healthy = false
		case err == nil && !healthy:
			h.log.Info("dependencies recovered")
			h.set(healthpb.HealthCheckResponse_SERVING)
			healthy = true
		}
	}
}

// Shutdown marks everything NOT_SERVING so load balancers drain first.
func (h *HealthRegistrar) Shutdown() {
	h.srv.Shutdown()
}
