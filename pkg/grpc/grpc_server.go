package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
)

// RepositoryService is the health service name that tracks whether the
// configured repository answers.
const RepositoryService = "garden.repository"

type GardenServer struct {
	Garden           *garden.Garden
	RateLimiterStore *garden.RateLimiterStore
	Health           *health.Server
	logger           *zap.Logger
}

func NewGardenServer(g *garden.Garden, limiterStore *garden.RateLimiterStore) *GardenServer {
	gs := &GardenServer{
		Garden:           g,
		RateLimiterStore: limiterStore,
		Health:           health.NewServer(),
		logger:           common.GetLoggerWith(common.LoggerNameGrpcServer),
	}
	gs.Health.SetServingStatus(RepositoryService, healthpb.HealthCheckResponse_NOT_SERVING)
	return gs
}

func (gs *GardenServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, gs.Health)
}

// Probe lists zones once and records the outcome as the repository's
// serving status.
func (gs *GardenServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING

	if gs.Garden == nil || gs.Garden.Repository == nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	} else if _, err := gs.Garden.Repository.ListZones(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		gs.logger.Warn("Repository probe failed", zap.Error(err))
	}

	gs.Health.SetServingStatus(RepositoryService, status)
	return status
}

// WatchRepository probes every interval until ctx is done, then marks all
// services as not serving.
func (gs *GardenServer) WatchRepository(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	gs.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			gs.Health.Shutdown()
			return
		case <-ticker.C:
			gs.Probe(ctx)
		}
	}
}

func (gs *GardenServer) GetLimiter(service string) *rate.Limiter {
	if gs.RateLimiterStore == nil {
		return nil
	}
	return gs.RateLimiterStore.GetLimiter(service)
}

func (gs *GardenServer) CheckServiceLimiter(service string) bool {
	limiter := gs.GetLimiter(service)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}
