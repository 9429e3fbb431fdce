package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
)

type RestfulServer struct {
	Server   *gin.Engine
	Registry *garden.Registry
	// limits trigger calls per session; nil disables limiting
	RateLimiterStore *garden.RateLimiterStore
}

func (rs *RestfulServer) GetLimiter(sessionID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	}
	return rs.RateLimiterStore.GetLimiter(sessionID)
}

func (rs *RestfulServer) CheckSessionLimiter(sessionID string) bool {
	limiter := rs.GetLimiter(sessionID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) forgetLimiter(sessionID string) {
	if rs.RateLimiterStore != nil {
		rs.RateLimiterStore.Forget(sessionID)
	}
}

// WatchIdleSessions sweeps sessions left idle for ttl until ctx is done.
func (rs *RestfulServer) WatchIdleSessions(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs.sweepIdleSessions(ttl)
		}
	}
}

func (rs *RestfulServer) sweepIdleSessions(ttl time.Duration) {
	for _, id := range rs.Registry.Sweep(ttl) {
		rs.forgetLimiter(id)
		rs.logger().Info("Idle session closed", zap.String(common.LoggerFieldSessionID, id))
	}
}

func (rs *RestfulServer) logger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameRestfulServer)
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/classify", rs.Classify)

	rs.Server.POST("/sessions", rs.CreateSession)
	sessions := rs.Server.Group("/sessions/:session_id")
	{
		sessions.GET("", rs.GetSession)
		sessions.POST("/sensor", rs.SelectSensor)
		sessions.POST("/timeframe", rs.SetTimeframe)
		sessions.POST("/trigger", rs.TriggerGeneration)
		sessions.DELETE("", rs.DeleteSession)
	}
}
