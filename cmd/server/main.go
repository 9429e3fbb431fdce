package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/config"
	"liyu1981.xyz/garden-telemetry-service/pkg/db"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
	gardenGrpc "liyu1981.xyz/garden-telemetry-service/pkg/grpc"
	gardenHttp "liyu1981.xyz/garden-telemetry-service/pkg/http"
	"liyu1981.xyz/garden-telemetry-service/pkg/ingest"
	"liyu1981.xyz/garden-telemetry-service/pkg/remote"
)

const (
	repositoryProbeInterval = 30 * time.Second
	idleSweepInterval       = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialector, ok := db.UseDialector(cfg.DBType)
	if !ok {
		log.Fatal("Unknown GARDEN_DB_TYPE: " + cfg.DBType)
	}
	dbInstance := db.GetInstance(dialector)

	logger := common.GetLogger()

	gardenCore := &garden.Garden{Db: dbInstance}
	gardenCore.WithServices(garden.ServiceOpts{
		Repository: buildRepository(ctx, cfg, gardenCore),
		Source:     buildTelemetrySource(cfg, gardenCore),
		Trigger:    buildTrigger(cfg),
	})
	logger.Info("Garden core composed",
		zap.String("repository", string(cfg.Repository)),
		zap.String("telemetry_source", string(cfg.TelemetrySource)),
		zap.Bool("trigger", gardenCore.Trigger != nil),
	)

	if cfg.MQTTBroker != "" {
		client, err := ingest.Connect(ctx, ingest.ClientConfig{
			Broker:     cfg.MQTTBroker,
			ClientID:   cfg.MQTTClientID,
			MaxRetries: 4,
		})
		if err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		if err := ingest.NewSubscriber(dbInstance, cfg.MQTTTopic).Start(ctx, client); err != nil {
			log.Fatalf("mqtt: %v", err)
		}
	}

	if cfg.GRPCHostPort != "" {
		logger.Info("Starting gRPC server on port " + cfg.GRPCHostPort)
		go func() {
			gardenGrpcServer := gardenGrpc.NewGardenServer(
				gardenCore,
				garden.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
			)
			interceptor := gardenGrpcServer.CreateRateLimitInterceptor([]proto.Message{
				&healthpb.HealthCheckRequest{},
			})
			s := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
			gardenGrpcServer.Register(s)
			go gardenGrpcServer.WatchRepository(ctx, repositoryProbeInterval)

			logger.Info("gRPC server created with:",
				zap.String("default_limiter",
					fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst)))

			listener, err := net.Listen("tcp", cfg.GRPCHostPort)
			if err != nil {
				log.Fatalf("failed to listen: %v", err)
			}
			go func() {
				<-ctx.Done()
				s.GracefulStop()
			}()

			logger.Info("start gRPC server on " + cfg.GRPCHostPort)
			if err := s.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
	}

	registry := garden.NewRegistry(gardenCore)
	defer registry.CloseAll()

	rs := &gardenHttp.RestfulServer{
		Server:           gin.Default(),
		Registry:         registry,
		RateLimiterStore: garden.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
	}
	rs.Setup()
	go rs.WatchIdleSessions(ctx, cfg.SessionIdleTTL, idleSweepInterval)

	logger.Info("http server created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst)))

	srv := &http.Server{Addr: cfg.HTTPHostPort, Handler: rs.Server}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting HTTP server on: " + cfg.HTTPHostPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server failed to serve: %v", err)
	}
	logger.Info("Server stopped")
}

func buildRepository(ctx context.Context, cfg *config.Config, g *garden.Garden) garden.Repository {
	client := &http.Client{Timeout: cfg.RequestTimeout}

	switch cfg.Repository {
	case config.RepositoryStore:
		if err := garden.SeedStore(ctx, g.Db, garden.DefaultFixtures()); err != nil {
			log.Fatalf("failed to seed store: %v", err)
		}
		return g.GetStoreRepository()
	case config.RepositoryRemote:
		return remote.NewRepository(cfg.RemoteURL, cfg.RemoteAPIKey, client, remote.DefaultBreakerSettings())
	default:
		return garden.NewStaticRepository(garden.DefaultFixtures(), cfg.StaticLatency)
	}
}

func buildTelemetrySource(cfg *config.Config, g *garden.Garden) garden.TelemetrySource {
	if cfg.TelemetrySource == config.TelemetryStored {
		return g.GetStoredSource()
	}
	return garden.NewSyntheticSource(time.Now().UnixNano())
}

func buildTrigger(cfg *config.Config) garden.TriggerClient {
	if cfg.TriggerURL == "" {
		return nil
	}
	return remote.NewTrigger(
		cfg.TriggerURL,
		garden.StaticCredentials{Token: cfg.TriggerToken, ExpiresAt: cfg.TriggerTokenExpiresAt},
		&http.Client{Timeout: cfg.RequestTimeout},
		remote.DefaultBreakerSettings(),
	)
}
