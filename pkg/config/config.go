package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
)

type RepositoryKind string

const (
	RepositoryStatic RepositoryKind = "static"
	RepositoryStore  RepositoryKind = "store"
	RepositoryRemote RepositoryKind = "remote"
)

type TelemetrySourceKind string

const (
	TelemetrySynthetic TelemetrySourceKind = "synthetic"
	TelemetryStored    TelemetrySourceKind = "stored"
)

const (
	defaultHTTPHostPort = ":1080"
	defaultTriggerPath  = "/functions/v1/simulate-sensor-data"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	DBType       string
	HTTPHostPort string
	GRPCHostPort string

	DefaultRate  float64
	DefaultBurst int
	// sessions not looked up for this long are closed
	SessionIdleTTL time.Duration

	Repository     RepositoryKind
	StaticLatency  time.Duration
	RemoteURL      string
	RemoteAPIKey   string
	RequestTimeout time.Duration

	TriggerURL            string
	TriggerToken          string
	TriggerTokenExpiresAt time.Time

	TelemetrySource TelemetrySourceKind

	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
}

// Load reads .env when there is one, then the environment.
func Load() (*Config, error) {
	// a missing .env is fine outside development
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []error
	fail := func(key, want string, err error) {
		errs = append(errs, fmt.Errorf("%w: %s should be %s: %v", ErrInvalidConfig, key, want, err))
	}

	cfg := &Config{
		DBType:       envOr(common.EnvKeyGardenDBType, "file"),
		HTTPHostPort: envOr(common.EnvKeyGardenHttpHostPort, defaultHTTPHostPort),
		GRPCHostPort: env(common.EnvKeyGardenGrpcHostPort),

		Repository:   RepositoryKind(envOr(common.EnvKeyGardenRepository, string(RepositoryStatic))),
		RemoteURL:    strings.TrimRight(env(common.EnvKeyGardenRemoteURL), "/"),
		RemoteAPIKey: env(common.EnvKeyGardenRemoteAPIKey),

		TriggerURL:   env(common.EnvKeyGardenTriggerURL),
		TriggerToken: env(common.EnvKeyGardenTriggerToken),

		TelemetrySource: TelemetrySourceKind(envOr(common.EnvKeyGardenTelemetrySource, string(TelemetrySynthetic))),

		MQTTBroker:   env(common.EnvKeyGardenMQTTBroker),
		MQTTClientID: envOr(common.EnvKeyGardenMQTTClientID, "garden-telemetry-service"),
		MQTTTopic:    env(common.EnvKeyGardenMQTTTopic),
	}

	var err error
	if cfg.DefaultRate, err = strconv.ParseFloat(envOr(common.EnvKeyGardenDefaultRate, "1"), 64); err != nil {
		fail(common.EnvKeyGardenDefaultRate, "a float64 value", err)
	}
	if cfg.DefaultBurst, err = strconv.Atoi(envOr(common.EnvKeyGardenDefaultBurst, "3")); err != nil {
		fail(common.EnvKeyGardenDefaultBurst, "an int value", err)
	}
	if cfg.StaticLatency, err = time.ParseDuration(envOr(common.EnvKeyGardenStaticLatency, "0s")); err != nil {
		fail(common.EnvKeyGardenStaticLatency, "a duration", err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(envOr(common.EnvKeyGardenRequestTimeout, "10s")); err != nil {
		fail(common.EnvKeyGardenRequestTimeout, "a duration", err)
	}
	if cfg.SessionIdleTTL, err = time.ParseDuration(envOr(common.EnvKeyGardenSessionIdleTTL, "30m")); err == nil && cfg.SessionIdleTTL <= 0 {
		err = fmt.Errorf("got %s", cfg.SessionIdleTTL)
	}
	if err != nil {
		fail(common.EnvKeyGardenSessionIdleTTL, "a positive duration", err)
	}
	if v := env(common.EnvKeyGardenTriggerTokenExpiresAt); v != "" {
		if cfg.TriggerTokenExpiresAt, err = time.Parse(time.RFC3339, v); err != nil {
			fail(common.EnvKeyGardenTriggerTokenExpiresAt, "an RFC3339 timestamp", err)
		}
	}

	switch cfg.DBType {
	case "file", "memory":
	default:
		fail(common.EnvKeyGardenDBType, "file or memory", fmt.Errorf("got %q", cfg.DBType))
	}

	switch cfg.Repository {
	case RepositoryStatic, RepositoryStore:
	case RepositoryRemote:
		if cfg.RemoteURL == "" {
			fail(common.EnvKeyGardenRemoteURL, "set for the remote repository", errors.New("empty"))
		}
	default:
		fail(common.EnvKeyGardenRepository, "static, store or remote", fmt.Errorf("got %q", cfg.Repository))
	}

	switch cfg.TelemetrySource {
	case TelemetrySynthetic, TelemetryStored:
	default:
		fail(common.EnvKeyGardenTelemetrySource, "synthetic or stored", fmt.Errorf("got %q", cfg.TelemetrySource))
	}

	if cfg.TriggerURL == "" && cfg.RemoteURL != "" {
		cfg.TriggerURL = cfg.RemoteURL + defaultTriggerPath
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envOr(key, fallback string) string {
	if v := env(key); v != "" {
		return v
	}
	return fallback
}
