package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

const (
	tableZones     = "zones"
	tableSensors   = "sensors"
	tableSchedules = "watering_schedules"
)

// Repository reads the garden tables from a PostgREST-style data service.
// Failed calls are not retried; repeated failures open the breaker and later
// calls fail fast until it lets a probe through.
type Repository struct {
	baseURL string
	apiKey  string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewRepository(baseURL, apiKey string, client *http.Client, breaker BreakerSettings) *Repository {
	if client == nil {
		client = http.DefaultClient
	}
	return &Repository{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		circuit: newBreaker("garden-repository", breaker),
		logger: common.GetLoggerWith(
			common.LoggerNameRemote,
			zap.String(common.LoggerFieldCategory, common.LoggerCategoryRepository),
		),
	}
}

func (r *Repository) ListZones(ctx context.Context) ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.list(ctx, garden.SourceZones, tableZones, "name.asc", &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *Repository) ListSensors(ctx context.Context) ([]models.Sensor, error) {
	var sensors []models.Sensor
	if err := r.list(ctx, garden.SourceSensors, tableSensors, "", &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

func (r *Repository) ListSchedules(ctx context.Context) ([]models.WateringSchedule, error) {
	var schedules []models.WateringSchedule
	if err := r.list(ctx, garden.SourceSchedules, tableSchedules, "", &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *Repository) list(ctx context.Context, source garden.Source, table, order string, out any) error {
	url := fmt.Sprintf("%s/rest/v1/%s?select=*", r.baseURL, table)
	if order != "" {
		url += "&order=" + order
	}

	_, err := r.circuit.Execute(func() (interface{}, error) {
		return nil, abandoned(ctx, r.fetch(ctx, url, table, out))
	})
	if err != nil {
		err = breakerError(err)
		r.logger.Warn("Remote list failed",
			zap.String(common.LoggerFieldSource, string(source)),
			zap.String("state", r.circuit.State().String()),
			zap.Error(err),
		)
		return garden.NewRepositoryError(source, err)
	}
	return nil
}

func (r *Repository) fetch(ctx context.Context, url, table string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}
