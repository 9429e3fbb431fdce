package garden

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

var ErrRepositoryNotConfigured = errors.New("repository not configured")

// Repository is read access to the persisted garden entities. Zones come
// back ordered by name; sensors and schedules in load order. Implementations
// do not retry.
type Repository interface {
	ListZones(ctx context.Context) ([]models.Zone, error)
	ListSensors(ctx context.Context) ([]models.Sensor, error)
	ListSchedules(ctx context.Context) ([]models.WateringSchedule, error)
}

type RepositoryError struct {
	Source Source
	Err    error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("list %s: %v", e.Source, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError wraps err for source unless it already is a
// RepositoryError.
func NewRepositoryError(source Source, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return &RepositoryError{Source: source, Err: err}
}

type Fixtures struct {
	Zones     []models.Zone
	Sensors   []models.Sensor
	Schedules []models.WateringSchedule
}

func DefaultFixtures() Fixtures {
	return Fixtures{
		Zones: []models.Zone{
			{ID: "zone1", Name: "Vegetable Garden", SoilType: "Loamy", MoistureLevel: 42},
			{ID: "zone2", Name: "Flower Bed", SoilType: "Sandy", MoistureLevel: 35},
			{ID: "zone3", Name: "Herb Garden", SoilType: "Clay", MoistureLevel: 28},
			{ID: "zone4", Name: "Indoor Plants", SoilType: "Potting Mix", MoistureLevel: 55},
		},
		Sensors: []models.Sensor{
			{ID: "sensor1", Name: "Garden Sensor 1", Zone: "Vegetable Garden", Status: models.SensorStatusOnline, Battery: 85},
			{ID: "sensor2", Name: "Garden Sensor 2", Zone: "Flower Bed", Status: models.SensorStatusOnline, Battery: 72},
			{ID: "sensor3", Name: "Garden Sensor 3", Zone: "Herb Garden", Status: models.SensorStatusOffline, Battery: 15},
			{ID: "sensor4", Name: "Indoor Sensor 1", Zone: "Indoor Plants", Status: models.SensorStatusOnline, Battery: 90},
		},
		Schedules: []models.WateringSchedule{
			{ID: "1", ZoneName: "Vegetable Garden", Frequency: "Daily", Time: "07:00 AM", Duration: "15 mins", Status: models.ScheduleStatusActive},
			{ID: "2", ZoneName: "Flower Bed", Frequency: "Every 2 days", Time: "06:30 AM", Duration: "10 mins", Status: models.ScheduleStatusActive},
			{ID: "3", ZoneName: "Herb Garden", Frequency: "Every 3 days", Time: "07:30 AM", Duration: "8 mins", Status: models.ScheduleStatusPaused},
			{ID: "4", ZoneName: "Indoor Plants", Frequency: "Weekly", Time: "09:00 AM", Duration: "5 mins", Status: models.ScheduleStatusActive},
		},
	}
}

// StaticRepository serves fixed tables handed in at construction, with an
// optional latency to mimic a remote round trip.
type StaticRepository struct {
	fixtures Fixtures
	latency  time.Duration
}

func NewStaticRepository(fixtures Fixtures, latency time.Duration) *StaticRepository {
	return &StaticRepository{fixtures: fixtures, latency: latency}
}

func (r *StaticRepository) wait(ctx context.Context, source Source) error {
	if r.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(r.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return NewRepositoryError(source, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (r *StaticRepository) ListZones(ctx context.Context) ([]models.Zone, error) {
	if err := r.wait(ctx, SourceZones); err != nil {
		return nil, err
	}
	zones := slices.Clone(r.fixtures.Zones)
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones, nil
}

func (r *StaticRepository) ListSensors(ctx context.Context) ([]models.Sensor, error) {
	if err := r.wait(ctx, SourceSensors); err != nil {
		return nil, err
	}
	return slices.Clone(r.fixtures.Sensors), nil
}

func (r *StaticRepository) ListSchedules(ctx context.Context) ([]models.WateringSchedule, error) {
	if err := r.wait(ctx, SourceSchedules); err != nil {
		return nil, err
	}
	return slices.Clone(r.fixtures.Schedules), nil
}
