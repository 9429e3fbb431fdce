package garden

import (
	"context"
	"database/sql"
	"math/rand"
	"sync"
	"time"

	"liyu1981.xyz/garden-telemetry-service/pkg/db"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

type valueRange struct {
	min, max float64
}

func (r valueRange) draw(rnd *rand.Rand) float64 {
	return r.min + rnd.Float64()*(r.max-r.min)
}

var (
	syntheticTemperature  = valueRange{min: 15, max: 30}
	syntheticHumidity     = valueRange{min: 40, max: 80}
	syntheticSoilMoisture = valueRange{min: 20, max: 60}
)

// SyntheticSource draws every bucket independently at random. It stands in
// for devices that have not reported anything yet.
type SyntheticSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSyntheticSource(seed int64) *SyntheticSource {
	return &SyntheticSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *SyntheticSource) Sample(_ context.Context, _ string, _, _ time.Time) (models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.Sample{
		Temperature:  syntheticTemperature.draw(s.rnd),
		Humidity:     syntheticHumidity.draw(s.rnd),
		SoilMoisture: syntheticSoilMoisture.draw(s.rnd),
	}, nil
}

// StoredSource averages the readings persisted by ingest.
type StoredSource struct {
	db *db.DB
}

func NewStoredSource(d *db.DB) *StoredSource {
	return &StoredSource{db: d}
}

func (s *StoredSource) Sample(ctx context.Context, sensorID string, start, end time.Time) (models.Sample, error) {
	var row struct {
		Temperature  sql.NullFloat64
		Humidity     sql.NullFloat64
		SoilMoisture sql.NullFloat64
		Count        int
	}

	// readings are stored in UTC, keep the string comparison in one zone
	err := s.db.Conn.WithContext(ctx).
		Model(&models.Reading{}).
		Select("AVG(temperature) AS temperature, AVG(humidity) AS humidity, AVG(soil_moisture) AS soil_moisture, COUNT(*) AS count").
		Where("sensor_id = ? AND timestamp > ? AND timestamp <= ?", sensorID, start.UTC(), end.UTC()).
		Scan(&row).Error
	if err != nil {
		return models.Sample{}, err
	}

	return models.Sample{
		Temperature:  row.Temperature.Float64,
		Humidity:     row.Humidity.Float64,
		SoilMoisture: row.SoilMoisture.Float64,
		Count:        row.Count,
	}, nil
}
