package garden

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

var (
	ErrNoSensorSelected = errors.New("no sensor selected")
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// TelemetrySource yields the value of one bucket (start, end] of a sensor's
// series. Implementations may synthesize values or read stored readings;
// the Bucketer guarantees shape and ordering either way.
type TelemetrySource interface {
	Sample(ctx context.Context, sensorID string, start, end time.Time) (models.Sample, error)
}

type Bucketer struct {
	Source   TelemetrySource
	Now      func() time.Time
	Location *time.Location
}

func NewBucketer(source TelemetrySource) *Bucketer {
	return &Bucketer{
		Source:   source,
		Now:      time.Now,
		Location: time.Local,
	}
}

// Generate builds the series for sensorID over tf, oldest bucket first and
// the bucket ending now last.
func (b *Bucketer) Generate(ctx context.Context, sensorID string, tf models.Timeframe) ([]models.TelemetryPoint, error) {
	if sensorID == "" {
		return nil, ErrNoSensorSelected
	}
	points := tf.Points()
	if points == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeframe, tf)
	}
	if b.Source == nil {
		return nil, errors.New("telemetry source not available")
	}

	step := tf.Step()
	now := b.now().In(b.location())

	series := make([]models.TelemetryPoint, 0, points)
	for i := points - 1; i >= 0; i-- {
		end := now.Add(-time.Duration(i) * step)
		sample, err := b.Source.Sample(ctx, sensorID, end.Add(-step), end)
		if err != nil {
			return nil, fmt.Errorf("sample %s bucket ending %s: %w", sensorID, end.Format(time.RFC3339), err)
		}
		series = append(series, models.TelemetryPoint{
			Time:         BucketLabel(end, tf),
			Temperature:  common.RoundTenth(sample.Temperature),
			Humidity:     common.RoundTenth(sample.Humidity),
			SoilMoisture: common.RoundTenth(sample.SoilMoisture),
			Samples:      sample.Count,
		})
	}

	common.GetLoggerWith(
		common.LoggerNameGardenCore,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryBucketer),
	).Debug("Generated telemetry series",
		zap.String("sensor_id", sensorID),
		zap.String("timeframe", string(tf)),
		zap.Int("points", len(series)),
	)

	return series, nil
}

// BucketLabel is "<hour>:00" for day series and "<month>/<day>" otherwise,
// both without leading zeros.
func BucketLabel(t time.Time, tf models.Timeframe) string {
	if tf == models.TimeframeDay {
		return strconv.Itoa(t.Hour()) + ":00"
	}
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

func (b *Bucketer) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b *Bucketer) location() *time.Location {
	if b.Location == nil {
		return time.Local
	}
	return b.Location
}
