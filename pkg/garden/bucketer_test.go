package garden

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/db"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
	_ "liyu1981.xyz/garden-telemetry-service/pkg/testing"
)

func TestGeneratePointCounts(t *testing.T) {
	common.SetTestLoggerNop()

	b := &Bucketer{Source: NewSyntheticSource(7), Now: func() time.Time { return fixedNow }, Location: time.UTC}

	for tf, want := range map[models.Timeframe]int{
		models.TimeframeDay:   24,
		models.TimeframeWeek:  7,
		models.TimeframeMonth: 30,
	} {
		points, err := b.Generate(context.Background(), "sensor1", tf)
		assert.NoError(t, err)
		assert.Len(t, points, want, "timeframe %s", tf)
	}
}

func TestGenerateLabels(t *testing.T) {
	common.SetTestLoggerNop()

	b := &Bucketer{Source: NewSyntheticSource(7), Now: func() time.Time { return fixedNow }, Location: time.UTC}

	day, err := b.Generate(context.Background(), "sensor1", models.TimeframeDay)
	assert.NoError(t, err)
	assert.Equal(t, "13:00", day[0].Time)
	assert.Equal(t, "0:00", day[11].Time)
	assert.Equal(t, "12:00", day[23].Time)

	week, err := b.Generate(context.Background(), "sensor1", models.TimeframeWeek)
	assert.NoError(t, err)
	assert.Equal(t, "10/12", week[0].Time)
	assert.Equal(t, "10/18", week[6].Time)

	month, err := b.Generate(context.Background(), "sensor1", models.TimeframeMonth)
	assert.NoError(t, err)
	assert.Equal(t, "9/19", month[0].Time)
	assert.Equal(t, "10/18", month[29].Time)
}

func TestGenerateUsesLocation(t *testing.T) {
	common.SetTestLoggerNop()

	tokyo := time.FixedZone("JST", 9*60*60)
	b := &Bucketer{Source: NewSyntheticSource(7), Now: func() time.Time { return fixedNow }, Location: tokyo}

	day, err := b.Generate(context.Background(), "sensor1", models.TimeframeDay)
	assert.NoError(t, err)
	assert.Equal(t, "21:00", day[23].Time)
}

func TestGenerateSyntheticRanges(t *testing.T) {
	common.SetTestLoggerNop()

	b := NewBucketer(NewSyntheticSource(42))

	points, err := b.Generate(context.Background(), "sensor3", models.TimeframeMonth)
	assert.NoError(t, err)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Temperature, 15.0)
		assert.LessOrEqual(t, p.Temperature, 30.0)
		assert.GreaterOrEqual(t, p.Humidity, 40.0)
		assert.LessOrEqual(t, p.Humidity, 80.0)
		assert.GreaterOrEqual(t, p.SoilMoisture, 20.0)
		assert.LessOrEqual(t, p.SoilMoisture, 60.0)
		assert.Equal(t, common.RoundTenth(p.Temperature), p.Temperature)
		assert.Zero(t, p.Samples)
	}
}

func TestGenerateBucketsAreContiguous(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, g, _, mockSource, _ := GetMockGardenWithMemorySqliteDialector(t, false, true, false)
	defer ctrl.Finish()

	var ends []time.Time
	mockSource.EXPECT().
		Sample(gomock.Any(), "sensor2", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, start, end time.Time) (models.Sample, error) {
			assert.Equal(t, 24*time.Hour, end.Sub(start))
			ends = append(ends, end)
			return models.Sample{Temperature: 21.04, Humidity: 55.56, SoilMoisture: 33.333}, nil
		}).
		Times(7)

	points, err := g.Bucketer.Generate(context.Background(), "sensor2", models.TimeframeWeek)
	assert.NoError(t, err)
	assert.Len(t, points, 7)
	assert.True(t, ends[6].Equal(fixedNow))
	for i := 1; i < len(ends); i++ {
		assert.Equal(t, 24*time.Hour, ends[i].Sub(ends[i-1]))
	}
	assert.Equal(t, 21.0, points[0].Temperature)
	assert.Equal(t, 55.6, points[0].Humidity)
	assert.Equal(t, 33.3, points[0].SoilMoisture)
}

func TestGenerateSourceError(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, g, _, mockSource, _ := GetMockGardenWithMemorySqliteDialector(t, false, true, false)
	defer ctrl.Finish()

	boom := errors.New("boom")
	mockSource.EXPECT().Sample(gomock.Any(), "sensor1", gomock.Any(), gomock.Any()).Return(models.Sample{}, boom)

	points, err := g.Bucketer.Generate(context.Background(), "sensor1", models.TimeframeDay)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, points)
}

func TestGenerateRejectsMissingInput(t *testing.T) {
	common.SetTestLoggerNop()

	b := NewBucketer(NewSyntheticSource(1))

	_, err := b.Generate(context.Background(), "", models.TimeframeDay)
	assert.ErrorIs(t, err, ErrNoSensorSelected)

	_, err = b.Generate(context.Background(), "sensor1", models.Timeframe("year"))
	assert.ErrorIs(t, err, ErrUnknownTimeframe)

	_, err = (&Bucketer{}).Generate(context.Background(), "sensor1", models.TimeframeDay)
	assert.Error(t, err)
}

func TestStoredSourceAveragesReadings(t *testing.T) {
	common.SetTestLoggerNop()

	dbInstance := db.GetInstance(db.UseMemorySqliteDialector())
	sensorID := uuid.NewString()

	readings := []models.Reading{
		{SensorID: sensorID, Timestamp: fixedNow.Add(-30 * time.Minute), Temperature: 20, Humidity: 50, SoilMoisture: 30},
		{SensorID: sensorID, Timestamp: fixedNow.Add(-10 * time.Minute), Temperature: 22, Humidity: 60, SoilMoisture: 40},
		// on the boundary, belongs to the older bucket
		{SensorID: sensorID, Timestamp: fixedNow.Add(-2 * time.Hour), Temperature: 18, Humidity: 45, SoilMoisture: 25},
		{SensorID: uuid.NewString(), Timestamp: fixedNow.Add(-5 * time.Minute), Temperature: 99, Humidity: 99, SoilMoisture: 99},
	}
	assert.NoError(t, dbInstance.Conn.Create(&readings).Error)

	b := &Bucketer{Source: NewStoredSource(dbInstance), Now: func() time.Time { return fixedNow }, Location: time.UTC}
	points, err := b.Generate(context.Background(), sensorID, models.TimeframeDay)
	assert.NoError(t, err)
	assert.Len(t, points, 24)

	last := points[23]
	assert.Equal(t, 21.0, last.Temperature)
	assert.Equal(t, 55.0, last.Humidity)
	assert.Equal(t, 35.0, last.SoilMoisture)
	assert.Equal(t, 2, last.Samples)

	assert.Zero(t, points[22].Samples)
	assert.Equal(t, 1, points[21].Samples)
	assert.Equal(t, 18.0, points[21].Temperature)

	assert.Zero(t, points[0].Samples)
	assert.Zero(t, points[0].Temperature)
}
