package models

import (
	"fmt"
	"time"
)

type SensorStatus string

const (
	SensorStatusOnline  SensorStatus = "online"
	SensorStatusOffline SensorStatus = "offline"
)

type ScheduleStatus string

const (
	ScheduleStatusActive ScheduleStatus = "active"
	ScheduleStatusPaused ScheduleStatus = "paused"
)

type Zone struct {
	ID            string  `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"uniqueIndex;not null" json:"name"`
	SoilType      string  `json:"soil_type"`
	MoistureLevel float64 `json:"moisture_level"`
}

type Sensor struct {
	ID      string       `gorm:"primaryKey" json:"id"`
	Name    string       `gorm:"not null" json:"name"`
	Zone    string       `json:"zone"`
	Status  SensorStatus `gorm:"type:varchar(10);check:status IN ('online','offline')" json:"status"`
	Battery float64      `json:"battery"`

	// insertion order, so the store hands sensors back in load order
	Seq uint `gorm:"index" json:"-"`
}

type WateringSchedule struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	ZoneName  string         `gorm:"index" json:"zone_name"`
	Frequency string         `json:"frequency"`
	Time      string         `json:"time"`
	Duration  string         `json:"duration"`
	Status    ScheduleStatus `gorm:"type:varchar(10);check:status IN ('active','paused')" json:"status"`

	Seq uint `gorm:"index" json:"-"`
}

// Reading is one raw telemetry message as received from a device.
type Reading struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SensorID     string    `gorm:"index:idx_reading_sensor_time" json:"sensor_id"`
	Timestamp    time.Time `gorm:"index:idx_reading_sensor_time" json:"timestamp"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	SoilMoisture float64   `json:"soil_moisture"`
}

// Sample is the value of one telemetry bucket. Count is the number of raw
// readings behind it, zero for synthesized values.
type Sample struct {
	Temperature  float64
	Humidity     float64
	SoilMoisture float64
	Count        int
}

type TelemetryPoint struct {
	Time         string  `json:"time"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	SoilMoisture float64 `json:"soil_moisture"`
	Samples      int     `json:"samples,omitempty"`
}

type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case TimeframeDay, TimeframeWeek, TimeframeMonth:
		return tf, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q, expected one of day, week, month", s)
	}
}

// Points is the fixed number of buckets in a series for the timeframe.
func (tf Timeframe) Points() int {
	switch tf {
	case TimeframeDay:
		return 24
	case TimeframeWeek:
		return 7
	case TimeframeMonth:
		return 30
	default:
		return 0
	}
}

func (tf Timeframe) Step() time.Duration {
	if tf == TimeframeDay {
		return time.Hour
	}
	return 24 * time.Hour
}
