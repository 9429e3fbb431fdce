package http

import (
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

type ZoneView struct {
	models.Zone
	Moisture garden.Classification `json:"moisture"`
}

type SensorView struct {
	models.Sensor
	BatteryStatus garden.Classification `json:"battery_status"`
}

// SessionView is the snapshot as the dashboard renders it, with the
// classification of every zone and sensor attached.
type SessionView struct {
	ID             string                               `json:"id"`
	Phases         map[garden.Source]garden.SourceState `json:"phases"`
	Zones          []ZoneView                           `json:"zones"`
	Sensors        []SensorView                         `json:"sensors"`
	Schedules      []models.WateringSchedule            `json:"schedules"`
	Telemetry      []models.TelemetryPoint              `json:"telemetry"`
	SelectedSensor string                               `json:"selected_sensor,omitempty"`
	Timeframe      models.Timeframe                     `json:"timeframe"`
}

func NewSessionView(snap garden.Snapshot) SessionView {
	return SessionView{
		ID:     snap.ID,
		Phases: snap.Phases,
		Zones: common.Mapper(snap.Zones, func(z models.Zone) ZoneView {
			return ZoneView{Zone: z, Moisture: garden.ClassifyMoisture(z.MoistureLevel)}
		}),
		Sensors: common.Mapper(snap.Sensors, func(s models.Sensor) SensorView {
			return SensorView{Sensor: s, BatteryStatus: garden.ClassifyBattery(s.Battery)}
		}),
		Schedules:      emptyIfNil(snap.Schedules),
		Telemetry:      emptyIfNil(snap.Telemetry),
		SelectedSensor: snap.SelectedSensor,
		Timeframe:      snap.Timeframe,
	}
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
