package garden

import (
	"slices"

	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

type eventKind int

const (
	eventMount eventKind = iota + 1
	eventReload
	eventLoaded
	eventLoadFailed
	eventSelectSensor
	eventSetTimeframe
	eventTriggerStarted
	eventTriggerFinished
	eventSnapshot
)

type event struct {
	kind eventKind

	source    Source
	seq       uint64
	zones     []models.Zone
	sensors   []models.Sensor
	schedules []models.WateringSchedule
	err       error

	sensorID  string
	timeframe models.Timeframe

	errc  chan error
	seqc  chan uint64
	snapc chan Snapshot
}

type transition func(s *Session, ev event)

// transitions is the session's state machine: every event kind maps to the
// one action that applies it.
var transitions = map[eventKind]transition{
	eventMount:           (*Session).onMount,
	eventReload:          (*Session).onReload,
	eventLoaded:          (*Session).onLoaded,
	eventLoadFailed:      (*Session).onLoadFailed,
	eventSelectSensor:    (*Session).onSelectSensor,
	eventSetTimeframe:    (*Session).onSetTimeframe,
	eventTriggerStarted:  (*Session).onTriggerStarted,
	eventTriggerFinished: (*Session).onTriggerFinished,
	eventSnapshot:        (*Session).onSnapshot,
}

// reject answers an event that arrived after Close without touching state.
func (s *Session) reject(ev event) {
	if ev.errc != nil {
		ev.errc <- ErrSessionClosed
	}
	if ev.seqc != nil {
		ev.seqc <- 0
	}
	if ev.snapc != nil {
		ev.snapc <- s.st.snapshot(s.ID)
	}
}

func (s *Session) onMount(event) {
	if s.st.mounted {
		return
	}
	s.st.mounted = true
	s.logger.Info("Session mounted")
	s.startLoads()
}

func (s *Session) onReload(event) {
	s.st.mounted = true
	s.logger.Info("Session reloading")
	s.startLoads()
}

func (s *Session) startLoads() {
	for _, source := range repositorySources {
		s.st.loadSeq[source]++
		s.setPhase(source, PhaseLoading, "")
		go s.load(source, s.st.loadSeq[source])
	}
}

func (s *Session) stale(ev event) bool {
	if ev.seq == s.st.loadSeq[ev.source] {
		return false
	}
	s.logger.Debug("Discarded stale load result",
		zap.String(common.LoggerFieldSource, string(ev.source)),
		zap.Uint64("seq", ev.seq),
	)
	return true
}

func (s *Session) onLoaded(ev event) {
	if s.stale(ev) {
		return
	}

	switch ev.source {
	case SourceZones:
		s.st.zones = ev.zones
		s.logger.Info("Zones loaded", zap.Int("count", len(ev.zones)))
	case SourceSchedules:
		s.st.schedules = ev.schedules
		s.logger.Info("Schedules loaded", zap.Int("count", len(ev.schedules)))
	case SourceSensors:
		s.st.sensors = ev.sensors
		s.logger.Info("Sensors loaded", zap.Int("count", len(ev.sensors)))
	}
	s.setPhase(ev.source, PhaseReady, "")

	if ev.source == SourceSensors && s.st.selected == "" && len(s.st.sensors) > 0 {
		s.st.selected = s.st.sensors[0].ID
		s.logger.Info("Sensor auto-selected", zap.String("sensor_id", s.st.selected))
		s.regenerate()
	}
}

func (s *Session) onLoadFailed(ev event) {
	if s.stale(ev) {
		return
	}
	s.setPhase(ev.source, PhaseError, loadFailureMessages[ev.source])
	s.logger.Error("Load failed",
		zap.String(common.LoggerFieldSource, string(ev.source)),
		zap.Error(ev.err),
	)
}

func (s *Session) onSelectSensor(ev event) {
	if ev.sensorID == "" {
		ev.errc <- ErrEmptySensorID
		return
	}
	if s.st.phases[SourceSensors].Phase == PhaseReady &&
		!slices.ContainsFunc(s.st.sensors, func(sensor models.Sensor) bool { return sensor.ID == ev.sensorID }) {
		ev.errc <- ErrUnknownSensor
		return
	}

	s.st.selected = ev.sensorID
	s.logger.Info("Sensor selected", zap.String("sensor_id", ev.sensorID))
	s.regenerate()
	ev.errc <- nil
}

func (s *Session) onSetTimeframe(ev event) {
	s.st.timeframe = ev.timeframe
	s.logger.Info("Timeframe set", zap.String("timeframe", string(ev.timeframe)))
	if s.st.selected != "" {
		s.regenerate()
	}
	ev.errc <- nil
}

func (s *Session) onTriggerStarted(ev event) {
	s.st.triggerSeq++
	s.setPhase(SourceTelemetry, PhaseLoading, "")
	s.logger.Info("Telemetry generation requested")
	ev.seqc <- s.st.triggerSeq
}

func (s *Session) onTriggerFinished(ev event) {
	if ev.seq != s.st.triggerSeq {
		return
	}
	if ev.err != nil {
		s.setPhase(SourceTelemetry, PhaseError, MessageTriggerFailed)
		s.logger.Error("Telemetry generation failed", zap.Error(ev.err))
		return
	}
	s.setPhase(SourceTelemetry, PhaseReady, "")
	s.logger.Info("Telemetry generation accepted")
}

func (s *Session) onSnapshot(ev event) {
	ev.snapc <- s.st.snapshot(s.ID)
}
