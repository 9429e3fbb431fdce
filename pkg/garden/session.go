package garden

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

type Source string

const (
	SourceZones     Source = "zones"
	SourceSensors   Source = "sensors"
	SourceSchedules Source = "schedules"
	SourceTelemetry Source = "telemetry"
)

var repositorySources = []Source{SourceZones, SourceSensors, SourceSchedules}

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

const (
	MessageZonesFailed     = "Failed to load plant zones. Please try again."
	MessageSensorsFailed   = "Failed to load sensors. Please try again."
	MessageSchedulesFailed = "Failed to load watering schedules. Please try again."
	MessageTelemetryFailed = "Failed to load sensor data. Please try again."
	MessageTriggerFailed   = "Failed to generate sensor data. Please try again."
)

var loadFailureMessages = map[Source]string{
	SourceZones:     MessageZonesFailed,
	SourceSensors:   MessageSensorsFailed,
	SourceSchedules: MessageSchedulesFailed,
}

var (
	ErrEmptySensorID = errors.New("sensor id is empty")
	ErrUnknownSensor = errors.New("sensor not in the loaded sensor list")
	ErrSessionClosed = errors.New("session closed")
)

type SourceState struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message,omitempty"`
}

// Snapshot is a copy of a session's state; mutating it does not affect the
// session.
type Snapshot struct {
	ID             string                    `json:"id"`
	Phases         map[Source]SourceState    `json:"phases"`
	Zones          []models.Zone             `json:"zones"`
	Sensors        []models.Sensor           `json:"sensors"`
	Schedules      []models.WateringSchedule `json:"schedules"`
	Telemetry      []models.TelemetryPoint   `json:"telemetry"`
	SelectedSensor string                    `json:"selected_sensor,omitempty"`
	Timeframe      models.Timeframe          `json:"timeframe"`
}

type state struct {
	mounted bool
	phases  map[Source]SourceState
	// latest load per source; results carrying an older number are stale
	loadSeq    map[Source]uint64
	triggerSeq uint64

	zones     []models.Zone
	sensors   []models.Sensor
	schedules []models.WateringSchedule
	telemetry []models.TelemetryPoint

	selected  string
	timeframe models.Timeframe
}

func newState() state {
	phases := make(map[Source]SourceState, 4)
	for _, src := range append(slices.Clone(repositorySources), SourceTelemetry) {
		phases[src] = SourceState{Phase: PhaseIdle}
	}
	return state{
		phases:    phases,
		loadSeq:   make(map[Source]uint64, len(repositorySources)),
		timeframe: models.TimeframeDay,
	}
}

func (st *state) snapshot(id string) Snapshot {
	return Snapshot{
		ID:             id,
		Phases:         maps.Clone(st.phases),
		Zones:          slices.Clone(st.zones),
		Sensors:        slices.Clone(st.sensors),
		Schedules:      slices.Clone(st.schedules),
		Telemetry:      slices.Clone(st.telemetry),
		SelectedSensor: st.selected,
		Timeframe:      st.timeframe,
	}
}

// Session is the data controller behind one dashboard view. All state lives
// in a single goroutine that applies events one at a time; repository and
// trigger calls run elsewhere and report back through events.
type Session struct {
	ID string

	repository Repository
	bucketer   *Bucketer
	trigger    TriggerClient
	logger     *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan event
	done      chan struct{}
	closeOnce sync.Once

	st state
}

func newSession(id string, repository Repository, bucketer *Bucketer, trigger TriggerClient) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:         id,
		repository: repository,
		bucketer:   bucketer,
		trigger:    trigger,
		logger: common.GetLoggerWith(
			common.LoggerNameGardenCore,
			zap.String(common.LoggerFieldCategory, common.LoggerCategorySession),
			zap.String(common.LoggerFieldSessionID, id),
		),
		ctx:    ctx,
		cancel: cancel,
		events: make(chan event),
		done:   make(chan struct{}),
		st:     newState(),
	}
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			if s.ctx.Err() != nil {
				s.reject(ev)
				return
			}
			if apply, ok := transitions[ev.kind]; ok {
				apply(s, ev)
			}
		}
	}
}

func (s *Session) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Mount starts loading zones, sensors and schedules. Only the first call
// has an effect.
func (s *Session) Mount() {
	s.post(event{kind: eventMount})
}

// Reload issues the three repository loads again. Results of loads still in
// flight are discarded when they arrive.
func (s *Session) Reload() {
	s.post(event{kind: eventReload})
}

func (s *Session) SelectSensor(sensorID string) error {
	errc := make(chan error, 1)
	if !s.post(event{kind: eventSelectSensor, sensorID: sensorID, errc: errc}) {
		return ErrSessionClosed
	}
	return <-errc
}

func (s *Session) SetTimeframe(tf models.Timeframe) error {
	if tf.Points() == 0 {
		return ErrUnknownTimeframe
	}
	errc := make(chan error, 1)
	if !s.post(event{kind: eventSetTimeframe, timeframe: tf, errc: errc}) {
		return ErrSessionClosed
	}
	return <-errc
}

// TriggerGeneration asks the backend for new readings and waits for the
// answer. The outcome is only visible through the telemetry phase.
func (s *Session) TriggerGeneration(ctx context.Context) {
	seqc := make(chan uint64, 1)
	if !s.post(event{kind: eventTriggerStarted, seqc: seqc}) {
		return
	}
	seq := <-seqc
	if seq == 0 {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	var err error
	if s.trigger == nil {
		err = &TriggerError{Err: ErrTriggerNotConfigured}
	} else {
		err = s.trigger.Trigger(ctx)
	}

	s.post(event{kind: eventTriggerFinished, seq: seq, err: err})
}

func (s *Session) Snapshot() Snapshot {
	snapc := make(chan Snapshot, 1)
	if !s.post(event{kind: eventSnapshot, snapc: snapc}) {
		// the loop has exited, state is ours to read
		return s.st.snapshot(s.ID)
	}
	return <-snapc
}

// Close stops the session. Loads and triggers still in flight are cancelled
// and their results dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.logger.Info("Session closed")
	})
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) load(source Source, seq uint64) {
	ev := event{kind: eventLoaded, source: source, seq: seq}

	var err error
	switch {
	case s.repository == nil:
		err = ErrRepositoryNotConfigured
	case source == SourceZones:
		ev.zones, err = s.repository.ListZones(s.ctx)
	case source == SourceSensors:
		ev.sensors, err = s.repository.ListSensors(s.ctx)
	case source == SourceSchedules:
		ev.schedules, err = s.repository.ListSchedules(s.ctx)
	}

	if err != nil {
		ev.kind = eventLoadFailed
		ev.err = NewRepositoryError(source, err)
	}

	if !s.post(ev) {
		s.logger.Debug("Dropped load result after close", zap.String(common.LoggerFieldSource, string(source)))
	}
}

func (s *Session) setPhase(source Source, phase Phase, message string) {
	s.st.phases[source] = SourceState{Phase: phase, Message: message}
}

// regenerate replaces the telemetry series of the selected sensor. It runs
// inside the loop.
func (s *Session) regenerate() {
	var (
		points []models.TelemetryPoint
		err    error
	)
	if s.bucketer == nil {
		err = errors.New("bucketer not available")
	} else {
		points, err = s.bucketer.Generate(s.ctx, s.st.selected, s.st.timeframe)
	}

	if err != nil {
		s.st.telemetry = nil
		s.setPhase(SourceTelemetry, PhaseError, MessageTelemetryFailed)
		s.logger.Error("Failed to generate telemetry",
			zap.String("sensor_id", s.st.selected),
			zap.String("timeframe", string(s.st.timeframe)),
			zap.Error(err),
		)
		return
	}

	s.st.telemetry = points
	s.setPhase(SourceTelemetry, PhaseReady, "")
}
