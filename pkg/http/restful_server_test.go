package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/garden-telemetry-service/pkg/garden/mocks"
	_ "liyu1981.xyz/garden-telemetry-service/pkg/testing"

	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/db"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

func setupTestServer(t *testing.T, opts garden.ServiceOpts) *RestfulServer {
	g := &garden.Garden{
		Db: db.GetInstance(db.UseMemorySqliteDialector()),
	}
	if opts.Repository == nil {
		opts.Repository = garden.NewStaticRepository(garden.DefaultFixtures(), 0)
	}
	if opts.Source == nil {
		opts.Source = garden.NewSyntheticSource(1)
	}
	g.WithServices(opts)

	registry := garden.NewRegistry(g)
	t.Cleanup(registry.CloseAll)

	rs := &RestfulServer{
		Server:   gin.Default(),
		Registry: registry,
		// default we use no limiter, if need, later assign it rs.RateLimiterStore = garden.NewRateLimiterStore(...)
	}

	rs.Setup()

	return rs
}

func doJSON(rs *RestfulServer, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.Server.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) SessionView {
	t.Helper()
	var view SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func createSession(t *testing.T, rs *RestfulServer) SessionView {
	t.Helper()
	w := doJSON(rs, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeView(t, w)
}

// waitForView polls the session until ready reports true.
func waitForView(t *testing.T, rs *RestfulServer, id string, ready func(SessionView) bool) SessionView {
	t.Helper()
	var view SessionView
	require.Eventually(t, func() bool {
		w := doJSON(rs, http.MethodGet, "/sessions/"+id, nil)
		if w.Code != http.StatusOK {
			return false
		}
		view = decodeView(t, w)
		return ready(view)
	}, 2*time.Second, 10*time.Millisecond)
	return view
}

func allReady(view SessionView) bool {
	for _, src := range []garden.Source{garden.SourceZones, garden.SourceSensors, garden.SourceSchedules, garden.SourceTelemetry} {
		if view.Phases[src].Phase != garden.PhaseReady {
			return false
		}
	}
	return true
}

func TestHealthCheck(t *testing.T) {
	rs := setupTestServer(t, garden.ServiceOpts{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	rs.Server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateSessionLoadsDashboard(t *testing.T) {
	common.SetTestLoggerNop()

	rs := setupTestServer(t, garden.ServiceOpts{})

	created := createSession(t, rs)
	assert.NotEmpty(t, created.ID)

	view := waitForView(t, rs, created.ID, allReady)
	assert.Equal(t, "sensor1", view.SelectedSensor)
	assert.Equal(t, models.TimeframeDay, view.Timeframe)
	assert.Len(t, view.Telemetry, 24)

	require.Len(t, view.Zones, 4)
	assert.Equal(t, "Flower Bed", view.Zones[0].Name)
	assert.Equal(t, garden.TierMedium, view.Zones[0].Moisture.Tier)
	assert.Equal(t, "Herb Garden", view.Zones[1].Name)
	assert.Equal(t, garden.TierLow, view.Zones[1].Moisture.Tier)

	require.Len(t, view.Sensors, 4)
	assert.Equal(t, garden.TierHealthy, view.Sensors[0].BatteryStatus.Tier)
	assert.Equal(t, garden.TierCritical, view.Sensors[2].BatteryStatus.Tier)
}

func TestSelectSensorAndTimeframe(t *testing.T) {
	common.SetTestLoggerNop()

	rs := setupTestServer(t, garden.ServiceOpts{})
	id := createSession(t, rs).ID
	waitForView(t, rs, id, allReady)

	w := doJSON(rs, http.MethodPost, "/sessions/"+id+"/sensor", map[string]string{"sensor": "sensor2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sensor2", decodeView(t, w).SelectedSensor)

	w = doJSON(rs, http.MethodPost, "/sessions/"+id+"/timeframe", map[string]string{"timeframe": "week"})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	assert.Equal(t, models.TimeframeWeek, view.Timeframe)
	assert.Len(t, view.Telemetry, 7)

	w = doJSON(rs, http.MethodPost, "/sessions/"+id+"/timeframe", map[string]string{"timeframe": "month"})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, w)
	assert.Len(t, view.Telemetry, 30)
	assert.Equal(t, "sensor2", view.SelectedSensor)
}

func TestSelectSensorValidation(t *testing.T) {
	common.SetTestLoggerNop()

	rs := setupTestServer(t, garden.ServiceOpts{})
	id := createSession(t, rs).ID
	waitForView(t, rs, id, allReady)

	w := doJSON(rs, http.MethodPost, "/sessions/"+id+"/sensor", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(rs, http.MethodPost, "/sessions/"+id+"/sensor", map[string]string{"sensor": "sensor42"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(rs, http.MethodPost, "/sessions/"+id+"/timeframe", map[string]string{"timeframe": "year"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(rs, http.MethodPost, "/sessions/"+id+"/timeframe", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownSession(t *testing.T) {
	common.SetTestLoggerNop()

	rs := setupTestServer(t, garden.ServiceOpts{})

	assert.Equal(t, http.StatusNotFound, doJSON(rs, http.MethodGet, "/sessions/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(rs, http.MethodPost, "/sessions/nope/sensor", map[string]string{"sensor": "sensor1"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(rs, http.MethodPost, "/sessions/nope/trigger", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(rs, http.MethodDelete, "/sessions/nope", nil).Code)
}

func TestDeleteSession(t *testing.T) {
	common.SetTestLoggerNop()

	rs := setupTestServer(t, garden.ServiceOpts{})
	id := createSession(t, rs).ID
	waitForView(t, rs, id, allReady)

	assert.Equal(t, http.StatusNoContent, doJSON(rs, http.MethodDelete, "/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(rs, http.MethodGet, "/sessions/"+id, nil).Code)
	assert.Equal(t, 0, rs.Registry.Len())
}

func TestIdleSessionsAreSwept(t *testing.T) {
	common.SetTestLoggerNop()

	rs := setupTestServer(t, garden.ServiceOpts{})
	rs.RateLimiterStore = garden.NewRateLimiterStore(1, 1)
	id := createSession(t, rs).ID
	waitForView(t, rs, id, allReady)
	rs.GetLimiter(id)
	require.Equal(t, 1, rs.RateLimiterStore.Len())

	time.Sleep(20 * time.Millisecond)
	rs.sweepIdleSessions(10 * time.Millisecond)

	assert.Equal(t, http.StatusNotFound, doJSON(rs, http.MethodGet, "/sessions/"+id, nil).Code)
	assert.Equal(t, 0, rs.Registry.Len())
	assert.Equal(t, 0, rs.RateLimiterStore.Len())
}

func TestSensorsFailureShowsInPhases(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fixtures := garden.DefaultFixtures()
	mockRepository := mocks.NewMockRepository(ctrl)
	mockRepository.EXPECT().ListZones(gomock.Any()).Return(fixtures.Zones, nil)
	mockRepository.EXPECT().ListSchedules(gomock.Any()).Return(fixtures.Schedules, nil)
	mockRepository.EXPECT().ListSensors(gomock.Any()).Return(nil, errors.New("timeout"))

	rs := setupTestServer(t, garden.ServiceOpts{Repository: mockRepository})
	id := createSession(t, rs).ID

	view := waitForView(t, rs, id, func(v SessionView) bool {
		return v.Phases[garden.SourceSensors].Phase == garden.PhaseError &&
			v.Phases[garden.SourceZones].Phase == garden.PhaseReady &&
			v.Phases[garden.SourceSchedules].Phase == garden.PhaseReady
	})
	assert.Equal(t, garden.MessageSensorsFailed, view.Phases[garden.SourceSensors].Message)
	assert.Empty(t, view.Sensors)
	assert.Empty(t, view.Telemetry)
	assert.Empty(t, view.SelectedSensor)
}

func TestTriggerGeneration(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTrigger := mocks.NewMockTriggerClient(ctrl)
	gomock.InOrder(
		mockTrigger.EXPECT().Trigger(gomock.Any()).Return(nil),
		mockTrigger.EXPECT().Trigger(gomock.Any()).Return(&garden.TriggerError{StatusCode: http.StatusUnauthorized, Message: "invalid JWT"}),
	)

	rs := setupTestServer(t, garden.ServiceOpts{Trigger: mockTrigger})
	id := createSession(t, rs).ID
	before := waitForView(t, rs, id, allReady)

	w := doJSON(rs, http.MethodPost, "/sessions/"+id+"/trigger", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, garden.PhaseReady, decodeView(t, w).Phases[garden.SourceTelemetry].Phase)

	w = doJSON(rs, http.MethodPost, "/sessions/"+id+"/trigger", nil)
	require.Equal(t, http.StatusOK, w.Code)
	after := decodeView(t, w)
	assert.Equal(t, garden.PhaseError, after.Phases[garden.SourceTelemetry].Phase)
	assert.Equal(t, garden.MessageTriggerFailed, after.Phases[garden.SourceTelemetry].Message)
	assert.Equal(t, before.SelectedSensor, after.SelectedSensor)
	assert.Equal(t, before.Telemetry, after.Telemetry)
}

func TestTriggerRateLimited(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTrigger := mocks.NewMockTriggerClient(ctrl)
	mockTrigger.EXPECT().Trigger(gomock.Any()).Return(nil).Times(1)

	rs := setupTestServer(t, garden.ServiceOpts{Trigger: mockTrigger})
	rs.RateLimiterStore = garden.NewRateLimiterStore(0.001, 1)

	id := createSession(t, rs).ID

	assert.Equal(t, http.StatusOK, doJSON(rs, http.MethodPost, "/sessions/"+id+"/trigger", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(rs, http.MethodPost, "/sessions/"+id+"/trigger", nil).Code)

	// limits are per session
	other := createSession(t, rs).ID
	rs.RateLimiterStore.SetLimiter(other, 0.001, 0)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(rs, http.MethodPost, "/sessions/"+other+"/trigger", nil).Code)

	waitForView(t, rs, id, func(v SessionView) bool { return v.Phases[garden.SourceSensors].Phase == garden.PhaseReady })
	assert.Equal(t, http.StatusNoContent, doJSON(rs, http.MethodDelete, "/sessions/"+id, nil).Code)
	assert.Equal(t, 1, rs.RateLimiterStore.Len())
}

func TestClassify(t *testing.T) {
	rs := setupTestServer(t, garden.ServiceOpts{})

	w := doJSON(rs, http.MethodGet, "/classify?kind=moisture&level=35", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tier":"medium","label":"Medium"}`, w.Body.String())

	w = doJSON(rs, http.MethodGet, "/classify?kind=battery&level=15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tier":"critical","label":"Critical"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, doJSON(rs, http.MethodGet, "/classify?kind=ph&level=7", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(rs, http.MethodGet, "/classify?kind=battery&level=full", nil).Code)
	for _, level := range []string{"NaN", "Inf", "-Inf"} {
		assert.Equal(t, http.StatusBadRequest, doJSON(rs, http.MethodGet, "/classify?kind=moisture&level="+level, nil).Code, level)
	}
}
