package garden

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/garden-telemetry-service/pkg/db"
	"liyu1981.xyz/garden-telemetry-service/pkg/garden/mocks"
)

var fixedNow = time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)

func GetMockGardenWithMemorySqliteDialector(t *testing.T, useMockRepository, useMockSource, useMockTrigger bool) (
	*gomock.Controller,
	*Garden,
	*mocks.MockRepository,
	*mocks.MockTelemetrySource,
	*mocks.MockTriggerClient,
) {
	ctrl := gomock.NewController(t)

	mockRepository := mocks.NewMockRepository(ctrl)
	mockSource := mocks.NewMockTelemetrySource(ctrl)
	mockTrigger := mocks.NewMockTriggerClient(ctrl)
	dbInstance := db.GetInstance(db.UseMemorySqliteDialector())
	g := &Garden{Db: dbInstance}

	var repository Repository = NewStaticRepository(DefaultFixtures(), 0)
	if useMockRepository {
		repository = mockRepository
	}

	var source TelemetrySource = NewSyntheticSource(1)
	if useMockSource {
		source = mockSource
	}

	g.WithServices(ServiceOpts{
		Repository: repository,
		Source:     source,
	})
	g.Bucketer.Now = func() time.Time { return fixedNow }
	g.Bucketer.Location = time.UTC

	if useMockTrigger {
		g.WithServices(ServiceOpts{Trigger: mockTrigger})
	}

	return ctrl, g, mockRepository, mockSource, mockTrigger
}

// waitForPhases blocks until every listed source of s has reached phase.
func waitForPhases(t *testing.T, s *Session, phase Phase, sources ...Source) {
	t.Helper()
	assert.Eventually(t, func() bool {
		snap := s.Snapshot()
		for _, src := range sources {
			if snap.Phases[src].Phase != phase {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func ParseLogs(r io.Reader) []map[string]any {
	scanner := bufio.NewScanner(r)
	var logs []map[string]any

	for scanner.Scan() {
		var j map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
