package garden

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	_ "liyu1981.xyz/garden-telemetry-service/pkg/testing"
)

func TestRegistryOpenMountsSession(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, g, _, _, _ := GetMockGardenWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	registry := NewRegistry(g)
	defer registry.CloseAll()

	s := registry.Open()
	waitForPhases(t, s, PhaseReady, allSources...)

	got, err := registry.Get(s.ID)
	assert.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryClose(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, g, _, _, _ := GetMockGardenWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	registry := NewRegistry(g)

	s := registry.Open()
	waitForPhases(t, s, PhaseReady, allSources...)

	assert.NoError(t, registry.Close(s.ID))
	<-s.Done()

	_, err := registry.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, registry.Close(s.ID), ErrSessionNotFound)
}

func TestRegistryCloseAll(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, g, _, _, _ := GetMockGardenWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	registry := NewRegistry(g)
	first := registry.Open()
	second := registry.Open()
	assert.NotEqual(t, first.ID, second.ID)
	waitForPhases(t, first, PhaseReady, allSources...)
	waitForPhases(t, second, PhaseReady, allSources...)

	registry.CloseAll()

	assert.Equal(t, 0, registry.Len())
	<-first.Done()
	<-second.Done()
}

func TestRegistrySweepClosesIdleSessions(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, g, _, _, _ := GetMockGardenWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	clock := fixedNow
	registry := NewRegistry(g)
	registry.now = func() time.Time { return clock }
	defer registry.CloseAll()

	idle := registry.Open()
	busy := registry.Open()

	clock = clock.Add(20 * time.Minute)
	_, err := registry.Get(busy.ID)
	assert.NoError(t, err)

	clock = clock.Add(15 * time.Minute)
	assert.Equal(t, []string{idle.ID}, registry.Sweep(30*time.Minute))
	<-idle.Done()

	_, err = registry.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, registry.Len())
	assert.Empty(t, registry.Sweep(30*time.Minute))
}
