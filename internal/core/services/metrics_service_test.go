package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camwall/internal/core/domain"
)

func TestMetricsSnapshotCoversAllPositions(t *testing.T) {
	m := NewMetricsService()

	feeds, focuses, uptime := m.Snapshot()
	require.Len(t, feeds, domain.MaxPositions)
	assert.Zero(t, focuses)
	assert.GreaterOrEqual(t, uptime, time.Duration(0))
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetricsService()

	m.IncrementDrops(1)
	m.IncrementDrops(1)
	m.IncrementRestarts(1)
	m.IncrementSwitches(2)
	m.IncrementPTZCommands(2)
	m.RecordProbeLatency(1, 3*time.Millisecond)
	m.IncrementFocuses()

	feeds, focuses, _ := m.Snapshot()

	assert.Equal(t, int64(2), feeds[1].Drops)
	assert.Equal(t, int64(1), feeds[1].Restarts)
	assert.Equal(t, 3*time.Millisecond, feeds[1].LastProbe)
	assert.Equal(t, int64(1), feeds[2].QualitySwitches)
	assert.Equal(t, int64(1), feeds[2].PTZCommands)
	assert.Equal(t, int64(1), focuses)

	// Untouched positions stay zeroed.
	assert.Zero(t, feeds[0].Drops)
	assert.Zero(t, feeds[3].Drops)
}
