/*
Package industry
File: scheduler_test.go
Description: Gate ordering, single-slot and completion tests for the bay.
*/

package industry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/voidtrade-exchange/internal/cargo"
)

func cannonInputs(t *testing.T, holdings *cargo.Ledger) {
	t.Helper()
	require.NoError(t, holdings.Add("energy_cell_t1", 2))
	require.NoError(t, holdings.Add("targeting_chip_t1", 1))
	require.NoError(t, holdings.Add("weapon_barrel", 1))
}

func TestStartJobReportsEveryShortfall(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)
	require.NoError(t, holdings.Add("energy_cell_t1", 1))

	_, err := s.StartJob(holdings, "pulse_cannon_t1", 1, 0, 10, 5, 5, 0)
	require.ErrorIs(t, err, ErrMissingInputs)

	var missing *MissingInputsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []Shortfall{
		{Key: "energy_cell_t1", Have: 1, Need: 2},
		{Key: "targeting_chip_t1", Have: 0, Need: 1},
		{Key: "weapon_barrel", Have: 0, Need: 1},
	}, missing.Missing)

	// A refused start never touches holdings.
	assert.Equal(t, map[string]int{"energy_cell_t1": 1}, holdings.Items())
	assert.Nil(t, s.Active())
}

func TestStartJobConsumesInputsUpFront(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)
	cannonInputs(t, holdings)
	require.NoError(t, holdings.Add("energy_cell_t1", 3))

	job, err := s.StartJob(holdings, "pulse_cannon_t1", 1, 50, 10, 5, 5, 0)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, "pulse_cannon_t1", job.ItemKey)
	assert.Equal(t, 180.0, job.Duration)
	assert.Equal(t, 50.0, job.StartedAt)

	// Only the recipe's inputs leave the ledger; the spares stay.
	assert.Equal(t, map[string]int{"energy_cell_t1": 3}, holdings.Items())
}

func TestStartJobScalesAndCapsDuration(t *testing.T) {
	cat := testCatalog(t)
	holdings := cargo.NewLedger(cat, 10000)

	// Quantity scales the base time linearly.
	s := NewScheduler(cat)
	cannonInputs(t, holdings)
	cannonInputs(t, holdings)
	job, err := s.StartJob(holdings, "pulse_cannon_t1", 2, 0, 10, 5, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 360.0, job.Duration)

	// A speed bonus past the cap only ever halves the build.
	s = NewScheduler(cat)
	cannonInputs(t, holdings)
	job, err = s.StartJob(holdings, "pulse_cannon_t1", 1, 0, 10, 5, 5, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 90.0, job.Duration)

	// Nothing finishes faster than the floor.
	s = NewScheduler(cat)
	require.NoError(t, holdings.Add("voltium", 5))
	job, err = s.StartJob(holdings, "energy_cell_t1", 1, 0, 10, 5, 5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 10.0, job.Duration)
}

func TestStartJobGates(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)

	_, err := s.StartJob(holdings, "pulse_cannon_t1", 0, 0, 10, 5, 5, 0)
	assert.ErrorIs(t, err, cargo.ErrInvalidQuantity)

	// Resources are traded and refined, never built.
	_, err = s.StartJob(holdings, "voltium", 1, 0, 10, 5, 5, 0)
	assert.ErrorIs(t, err, ErrNotManufacturable)

	_, err = s.StartJob(holdings, "aegis_shield_t1", 1, 0, 1, 5, 5, 0)
	assert.ErrorIs(t, err, ErrLevelTooLow)

	// The shield has no recipe at any level.
	_, err = s.StartJob(holdings, "aegis_shield_t1", 1, 0, 10, 5, 5, 0)
	assert.ErrorIs(t, err, ErrNoRecipe)

	// Hull builds gate on the construction track, not manufacturing.
	require.NoError(t, holdings.Add("energy_cell_t1", 8))
	_, err = s.StartJob(holdings, "scout_mk1", 1, 0, 10, 5, 2, 0)
	assert.ErrorIs(t, err, ErrSkillTooLow)

	job, err := s.StartJob(holdings, "scout_mk1", 1, 0, 10, 0, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, job.Duration)
}

func TestBayIsSingleSlot(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)
	cannonInputs(t, holdings)
	cannonInputs(t, holdings)

	_, err := s.StartJob(holdings, "pulse_cannon_t1", 1, 0, 10, 5, 5, 0)
	require.NoError(t, err)

	_, err = s.StartJob(holdings, "pulse_cannon_t1", 1, 0, 10, 5, 5, 0)
	require.ErrorIs(t, err, ErrBusy)

	// The refused second start must not have eaten its inputs.
	assert.Equal(t, map[string]int{
		"energy_cell_t1":    2,
		"targeting_chip_t1": 1,
		"weapon_barrel":     1,
	}, holdings.Items())
}

func TestPollCompletionIsLevelTriggeredAndOneShot(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)
	cannonInputs(t, holdings)

	_, err := s.StartJob(holdings, "pulse_cannon_t1", 1, 0, 10, 5, 5, 0)
	require.NoError(t, err)

	assert.Nil(t, s.PollCompletion(179.9))

	// A poll long after the deadline still observes the completion.
	done := s.PollCompletion(5000)
	require.NotNil(t, done)
	assert.Equal(t, "pulse_cannon_t1", done.ItemKey)
	assert.Equal(t, 1, done.Quantity)

	assert.Nil(t, s.PollCompletion(5000))
	assert.Nil(t, s.Active())
}

func TestCancelForfeitsInputs(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)
	cannonInputs(t, holdings)

	_, err := s.StartJob(holdings, "pulse_cannon_t1", 1, 0, 10, 5, 5, 0)
	require.NoError(t, err)

	cancelled, err := s.Cancel()
	require.NoError(t, err)
	assert.Equal(t, "pulse_cannon_t1", cancelled.ItemKey)

	// No refund, no late delivery.
	assert.Empty(t, holdings.Items())
	assert.Nil(t, s.PollCompletion(10000))

	_, err = s.Cancel()
	assert.ErrorIs(t, err, ErrNoJob)
}

func TestProgressReporting(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)
	cannonInputs(t, holdings)

	_, ok := s.Progress(0)
	assert.False(t, ok)

	_, err := s.StartJob(holdings, "pulse_cannon_t1", 1, 0, 10, 5, 5, 0)
	require.NoError(t, err)

	p, ok := s.Progress(90)
	require.True(t, ok)
	assert.Equal(t, "Pulse Cannon T1", p.ItemName)
	assert.InDelta(t, 50.0, p.Percent, 1e-9)
	assert.InDelta(t, 90.0, p.Remaining, 1e-9)

	p, ok = s.Progress(500)
	require.True(t, ok)
	assert.Equal(t, 100.0, p.Percent)
	assert.Equal(t, 0.0, p.Remaining)
}

func TestSchedulerSnapshotRestore(t *testing.T) {
	cat := testCatalog(t)
	s := NewScheduler(cat)
	holdings := cargo.NewLedger(cat, 1000)
	cannonInputs(t, holdings)

	assert.Nil(t, s.Snapshot())

	job, err := s.StartJob(holdings, "pulse_cannon_t1", 1, 25, 10, 5, 5, 0)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.NotNil(t, snap)

	fresh := NewScheduler(cat)
	fresh.Restore(snap)
	restored := fresh.Active()
	require.NotNil(t, restored)
	assert.Equal(t, job.ItemKey, restored.ItemKey)
	assert.Equal(t, job.Duration, restored.Duration)
	assert.Equal(t, job.StartedAt, restored.StartedAt)

	// An idle snapshot clears the slot.
	fresh.Restore(nil)
	assert.Nil(t, fresh.Active())
}
