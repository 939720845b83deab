/*
Package industry
File: scheduler.go
Description:
    The manufacturing bay. Holds at most one timed job: acceptance and start
    are the same transition, inputs are consumed up front, and completion is
    level-triggered: whenever the simulated clock reaches start + duration,
    the next poll reports the output exactly once and frees the slot.
    Cancelling forfeits the consumed inputs; that is the price of tearing
    down a half-built hull.
*/

package industry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/everforgeworks/voidtrade-exchange/internal/cargo"
	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

var (
	// ErrNotManufacturable means the id is not a component, module or ship.
	ErrNotManufacturable = errors.New("item cannot be manufactured")
	// ErrLevelTooLow means the pilot level is under the item's gate.
	ErrLevelTooLow = errors.New("pilot level too low")
	// ErrNoRecipe means no build recipe exists for the item.
	ErrNoRecipe = errors.New("no manufacturing recipe available")
	// ErrSkillTooLow means the relevant skill track is under the recipe gate.
	ErrSkillTooLow = errors.New("skill level too low")
	// ErrBusy means a job is already in flight; the bay is a single slot.
	ErrBusy = errors.New("already manufacturing, complete the current job first")
	// ErrNoJob means the bay is idle.
	ErrNoJob = errors.New("no active manufacturing job")
	// ErrMissingInputs wraps a per-input shortfall report.
	ErrMissingInputs = errors.New("missing inputs")
)

// Shortfall is one missing input line.
type Shortfall struct {
	Key  string `json:"key"`
	Have int    `json:"have"`
	Need int    `json:"need"`
}

// MissingInputsError reports the exact shortfall per recipe input.
type MissingInputsError struct {
	Missing []Shortfall
}

func (e *MissingInputsError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		parts[i] = fmt.Sprintf("%s: %d/%d", s.Key, s.Have, s.Need)
	}
	return "missing inputs: " + strings.Join(parts, ", ")
}

// Is lets errors.Is(err, ErrMissingInputs) match the detailed report.
func (e *MissingInputsError) Is(target error) bool { return target == ErrMissingInputs }

// Minimum job duration in simulated seconds, and the cap on how much of the
// build time a speed bonus can shave off.
const (
	minJobDuration = 10.0
	maxSpeedBonus  = 0.5
)

// Job is the single in-flight manufacturing run.
type Job struct {
	ID        uuid.UUID        `json:"id"`
	ItemKey   string           `json:"item_key"`
	Quantity  int              `json:"quantity"`
	Kind      catalog.ItemKind `json:"kind"`
	Duration  float64          `json:"duration"`   // simulated seconds
	StartedAt float64          `json:"started_at"` // simulated clock at acceptance
}

// Completion is the one-shot output report of a finished job.
type Completion struct {
	ItemKey  string           `json:"item_key"`
	Quantity int              `json:"quantity"`
	Kind     catalog.ItemKind `json:"kind"`
}

// Progress describes the in-flight job for status screens.
type Progress struct {
	ItemKey   string  `json:"item_key"`
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	Percent   float64 `json:"percent"`
	Remaining float64 `json:"remaining_seconds"`
}

// Scheduler owns the single manufacturing slot. A nil job means idle; the
// single-flight invariant is structural, not a convention over a list.
type Scheduler struct {
	cat *catalog.Catalog
	job *Job
}

// NewScheduler creates an idle scheduler bound to a catalog.
func NewScheduler(cat *catalog.Catalog) *Scheduler {
	return &Scheduler{cat: cat}
}

// Active returns the in-flight job, nil when idle.
func (s *Scheduler) Active() *Job { return s.job }

// StartJob validates every precondition in order (kind, level, recipe,
// skill track, input holdings, slot) and only then consumes the inputs and
// installs the job. Any failure leaves holdings byte-for-byte untouched.
// Ships gate on the construction skill; everything else on manufacturing.
func (s *Scheduler) StartJob(holdings *cargo.Ledger, itemKey string, qty int, now float64,
	playerLevel, manufacturingSkill, constructionSkill int, speedBonus float64) (*Job, error) {

	if qty <= 0 {
		return nil, fmt.Errorf("%w: %d", cargo.ErrInvalidQuantity, qty)
	}

	kind := s.cat.Kind(itemKey)
	switch kind {
	case catalog.KindComponent, catalog.KindModule, catalog.KindShip:
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotManufacturable, itemKey)
	}

	if req := s.cat.LevelRequirement(itemKey); playerLevel < req {
		return nil, fmt.Errorf("%w: requires level %d", ErrLevelTooLow, req)
	}

	recipe, ok := s.cat.RecipeFor(itemKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRecipe, s.cat.DisplayName(itemKey))
	}

	skill := manufacturingSkill
	if kind == catalog.KindShip {
		skill = constructionSkill
	}
	if skill < recipe.SkillReq {
		return nil, fmt.Errorf("%w: requires level %d, have %d", ErrSkillTooLow, recipe.SkillReq, skill)
	}

	if err := checkInputs(holdings, recipe, qty); err != nil {
		return nil, err
	}

	if s.job != nil {
		return nil, ErrBusy
	}

	// All gates passed: consume inputs now. They are spent whether or not
	// the job ever delivers.
	for key, perUnit := range recipe.Inputs() {
		if err := holdings.Remove(key, perUnit*qty); err != nil {
			// Unreachable after checkInputs; kept as a hard guard.
			return nil, err
		}
	}

	bonus := speedBonus
	if bonus > maxSpeedBonus {
		bonus = maxSpeedBonus
	}
	duration := recipe.Duration * float64(qty) * (1 - bonus)
	if duration < minJobDuration {
		duration = minJobDuration
	}

	s.job = &Job{
		ID:        uuid.New(),
		ItemKey:   itemKey,
		Quantity:  qty,
		Kind:      kind,
		Duration:  duration,
		StartedAt: now,
	}
	return s.job, nil
}

// checkInputs reports every shortfall against the recipe scaled by quantity.
func checkInputs(holdings *cargo.Ledger, recipe catalog.Recipe, qty int) error {
	var missing []Shortfall
	inputs := recipe.Inputs()

	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		need := inputs[key] * qty
		have := holdings.Quantity(key)
		if have < need {
			missing = append(missing, Shortfall{Key: key, Have: have, Need: need})
		}
	}
	if len(missing) > 0 {
		return &MissingInputsError{Missing: missing}
	}
	return nil
}

// PollCompletion returns the finished job's output exactly once when the
// simulated clock has reached start + duration, then frees the slot. The
// check is level-triggered: a late poll still observes the completion.
func (s *Scheduler) PollCompletion(now float64) *Completion {
	if s.job == nil || now-s.job.StartedAt < s.job.Duration {
		return nil
	}
	done := &Completion{
		ItemKey:  s.job.ItemKey,
		Quantity: s.job.Quantity,
		Kind:     s.job.Kind,
	}
	s.job = nil
	return done
}

// Progress reports the in-flight job's completion state.
func (s *Scheduler) Progress(now float64) (Progress, bool) {
	if s.job == nil {
		return Progress{}, false
	}
	elapsed := now - s.job.StartedAt
	pct := elapsed / s.job.Duration * 100
	if pct > 100 {
		pct = 100
	}
	remaining := s.job.Duration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return Progress{
		ItemKey:   s.job.ItemKey,
		ItemName:  s.cat.DisplayName(s.job.ItemKey),
		Quantity:  s.job.Quantity,
		Percent:   pct,
		Remaining: remaining,
	}, true
}

// Cancel abandons the in-flight job. Consumed inputs are not refunded.
func (s *Scheduler) Cancel() (*Job, error) {
	if s.job == nil {
		return nil, ErrNoJob
	}
	cancelled := s.job
	s.job = nil
	return cancelled, nil
}

// JobSnapshot captures the persisted fields of the in-flight job.
type JobSnapshot struct {
	ItemKey   string           `json:"item_key"`
	Quantity  int              `json:"quantity"`
	Kind      catalog.ItemKind `json:"kind"`
	Duration  float64          `json:"duration"`
	StartedAt float64          `json:"started_at"`
}

// Snapshot returns the in-flight job's fields, nil when idle.
func (s *Scheduler) Snapshot() *JobSnapshot {
	if s.job == nil {
		return nil
	}
	return &JobSnapshot{
		ItemKey:   s.job.ItemKey,
		Quantity:  s.job.Quantity,
		Kind:      s.job.Kind,
		Duration:  s.job.Duration,
		StartedAt: s.job.StartedAt,
	}
}

// Restore reinstates a saved job (or clears the slot for nil).
func (s *Scheduler) Restore(snap *JobSnapshot) {
	if snap == nil {
		s.job = nil
		return
	}
	s.job = &Job{
		ID:        uuid.New(),
		ItemKey:   snap.ItemKey,
		Quantity:  snap.Quantity,
		Kind:      snap.Kind,
		Duration:  snap.Duration,
		StartedAt: snap.StartedAt,
	}
}
