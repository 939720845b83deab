/*
Package cargo
File: ledger.go
Description:
    Volume-constrained item ledgers. One ledger is the mobile cargo hold, one
    exists per storage-capable location. Every mutating call enforces the
    capacity invariant up front: a rejected call leaves the ledger untouched,
    so callers never observe a transient violation.
*/

package cargo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

var (
	// ErrInsufficientCapacity means the add would breach the volume cap.
	ErrInsufficientCapacity = errors.New("insufficient cargo capacity")
	// ErrInsufficientQuantity means the ledger holds fewer units than asked.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	// ErrUnknownItem means the id is absent from every catalog table.
	// Unknown ids are rejected rather than treated as zero-volume.
	ErrUnknownItem = errors.New("unknown item")
	// ErrInvalidQuantity covers zero or negative amounts.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Ledger is a quantity-by-item mapping bounded by a volume capacity.
type Ledger struct {
	cat      *catalog.Catalog
	capacity float64
	items    map[string]int
}

// NewLedger creates an empty ledger with the given volume capacity.
func NewLedger(cat *catalog.Catalog, capacity float64) *Ledger {
	return &Ledger{
		cat:      cat,
		capacity: capacity,
		items:    make(map[string]int),
	}
}

// Capacity returns the ledger's volume cap.
func (l *Ledger) Capacity() float64 { return l.capacity }

// Quantity returns the held amount of an item, zero when absent.
func (l *Ledger) Quantity(key string) int { return l.items[key] }

// Items returns a copy of the holdings map.
func (l *Ledger) Items() map[string]int {
	out := make(map[string]int, len(l.items))
	for k, v := range l.items {
		out[k] = v
	}
	return out
}

// Keys returns held item ids in stable order.
func (l *Ledger) Keys() []string {
	keys := make([]string, 0, len(l.items))
	for k := range l.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UsedVolume sums quantity times declared unit volume over the holdings.
func (l *Ledger) UsedVolume() float64 {
	total := 0.0
	for key, qty := range l.items {
		vol, _ := l.cat.UnitVolume(key)
		total += float64(qty) * vol
	}
	return total
}

// FreeVolume is the remaining headroom under the cap.
func (l *Ledger) FreeVolume() float64 { return l.capacity - l.UsedVolume() }

// Add increments an item, failing with no side effects when the addition
// would breach capacity or the id is unknown to the catalog.
func (l *Ledger) Add(key string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	vol, known := l.cat.UnitVolume(key)
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownItem, key)
	}

	needed := float64(qty) * vol
	free := l.FreeVolume()
	if needed > free {
		return fmt.Errorf("%w: need %.1f volume, %.1f free", ErrInsufficientCapacity, needed, free)
	}

	l.items[key] += qty
	return nil
}

// Remove decrements an item, deleting the entry at zero.
func (l *Ledger) Remove(key string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	have := l.items[key]
	if have < qty {
		return fmt.Errorf("%w: have %dx %s, need %d", ErrInsufficientQuantity, have, key, qty)
	}

	if have == qty {
		delete(l.items, key)
	} else {
		l.items[key] = have - qty
	}
	return nil
}

// MaxAddable returns the largest quantity of an item that fits in the
// remaining headroom. Mining and looting clamp their yields with this
// instead of failing a full add. Zero-volume items report a sentinel
// "unbounded" value capped to a practical limit.
func (l *Ledger) MaxAddable(key string) int {
	vol, known := l.cat.UnitVolume(key)
	if !known {
		return 0
	}
	free := l.FreeVolume()
	if free <= 0 {
		return 0
	}
	if vol <= 0 {
		return math.MaxInt32
	}
	return int(free / vol)
}

// Draw reports how a multi-source removal was satisfied.
type Draw struct {
	Ship    int `json:"ship"`
	Station int `json:"station"`
}

// Total returns the combined drawn quantity.
func (d Draw) Total() int { return d.Ship + d.Station }

// DrawFrom removes qty units of an item from the ship ledger first, then the
// station ledger, returning the per-source breakdown. The station ledger may
// be nil when the location has no storage. Fails with no side effects when
// the combined holdings fall short.
func DrawFrom(ship, station *Ledger, key string, qty int) (Draw, error) {
	if qty <= 0 {
		return Draw{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}

	shipHas := ship.Quantity(key)
	stationHas := 0
	if station != nil {
		stationHas = station.Quantity(key)
	}
	if shipHas+stationHas < qty {
		return Draw{}, fmt.Errorf("%w: have %dx %s (ship %d, station %d), need %d",
			ErrInsufficientQuantity, shipHas+stationHas, key, shipHas, stationHas, qty)
	}

	d := Draw{Ship: qty}
	if shipHas < qty {
		d.Ship = shipHas
		d.Station = qty - shipHas
	}

	if d.Ship > 0 {
		if err := ship.Remove(key, d.Ship); err != nil {
			return Draw{}, err
		}
	}
	if d.Station > 0 {
		if err := station.Remove(key, d.Station); err != nil {
			// Reverse the ship-side removal; restoring into freed space cannot fail.
			ship.restore(key, d.Ship)
			return Draw{}, err
		}
	}
	return d, nil
}

// Transfer moves qty units between two ledgers, checking the destination's
// headroom before touching either side.
func Transfer(from, to *Ledger, key string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if from.Quantity(key) < qty {
		return fmt.Errorf("%w: have %dx %s, need %d", ErrInsufficientQuantity, from.Quantity(key), key, qty)
	}
	vol, known := to.cat.UnitVolume(key)
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownItem, key)
	}
	if needed := float64(qty) * vol; needed > to.FreeVolume() {
		return fmt.Errorf("%w: need %.1f volume, %.1f free", ErrInsufficientCapacity, needed, to.FreeVolume())
	}

	if err := from.Remove(key, qty); err != nil {
		return err
	}
	to.items[key] += qty
	return nil
}

// restore reinstates a quantity without a capacity check. Only used by
// transactional callers reversing their own removals.
func (l *Ledger) restore(key string, qty int) {
	if qty > 0 {
		l.items[key] += qty
	}
}
