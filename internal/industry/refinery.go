/*
Package industry
File: refinery.go
Description:
    Converts raw ore into refined resources. Yield is a single random draw
    for the whole batch, ranged by ore rarity. Ore can be sourced from the
    ship hold and the station store together; the refined output is then
    split proportionally back to the two sources, and both sides' capacity
    headroom is verified before anything is committed. Either the whole
    batch refines or nothing moves.
*/

package industry

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/everforgeworks/voidtrade-exchange/internal/cargo"
	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

var (
	// ErrNoRefinery means neither the location nor the vessel can refine.
	ErrNoRefinery = errors.New("refining requires a refinery facility or a refinery-equipped vessel")
	// ErrNotRefinable means the id is not a raw resource with a refine target.
	ErrNotRefinable = errors.New("resource cannot be refined")
)

// Refinery runs refining batches against a catalog's yield table.
type Refinery struct {
	cat *catalog.Catalog
	rng *rand.Rand
}

// NewRefinery creates a refinery bound to a catalog and a random source.
func NewRefinery(cat *catalog.Catalog, rng *rand.Rand) *Refinery {
	return &Refinery{cat: cat, rng: rng}
}

// RefineResult reports how one batch resolved.
type RefineResult struct {
	RawKey         string  `json:"raw_key"`
	RefinedKey     string  `json:"refined_key"`
	RawUsed        int     `json:"raw_used"`
	Refined        int     `json:"refined"`
	YieldPercent   float64 `json:"yield_percent"`
	ShipRaw        int     `json:"ship_raw"`
	StationRaw     int     `json:"station_raw"`
	ShipRefined    int     `json:"ship_refined"`
	StationRefined int     `json:"station_refined"`
}

// Refine converts qty units of raw ore drawn from the ship hold first, then
// the station store. The batch rolls one yield percentage; output never
// floors to zero. All capacity checks run before any ledger mutation, and a
// commit failure on either side reverses whatever already applied.
func (r *Refinery) Refine(ship, station *cargo.Ledger, loc catalog.Location, vesselCanRefine bool, rawKey string, qty int) (RefineResult, error) {
	if qty <= 0 {
		return RefineResult{}, fmt.Errorf("%w: %d", cargo.ErrInvalidQuantity, qty)
	}
	if !loc.HasService("refinery") && !vesselCanRefine {
		return RefineResult{}, ErrNoRefinery
	}

	raw, ok := r.cat.Resource(rawKey)
	if !ok || raw.RefinesTo == "" {
		return RefineResult{}, fmt.Errorf("%w: %q", ErrNotRefinable, rawKey)
	}
	refined, _ := r.cat.Resource(raw.RefinesTo)

	shipHas := ship.Quantity(rawKey)
	stationHas := 0
	if station != nil {
		stationHas = station.Quantity(rawKey)
	}
	if shipHas+stationHas < qty {
		return RefineResult{}, fmt.Errorf("%w: have %dx %s (ship %d, station %d), need %d",
			cargo.ErrInsufficientQuantity, shipHas+stationHas, raw.Name, shipHas, stationHas, qty)
	}

	// One yield roll for the whole batch.
	minYield, maxYield := catalog.YieldRange(raw.Rarity)
	yieldPct := minYield + r.rng.Float64()*(maxYield-minYield)
	totalRefined := int(float64(qty) * yieldPct)
	if totalRefined < 1 {
		totalRefined = 1
	}

	// Predict the ship-first split the draw below will make, so the
	// headroom checks can run before anything moves. When both sides
	// contribute, the ship share of the output floors at one and the
	// station takes the remainder.
	shipRaw := qty
	if shipHas < qty {
		shipRaw = shipHas
	}
	stationRaw := qty - shipRaw

	var shipRefined, stationRefined int
	switch {
	case shipRaw > 0 && stationRaw > 0:
		shipRefined = int(math.Floor(float64(totalRefined) * float64(shipRaw) / float64(qty)))
		if shipRefined < 1 {
			shipRefined = 1
		}
		stationRefined = totalRefined - shipRefined
	case shipRaw > 0:
		shipRefined = totalRefined
	default:
		stationRefined = totalRefined
	}

	// Headroom checks on both sides before any mutation. The net change is
	// refined volume in minus raw volume out.
	if shipRefined > 0 {
		net := float64(shipRefined)*refined.Volume - float64(shipRaw)*raw.Volume
		if net > ship.FreeVolume() {
			return RefineResult{}, fmt.Errorf("%w: refining would exceed ship hold by %.1f",
				cargo.ErrInsufficientCapacity, net-ship.FreeVolume())
		}
	}
	if stationRefined > 0 {
		net := float64(stationRefined)*refined.Volume - float64(stationRaw)*raw.Volume
		if station == nil {
			return RefineResult{}, fmt.Errorf("%w: no station storage at %s", cargo.ErrInsufficientCapacity, loc.Name)
		}
		if net > station.FreeVolume() {
			return RefineResult{}, fmt.Errorf("%w: refining would exceed station storage by %.1f",
				cargo.ErrInsufficientCapacity, net-station.FreeVolume())
		}
	}

	// Commit. The multi-source draw removes the raw ore ship-side first;
	// each add reverses everything already applied on failure so a caller
	// never observes partial application.
	draw, err := cargo.DrawFrom(ship, station, rawKey, qty)
	if err != nil {
		return RefineResult{}, err
	}
	if shipRefined > 0 {
		if err := ship.Add(raw.RefinesTo, shipRefined); err != nil {
			rollbackAdd(ship, rawKey, draw.Ship)
			rollbackAdd(station, rawKey, draw.Station)
			return RefineResult{}, err
		}
	}
	if stationRefined > 0 {
		if err := station.Add(raw.RefinesTo, stationRefined); err != nil {
			if shipRefined > 0 {
				_ = ship.Remove(raw.RefinesTo, shipRefined)
			}
			rollbackAdd(ship, rawKey, draw.Ship)
			rollbackAdd(station, rawKey, draw.Station)
			return RefineResult{}, err
		}
	}

	return RefineResult{
		RawKey:         rawKey,
		RefinedKey:     raw.RefinesTo,
		RawUsed:        qty,
		Refined:        totalRefined,
		YieldPercent:   yieldPct * 100,
		ShipRaw:        draw.Ship,
		StationRaw:     draw.Station,
		ShipRefined:    shipRefined,
		StationRefined: stationRefined,
	}, nil
}

// rollbackAdd reinstates a removed quantity. Restoring into space the same
// removal freed cannot fail a capacity check.
func rollbackAdd(l *cargo.Ledger, key string, qty int) {
	if l == nil || qty <= 0 {
		return
	}
	_ = l.Add(key, qty)
}
