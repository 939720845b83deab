/*
Package engine
File: engine.go
Description:
    The facade the host loop drives. Owns the ship hold, the per-location
    station stores, the exchange, the outfitting and shipyard markets, the
    refinery and the manufacturing bay. Tick advances the simulated clock
    (real elapsed time times the configured acceleration), polls the bay for
    a completed job and fluctuates every market once per crossed pulse
    boundary. All trade and industry operations are synchronous and atomic
    with respect to the caller.
*/

package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/everforgeworks/voidtrade-exchange/internal/cargo"
	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
	"github.com/everforgeworks/voidtrade-exchange/internal/industry"
	"github.com/everforgeworks/voidtrade-exchange/internal/market"
)

var (
	// ErrNoFacility means the location lacks the manufacturing service.
	ErrNoFacility = errors.New("no manufacturing facility at this location")
	// ErrNoStorage means the location offers no station storage.
	ErrNoStorage = errors.New("no storage at this location")
	// ErrUnknownLocation means the key is not on the map.
	ErrUnknownLocation = errors.New("unknown location")
)

// Engine is the production and market economy core.
type Engine struct {
	cat        *catalog.Catalog
	exchange   *market.Exchange
	modules    *market.Outfitting
	components *market.Outfitting
	shipyard   *market.Shipyard
	refinery   *industry.Refinery
	bay        *industry.Scheduler

	ship     *cargo.Ledger
	stations map[string]*cargo.Ledger

	simNow   float64
	lastReal time.Time
	running  bool
}

// New builds a fully seeded engine. The rng drives market seeding, price
// fluctuation, refining yields and shipyard stocking; inject a fixed-seed
// source for reproducible worlds.
func New(cat *catalog.Catalog, rng *rand.Rand, shipCargoCapacity float64) *Engine {
	return &Engine{
		cat:        cat,
		exchange:   market.NewExchange(cat, rng),
		modules:    market.NewModuleMarket(cat),
		components: market.NewComponentMarket(cat),
		shipyard:   market.NewShipyard(cat, rng),
		refinery:   industry.NewRefinery(cat, rng),
		bay:        industry.NewScheduler(cat),
		ship:       cargo.NewLedger(cat, shipCargoCapacity),
		stations:   make(map[string]*cargo.Ledger),
	}
}

// Catalog returns the immutable world definition.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Exchange returns the resource exchange for listings and route scouting.
func (e *Engine) Exchange() *market.Exchange { return e.exchange }

// Modules returns the module outfitting market.
func (e *Engine) Modules() *market.Outfitting { return e.modules }

// Components returns the component outfitting market.
func (e *Engine) Components() *market.Outfitting { return e.components }

// Shipyard returns the hull market.
func (e *Engine) Shipyard() *market.Shipyard { return e.shipyard }

// Bay returns the manufacturing scheduler.
func (e *Engine) Bay() *industry.Scheduler { return e.bay }

// Ship returns the mobile cargo ledger.
func (e *Engine) Ship() *cargo.Ledger { return e.ship }

// SimTime returns the current simulated clock in seconds.
func (e *Engine) SimTime() float64 { return e.simNow }

// Station returns the storage ledger at a location, creating it on first
// use. Locations without storage capacity report ErrNoStorage.
func (e *Engine) Station(locationKey string) (*cargo.Ledger, error) {
	if led, ok := e.stations[locationKey]; ok {
		return led, nil
	}
	loc, ok := e.cat.Location(locationKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, locationKey)
	}
	if loc.StorageCapacity <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoStorage, loc.Name)
	}
	led := cargo.NewLedger(e.cat, loc.StorageCapacity)
	e.stations[locationKey] = led
	return led, nil
}

// stationOrNil returns the station ledger when the location has storage,
// nil otherwise. Used where storage is optional (refining at a mothership).
func (e *Engine) stationOrNil(locationKey string) *cargo.Ledger {
	led, err := e.Station(locationKey)
	if err != nil {
		return nil
	}
	return led
}

// Delivery reports a completed job's hand-off into the ship hold. Stored is
// false when the hold had no room; the output is ready either way, and
// receipt is the hold's problem, not the bay's.
type Delivery struct {
	ItemKey  string           `json:"item_key"`
	ItemName string           `json:"item_name"`
	Quantity int              `json:"quantity"`
	Kind     catalog.ItemKind `json:"kind"`
	Stored   bool             `json:"stored"`
	Reason   string           `json:"reason,omitempty"`
}

// TickReport summarizes one host-loop tick.
type TickReport struct {
	SimTime     float64   `json:"sim_time"`
	Completed   *Delivery `json:"completed,omitempty"`
	MarketPulse bool      `json:"market_pulse"`
}

// Tick advances the simulated clock by the real delta times the configured
// acceleration, polls the bay once, and fluctuates every market exactly once
// when the clock crosses a pulse boundary. Completion is level-triggered, so
// a slow caller still observes a finished job on its next tick.
func (e *Engine) Tick(now time.Time) TickReport {
	if !e.running {
		e.lastReal = now
		e.running = true
	}

	accel := e.cat.Balance().TimeAcceleration
	if accel <= 0 {
		accel = 1
	}
	period := e.cat.Balance().PulsePeriod
	if period <= 0 {
		period = 600
	}

	prev := e.simNow
	delta := now.Sub(e.lastReal).Seconds()
	if delta > 0 {
		e.simNow += delta * accel
	}
	e.lastReal = now

	report := TickReport{SimTime: e.simNow}

	if done := e.bay.PollCompletion(e.simNow); done != nil {
		d := &Delivery{
			ItemKey:  done.ItemKey,
			ItemName: e.cat.DisplayName(done.ItemKey),
			Quantity: done.Quantity,
			Kind:     done.Kind,
			Stored:   true,
		}
		if err := e.ship.Add(done.ItemKey, done.Quantity); err != nil {
			d.Stored = false
			d.Reason = err.Error()
		}
		report.Completed = d
	}

	if int(e.simNow/period) > int(prev/period) {
		e.exchange.FluctuateAll()
		report.MarketPulse = true
	}

	return report
}

// BuyResource purchases from the location market into the ship hold. The
// hold's headroom is verified before the trade so the stock decrement and
// the cargo add commit together.
func (e *Engine) BuyResource(locationKey, resourceKey string, qty, credits int, tradeDiscount float64) (int, error) {
	m, err := e.exchange.At(locationKey)
	if err != nil {
		return 0, err
	}
	if e.ship.MaxAddable(resourceKey) < qty {
		free := e.ship.FreeVolume()
		return 0, fmt.Errorf("%w: %.1f volume free in hold", cargo.ErrInsufficientCapacity, free)
	}

	cost, err := m.Buy(resourceKey, qty, credits, tradeDiscount)
	if err != nil {
		return 0, err
	}
	if err := e.ship.Add(resourceKey, qty); err != nil {
		// Headroom was verified above; treat as a hard guard.
		return 0, err
	}
	return cost, nil
}

// SellResource sells from the ship hold to the location market.
func (e *Engine) SellResource(locationKey, resourceKey string, qty int, tradeBonus, taxReduction float64) (int, error) {
	m, err := e.exchange.At(locationKey)
	if err != nil {
		return 0, err
	}
	if have := e.ship.Quantity(resourceKey); have < qty {
		return 0, fmt.Errorf("%w: have %dx %s, need %d", cargo.ErrInsufficientQuantity, have, resourceKey, qty)
	}

	payment, err := m.Sell(resourceKey, qty, tradeBonus, taxReduction)
	if err != nil {
		return 0, err
	}
	if err := e.ship.Remove(resourceKey, qty); err != nil {
		return 0, err
	}
	return payment, nil
}

// Mine adds a mining yield to the ship hold, clamped to the remaining
// headroom rather than rejected. Returns the quantity actually stowed.
func (e *Engine) Mine(resourceKey string, yield int) (int, error) {
	if _, ok := e.cat.Resource(resourceKey); !ok {
		return 0, fmt.Errorf("%w: %q", cargo.ErrUnknownItem, resourceKey)
	}
	max := e.ship.MaxAddable(resourceKey)
	if max <= 0 {
		return 0, fmt.Errorf("%w: hold full (%.1f/%.1f)", cargo.ErrInsufficientCapacity,
			e.ship.UsedVolume(), e.ship.Capacity())
	}

	stowed := yield
	if stowed > max {
		stowed = max
	}
	if err := e.ship.Add(resourceKey, stowed); err != nil {
		return 0, err
	}
	return stowed, nil
}

// Refine runs a refining batch at a location, sourcing raw ore from the ship
// hold first and the station store second.
func (e *Engine) Refine(locationKey, rawKey string, qty int, vesselCanRefine bool) (industry.RefineResult, error) {
	loc, ok := e.cat.Location(locationKey)
	if !ok {
		return industry.RefineResult{}, fmt.Errorf("%w: %q", ErrUnknownLocation, locationKey)
	}
	return e.refinery.Refine(e.ship, e.stationOrNil(locationKey), loc, vesselCanRefine, rawKey, qty)
}

// TransferToStation moves cargo from the ship hold into station storage.
func (e *Engine) TransferToStation(locationKey, itemKey string, qty int) error {
	station, err := e.Station(locationKey)
	if err != nil {
		return err
	}
	return cargo.Transfer(e.ship, station, itemKey, qty)
}

// TransferToShip moves cargo from station storage into the ship hold.
func (e *Engine) TransferToShip(locationKey, itemKey string, qty int) error {
	station, err := e.Station(locationKey)
	if err != nil {
		return err
	}
	return cargo.Transfer(station, e.ship, itemKey, qty)
}

// StartJob accepts a manufacturing run at a location with the manufacturing
// service. Inputs come out of the ship hold immediately; nothing refunds
// them.
func (e *Engine) StartJob(locationKey, itemKey string, qty, playerLevel, manufacturingSkill, constructionSkill int, speedBonus float64) (*industry.Job, error) {
	loc, ok := e.cat.Location(locationKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, locationKey)
	}
	if !loc.HasService("manufacturing") {
		return nil, fmt.Errorf("%w: %s", ErrNoFacility, loc.Name)
	}
	return e.bay.StartJob(e.ship, itemKey, qty, e.simNow, playerLevel, manufacturingSkill, constructionSkill, speedBonus)
}

// CancelJob abandons the in-flight job, forfeiting its consumed inputs.
func (e *Engine) CancelJob() (*industry.Job, error) { return e.bay.Cancel() }

// JobProgress reports the in-flight job against the current simulated clock.
func (e *Engine) JobProgress() (industry.Progress, bool) { return e.bay.Progress(e.simNow) }

// BuyShip purchases a hull from the yard at a location.
func (e *Engine) BuyShip(locationKey, shipKey string, credits, level int, tradeDiscount float64) (int, error) {
	return e.shipyard.Purchase(locationKey, shipKey, credits, level, tradeDiscount)
}

// BuyModule purchases one finished module into the ship hold. The location
// must offer a market (legitimate or otherwise).
func (e *Engine) BuyModule(locationKey, moduleKey string, credits, level int, tradeDiscount float64) (int, error) {
	return e.buyOutfit(e.modules, locationKey, moduleKey, credits, level, tradeDiscount)
}

// BuyComponent purchases one ship component into the ship hold.
func (e *Engine) BuyComponent(locationKey, componentKey string, credits, level int, tradeDiscount float64) (int, error) {
	return e.buyOutfit(e.components, locationKey, componentKey, credits, level, tradeDiscount)
}

func (e *Engine) buyOutfit(o *market.Outfitting, locationKey, itemKey string, credits, level int, tradeDiscount float64) (int, error) {
	loc, ok := e.cat.Location(locationKey)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLocation, locationKey)
	}
	if !loc.HasService("market") && !loc.HasService("black_market") {
		return 0, fmt.Errorf("%w: %q", market.ErrNoMarket, locationKey)
	}
	if e.ship.MaxAddable(itemKey) < 1 {
		return 0, fmt.Errorf("%w: %.1f volume free in hold", cargo.ErrInsufficientCapacity, e.ship.FreeVolume())
	}

	cost, err := o.Purchase(itemKey, credits, level, tradeDiscount)
	if err != nil {
		return 0, err
	}
	if err := e.ship.Add(itemKey, 1); err != nil {
		return 0, err
	}
	return cost, nil
}

// SellModule sells one module out of the ship hold back to the station.
func (e *Engine) SellModule(moduleKey string, tradeBonus float64) (int, error) {
	return e.sellOutfit(e.modules, moduleKey, tradeBonus)
}

// SellComponent sells one component out of the ship hold.
func (e *Engine) SellComponent(componentKey string, tradeBonus float64) (int, error) {
	return e.sellOutfit(e.components, componentKey, tradeBonus)
}

func (e *Engine) sellOutfit(o *market.Outfitting, itemKey string, tradeBonus float64) (int, error) {
	if e.ship.Quantity(itemKey) < 1 {
		return 0, fmt.Errorf("%w: no %s in hold", cargo.ErrInsufficientQuantity, itemKey)
	}
	value, err := o.SellBack(itemKey, tradeBonus)
	if err != nil {
		return 0, err
	}
	if err := e.ship.Remove(itemKey, 1); err != nil {
		return 0, err
	}
	return value, nil
}

// SellShip sells a used hull back to any yard.
func (e *Engine) SellShip(shipKey string, tradeBonus float64) (int, error) {
	return e.shipyard.SellBack(shipKey, tradeBonus)
}
