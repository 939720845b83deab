/*
Package engine
File: snapshot.go
Description:
    Serializable capture of the mutable economy state. The catalog is
    immutable and reloads from its source file, so only prices, stock,
    cargo, the yard inventory and the in-flight job travel in a save.
*/

package engine

import (
	"github.com/everforgeworks/voidtrade-exchange/internal/cargo"
	"github.com/everforgeworks/voidtrade-exchange/internal/industry"
	"github.com/everforgeworks/voidtrade-exchange/internal/market"
)

// Snapshot is the full mutable state of the engine.
type Snapshot struct {
	SimTime       float64                    `json:"sim_time"`
	Markets       map[string]market.Snapshot `json:"markets"`
	ShipyardStock map[string]map[string]int  `json:"shipyard_stock"`
	Job           *industry.JobSnapshot      `json:"job,omitempty"`
	ShipCargo     map[string]int             `json:"ship_cargo"`
	StationCargo  map[string]map[string]int  `json:"station_cargo"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	stations := make(map[string]map[string]int, len(e.stations))
	for key, led := range e.stations {
		stations[key] = led.Items()
	}
	return Snapshot{
		SimTime:       e.simNow,
		Markets:       e.exchange.Snapshot(),
		ShipyardStock: e.shipyard.Snapshot(),
		Job:           e.bay.Snapshot(),
		ShipCargo:     e.ship.Items(),
		StationCargo:  stations,
	}
}

// DroppedCargo records a saved cargo entry that could not be restored,
// because its item left the catalog, its location no longer exists, or
// the target ledger has less capacity than the save assumed.
type DroppedCargo struct {
	Location string `json:"location"`
	ItemKey  string `json:"item_key"`
	Quantity int    `json:"quantity"`
}

// Restore replaces the mutable state with a previously captured snapshot.
// Cargo entries that no longer fit the current universe are not restored;
// the save outlived the universe file, not the other way around. Every
// such entry comes back in the returned slice so the caller can report it.
func (e *Engine) Restore(s Snapshot) []DroppedCargo {
	e.simNow = s.SimTime
	e.running = false
	e.exchange.Restore(s.Markets)
	e.shipyard.Restore(s.ShipyardStock)
	e.bay.Restore(s.Job)

	dropped := restock("ship", e.ship, s.ShipCargo)
	for locKey, items := range s.StationCargo {
		led, err := e.Station(locKey)
		if err != nil {
			for key, qty := range items {
				dropped = append(dropped, DroppedCargo{Location: locKey, ItemKey: key, Quantity: qty})
			}
			continue
		}
		dropped = append(dropped, restock(locKey, led, items)...)
	}
	return dropped
}

func restock(location string, led *cargo.Ledger, items map[string]int) []DroppedCargo {
	for _, key := range led.Keys() {
		led.Remove(key, led.Quantity(key))
	}
	var dropped []DroppedCargo
	for key, qty := range items {
		if err := led.Add(key, qty); err != nil {
			dropped = append(dropped, DroppedCargo{Location: location, ItemKey: key, Quantity: qty})
		}
	}
	return dropped
}
