/*
Package market
File: exchange.go
Description: Owns one Market per location with a market service and runs the
universe-wide operations: the periodic fluctuation pass and trade-route
scouting across all markets.
*/

package market

import (
	"fmt"
	"math/rand"

	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

// Exchange manages every location market in the universe.
type Exchange struct {
	cat     *catalog.Catalog
	markets map[string]*Market
}

// NewExchange seeds a market at every location offering the market service.
func NewExchange(cat *catalog.Catalog, rng *rand.Rand) *Exchange {
	e := &Exchange{
		cat:     cat,
		markets: make(map[string]*Market),
	}
	for _, key := range cat.LocationKeys() {
		loc, _ := cat.Location(key)
		if loc.HasService("market") {
			e.markets[key] = NewMarket(cat, loc, rng)
		}
	}
	return e
}

// At returns the market at a location, or ErrNoMarket.
func (e *Exchange) At(locationKey string) (*Market, error) {
	m, ok := e.markets[locationKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoMarket, locationKey)
	}
	return m, nil
}

// FluctuateAll advances every market by one fluctuation step.
func (e *Exchange) FluctuateAll() {
	for _, m := range e.markets {
		m.Fluctuate()
	}
}

// Route is the best buy/sell pairing found for one resource.
type Route struct {
	Resource      string `json:"resource"`
	BuyLocation   string `json:"buy_location"`
	BuyPrice      int    `json:"buy_price"`
	SellLocation  string `json:"sell_location"`
	SellPrice     int    `json:"sell_price"`
	ProfitPerUnit int    `json:"profit_per_unit"`
}

// BestRoute scans every market holding stock of the resource and pairs the
// cheapest buy with the dearest sell. Returns false when no market currently
// stocks it.
func (e *Exchange) BestRoute(resourceKey string) (Route, bool) {
	res, ok := e.cat.Resource(resourceKey)
	if !ok {
		return Route{}, false
	}

	found := false
	var best Route

	for _, locKey := range e.cat.LocationKeys() {
		m, exists := e.markets[locKey]
		if !exists || m.Stock(resourceKey) == 0 {
			continue
		}
		buy, err := m.QuoteBuy(resourceKey, 1, 0)
		if err != nil {
			continue
		}
		sell, err := m.QuoteSell(resourceKey, 1, 0, 0)
		if err != nil {
			continue
		}

		if !found {
			best = Route{
				Resource:     res.Name,
				BuyLocation:  locKey,
				BuyPrice:     int(buy),
				SellLocation: locKey,
				SellPrice:    int(sell),
			}
			found = true
			continue
		}
		if int(buy) < best.BuyPrice {
			best.BuyLocation = locKey
			best.BuyPrice = int(buy)
		}
		if int(sell) > best.SellPrice {
			best.SellLocation = locKey
			best.SellPrice = int(sell)
		}
	}

	if !found {
		return Route{}, false
	}
	best.ProfitPerUnit = best.SellPrice - best.BuyPrice
	return best, true
}

// Locations returns the keys of all tradable locations in stable order.
func (e *Exchange) Locations() []string {
	keys := make([]string, 0, len(e.markets))
	for _, k := range e.cat.LocationKeys() {
		if _, ok := e.markets[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Snapshot captures every market's dynamic state.
func (e *Exchange) Snapshot() map[string]Snapshot {
	out := make(map[string]Snapshot, len(e.markets))
	for k, m := range e.markets {
		out[k] = m.Snapshot()
	}
	return out
}

// Restore overwrites market state from a snapshot map. Locations absent from
// the snapshot keep their seeded state.
func (e *Exchange) Restore(snaps map[string]Snapshot) {
	for k, s := range snaps {
		if m, ok := e.markets[k]; ok {
			m.Restore(s)
		}
	}
}
