/*
Package market
File: shipyard.go
Description:
    The one market with true scarcity. Every shipyard location is stocked at
    world init by weighted random sampling biased toward low-tier hulls; a
    purchase decrements the berth count and a sold-out hull disappears from
    the yard until the next universe reset.
*/

package market

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

// ErrOutOfStock means the yard holds no berths for the requested hull.
var ErrOutOfStock = errors.New("ship not in stock at this location")

// Shipyard pricing. Hull cost sums component manufacturing costs through the
// component cost multiplier, then applies the yard markup; hulls without a
// recipe fall back to their flat base cost times the markup.
const (
	shipMarkup      = 2.5
	shipBuybackRate = 0.70
)

// tierWeights biases stocking toward low tiers, roughly halving per tier.
var tierWeights = map[int]int{1: 4, 2: 2, 3: 1}

// Shipyard holds the finite per-location hull stock.
type Shipyard struct {
	cat   *catalog.Catalog
	stock map[string]map[string]int // location -> hull -> berths
}

// NewShipyard seeds hull stock at every location with the shipyard service.
func NewShipyard(cat *catalog.Catalog, rng *rand.Rand) *Shipyard {
	y := &Shipyard{
		cat:   cat,
		stock: make(map[string]map[string]int),
	}
	for _, locKey := range cat.LocationKeys() {
		loc, _ := cat.Location(locKey)
		if loc.HasService("shipyard") {
			y.stock[locKey] = y.rollInventory(rng)
		}
	}
	return y
}

// rollInventory draws a weighted sample of hull types and assigns berth
// counts that thin out toward higher tiers.
func (y *Shipyard) rollInventory(rng *rand.Rand) map[string]int {
	// Weighted bag: each hull appears tierWeight times.
	var bag []string
	for _, key := range y.cat.ShipKeys() {
		ship, _ := y.cat.Ship(key)
		weight := tierWeights[ship.Tier]
		if weight == 0 {
			weight = 1
		}
		for i := 0; i < weight; i++ {
			bag = append(bag, key)
		}
	}

	inventory := make(map[string]int)
	if len(bag) == 0 {
		return inventory
	}

	// Stock 3-6 distinct hull types per yard.
	wantTypes := 3 + rng.Intn(4)
	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })

	for _, key := range bag {
		if len(inventory) >= wantTypes {
			break
		}
		if _, picked := inventory[key]; picked {
			continue
		}
		ship, _ := y.cat.Ship(key)
		switch {
		case ship.Tier <= 1:
			inventory[key] = 3 + rng.Intn(4) // 3-6
		case ship.Tier == 2:
			inventory[key] = 2 + rng.Intn(3) // 2-4
		default:
			inventory[key] = 1 + rng.Intn(3) // 1-3
		}
	}
	return inventory
}

// Cost computes the market price of a hull from its component recipe, or its
// flat base cost when no recipe exists.
func (y *Shipyard) Cost(shipKey string) (int, error) {
	ship, ok := y.cat.Ship(shipKey)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotSold, shipKey)
	}

	recipe, hasRecipe := y.cat.RecipeFor(shipKey)
	if !hasRecipe {
		return int(float64(ship.BaseCost) * shipMarkup), nil
	}

	total := 0.0
	for compKey, qty := range recipe.Components {
		comp, ok := y.cat.Component(compKey)
		if !ok {
			continue
		}
		total += float64(comp.ManufacturingCost) * float64(qty) * componentCostMult
	}
	return int(total * shipMarkup), nil
}

// Value computes the sellback value: the pre-markup component cost times the
// used-hull buyback rate.
func (y *Shipyard) Value(shipKey string) (int, error) {
	cost, err := y.Cost(shipKey)
	if err != nil {
		return 0, err
	}
	return int(float64(cost) / shipMarkup * shipBuybackRate), nil
}

// StockAt returns a copy of the yard's inventory at a location.
func (y *Shipyard) StockAt(locationKey string) map[string]int {
	out := make(map[string]int)
	for k, v := range y.stock[locationKey] {
		out[k] = v
	}
	return out
}

// Purchase buys one hull from a yard: stock check, level gate, then funds
// against the discounted cost. The berth count drops and the entry vanishes
// at zero.
func (y *Shipyard) Purchase(locationKey, shipKey string, credits, level int, tradeDiscount float64) (int, error) {
	ship, ok := y.cat.Ship(shipKey)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotSold, shipKey)
	}

	yard := y.stock[locationKey]
	if yard[shipKey] <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrOutOfStock, ship.Name)
	}
	if level < ship.LevelReq {
		return 0, fmt.Errorf("%w: requires level %d", ErrLevelTooLow, ship.LevelReq)
	}

	base, err := y.Cost(shipKey)
	if err != nil {
		return 0, err
	}
	cost := int(float64(base) * (1 - tradeDiscount))
	if credits < cost {
		return 0, fmt.Errorf("%w: need %d CR, have %d CR", ErrInsufficientCredits, cost, credits)
	}

	yard[shipKey]--
	if yard[shipKey] <= 0 {
		delete(yard, shipKey)
	}
	return cost, nil
}

// SellBack returns the payment for selling a used hull to the yard.
// Sold hulls are scrapped, not restocked.
func (y *Shipyard) SellBack(shipKey string, tradeBonus float64) (int, error) {
	value, err := y.Value(shipKey)
	if err != nil {
		return 0, err
	}
	return int(float64(value) * (1 + tradeBonus)), nil
}

// ShipOffer is one row of the shipyard screen.
type ShipOffer struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	ClassType string `json:"class_type"`
	Tier      int    `json:"tier"`
	Cost      int    `json:"cost"`
	LevelReq  int    `json:"level_requirement"`
	Stock     int    `json:"stock"`
	CanBuy    bool   `json:"can_buy"`
}

// Available lists the yard's current hulls sorted by tier then cost, with a
// per-row affordability verdict for the given buyer.
func (y *Shipyard) Available(locationKey string, credits, level int) []ShipOffer {
	yard := y.stock[locationKey]
	offers := make([]ShipOffer, 0, len(yard))

	for shipKey, berths := range yard {
		ship, ok := y.cat.Ship(shipKey)
		if !ok {
			continue
		}
		cost, err := y.Cost(shipKey)
		if err != nil {
			continue
		}
		offers = append(offers, ShipOffer{
			Key:       shipKey,
			Name:      ship.Name,
			ClassType: ship.ClassType,
			Tier:      ship.Tier,
			Cost:      cost,
			LevelReq:  ship.LevelReq,
			Stock:     berths,
			CanBuy:    berths > 0 && credits >= cost && level >= ship.LevelReq,
		})
	}

	sort.Slice(offers, func(i, j int) bool {
		if offers[i].Tier != offers[j].Tier {
			return offers[i].Tier < offers[j].Tier
		}
		return offers[i].Cost < offers[j].Cost
	})
	return offers
}

// Snapshot copies the per-location stock maps for the save system.
func (y *Shipyard) Snapshot() map[string]map[string]int {
	out := make(map[string]map[string]int, len(y.stock))
	for loc, yard := range y.stock {
		copied := make(map[string]int, len(yard))
		for k, v := range yard {
			copied[k] = v
		}
		out[loc] = copied
	}
	return out
}

// Restore overwrites the stock maps from a snapshot.
func (y *Shipyard) Restore(snap map[string]map[string]int) {
	y.stock = make(map[string]map[string]int, len(snap))
	for loc, yard := range snap {
		copied := make(map[string]int, len(yard))
		for k, v := range yard {
			copied[k] = v
		}
		y.stock[loc] = copied
	}
}
