/*
Package market
File: outfitting.go
Description:
    Fixed-markup markets for manufactured goods. Modules and ship components
    do not fluctuate like raw resources: their sale price derives from the
    manufacturing cost through fixed multipliers, and the station buys used
    gear back at a flat fraction of that cost.
*/

package market

import (
	"errors"
	"fmt"
	"sort"

	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

var (
	// ErrLevelTooLow means the buyer's pilot level is under the item's gate.
	ErrLevelTooLow = errors.New("pilot level too low")
	// ErrNotSold means the id is not carried by this market.
	ErrNotSold = errors.New("item not sold here")
)

// Outfitting multipliers, per the station guild's standard rates.
const (
	moduleMarkup      = 1.3
	componentMarkup   = 1.8
	componentCostMult = 1.5
	usedBuybackRate   = 0.60
)

// Outfitting sells one class of manufactured goods (modules or components)
// at manufacturing cost times fixed multipliers.
type Outfitting struct {
	cat      *catalog.Catalog
	kind     catalog.ItemKind
	markup   float64
	costMult float64
	buyback  float64
}

// NewModuleMarket prices finished modules at cost x 1.3.
func NewModuleMarket(cat *catalog.Catalog) *Outfitting {
	return &Outfitting{
		cat:      cat,
		kind:     catalog.KindModule,
		markup:   moduleMarkup,
		costMult: 1.0,
		buyback:  usedBuybackRate,
	}
}

// NewComponentMarket prices ship components at cost x 1.5 x 1.8, the cost
// multiplier applied before the markup.
func NewComponentMarket(cat *catalog.Catalog) *Outfitting {
	return &Outfitting{
		cat:      cat,
		kind:     catalog.KindComponent,
		markup:   componentMarkup,
		costMult: componentCostMult,
		buyback:  usedBuybackRate,
	}
}

// manufacturingCost resolves the base cost for an id of the market's kind.
func (o *Outfitting) manufacturingCost(key string) (int, bool) {
	switch o.kind {
	case catalog.KindModule:
		if m, ok := o.cat.Module(key); ok {
			return m.ManufacturingCost, true
		}
	case catalog.KindComponent:
		if c, ok := o.cat.Component(key); ok {
			return c.ManufacturingCost, true
		}
	}
	return 0, false
}

// Cost returns the purchase price for a buyer of the given level.
func (o *Outfitting) Cost(key string, level int) (int, error) {
	base, ok := o.manufacturingCost(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotSold, key)
	}
	if req := o.cat.LevelRequirement(key); level < req {
		return 0, fmt.Errorf("%w: requires level %d", ErrLevelTooLow, req)
	}
	return int(float64(base) * o.costMult * o.markup), nil
}

// Value returns the flat buyback value, before any trade bonus.
func (o *Outfitting) Value(key string) int {
	base, ok := o.manufacturingCost(key)
	if !ok {
		return 0
	}
	return int(float64(base) * o.buyback)
}

// Purchase validates level and funds and returns the discounted cost.
// Stock is infinite; the guild restocks faster than anyone can buy.
func (o *Outfitting) Purchase(key string, credits, level int, tradeDiscount float64) (int, error) {
	base, ok := o.manufacturingCost(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotSold, key)
	}
	if req := o.cat.LevelRequirement(key); level < req {
		return 0, fmt.Errorf("%w: requires level %d", ErrLevelTooLow, req)
	}

	cost := int(float64(base) * o.costMult * o.markup * (1 - tradeDiscount))
	if credits < cost {
		return 0, fmt.Errorf("%w: need %d CR, have %d CR", ErrInsufficientCredits, cost, credits)
	}
	return cost, nil
}

// SellBack returns the payment for a used item, with the trade bonus applied.
func (o *Outfitting) SellBack(key string, tradeBonus float64) (int, error) {
	if _, ok := o.manufacturingCost(key); !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotSold, key)
	}
	return int(float64(o.Value(key)) * (1 + tradeBonus)), nil
}

// Offer is one row of the outfitting screen.
type Offer struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Tier     int    `json:"tier"`
	Cost     int    `json:"cost"`
	LevelReq int    `json:"level_requirement"`
}

// Available lists everything the buyer's level unlocks, sorted by type then
// tier, matching the outfitting screen layout.
func (o *Outfitting) Available(level int) []Offer {
	var keys []string
	if o.kind == catalog.KindModule {
		keys = o.cat.ModuleKeys()
	} else {
		keys = o.cat.ComponentKeys()
	}

	offers := make([]Offer, 0, len(keys))
	for _, key := range keys {
		cost, err := o.Cost(key, level)
		if err != nil {
			continue
		}
		offer := Offer{Key: key, Cost: cost}
		switch o.kind {
		case catalog.KindModule:
			m, _ := o.cat.Module(key)
			offer.Name, offer.Type, offer.Tier, offer.LevelReq = m.Name, m.Type, m.Tier, m.LevelReq
		case catalog.KindComponent:
			c, _ := o.cat.Component(key)
			offer.Name, offer.Type, offer.Tier, offer.LevelReq = c.Name, c.Type, c.Tier, c.LevelReq
		}
		offers = append(offers, offer)
	}

	sort.Slice(offers, func(i, j int) bool {
		if offers[i].Type != offers[j].Type {
			return offers[i].Type < offers[j].Type
		}
		return offers[i].Tier < offers[j].Tier
	})
	return offers
}
