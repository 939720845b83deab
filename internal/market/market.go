/*
Package market
File: market.go
Description:
    The dynamic per-location resource market. Each tradable location carries
    its own price and stock table, seeded cheap-and-deep for locally produced
    resources and dear-and-shallow for imports, then nudged by periodic
    fluctuation. Buying decrements stock; selling always succeeds and simply
    grows it; the universe absorbs whatever the pilots dump on it.
*/

package market

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

var (
	// ErrInsufficientStock means the market holds fewer units than asked.
	ErrInsufficientStock = errors.New("insufficient stock available")
	// ErrInsufficientCredits means the quote exceeds the buyer's wallet.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrNotTraded means the resource has no listing at this market.
	ErrNotTraded = errors.New("resource not traded here")
	// ErrNoMarket means the location offers no market service.
	ErrNoMarket = errors.New("no market at this location")
)

// Bulk trade thresholds. Moving more than bulkThreshold units in one order
// costs a premium when buying and eats a penalty when selling.
const (
	bulkThreshold    = 100
	bulkBuyPremium   = 1.10
	bulkSellPenalty  = 0.90
	sellEstimateRate = 0.80 // listing-screen sell estimate relative to price
)

// Market is the price/stock table of a single location.
type Market struct {
	location string
	cat      *catalog.Catalog
	rng      *rand.Rand
	prices   map[string]float64
	stock    map[string]int
}

// NewMarket seeds a market for a location. Locally produced resources start
// 20-30% under base price with deep stock; imports start 20-50% over with a
// shallow pool.
func NewMarket(cat *catalog.Catalog, loc catalog.Location, rng *rand.Rand) *Market {
	m := &Market{
		location: loc.Key,
		cat:      cat,
		rng:      rng,
		prices:   make(map[string]float64),
		stock:    make(map[string]int),
	}

	for _, key := range cat.ResourceKeys() {
		res, _ := cat.Resource(key)

		if loc.Produces(key) {
			m.prices[key] = res.BasePrice * uniform(rng, 0.70, 0.80)
			m.stock[key] = 1000 + rng.Intn(4001)
		} else {
			m.prices[key] = res.BasePrice * uniform(rng, 1.20, 1.50)
			m.stock[key] = 100 + rng.Intn(401)
		}
	}
	return m
}

// Location returns the owning location key.
func (m *Market) Location() string { return m.location }

// Price returns the current unit price for a resource.
func (m *Market) Price(key string) (float64, bool) {
	p, ok := m.prices[key]
	return p, ok
}

// Stock returns the current stock level for a resource.
func (m *Market) Stock(key string) int { return m.stock[key] }

// Fluctuate applies one simulation step: every price drifts by a uniform
// factor inside the configured range and is clamped to [0.5, 3.0] times base;
// stock drifts by a uniform integer step and never goes negative.
func (m *Market) Fluctuate() {
	spread := m.cat.Balance().FluctuationRange

	for key, current := range m.prices {
		res, _ := m.cat.Resource(key)

		change := uniform(m.rng, -spread, spread)
		next := current * (1 + change)

		minPrice := res.BasePrice * 0.5
		maxPrice := res.BasePrice * 3.0
		if next < minPrice {
			next = minPrice
		}
		if next > maxPrice {
			next = maxPrice
		}
		m.prices[key] = next
	}

	for key, current := range m.stock {
		change := -100 + m.rng.Intn(301) // uniform in [-100, 200]
		next := current + change
		if next < 0 {
			next = 0
		}
		m.stock[key] = next
	}
}

// QuoteBuy computes the total cost to buy qty units: current price less the
// trade discount, times the bulk premium when the order exceeds the
// threshold.
func (m *Market) QuoteBuy(key string, qty int, tradeDiscount float64) (float64, error) {
	price, ok := m.prices[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotTraded, key)
	}

	bulk := 1.0
	if qty > bulkThreshold {
		bulk = bulkBuyPremium
	}
	return price * (1 - tradeDiscount) * bulk * float64(qty), nil
}

// QuoteSell computes the total payment for selling qty units: current price
// plus the trade bonus, times the bulk penalty when over the threshold, less
// tax after the tax reduction.
func (m *Market) QuoteSell(key string, qty int, tradeBonus, taxReduction float64) (float64, error) {
	price, ok := m.prices[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotTraded, key)
	}

	bulk := 1.0
	if qty > bulkThreshold {
		bulk = bulkSellPenalty
	}

	tax := m.cat.Balance().TaxRate - taxReduction
	if tax < 0 {
		tax = 0
	}
	return price * (1 + tradeBonus) * bulk * (1 - tax) * float64(qty), nil
}

// Buy executes a purchase: stock check, then credit check against the quote
// computed in the same step, then the stock decrement. No partial trade.
func (m *Market) Buy(key string, qty int, credits int, tradeDiscount float64) (int, error) {
	if _, ok := m.cat.Resource(key); !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotTraded, key)
	}
	if m.stock[key] < qty {
		return 0, fmt.Errorf("%w: %dx %s in stock, need %d", ErrInsufficientStock, m.stock[key], key, qty)
	}

	quote, err := m.QuoteBuy(key, qty, tradeDiscount)
	if err != nil {
		return 0, err
	}
	cost := int(quote)
	if credits < cost {
		return 0, fmt.Errorf("%w: need %d CR, have %d CR", ErrInsufficientCredits, cost, credits)
	}

	m.stock[key] -= qty
	return cost, nil
}

// Sell executes a sale. There is no ceiling on what the market absorbs; the
// stock pool simply grows.
func (m *Market) Sell(key string, qty int, tradeBonus, taxReduction float64) (int, error) {
	if _, ok := m.cat.Resource(key); !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotTraded, key)
	}

	quote, err := m.QuoteSell(key, qty, tradeBonus, taxReduction)
	if err != nil {
		return 0, err
	}

	m.stock[key] += qty
	return int(quote), nil
}

// Listing is one row of the market screen.
type Listing struct {
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	BuyPrice  int            `json:"buy_price"`
	SellPrice int            `json:"sell_price"`
	Stock     int            `json:"stock"`
	Rarity    catalog.Rarity `json:"rarity"`
}

// Listing returns the market's rows sorted by buy price ascending. When
// availableOnly is set, out-of-stock rows are dropped.
func (m *Market) Listing(availableOnly bool) []Listing {
	rows := make([]Listing, 0, len(m.prices))

	for _, key := range m.cat.ResourceKeys() {
		price, ok := m.prices[key]
		if !ok {
			continue
		}
		if availableOnly && m.stock[key] == 0 {
			continue
		}
		res, _ := m.cat.Resource(key)
		rows = append(rows, Listing{
			Key:       key,
			Name:      res.Name,
			BuyPrice:  int(price),
			SellPrice: int(price * sellEstimateRate),
			Stock:     m.stock[key],
			Rarity:    res.Rarity,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].BuyPrice < rows[j].BuyPrice })
	return rows
}

// Snapshot captures the persisted portion of a market.
type Snapshot struct {
	Location string             `json:"location"`
	Prices   map[string]float64 `json:"prices"`
	Stock    map[string]int     `json:"stock"`
}

// Snapshot copies the market's dynamic state for the save system.
func (m *Market) Snapshot() Snapshot {
	s := Snapshot{
		Location: m.location,
		Prices:   make(map[string]float64, len(m.prices)),
		Stock:    make(map[string]int, len(m.stock)),
	}
	for k, v := range m.prices {
		s.Prices[k] = v
	}
	for k, v := range m.stock {
		s.Stock[k] = v
	}
	return s
}

// Restore overwrites the market's dynamic state from a snapshot.
func (m *Market) Restore(s Snapshot) {
	m.prices = make(map[string]float64, len(s.Prices))
	m.stock = make(map[string]int, len(s.Stock))
	for k, v := range s.Prices {
		m.prices[k] = v
	}
	for k, v := range s.Stock {
		m.stock[k] = v
	}
}

// uniform draws a uniform real in [a, b).
func uniform(rng *rand.Rand, a, b float64) float64 {
	return a + rng.Float64()*(b-a)
}
