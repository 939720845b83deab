/*
Package main
File: state.go
Description: Manages the global runtime state: the immutable universe catalog,
the economy engine, and the commander profile (credits, level, skills). Skill
levels translate into the trade and industry bonuses the engine operations
accept.
*/

package main

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
	"github.com/everforgeworks/voidtrade-exchange/internal/engine"
)

// Per-level skill bonuses. Trade proficiency sharpens both sides of a deal
// and shaves the sales tax; the two industry skills shorten build times.
const (
	buyDiscountPerLevel   = 0.02
	sellBonusPerLevel     = 0.02
	taxReductionPerLevel  = 0.005
	manufacturingPerLevel = 0.06
	constructionPerLevel  = 0.05
	miningYieldPerLevel   = 0.06
)

// Commander is the player profile. Docked location and owned hulls live here;
// everything economic lives in the engine.
type Commander struct {
	Credits     int            `json:"credits"`
	Level       int            `json:"level"`
	Skills      map[string]int `json:"skills"`
	LocationKey string         `json:"location_key"`
	ShipKey     string         `json:"ship_key"`
	OwnedShips  []string       `json:"owned_ships"`
}

func (c *Commander) SkillLevel(key string) int { return c.Skills[key] }

func (c *Commander) BuyDiscount() float64 {
	return float64(c.SkillLevel("trade_proficiency")) * buyDiscountPerLevel
}

func (c *Commander) SellBonus() float64 {
	return float64(c.SkillLevel("trade_proficiency")) * sellBonusPerLevel
}

func (c *Commander) TaxReduction() float64 {
	return float64(c.SkillLevel("trade_proficiency")) * taxReductionPerLevel
}

// / SpeedBonus picks the industry skill that governs the item kind: ship hulls
// build under construction, everything else under manufacturing.
func (c *Commander) SpeedBonus(kind catalog.ItemKind) float64 {
	if kind == catalog.KindShip {
		return float64(c.SkillLevel("ship_construction")) * constructionPerLevel
	}
	return float64(c.SkillLevel("module_manufacturing")) * manufacturingPerLevel
}

func (c *Commander) MiningBonus() float64 {
	return float64(c.SkillLevel("mining_operations")) * miningYieldPerLevel
}

var (
	dataLock  sync.RWMutex
	world     *engine.Engine
	commander Commander
)

// LoadConfig (re)builds the world from universe.yaml. On a reload the mutable
// economy state survives through a snapshot; the commander is only seeded on
// first load.
func LoadConfig() error {
	dataLock.Lock()
	defer dataLock.Unlock()

	cat, err := catalog.Load("universe.yaml")
	if err != nil {
		return err
	}
	bal := cat.Balance()

	ship, ok := cat.Ship(bal.StartingShip)
	if !ok {
		return fmt.Errorf("starting ship %q not in catalog", bal.StartingShip)
	}

	var snap *engine.Snapshot
	if world != nil {
		s := world.Snapshot()
		snap = &s
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	world = engine.New(cat, rng, float64(ship.CargoCapacity))
	if snap != nil {
		for _, d := range world.Restore(*snap) {
			log.Printf("restore: dropped %d x %s at %s", d.Quantity, d.ItemKey, d.Location)
		}
	}

	if commander.Skills == nil {
		commander = Commander{
			Credits:     bal.StartingCredits,
			Level:       1,
			Skills:      map[string]int{"trade_proficiency": 0},
			LocationKey: bal.StartingLocation,
			ShipKey:     bal.StartingShip,
			OwnedShips:  []string{bal.StartingShip},
		}
	}
	return nil
}
