/*
Package catalog
File: catalog.go
Description:
    Immutable definitions for everything tradeable, mineable and buildable:
    resources, ship components, ship modules, hulls, their recipes, and the
    locations of the universe. A Catalog is built once at startup from the
    universe YAML and passed by handle into every other component; nothing
    here mutates after construction.
*/

package catalog

import (
	"fmt"
	"sort"
)

// Rarity classifies a raw resource and drives its refining yield range.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityVeryRare  Rarity = "very_rare"
	RarityLegendary Rarity = "legendary"
)

// yieldRanges maps rarity to the min/max refining yield fraction.
// Less rare ore refines cleaner; exotic matter loses more in processing.
var yieldRanges = map[Rarity][2]float64{
	RarityCommon:    {0.80, 0.95},
	RarityUncommon:  {0.70, 0.85},
	RarityRare:      {0.60, 0.75},
	RarityVeryRare:  {0.55, 0.65},
	RarityLegendary: {0.50, 0.60},
}

// YieldRange returns the min/max refining yield fraction for a rarity class.
func YieldRange(r Rarity) (min, max float64) {
	rng, ok := yieldRanges[r]
	if !ok {
		// Unclassified ore behaves like mid-grade material.
		return 0.70, 0.90
	}
	return rng[0], rng[1]
}

// ItemKind tags every catalog id with the table it came from. Resolved once
// at load time so volume lookups and recipe dispatch never probe four maps.
type ItemKind int

const (
	KindUnknown ItemKind = iota
	KindResource
	KindComponent
	KindModule
	KindShip
)

func (k ItemKind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindComponent:
		return "component"
	case KindModule:
		return "module"
	case KindShip:
		return "ship"
	default:
		return "unknown"
	}
}

// Resource is a raw or refined material.
type Resource struct {
	Key         string  `yaml:"key" json:"key"`
	Name        string  `yaml:"name" json:"name"`
	Rarity      Rarity  `yaml:"rarity" json:"rarity"`
	BasePrice   float64 `yaml:"base_price" json:"base_price"`
	Volume      float64 `yaml:"volume" json:"volume"`
	MiningTier  int     `yaml:"mining_tier,omitempty" json:"mining_tier,omitempty"`
	RefinesTo   string  `yaml:"refines_to,omitempty" json:"refines_to,omitempty"`
	RefineRatio float64 `yaml:"refine_ratio,omitempty" json:"refine_ratio,omitempty"` // historical metadata, not used for yield
}

// Component is an intermediate part consumed by module and ship recipes.
type Component struct {
	Key               string  `yaml:"key" json:"key"`
	Name              string  `yaml:"name" json:"name"`
	Type              string  `yaml:"type" json:"type"`
	Tier              int     `yaml:"tier" json:"tier"`
	Volume            float64 `yaml:"volume" json:"volume"`
	LevelReq          int     `yaml:"level_requirement" json:"level_requirement"`
	ManufacturingCost int     `yaml:"manufacturing_cost" json:"manufacturing_cost"`
}

// Module is a finished, installable ship upgrade.
type Module struct {
	Key               string  `yaml:"key" json:"key"`
	Name              string  `yaml:"name" json:"name"`
	Type              string  `yaml:"type" json:"type"`
	Tier              int     `yaml:"tier" json:"tier"`
	Volume            float64 `yaml:"volume" json:"volume"`
	LevelReq          int     `yaml:"level_requirement" json:"level_requirement"`
	ManufacturingCost int     `yaml:"manufacturing_cost" json:"manufacturing_cost"`
}

// Ship is a complete hull. Hulls occupy a berth, not the cargo hold, so they
// carry no unit volume.
type Ship struct {
	Key           string `yaml:"key" json:"key"`
	Name          string `yaml:"name" json:"name"`
	ClassType     string `yaml:"class_type" json:"class_type"`
	Tier          int    `yaml:"tier" json:"tier"`
	LevelReq      int    `yaml:"level_requirement" json:"level_requirement"`
	BaseCost      int    `yaml:"base_cost" json:"base_cost"`
	CargoCapacity int    `yaml:"cargo_capacity" json:"cargo_capacity"`
	Refinery      bool   `yaml:"refinery,omitempty" json:"refinery,omitempty"` // onboard refining capability
}

// Recipe describes how an item is built: either a materials map or a
// components map (never both), a base build time and a skill gate.
type Recipe struct {
	Key        string         `yaml:"key" json:"key"`
	Materials  map[string]int `yaml:"materials,omitempty" json:"materials,omitempty"`
	Components map[string]int `yaml:"components,omitempty" json:"components,omitempty"`
	Duration   float64        `yaml:"time" json:"time"` // simulated seconds per unit
	SkillReq   int            `yaml:"skill_requirement" json:"skill_requirement"`
}

// Inputs returns the recipe's input map, whichever side it uses.
func (r Recipe) Inputs() map[string]int {
	if len(r.Materials) > 0 {
		return r.Materials
	}
	return r.Components
}

// Location is a node of the universe that may host services and storage.
type Location struct {
	Key             string   `yaml:"key" json:"key"`
	Name            string   `yaml:"name" json:"name"`
	Services        []string `yaml:"services" json:"services"`
	Resources       []string `yaml:"resources" json:"resources"` // locally produced resource keys
	StorageCapacity float64  `yaml:"storage_capacity" json:"storage_capacity"`
}

// HasService reports whether the location offers the named service.
func (l Location) HasService(name string) bool {
	for _, s := range l.Services {
		if s == name {
			return true
		}
	}
	return false
}

// Produces reports whether the location's local industry outputs the resource.
func (l Location) Produces(resourceKey string) bool {
	for _, r := range l.Resources {
		if r == resourceKey {
			return true
		}
	}
	return false
}

// Balance stores global tuning variables from YAML.
type Balance struct {
	StartingCredits  int     `yaml:"starting_credits" json:"starting_credits"`
	TaxRate          float64 `yaml:"tax_rate" json:"tax_rate"`
	FluctuationRange float64 `yaml:"market_fluctuation_range" json:"market_fluctuation_range"`
	PulsePeriod      float64 `yaml:"market_pulse_seconds" json:"market_pulse_seconds"`
	TimeAcceleration float64 `yaml:"time_acceleration" json:"time_acceleration"`
	StartingLocation string  `yaml:"starting_location" json:"starting_location"`
	StartingShip     string  `yaml:"starting_ship" json:"starting_ship"`
}

// Catalog is the read-only world definition shared by every component.
type Catalog struct {
	resources  map[string]Resource
	components map[string]Component
	modules    map[string]Module
	ships      map[string]Ship
	recipes    map[string]Recipe
	locations  map[string]Location
	kinds      map[string]ItemKind
	balance    Balance
}

// Universe is the root configuration document, mirroring universe.yaml.
type Universe struct {
	BalanceConfig Balance     `yaml:"game_balance"`
	Resources     []Resource  `yaml:"resources"`
	Components    []Component `yaml:"components"`
	Modules       []Module    `yaml:"modules"`
	Ships         []Ship      `yaml:"ships"`
	Recipes       []Recipe    `yaml:"recipes"`
	Locations     []Location  `yaml:"locations"`
}

// New validates a Universe document and freezes it into a Catalog.
func New(u Universe) (*Catalog, error) {
	c := &Catalog{
		resources:  make(map[string]Resource, len(u.Resources)),
		components: make(map[string]Component, len(u.Components)),
		modules:    make(map[string]Module, len(u.Modules)),
		ships:      make(map[string]Ship, len(u.Ships)),
		recipes:    make(map[string]Recipe, len(u.Recipes)),
		locations:  make(map[string]Location, len(u.Locations)),
		kinds:      make(map[string]ItemKind),
		balance:    u.BalanceConfig,
	}

	claim := func(key string, kind ItemKind) error {
		if key == "" {
			return fmt.Errorf("%s entry with empty key", kind)
		}
		if prev, taken := c.kinds[key]; taken {
			return fmt.Errorf("duplicate key %q: defined as both %s and %s", key, prev, kind)
		}
		c.kinds[key] = kind
		return nil
	}

	for _, r := range u.Resources {
		if err := claim(r.Key, KindResource); err != nil {
			return nil, err
		}
		c.resources[r.Key] = r
	}
	for _, comp := range u.Components {
		if err := claim(comp.Key, KindComponent); err != nil {
			return nil, err
		}
		c.components[comp.Key] = comp
	}
	for _, m := range u.Modules {
		if err := claim(m.Key, KindModule); err != nil {
			return nil, err
		}
		c.modules[m.Key] = m
	}
	for _, s := range u.Ships {
		if err := claim(s.Key, KindShip); err != nil {
			return nil, err
		}
		c.ships[s.Key] = s
	}

	for _, rec := range u.Recipes {
		if _, dup := c.recipes[rec.Key]; dup {
			return nil, fmt.Errorf("duplicate recipe for %q", rec.Key)
		}
		if c.kinds[rec.Key] == KindUnknown || c.kinds[rec.Key] == KindResource {
			return nil, fmt.Errorf("recipe %q does not match a component, module or ship", rec.Key)
		}
		if len(rec.Materials) > 0 && len(rec.Components) > 0 {
			return nil, fmt.Errorf("recipe %q mixes materials and components", rec.Key)
		}
		if len(rec.Materials) == 0 && len(rec.Components) == 0 {
			return nil, fmt.Errorf("recipe %q has no inputs", rec.Key)
		}
		for matKey := range rec.Materials {
			if c.kinds[matKey] != KindResource {
				return nil, fmt.Errorf("recipe %q: material %q is not a resource", rec.Key, matKey)
			}
		}
		for compKey := range rec.Components {
			if c.kinds[compKey] != KindComponent {
				return nil, fmt.Errorf("recipe %q: input %q is not a component", rec.Key, compKey)
			}
		}
		c.recipes[rec.Key] = rec
	}

	for _, loc := range u.Locations {
		if loc.Key == "" {
			return nil, fmt.Errorf("location with empty key")
		}
		if _, dup := c.locations[loc.Key]; dup {
			return nil, fmt.Errorf("duplicate location %q", loc.Key)
		}
		for _, resKey := range loc.Resources {
			if c.kinds[resKey] != KindResource {
				return nil, fmt.Errorf("location %q produces unknown resource %q", loc.Key, resKey)
			}
		}
		c.locations[loc.Key] = loc
	}

	for _, r := range c.resources {
		if r.RefinesTo != "" && c.kinds[r.RefinesTo] != KindResource {
			return nil, fmt.Errorf("resource %q refines to unknown resource %q", r.Key, r.RefinesTo)
		}
	}

	return c, nil
}

// Balance returns the global tuning block.
func (c *Catalog) Balance() Balance { return c.balance }

// Kind returns the tagged kind for an id, KindUnknown when absent everywhere.
func (c *Catalog) Kind(key string) ItemKind { return c.kinds[key] }

// Resource looks up a resource definition.
func (c *Catalog) Resource(key string) (Resource, bool) {
	r, ok := c.resources[key]
	return r, ok
}

// Component looks up a component definition.
func (c *Catalog) Component(key string) (Component, bool) {
	comp, ok := c.components[key]
	return comp, ok
}

// Module looks up a module definition.
func (c *Catalog) Module(key string) (Module, bool) {
	m, ok := c.modules[key]
	return m, ok
}

// Ship looks up a hull definition.
func (c *Catalog) Ship(key string) (Ship, bool) {
	s, ok := c.ships[key]
	return s, ok
}

// RecipeFor returns the build recipe for a component, module or ship id.
func (c *Catalog) RecipeFor(key string) (Recipe, bool) {
	r, ok := c.recipes[key]
	return r, ok
}

// Location looks up a location definition.
func (c *Catalog) Location(key string) (Location, bool) {
	l, ok := c.locations[key]
	return l, ok
}

// UnitVolume returns the declared cargo volume of one unit of an item.
// Hulls are berth items and report zero. Unknown ids report ok=false so
// ledgers can reject them outright.
func (c *Catalog) UnitVolume(key string) (float64, bool) {
	switch c.kinds[key] {
	case KindResource:
		return c.resources[key].Volume, true
	case KindComponent:
		return c.components[key].Volume, true
	case KindModule:
		return c.modules[key].Volume, true
	case KindShip:
		return 0, true
	default:
		return 0, false
	}
}

// DisplayName returns the human name for any catalog id, or the id itself.
func (c *Catalog) DisplayName(key string) string {
	switch c.kinds[key] {
	case KindResource:
		return c.resources[key].Name
	case KindComponent:
		return c.components[key].Name
	case KindModule:
		return c.modules[key].Name
	case KindShip:
		return c.ships[key].Name
	default:
		return key
	}
}

// LevelRequirement returns the pilot level gate for a buildable item.
// Resources have no gate.
func (c *Catalog) LevelRequirement(key string) int {
	switch c.kinds[key] {
	case KindComponent:
		return c.components[key].LevelReq
	case KindModule:
		return c.modules[key].LevelReq
	case KindShip:
		return c.ships[key].LevelReq
	default:
		return 0
	}
}

// ResourceKeys returns all resource ids in stable order.
func (c *Catalog) ResourceKeys() []string {
	keys := make([]string, 0, len(c.resources))
	for k := range c.resources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ComponentKeys returns all component ids in stable order.
func (c *Catalog) ComponentKeys() []string {
	keys := make([]string, 0, len(c.components))
	for k := range c.components {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ModuleKeys returns all module ids in stable order.
func (c *Catalog) ModuleKeys() []string {
	keys := make([]string, 0, len(c.modules))
	for k := range c.modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ShipKeys returns all hull ids in stable order.
func (c *Catalog) ShipKeys() []string {
	keys := make([]string, 0, len(c.ships))
	for k := range c.ships {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LocationKeys returns all location ids in stable order.
func (c *Catalog) LocationKeys() []string {
	keys := make([]string, 0, len(c.locations))
	for k := range c.locations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
