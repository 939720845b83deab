/*
Package catalog
File: catalog_test.go
Description: Validation and lookup tests for the immutable catalog.
*/

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUniverse() Universe {
	return Universe{
		BalanceConfig: Balance{
			StartingCredits:  50000,
			TaxRate:          0.05,
			FluctuationRange: 0.10,
			PulsePeriod:      600,
			TimeAcceleration: 10,
			StartingLocation: "nexus_prime",
			StartingShip:     "scout_mk1",
		},
		Resources: []Resource{
			{Key: "raw_voltium", Name: "Raw Voltium Ore", Rarity: RarityCommon, BasePrice: 100, Volume: 1.0, RefinesTo: "voltium", RefineRatio: 0.7},
			{Key: "voltium", Name: "Voltium Ingot", Rarity: RarityCommon, BasePrice: 200, Volume: 0.4},
			{Key: "raw_chronite", Name: "Raw Chronite Crystal", Rarity: RarityRare, BasePrice: 4000, Volume: 0.5, RefinesTo: "chronite"},
			{Key: "chronite", Name: "Chronite Wafer", Rarity: RarityRare, BasePrice: 10000, Volume: 0.15},
			{Key: "plasmic_fuel", Name: "Plasmic Fuel Cell", Rarity: RarityCommon, BasePrice: 50, Volume: 1.0},
		},
		Components: []Component{
			{Key: "energy_cell_t1", Name: "Energy Cell T1", Type: "power_component", Tier: 1, Volume: 5, LevelReq: 1, ManufacturingCost: 450},
		},
		Modules: []Module{
			{Key: "pulse_cannon_t1", Name: "Pulse Cannon T1", Type: "weapon", Tier: 1, Volume: 10, LevelReq: 1, ManufacturingCost: 6500},
		},
		Ships: []Ship{
			{Key: "scout_mk1", Name: "Scout MK1", ClassType: "scout", Tier: 1, LevelReq: 1, BaseCost: 100000, CargoCapacity: 200},
		},
		Recipes: []Recipe{
			{Key: "energy_cell_t1", Materials: map[string]int{"voltium": 2, "plasmic_fuel": 1}, Duration: 30},
			{Key: "pulse_cannon_t1", Components: map[string]int{"energy_cell_t1": 2}, Duration: 120},
		},
		Locations: []Location{
			{Key: "nexus_prime", Name: "Nexus Prime Station", Services: []string{"market", "shipyard", "refinery", "manufacturing"}, StorageCapacity: 10000},
			{Key: "outer_belts", Name: "Outer Mining Belts", Resources: []string{"raw_voltium"}},
		},
	}
}

func TestNewResolvesKinds(t *testing.T) {
	cat, err := New(testUniverse())
	require.NoError(t, err)

	assert.Equal(t, KindResource, cat.Kind("raw_voltium"))
	assert.Equal(t, KindComponent, cat.Kind("energy_cell_t1"))
	assert.Equal(t, KindModule, cat.Kind("pulse_cannon_t1"))
	assert.Equal(t, KindShip, cat.Kind("scout_mk1"))
	assert.Equal(t, KindUnknown, cat.Kind("exotic_paperclip"))
}

func TestNewRejectsDuplicateKeysAcrossKinds(t *testing.T) {
	u := testUniverse()
	u.Modules = append(u.Modules, Module{Key: "voltium", Name: "Not A Module"})

	_, err := New(u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestNewRejectsRecipeWithUnknownMaterial(t *testing.T) {
	u := testUniverse()
	u.Recipes[0].Materials["unobtainium"] = 3

	_, err := New(u)
	require.Error(t, err)
}

func TestNewRejectsRecipeMixingInputSides(t *testing.T) {
	u := testUniverse()
	u.Recipes[1].Materials = map[string]int{"voltium": 1}

	_, err := New(u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes materials and components")
}

func TestNewRejectsRecipeForResource(t *testing.T) {
	u := testUniverse()
	u.Recipes = append(u.Recipes, Recipe{Key: "voltium", Materials: map[string]int{"plasmic_fuel": 1}})

	_, err := New(u)
	require.Error(t, err)
}

func TestNewRejectsUnknownRefineTarget(t *testing.T) {
	u := testUniverse()
	u.Resources[0].RefinesTo = "phantomite"

	_, err := New(u)
	require.Error(t, err)
}

func TestUnitVolume(t *testing.T) {
	cat, err := New(testUniverse())
	require.NoError(t, err)

	vol, ok := cat.UnitVolume("raw_voltium")
	assert.True(t, ok)
	assert.Equal(t, 1.0, vol)

	vol, ok = cat.UnitVolume("pulse_cannon_t1")
	assert.True(t, ok)
	assert.Equal(t, 10.0, vol)

	// Hulls occupy a berth, not hold volume.
	vol, ok = cat.UnitVolume("scout_mk1")
	assert.True(t, ok)
	assert.Equal(t, 0.0, vol)

	_, ok = cat.UnitVolume("exotic_paperclip")
	assert.False(t, ok)
}

func TestYieldRange(t *testing.T) {
	min, max := YieldRange(RarityCommon)
	assert.Equal(t, 0.80, min)
	assert.Equal(t, 0.95, max)

	min, max = YieldRange(RarityLegendary)
	assert.Equal(t, 0.50, min)
	assert.Equal(t, 0.60, max)

	// Unclassified ore falls back to the mid-grade band.
	min, max = YieldRange(Rarity("weird"))
	assert.Equal(t, 0.70, min)
	assert.Equal(t, 0.90, max)
}

func TestDisplayNameAndLevelRequirement(t *testing.T) {
	cat, err := New(testUniverse())
	require.NoError(t, err)

	assert.Equal(t, "Pulse Cannon T1", cat.DisplayName("pulse_cannon_t1"))
	assert.Equal(t, "no_such_item", cat.DisplayName("no_such_item"))

	assert.Equal(t, 1, cat.LevelRequirement("scout_mk1"))
	assert.Equal(t, 0, cat.LevelRequirement("raw_voltium"))
}

func TestRecipeInputs(t *testing.T) {
	cat, err := New(testUniverse())
	require.NoError(t, err)

	rec, ok := cat.RecipeFor("pulse_cannon_t1")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"energy_cell_t1": 2}, rec.Inputs())

	rec, ok = cat.RecipeFor("energy_cell_t1")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"voltium": 2, "plasmic_fuel": 1}, rec.Inputs())

	_, ok = cat.RecipeFor("scout_mk1")
	assert.False(t, ok)
}

func TestLocationServiceAndProduction(t *testing.T) {
	cat, err := New(testUniverse())
	require.NoError(t, err)

	loc, ok := cat.Location("nexus_prime")
	require.True(t, ok)
	assert.True(t, loc.HasService("market"))
	assert.False(t, loc.HasService("black_market"))

	belt, ok := cat.Location("outer_belts")
	require.True(t, ok)
	assert.True(t, belt.Produces("raw_voltium"))
	assert.False(t, belt.Produces("raw_chronite"))
}

func TestSortedKeyAccessors(t *testing.T) {
	cat, err := New(testUniverse())
	require.NoError(t, err)

	assert.Equal(t, []string{"chronite", "plasmic_fuel", "raw_chronite", "raw_voltium", "voltium"}, cat.ResourceKeys())
	assert.Equal(t, []string{"nexus_prime", "outer_belts"}, cat.LocationKeys())
}
