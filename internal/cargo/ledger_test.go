/*
Package cargo
File: ledger_test.go
Description: Capacity invariant and multi-source draw tests.
*/

package cargo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
)

// testCatalog builds a minimal world: ore at 1.0 volume, ingots at 0.4,
// a bulky module and a zero-volume hull.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.Universe{
		Resources: []catalog.Resource{
			{Key: "raw_voltium", Name: "Raw Voltium Ore", Rarity: catalog.RarityCommon, BasePrice: 100, Volume: 1.0, RefinesTo: "voltium"},
			{Key: "voltium", Name: "Voltium Ingot", Rarity: catalog.RarityCommon, BasePrice: 200, Volume: 0.4},
		},
		Modules: []catalog.Module{
			{Key: "pulse_cannon_t1", Name: "Pulse Cannon T1", Tier: 1, Volume: 10, LevelReq: 1, ManufacturingCost: 6500},
		},
		Ships: []catalog.Ship{
			{Key: "scout_mk1", Name: "Scout MK1", Tier: 1, LevelReq: 1, BaseCost: 100000, CargoCapacity: 200},
		},
	})
	require.NoError(t, err)
	return cat
}

func TestAddWithinCapacity(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)

	require.NoError(t, led.Add("raw_voltium", 60))
	assert.Equal(t, 60, led.Quantity("raw_voltium"))
	assert.Equal(t, 60.0, led.UsedVolume())
	assert.Equal(t, 40.0, led.FreeVolume())
}

func TestAddRejectsOverCapacityWithoutSideEffects(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)
	require.NoError(t, led.Add("raw_voltium", 60))

	err := led.Add("raw_voltium", 41)
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	// The failed add must not change anything.
	assert.Equal(t, 60, led.Quantity("raw_voltium"))
	assert.Equal(t, 60.0, led.UsedVolume())
}

func TestAddRejectsUnknownItem(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)

	err := led.Add("exotic_paperclip", 1)
	require.ErrorIs(t, err, ErrUnknownItem)
	assert.Empty(t, led.Items())
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)

	assert.ErrorIs(t, led.Add("raw_voltium", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, led.Add("raw_voltium", -5), ErrInvalidQuantity)
}

func TestRemoveDeletesAtZero(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)
	require.NoError(t, led.Add("raw_voltium", 10))

	require.NoError(t, led.Remove("raw_voltium", 4))
	assert.Equal(t, 6, led.Quantity("raw_voltium"))

	require.NoError(t, led.Remove("raw_voltium", 6))
	assert.NotContains(t, led.Items(), "raw_voltium")
}

func TestRemoveRejectsShortfall(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)
	require.NoError(t, led.Add("raw_voltium", 3))

	err := led.Remove("raw_voltium", 4)
	require.ErrorIs(t, err, ErrInsufficientQuantity)
	assert.Equal(t, 3, led.Quantity("raw_voltium"))
}

func TestZeroVolumeItemsNeverFillTheHold(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)

	// A hull parks in a berth, not the hold.
	require.NoError(t, led.Add("scout_mk1", 3))
	assert.Equal(t, 0.0, led.UsedVolume())
	assert.Equal(t, 100.0, led.FreeVolume())
}

func TestMaxAddable(t *testing.T) {
	led := NewLedger(testCatalog(t), 100)
	require.NoError(t, led.Add("raw_voltium", 95))

	assert.Equal(t, 5, led.MaxAddable("raw_voltium"))
	assert.Equal(t, 12, led.MaxAddable("voltium"))        // 5.0 free / 0.4
	assert.Equal(t, 0, led.MaxAddable("pulse_cannon_t1")) // 10 > 5 free
	assert.Equal(t, 0, led.MaxAddable("exotic_paperclip"))

	require.NoError(t, led.Add("raw_voltium", 5))
	assert.Equal(t, 0, led.MaxAddable("raw_voltium"))
}

func TestDrawFromShipFirst(t *testing.T) {
	cat := testCatalog(t)
	ship := NewLedger(cat, 100)
	station := NewLedger(cat, 1000)
	require.NoError(t, ship.Add("raw_voltium", 30))
	require.NoError(t, station.Add("raw_voltium", 70))

	d, err := DrawFrom(ship, station, "raw_voltium", 50)
	require.NoError(t, err)
	assert.Equal(t, Draw{Ship: 30, Station: 20}, d)
	assert.Equal(t, 0, ship.Quantity("raw_voltium"))
	assert.Equal(t, 50, station.Quantity("raw_voltium"))
}

func TestDrawFromShipOnly(t *testing.T) {
	cat := testCatalog(t)
	ship := NewLedger(cat, 100)
	require.NoError(t, ship.Add("raw_voltium", 50))

	d, err := DrawFrom(ship, nil, "raw_voltium", 20)
	require.NoError(t, err)
	assert.Equal(t, Draw{Ship: 20}, d)
	assert.Equal(t, 50, d.Total()+ship.Quantity("raw_voltium"))
}

func TestDrawFromCombinedShortfall(t *testing.T) {
	cat := testCatalog(t)
	ship := NewLedger(cat, 100)
	station := NewLedger(cat, 1000)
	require.NoError(t, ship.Add("raw_voltium", 10))
	require.NoError(t, station.Add("raw_voltium", 10))

	_, err := DrawFrom(ship, station, "raw_voltium", 21)
	require.ErrorIs(t, err, ErrInsufficientQuantity)
	assert.Equal(t, 10, ship.Quantity("raw_voltium"))
	assert.Equal(t, 10, station.Quantity("raw_voltium"))
}

func TestTransferRespectsDestinationCapacity(t *testing.T) {
	cat := testCatalog(t)
	ship := NewLedger(cat, 100)
	station := NewLedger(cat, 25)
	require.NoError(t, ship.Add("raw_voltium", 50))

	err := Transfer(ship, station, "raw_voltium", 30)
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.Equal(t, 50, ship.Quantity("raw_voltium"))
	assert.Equal(t, 0, station.Quantity("raw_voltium"))

	require.NoError(t, Transfer(ship, station, "raw_voltium", 25))
	assert.Equal(t, 25, ship.Quantity("raw_voltium"))
	assert.Equal(t, 25, station.Quantity("raw_voltium"))
}
