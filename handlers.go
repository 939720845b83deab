/*
Package main
File: handlers.go
Description: HTTP Handlers for the API. Trade, refining, manufacturing,
outfitting and shipyard actions all run under dataLock; the engine itself
is a plain single-threaded state machine.
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/everforgeworks/voidtrade-exchange/internal/cargo"
	"github.com/everforgeworks/voidtrade-exchange/internal/catalog"
	"github.com/everforgeworks/voidtrade-exchange/internal/industry"
	"github.com/everforgeworks/voidtrade-exchange/internal/market"
)

type TradeRequest struct {
	LocationKey string `json:"location_key"`
	ItemKey     string `json:"item_key"`
	Quantity    int    `json:"quantity"`
}

type TransferRequest struct {
	LocationKey string `json:"location_key"`
	ItemKey     string `json:"item_key"`
	Quantity    int    `json:"quantity"`
	ToStation   bool   `json:"to_station"`
}

type RefineRequest struct {
	LocationKey string `json:"location_key"`
	ResourceKey string `json:"resource_key"`
	Quantity    int    `json:"quantity"`
}

type JobRequest struct {
	LocationKey string `json:"location_key"`
	ItemKey     string `json:"item_key"`
	Quantity    int    `json:"quantity"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// failWith maps engine sentinel errors onto status codes. The error text
// goes to the client verbatim.
func failWith(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, market.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, market.ErrLevelTooLow),
		errors.Is(err, industry.ErrLevelTooLow),
		errors.Is(err, industry.ErrSkillTooLow):
		status = http.StatusForbidden
	case errors.Is(err, cargo.ErrInsufficientCapacity),
		errors.Is(err, industry.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, market.ErrNoMarket),
		errors.Is(err, market.ErrNotTraded),
		errors.Is(err, cargo.ErrUnknownItem),
		errors.Is(err, industry.ErrNoJob):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func handleGetCommander(w http.ResponseWriter, r *http.Request) {
	dataLock.RLock()
	defer dataLock.RUnlock()

	writeJSON(w, map[string]interface{}{
		"commander": commander,
		"cargo":     world.Ship().Items(),
		"used":      world.Ship().UsedVolume(),
		"capacity":  world.Ship().Capacity(),
		"sim_time":  world.SimTime(),
	})
}

func handleGetLocations(w http.ResponseWriter, r *http.Request) {
	dataLock.RLock()
	defer dataLock.RUnlock()

	cat := world.Catalog()
	locs := []catalog.Location{}
	for _, key := range cat.LocationKeys() {
		loc, _ := cat.Location(key)
		locs = append(locs, loc)
	}
	writeJSON(w, locs)
}

func handleGetMarket(w http.ResponseWriter, r *http.Request) {
	dataLock.RLock()
	defer dataLock.RUnlock()

	locKey := r.URL.Query().Get("location")
	if locKey == "" {
		locKey = commander.LocationKey
	}
	m, err := world.Exchange().At(locKey)
	if err != nil {
		failWith(w, err)
		return
	}
	writeJSON(w, m.Listing(false))
}

func handleBestRoute(w http.ResponseWriter, r *http.Request) {
	dataLock.RLock()
	defer dataLock.RUnlock()

	route, ok := world.Exchange().BestRoute(r.URL.Query().Get("resource"))
	if !ok {
		http.Error(w, "No route found", http.StatusNotFound)
		return
	}
	writeJSON(w, route)
}

func handleBuyResource(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	cost, err := world.BuyResource(req.LocationKey, req.ItemKey, req.Quantity,
		commander.Credits, commander.BuyDiscount())
	if err != nil {
		failWith(w, err)
		return
	}
	commander.Credits -= cost

	writeJSON(w, map[string]interface{}{"cost": cost, "credits": commander.Credits})
}

func handleSellResource(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	payment, err := world.SellResource(req.LocationKey, req.ItemKey, req.Quantity,
		commander.SellBonus(), commander.TaxReduction())
	if err != nil {
		failWith(w, err)
		return
	}
	commander.Credits += payment

	writeJSON(w, map[string]interface{}{"payment": payment, "credits": commander.Credits})
}

func handleMine(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	yield := req.Quantity + int(float64(req.Quantity)*commander.MiningBonus())
	stowed, err := world.Mine(req.ItemKey, yield)
	if err != nil {
		failWith(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"mined": stowed, "cargo": world.Ship().Items()})
}

func handleRefine(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	ship, _ := world.Catalog().Ship(commander.ShipKey)
	result, err := world.Refine(req.LocationKey, req.ResourceKey, req.Quantity, ship.Refinery)
	if err != nil {
		failWith(w, err)
		return
	}
	writeJSON(w, result)
}

func handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	var err error
	if req.ToStation {
		err = world.TransferToStation(req.LocationKey, req.ItemKey, req.Quantity)
	} else {
		err = world.TransferToShip(req.LocationKey, req.ItemKey, req.Quantity)
	}
	if err != nil {
		failWith(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"cargo": world.Ship().Items()})
}

func handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	kind := world.Catalog().Kind(req.ItemKey)
	job, err := world.StartJob(req.LocationKey, req.ItemKey, req.Quantity,
		commander.Level,
		commander.SkillLevel("module_manufacturing"),
		commander.SkillLevel("ship_construction"),
		commander.SpeedBonus(kind))
	if err != nil {
		failWith(w, err)
		return
	}
	writeJSON(w, job)
}

func handleJobStatus(w http.ResponseWriter, r *http.Request) {
	dataLock.RLock()
	defer dataLock.RUnlock()

	progress, ok := world.JobProgress()
	if !ok {
		http.Error(w, "No job in progress", http.StatusNotFound)
		return
	}
	writeJSON(w, progress)
}

func handleCancelJob(w http.ResponseWriter, r *http.Request) {
	dataLock.Lock()
	defer dataLock.Unlock()

	job, err := world.CancelJob()
	if err != nil {
		failWith(w, err)
		return
	}
	writeJSON(w, job)
}

func handleGetOutfitting(w http.ResponseWriter, r *http.Request) {
	dataLock.RLock()
	defer dataLock.RUnlock()

	if r.URL.Query().Get("kind") == "component" {
		writeJSON(w, world.Components().Available(commander.Level))
		return
	}
	writeJSON(w, world.Modules().Available(commander.Level))
}

func handleBuyOutfit(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	buy := world.BuyModule
	if world.Catalog().Kind(req.ItemKey) == catalog.KindComponent {
		buy = world.BuyComponent
	}
	cost, err := buy(req.LocationKey, req.ItemKey, commander.Credits,
		commander.Level, commander.BuyDiscount())
	if err != nil {
		failWith(w, err)
		return
	}
	commander.Credits -= cost

	writeJSON(w, map[string]interface{}{"cost": cost, "credits": commander.Credits})
}

func handleSellOutfit(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	sell := world.SellModule
	if world.Catalog().Kind(req.ItemKey) == catalog.KindComponent {
		sell = world.SellComponent
	}
	value, err := sell(req.ItemKey, commander.SellBonus())
	if err != nil {
		failWith(w, err)
		return
	}
	commander.Credits += value

	writeJSON(w, map[string]interface{}{"value": value, "credits": commander.Credits})
}

func handleGetShipyard(w http.ResponseWriter, r *http.Request) {
	dataLock.RLock()
	defer dataLock.RUnlock()

	locKey := r.URL.Query().Get("location")
	if locKey == "" {
		locKey = commander.LocationKey
	}
	writeJSON(w, world.Shipyard().Available(locKey, commander.Credits, commander.Level))
}

func handleBuyShip(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	cost, err := world.BuyShip(req.LocationKey, req.ItemKey, commander.Credits,
		commander.Level, commander.BuyDiscount())
	if err != nil {
		failWith(w, err)
		return
	}
	commander.Credits -= cost
	commander.OwnedShips = append(commander.OwnedShips, req.ItemKey)

	writeJSON(w, map[string]interface{}{"cost": cost, "credits": commander.Credits,
		"owned_ships": commander.OwnedShips})
}

func handleSellShip(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}

	dataLock.Lock()
	defer dataLock.Unlock()

	if req.ItemKey == commander.ShipKey {
		http.Error(w, "Cannot sell the active vessel", http.StatusConflict)
		return
	}
	owned := -1
	for i, key := range commander.OwnedShips {
		if key == req.ItemKey {
			owned = i
			break
		}
	}
	if owned == -1 {
		http.Error(w, "Hull not owned", http.StatusNotFound)
		return
	}

	value, err := world.SellShip(req.ItemKey, commander.SellBonus())
	if err != nil {
		failWith(w, err)
		return
	}
	commander.Credits += value
	commander.OwnedShips = append(commander.OwnedShips[:owned], commander.OwnedShips[owned+1:]...)

	writeJSON(w, map[string]interface{}{"value": value, "credits": commander.Credits,
		"owned_ships": commander.OwnedShips})
}
