/*
Package main
File: main.go
Description: Server entry point. Loads the universe, starts the real-time
WebSocket hub, and runs the background heartbeat that drives the economy
clock.
*/

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Declare gameHub at the package level so it's accessible to handlers.go
var gameHub *Hub

func main() {
	// 1. Load the static universe configuration from YAML
	if err := LoadConfig(); err != nil {
		log.Fatalf("Config Fail: %v", err)
	}
	log.Printf("Universe online: %d locations, %d resources",
		len(world.Catalog().LocationKeys()), len(world.Catalog().ResourceKeys()))

	// 2. Initialize and start the Real-Time WebSocket Hub
	gameHub = NewHub()
	go gameHub.Run()

	// 3. THE ECONOMY HEARTBEAT
	// Runs every second. The engine stretches the real delta by the
	// configured time acceleration, completes any finished job, and pulses
	// every market when the sim clock crosses a fluctuation boundary.
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		for now := range ticker.C {
			dataLock.Lock()
			report := world.Tick(now)
			dataLock.Unlock()

			if report.MarketPulse {
				broadcastEvent("market_pulse", map[string]interface{}{
					"sim_time": report.SimTime,
				})
				log.Printf("Market Pulse: sim clock %.0fs", report.SimTime)
			}

			if report.Completed != nil {
				broadcastEvent("job_complete", report.Completed)
				log.Printf("Job Complete: %dx %s (stored=%v)",
					report.Completed.Quantity, report.Completed.ItemName, report.Completed.Stored)
			}
		}
	}()

	// 4. Hot-reload logic: Listen for SIGHUP to refresh universe without restart
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for {
			<-sigChan
			log.Println("SIGNAL: Reloading Universe...")
			if err := LoadConfig(); err != nil {
				log.Printf("Reload failed, keeping old universe: %v", err)
			}
		}
	}()

	// 5. Setup Router and Handlers
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("/api/commander", handleGetCommander)
	mux.HandleFunc("/api/locations", handleGetLocations)
	mux.HandleFunc("/api/market", handleGetMarket)
	mux.HandleFunc("/api/market/route", handleBestRoute)
	mux.HandleFunc("/api/outfitting", handleGetOutfitting)
	mux.HandleFunc("/api/shipyard", handleGetShipyard)
	mux.HandleFunc("/api/jobs", handleJobStatus)

	// Action Endpoints
	mux.HandleFunc("/api/market/buy", handleBuyResource)
	mux.HandleFunc("/api/market/sell", handleSellResource)
	mux.HandleFunc("/api/mine", handleMine)
	mux.HandleFunc("/api/refine", handleRefine)
	mux.HandleFunc("/api/cargo/transfer", handleTransfer)
	mux.HandleFunc("/api/jobs/start", handleStartJob)
	mux.HandleFunc("/api/jobs/cancel", handleCancelJob)
	mux.HandleFunc("/api/outfitting/buy", handleBuyOutfit)
	mux.HandleFunc("/api/outfitting/sell", handleSellOutfit)
	mux.HandleFunc("/api/shipyard/buy", handleBuyShip)
	mux.HandleFunc("/api/shipyard/sell", handleSellShip)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(gameHub, w, r)
	})

	// 6. Start the Server
	port := ":8081"
	log.Printf("VOIDTRADE EXCHANGE Server live on %s", port)
	log.Printf("Real-time Hub: Online")

	if err := http.ListenAndServe(port, corsMiddleware(mux)); err != nil {
		log.Fatal(err)
	}
}

// broadcastEvent wraps a payload in the hub's envelope and fans it out.
func broadcastEvent(eventType string, payload interface{}) {
	msg := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	gameHub.broadcast <- jsonBytes
}

// corsMiddleware ensures the desktop client can talk to the server across domains.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
