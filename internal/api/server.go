// Package api exposes the operator HTTP surface: health, version, stats,
// the emergency control endpoints and graceful shutdown.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"razglasgo/pkg/version"
)

// NewServer creates and configures the HTTP server.
func NewServer(addr string, emergencyH *EmergencyHandler, stats *StatsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.Handle("GET /api/stats", stats)

	mux.HandleFunc("POST /api/emergency/security-alert", emergencyH.HandleSecurityAlert)
	mux.HandleFunc("POST /api/emergency/evacuation", emergencyH.HandleEvacuation)
	mux.HandleFunc("POST /api/emergency/security-level-change", emergencyH.HandleSecurityLevelChange)
	mux.HandleFunc("POST /api/emergency/lost-found", emergencyH.HandleLostFound)
	mux.HandleFunc("POST /api/emergency/deactivate", emergencyH.HandleDeactivate)
	mux.HandleFunc("POST /api/emergency/clear-all", emergencyH.HandleClearAll)
	mux.HandleFunc("GET /api/emergency/active", emergencyH.HandleActive)

	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow the response to flush.
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
