package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"razglasgo/pkg/emergency"
)

// EmergencyHandler maps the operator control surface onto the emergency
// registry. All operations are idempotent and safe to call repeatedly.
type EmergencyHandler struct {
	registry *emergency.Registry
}

// NewEmergencyHandler creates the handler.
func NewEmergencyHandler(r *emergency.Registry) *EmergencyHandler {
	return &EmergencyHandler{registry: r}
}

type securityAlertRequest struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type evacuationRequest struct {
	Area   string `json:"area"`
	Reason string `json:"reason"`
}

type securityLevelChangeRequest struct {
	Level   string `json:"level"`
	Details string `json:"details"`
}

type lostFoundRequest struct {
	Item     string `json:"item"`
	Location string `json:"location"`
}

type deactivateRequest struct {
	ID string `json:"id"`
}

func (h *EmergencyHandler) HandleSecurityAlert(w http.ResponseWriter, r *http.Request) {
	var req securityAlertRequest
	if !decode(w, r, &req) {
		return
	}
	entry := h.registry.AddSecurityAlert(req.Level, req.Message)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EmergencyHandler) HandleEvacuation(w http.ResponseWriter, r *http.Request) {
	var req evacuationRequest
	if !decode(w, r, &req) {
		return
	}
	entry := h.registry.AddEvacuation(req.Area, req.Reason)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EmergencyHandler) HandleSecurityLevelChange(w http.ResponseWriter, r *http.Request) {
	var req securityLevelChangeRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Level) == "" {
		http.Error(w, `{"error": "level is required"}`, http.StatusBadRequest)
		return
	}
	entry := h.registry.AddSecurityLevelChange(req.Level, req.Details)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EmergencyHandler) HandleLostFound(w http.ResponseWriter, r *http.Request) {
	var req lostFoundRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Item) == "" {
		http.Error(w, `{"error": "item is required"}`, http.StatusBadRequest)
		return
	}
	entry := h.registry.AddLostFound(req.Item, req.Location)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EmergencyHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	var req deactivateRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.registry.Deactivate(req.ID) {
		http.Error(w, `{"error": "unknown emergency id"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

func (h *EmergencyHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	h.registry.ClearAll()
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (h *EmergencyHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.GetActive()
	if entries == nil {
		entries = []emergency.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
