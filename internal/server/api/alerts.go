// Package api provides the HTTP handlers for the alert journal.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/catfence/internal/store"
)

// AlertReader is the read side of the alert journal.
type AlertReader interface {
	Get(ctx context.Context, id string) (*store.Alert, error)
	List(ctx context.Context, limit int) ([]*store.Alert, error)
	Count(ctx context.Context) (int, error)
}

// AlertsHandler handles HTTP requests for alert resources.
type AlertsHandler struct {
	alerts AlertReader
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(alerts AlertReader) *AlertsHandler {
	return &AlertsHandler{alerts: alerts}
}

// AlertList is the body of GET /api/alerts.
type AlertList struct {
	Total  int            `json:"total"`
	Alerts []*store.Alert `json:"alerts"`
}

// ServeHTTP routes /api/alerts and /api/alerts/{id}.
func (h *AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/alerts")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, path)
}

func (h *AlertsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	alerts, err := h.alerts.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []*store.Alert{}
	}

	total, err := h.alerts.Count(r.Context())
	if err != nil {
		http.Error(w, "Failed to count alerts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AlertList{Total: total, Alerts: alerts})
}

func (h *AlertsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.alerts.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get alert", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
