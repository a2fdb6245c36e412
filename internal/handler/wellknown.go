package handler

import (
	"net/http"
)

// serviceProfile describes the proxy for agent discovery.
type serviceProfile struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Steps    []string `json:"steps"`
	MCP      string   `json:"mcp"`
	Stateful bool     `json:"stateful"`
}

// handleWellKnown returns the proxy's discovery profile.
// GET /.well-known/eats-proxy
func (h *Handler) handleWellKnown(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, serviceProfile{
		Name:    "eats-proxy",
		Version: "1.0.0",
		Steps: []string{
			"/api/locations/autocomplete",
			"/api/locations/details",
			"/api/locations/delivery",
			"/api/locations/set",
			"/api/locations/select",
			"/api/search",
			"/api/search/suggestions",
			"/api/stores/menu",
			"/api/stores/item",
			"/api/cart/create",
			"/api/cart/add",
			"/api/cart/fee",
			"/api/cart/remove",
			"/api/cart/sync",
		},
		MCP:      "/mcp",
		Stateful: false,
	})
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
