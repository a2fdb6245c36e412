// Package handler provides HTTP handlers for the eats proxy API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eats-proxy/internal/cookie"
	"eats-proxy/internal/model"
	"eats-proxy/internal/remote"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	api    remote.API
	logger *slog.Logger

	// Cookie domains for re-issuing platform cookies under the proxy's
	// own host. Empty values disable rewriting.
	platformDomain string
	serviceDomain  string
}

// New creates a new Handler. platformDomain/serviceDomain configure the
// domain rewrite applied to re-issued Set-Cookie headers; pass "" to
// forward them untouched.
func New(api remote.API, logger *slog.Logger, platformDomain, serviceDomain string) *Handler {
	return &Handler{
		api:            api,
		logger:         logger,
		platformDomain: platformDomain,
		serviceDomain:  serviceDomain,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns. Every step is a POST: even pure
// lookups carry a JSON body (and often a cookie jar).
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Location steps
	mux.HandleFunc("POST /api/locations/autocomplete", h.handleAutocompleteLocation)
	mux.HandleFunc("POST /api/locations/details", h.handleLocationDetails)
	mux.HandleFunc("POST /api/locations/delivery", h.handleDeliveryLocation)
	mux.HandleFunc("POST /api/locations/set", h.handleSetLocation)
	mux.HandleFunc("POST /api/locations/select", h.handleSelectLocation)

	// Discovery steps
	mux.HandleFunc("POST /api/search", h.handleSearch)
	mux.HandleFunc("POST /api/search/suggestions", h.handleSearchSuggestions)
	mux.HandleFunc("POST /api/stores/menu", h.handleStoreMenu)
	mux.HandleFunc("POST /api/stores/item", h.handleItemDetails)

	// Cart steps
	mux.HandleFunc("POST /api/cart/create", h.handleCreateCart)
	mux.HandleFunc("POST /api/cart/add", h.handleAddItem)
	mux.HandleFunc("POST /api/cart/fee", h.handleComputeFee)
	mux.HandleFunc("POST /api/cart/remove", h.handleRemoveItem)
	mux.HandleFunc("POST /api/cart/sync", h.handleSyncItems)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Discovery + health
	mux.HandleFunc("GET /.well-known/eats-proxy", h.handleWellKnown)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeStep sends a step result, re-issuing the platform's Set-Cookie
// lines under the service's own domain so browser-based callers keep a
// working jar without reading the JSON body.
func (h *Handler) writeStep(w http.ResponseWriter, result *remote.StepResult) {
	for _, line := range cookie.RewriteDomain(result.SetCookie, h.platformDomain, h.serviceDomain) {
		w.Header().Add("Set-Cookie", line)
	}
	h.writeJSON(w, http.StatusOK, result)
}

// writeError sends an error response. Platform errors pass through with
// their original status and body; everything else is mapped through the
// APIError taxonomy via errors.As().
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var remoteErr *model.RemoteError
	if errors.As(err, &remoteErr) {
		// The platform already said what went wrong; forward it verbatim
		// so callers see exactly what a browser would.
		if len(remoteErr.Data) > 0 {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(remoteErr.Status)
		w.Write([]byte(remoteErr.Body))
		return
	}

	var cookieErr *cookie.MalformedCookieError
	if errors.As(err, &cookieErr) {
		err = model.NewBadCookieError(err)
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
