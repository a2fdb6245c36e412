package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"eats-proxy/internal/cookie"
	"eats-proxy/internal/model"
	"eats-proxy/internal/remote"
	"eats-proxy/internal/workflow"
)

// === Location Steps ===

type autocompleteRequest struct {
	Query string `json:"query"`
}

// handleAutocompleteLocation resolves free text to candidate locations.
// POST /api/locations/autocomplete
func (h *Handler) handleAutocompleteLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req autocompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Query == "" {
		h.writeError(w, model.NewValidationError("query", "must not be empty"))
		return
	}

	h.logger.InfoContext(ctx, "autocompleting location", slog.String("query", req.Query))

	result, err := h.api.AutocompleteLocation(ctx, req.Query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

type detailsRequest struct {
	Candidate json.RawMessage `json:"candidate"`
}

// handleLocationDetails expands an autocomplete candidate.
// POST /api/locations/details
func (h *Handler) handleLocationDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req detailsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if len(req.Candidate) == 0 {
		h.writeError(w, model.NewValidationError("candidate", "must not be empty"))
		return
	}

	result, err := h.api.LocationDetails(ctx, req.Candidate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

type deliveryRequest struct {
	PlaceID  string `json:"placeId"`
	Provider string `json:"provider"`
}

// handleDeliveryLocation checks delivery eligibility for a place.
// POST /api/locations/delivery
func (h *Handler) handleDeliveryLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.PlaceID == "" {
		h.writeError(w, model.NewValidationError("placeId", "must not be empty"))
		return
	}

	result, err := h.api.DeliveryLocation(ctx, req.PlaceID, req.Provider)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

// handleSetLocation pins a delivery location and returns the baseline jar.
// POST /api/locations/set
func (h *Handler) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req remote.LocationSelection
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.PlaceID == "" && len(req.Detail) == 0 {
		h.writeError(w, model.NewValidationError("placeId", "a place id or detail payload is required"))
		return
	}

	h.logger.InfoContext(ctx, "setting location", slog.String("place_id", req.PlaceID))

	result, err := h.api.SetLocation(ctx, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

type selectLocationRequest struct {
	Query string `json:"query"`
}

type sessionResponse struct {
	Session workflow.Session `json:"session"`
	Data    json.RawMessage  `json:"data,omitempty"`
}

// handleSelectLocation runs the full four-call location chain in one shot
// and returns the resulting session for the caller to hold.
// POST /api/locations/select
func (h *Handler) handleSelectLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req selectLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "selecting location", slog.String("query", req.Query))

	sess, result, err := workflow.New().SelectLocation(ctx, h.api, req.Query)
	if err != nil {
		h.writeError(w, err)
		return
	}

	for _, line := range cookie.RewriteDomain(result.SetCookie, h.platformDomain, h.serviceDomain) {
		w.Header().Add("Set-Cookie", line)
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Data: result.Data})
}

// === Discovery Steps ===

type searchRequest struct {
	Query   string     `json:"query"`
	Cookies cookie.Jar `json:"cookies"`
}

// handleSearch runs a feed search with the caller's jar.
// POST /api/search
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "searching",
		slog.String("query", req.Query),
		slog.Int("cookies", len(req.Cookies)),
	)

	result, err := h.api.Search(ctx, req.Query, req.Cookies)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

// handleSearchSuggestions returns typeahead suggestions.
// POST /api/search/suggestions
func (h *Handler) handleSearchSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.api.SearchSuggestions(ctx, req.Query, req.Cookies)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

type storeMenuRequest struct {
	StoreID string `json:"storeId"`
}

// handleStoreMenu fetches a store's catalog.
// POST /api/stores/menu
func (h *Handler) handleStoreMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req storeMenuRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.StoreID == "" {
		h.writeError(w, model.NewValidationError("storeId", "must not be empty"))
		return
	}

	result, err := h.api.StoreMenu(ctx, req.StoreID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

type itemDetailsRequest struct {
	StoreID      string `json:"storeId"`
	SectionID    string `json:"sectionId"`
	SubsectionID string `json:"subsectionId"`
	ItemID       string `json:"itemId"`
}

// handleItemDetails fetches one menu item's detail.
// POST /api/stores/item
func (h *Handler) handleItemDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req itemDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.StoreID == "" || req.ItemID == "" {
		h.writeError(w, model.NewValidationError("storeId/itemId", "both are required"))
		return
	}

	result, err := h.api.ItemDetails(ctx, req.StoreID, req.SectionID, req.SubsectionID, req.ItemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

// === Cart Steps ===

type createCartRequest struct {
	Item    remote.CartItemParams `json:"item"`
	Cookies cookie.Jar            `json:"cookies"`
}

// handleCreateCart opens a draft order with one item.
// POST /api/cart/create
func (h *Handler) handleCreateCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := validateItem(req.Item); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "creating cart",
		slog.String("store_id", req.Item.StoreID),
		slog.String("item_id", req.Item.ItemID),
	)

	order, err := h.api.CreateCart(ctx, req.Item, req.Cookies)
	if err != nil {
		h.writeError(w, err)
		return
	}

	for _, line := range cookie.RewriteDomain(order.Result.SetCookie, h.platformDomain, h.serviceDomain) {
		w.Header().Add("Set-Cookie", line)
	}
	h.writeJSON(w, http.StatusCreated, order)
}

type addItemRequest struct {
	DraftOrderUUID string                `json:"draftOrderUuid"`
	CartUUID       string                `json:"cartUuid"`
	Item           remote.CartItemParams `json:"item"`
	Cookies        cookie.Jar            `json:"cookies"`
}

// handleAddItem adds an item to an existing draft order.
// POST /api/cart/add
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.DraftOrderUUID == "" {
		h.writeError(w, model.NewValidationError("draftOrderUuid", "must not be empty"))
		return
	}
	if err := validateItem(req.Item); err != nil {
		h.writeError(w, err)
		return
	}

	mutation, err := h.api.AddItem(ctx, req.DraftOrderUUID, req.CartUUID, req.Item, req.Cookies)
	if err != nil {
		h.writeError(w, err)
		return
	}

	for _, line := range cookie.RewriteDomain(mutation.Result.SetCookie, h.platformDomain, h.serviceDomain) {
		w.Header().Add("Set-Cookie", line)
	}
	h.writeJSON(w, http.StatusOK, mutation)
}

type computeFeeRequest struct {
	DraftOrderUUID string     `json:"draftOrderUuid"`
	Cookies        cookie.Jar `json:"cookies"`
}

// handleComputeFee fetches the checkout presentation for a draft order.
// POST /api/cart/fee
func (h *Handler) handleComputeFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req computeFeeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.DraftOrderUUID == "" {
		h.writeError(w, model.NewValidationError("draftOrderUuid", "must not be empty"))
		return
	}

	result, err := h.api.ComputeFee(ctx, req.DraftOrderUUID, req.Cookies)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

type removeItemRequest struct {
	remote.RemoveItemParams
	Cookies cookie.Jar `json:"cookies"`
}

// handleRemoveItem deletes one cart entry by item-instance id.
// POST /api/cart/remove
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req removeItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.DraftOrderUUID == "" || req.ItemInstanceID == "" {
		h.writeError(w, model.NewValidationError("draftOrderUuid/itemInstanceId", "both are required"))
		return
	}

	h.logger.InfoContext(ctx, "removing item",
		slog.String("draft_order_uuid", req.DraftOrderUUID),
		slog.String("item_instance_id", req.ItemInstanceID),
	)

	result, err := h.api.RemoveItem(ctx, req.RemoveItemParams, req.Cookies)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStep(w, result)
}

type syncItemsRequest struct {
	Session workflow.Session        `json:"session"`
	Items   []remote.CartItemParams `json:"items"`
}

// handleSyncItems reconciles a caller-held session's cart toward the given
// items with PUT semantics: the items list is the complete desired state.
// POST /api/cart/sync
func (h *Handler) handleSyncItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req syncItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	for _, item := range req.Items {
		if err := validateItem(item); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.logger.InfoContext(ctx, "syncing cart",
		slog.String("draft_order_uuid", req.Session.DraftOrderUUID),
		slog.Int("desired_items", len(req.Items)),
	)

	sess, err := req.Session.SyncItems(ctx, h.api, req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

func validateItem(item remote.CartItemParams) error {
	if item.ItemID == "" {
		return model.NewValidationError("item.itemId", "must not be empty")
	}
	if item.StoreID == "" {
		return model.NewValidationError("item.storeId", "must not be empty")
	}
	if item.Quantity <= 0 {
		return model.NewValidationError("item.quantity", "must be positive")
	}
	return nil
}
