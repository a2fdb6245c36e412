// Package remote defines the step contract for the delivery platform's
// private web API. Each workflow step is one HTTP call; every step returns
// the parsed payload together with the response cookies the caller must
// merge into its running jar before the next step.
package remote

import (
	"context"
	"encoding/json"

	"eats-proxy/internal/cookie"
)

// StepResult is the normalized outcome of one workflow step.
type StepResult struct {
	// Data is the platform's JSON response body, forwarded opaquely.
	Data json.RawMessage `json:"data"`

	// Cookies holds the response Set-Cookie pairs as a jar. Empty (never
	// nil) when the platform issued no cookies, or when the step is
	// configured not to forward them.
	Cookies cookie.Jar `json:"responseCookies"`

	// SetCookie preserves the raw Set-Cookie lines so the handler can
	// re-issue them for the service's own domain.
	SetCookie []string `json:"-"`
}

// LocationSelection is a resolved delivery location: the platform place id
// plus provider from autocomplete, and the full detail payload that gets
// encoded into the location cookie. It is transient - once SetLocation's
// response is merged into the jar, the selection has served its purpose.
type LocationSelection struct {
	PlaceID  string          `json:"placeId"`
	Provider string          `json:"provider"`
	Detail   json.RawMessage `json:"detail"`
}

// CartItemParams describes one catalog item being added to a draft order.
// The client stamps a fresh item-instance id on every add, so adding the
// same catalog item twice yields two distinguishable cart entries.
type CartItemParams struct {
	ItemID         string          `json:"itemId"`       // catalog item uuid
	StoreID        string          `json:"storeId"`
	SectionID      string          `json:"sectionId"`
	SubsectionID   string          `json:"subsectionId"`
	Price          int64           `json:"price"`        // unit price, integer cents
	Title          string          `json:"title"`
	Quantity       int             `json:"quantity"`
	Customizations json.RawMessage `json:"customizations,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
}

// RemoveItemParams identifies one cart entry to delete.
type RemoveItemParams struct {
	CartUUID       string `json:"cartUuid"`
	DraftOrderUUID string `json:"draftOrderUuid"`
	ItemInstanceID string `json:"itemInstanceId"`
	StoreUUID      string `json:"storeUuid"`
}

// DraftOrder is the platform's in-progress cart, created by CreateCart.
// DraftOrderUUID is the cart's identity for every subsequent operation.
type DraftOrder struct {
	DraftOrderUUID string      `json:"draftOrderUuid"`
	CartUUID       string      `json:"cartUuid"`
	ItemInstanceID string      `json:"itemInstanceId"` // instance id of the initial item
	Result         *StepResult `json:"result"`
}

// CartMutation is the outcome of adding an item to an existing draft order.
type CartMutation struct {
	ItemInstanceID string      `json:"itemInstanceId"`
	Result         *StepResult `json:"result"`
}

// API is the Remote API Client: one method per workflow step. Location and
// catalog lookups are stateless with respect to cookies; search and cart
// operations require the caller's jar. Implementations perform exactly one
// outbound HTTP call per invocation - no retries, no caching - and surface
// every non-2xx platform response as *model.RemoteError.
type API interface {
	// AutocompleteLocation resolves free text to candidate locations.
	AutocompleteLocation(ctx context.Context, query string) (*StepResult, error)

	// LocationDetails expands an autocomplete candidate into a full detail
	// payload. The candidate is forwarded opaquely.
	LocationDetails(ctx context.Context, candidate json.RawMessage) (*StepResult, error)

	// DeliveryLocation resolves a place id + provider into a deliverable
	// location detail.
	DeliveryLocation(ctx context.Context, placeID, provider string) (*StepResult, error)

	// SetLocation pins the session to a location. The selection's detail is
	// encoded into a single cookie; the response jar becomes the baseline
	// session state for all following steps. SetLocation never consumes a
	// prior jar - it is always the chain's start.
	SetLocation(ctx context.Context, loc LocationSelection) (*StepResult, error)

	// Search runs a free-text store/dish search. Requires the jar
	// established by SetLocation; the response jar must be merged forward
	// because the platform may rotate session cookies here.
	Search(ctx context.Context, query string, jar cookie.Jar) (*StepResult, error)

	// SearchSuggestions returns typeahead suggestions. Same jar contract
	// as Search, independent of it.
	SearchSuggestions(ctx context.Context, query string, jar cookie.Jar) (*StepResult, error)

	// StoreMenu fetches a store's catalog. Store catalogs are not
	// session-scoped, so no jar is involved.
	StoreMenu(ctx context.Context, storeID string) (*StepResult, error)

	// ItemDetails fetches one menu item's detail (customization options,
	// pricing) by its catalog coordinates.
	ItemDetails(ctx context.Context, storeID, sectionID, subsectionID, itemID string) (*StepResult, error)

	// CreateCart opens a draft order containing the given item. The
	// returned DraftOrderUUID must be threaded into every later cart step.
	CreateCart(ctx context.Context, item CartItemParams, jar cookie.Jar) (*DraftOrder, error)

	// AddItem adds another item to an existing draft order.
	AddItem(ctx context.Context, draftOrderUUID, cartUUID string, item CartItemParams, jar cookie.Jar) (*CartMutation, error)

	// ComputeFee fetches the checkout presentation (fees, totals,
	// promotions) for a draft order. Derived fresh every call, never cached.
	ComputeFee(ctx context.Context, draftOrderUUID string, jar cookie.Jar) (*StepResult, error)

	// RemoveItem deletes one cart entry by item-instance id. Per observed
	// platform behavior its response cookies are not forwarded; the
	// returned result carries an empty jar.
	RemoveItem(ctx context.Context, p RemoveItemParams, jar cookie.Jar) (*StepResult, error)
}
