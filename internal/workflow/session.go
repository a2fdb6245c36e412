// Package workflow chains the platform's per-step calls into coherent
// multi-step flows, threading the cookie jar and cart identifiers that
// the platform expects a browser session to carry between steps.
package workflow

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"eats-proxy/internal/cookie"
	"eats-proxy/internal/model"
	"eats-proxy/internal/reconcile"
	"eats-proxy/internal/remote"
)

// State tracks how far a session has progressed through the ordering flow.
type State int

const (
	StateUnlocated State = iota
	StateLocated
	StateSearched
	StateCartOpen
	StateCartPriced
)

func (s State) String() string {
	switch s {
	case StateUnlocated:
		return "unlocated"
	case StateLocated:
		return "located"
	case StateSearched:
		return "searched"
	case StateCartOpen:
		return "cart-open"
	case StateCartPriced:
		return "cart-priced"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LineItem is one cart entry the session tracks locally. The platform
// identifies entries by the instance ID minted at add time, so removal is
// impossible without it.
type LineItem struct {
	InstanceID    string `json:"instanceId"`
	CatalogItemID string `json:"catalogItemId"`
	Quantity      int    `json:"quantity"`
}

// Session is the full client-side state of one ordering flow: the running
// cookie jar plus the identifiers the cart endpoints need. Sessions are
// values; every step returns a new one and never mutates the receiver, so
// callers can keep an old session around to retry a step.
type Session struct {
	State          State      `json:"state"`
	Jar            cookie.Jar `json:"cookies"`
	DraftOrderUUID string     `json:"draftOrderUuid,omitempty"`
	CartUUID       string     `json:"cartUuid,omitempty"`
	StoreUUID      string     `json:"storeUuid,omitempty"`
	Items          []LineItem `json:"items,omitempty"`
}

// New returns an empty session ready for location selection.
func New() Session {
	return Session{State: StateUnlocated, Jar: cookie.Jar{}}
}

// Response envelopes for the steps the workflow must see inside.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type candidateList struct {
	Data []json.RawMessage `json:"data"`
}

type candidateRef struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// SelectLocation resolves a free-text address through the platform's
// four-call location chain (autocomplete, details, delivery eligibility,
// set) and returns a session whose jar is the fresh baseline the set-location
// response issued. The first autocomplete candidate wins. Selecting a
// location invalidates any open cart; its identifiers are dropped.
func (s Session) SelectLocation(ctx context.Context, api remote.API, query string) (Session, *remote.StepResult, error) {
	if query == "" {
		return s, nil, model.NewValidationError("query", "must not be empty")
	}

	auto, err := api.AutocompleteLocation(ctx, query)
	if err != nil {
		return s, nil, err
	}
	var candidates candidateList
	if err := json.Unmarshal(auto.Data, &candidates); err != nil {
		return s, nil, fmt.Errorf("select-location: parsing candidates: %w", err)
	}
	if len(candidates.Data) == 0 {
		return s, nil, model.NewNotFoundError(fmt.Sprintf("no location matched %q", query))
	}
	candidate := candidates.Data[0]

	var ref candidateRef
	if err := json.Unmarshal(candidate, &ref); err != nil {
		return s, nil, fmt.Errorf("select-location: parsing candidate: %w", err)
	}

	details, err := api.LocationDetails(ctx, candidate)
	if err != nil {
		return s, nil, err
	}
	var detail dataEnvelope
	if err := json.Unmarshal(details.Data, &detail); err != nil {
		return s, nil, fmt.Errorf("select-location: parsing details: %w", err)
	}

	if _, err := api.DeliveryLocation(ctx, ref.ID, ref.Provider); err != nil {
		return s, nil, err
	}

	set, err := api.SetLocation(ctx, remote.LocationSelection{
		PlaceID:  ref.ID,
		Provider: ref.Provider,
		Detail:   detail.Data,
	})
	if err != nil {
		return s, nil, err
	}

	// The set-location response is the session baseline; earlier steps'
	// cookies are discarded with the pre-location jar.
	jar := set.Cookies.Clone()
	if jar == nil {
		jar = cookie.Jar{}
	}
	if jar["uev2.loc"] == "" {
		// Platform sometimes leaves the location cookie to the client.
		encoded, err := cookie.EncodeLocation(detail.Data)
		if err != nil {
			return s, nil, fmt.Errorf("select-location: %w", err)
		}
		jar["uev2.loc"] = encoded
	}

	return Session{State: StateLocated, Jar: jar}, set, nil
}

// Search runs a feed search with the session's jar and folds the response
// cookies back in.
func (s Session) Search(ctx context.Context, api remote.API, query string) (Session, *remote.StepResult, error) {
	if err := s.requireLocation(); err != nil {
		return s, nil, err
	}

	result, err := api.Search(ctx, query, s.Jar)
	if err != nil {
		return s, nil, err
	}

	next := s.merged(result.Cookies)
	if next.State < StateSearched {
		next.State = StateSearched
	}
	return next, result, nil
}

// AddItem puts one item in the cart, opening a draft order on first use.
func (s Session) AddItem(ctx context.Context, api remote.API, item remote.CartItemParams) (Session, *remote.StepResult, error) {
	if err := s.requireLocation(); err != nil {
		return s, nil, err
	}
	if item.ItemID == "" {
		return s, nil, model.NewValidationError("itemId", "must not be empty")
	}
	if item.Quantity <= 0 {
		return s, nil, model.NewValidationError("quantity", "must be positive")
	}

	if s.DraftOrderUUID == "" {
		order, err := api.CreateCart(ctx, item, s.Jar)
		if err != nil {
			return s, nil, err
		}
		next := s.merged(order.Result.Cookies)
		next.State = StateCartOpen
		next.DraftOrderUUID = order.DraftOrderUUID
		next.CartUUID = order.CartUUID
		next.StoreUUID = item.StoreID
		next.Items = append(next.Items, LineItem{
			InstanceID:    order.ItemInstanceID,
			CatalogItemID: item.ItemID,
			Quantity:      item.Quantity,
		})
		return next, order.Result, nil
	}

	mutation, err := api.AddItem(ctx, s.DraftOrderUUID, s.CartUUID, item, s.Jar)
	if err != nil {
		return s, nil, err
	}
	next := s.merged(mutation.Result.Cookies)
	next.State = StateCartOpen
	next.Items = append(next.Items, LineItem{
		InstanceID:    mutation.ItemInstanceID,
		CatalogItemID: item.ItemID,
		Quantity:      item.Quantity,
	})
	return next, mutation.Result, nil
}

// RemoveItem drops one tracked instance from the cart. The remove-item
// response's cookies never enter the session jar.
func (s Session) RemoveItem(ctx context.Context, api remote.API, instanceID string) (Session, *remote.StepResult, error) {
	if err := s.requireCart(); err != nil {
		return s, nil, err
	}

	idx := -1
	for i, item := range s.Items {
		if item.InstanceID == instanceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, nil, model.NewValidationError("itemInstanceId", "not present in cart")
	}

	result, err := api.RemoveItem(ctx, remote.RemoveItemParams{
		CartUUID:       s.CartUUID,
		DraftOrderUUID: s.DraftOrderUUID,
		ItemInstanceID: instanceID,
		StoreUUID:      s.StoreUUID,
	}, s.Jar)
	if err != nil {
		return s, nil, err
	}

	next := s.clone()
	next.Items = append(next.Items[:idx:idx], next.Items[idx+1:]...)
	return next, result, nil
}

// ComputeFee asks the platform to price the open cart.
func (s Session) ComputeFee(ctx context.Context, api remote.API) (Session, *remote.StepResult, error) {
	if err := s.requireCart(); err != nil {
		return s, nil, err
	}

	result, err := api.ComputeFee(ctx, s.DraftOrderUUID, s.Jar)
	if err != nil {
		return s, nil, err
	}

	next := s.merged(result.Cookies)
	next.State = StateCartPriced
	return next, result, nil
}

// SyncItems reconciles the cart toward the desired items, removing before
// adding. Quantity changes replace every existing instance of the item
// since the platform has no in-place update. Desired items for a new cart
// open one implicitly via AddItem.
func (s Session) SyncItems(ctx context.Context, api remote.API, desired []remote.CartItemParams) (Session, error) {
	current := make([]reconcile.CurrentItem, len(s.Items))
	for i, item := range s.Items {
		current[i] = reconcile.CurrentItem{
			CatalogID:  item.CatalogItemID,
			InstanceID: item.InstanceID,
			Quantity:   item.Quantity,
		}
	}

	target := make([]reconcile.DesiredItem, len(desired))
	paramsByID := make(map[string]remote.CartItemParams, len(desired))
	for i, item := range desired {
		target[i] = reconcile.DesiredItem{CatalogID: item.ItemID, Quantity: item.Quantity}
		paramsByID[item.ItemID] = item
	}

	diff := reconcile.DiffCartItems(current, target)
	if diff.IsEmpty() {
		return s, nil
	}

	next := s
	for _, instanceID := range diff.ToRemove {
		var err error
		next, _, err = next.RemoveItem(ctx, api, instanceID)
		if err != nil {
			return next, err
		}
	}
	for _, add := range diff.ToAdd {
		params := paramsByID[add.CatalogID]
		params.Quantity = add.Quantity
		var err error
		next, _, err = next.AddItem(ctx, api, params)
		if err != nil {
			return next, err
		}
	}
	return next, nil
}

func (s Session) requireLocation() error {
	if s.Jar["uev2.loc"] == "" {
		return model.NewValidationError("session", "no delivery location selected")
	}
	return nil
}

func (s Session) requireCart() error {
	if s.DraftOrderUUID == "" {
		return model.NewValidationError("session", "no open cart")
	}
	return nil
}

// merged clones the session and folds response cookies into the jar,
// response values winning on collision.
func (s Session) merged(cookies cookie.Jar) Session {
	next := s.clone()
	next.Jar = s.Jar.Merged(cookies)
	return next
}

func (s Session) clone() Session {
	next := s
	next.Jar = s.Jar.Clone()
	next.Items = append([]LineItem(nil), s.Items...)
	return next
}
