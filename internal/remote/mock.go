package remote

import (
	"context"
	"encoding/json"

	"eats-proxy/internal/cookie"
	"eats-proxy/internal/model"
)

// Mock implements API for testing.
// Each method can be configured via function fields.
type Mock struct {
	AutocompleteLocationFunc func(ctx context.Context, query string) (*StepResult, error)
	LocationDetailsFunc      func(ctx context.Context, candidate json.RawMessage) (*StepResult, error)
	DeliveryLocationFunc     func(ctx context.Context, placeID, provider string) (*StepResult, error)
	SetLocationFunc          func(ctx context.Context, loc LocationSelection) (*StepResult, error)
	SearchFunc               func(ctx context.Context, query string, jar cookie.Jar) (*StepResult, error)
	SearchSuggestionsFunc    func(ctx context.Context, query string, jar cookie.Jar) (*StepResult, error)
	StoreMenuFunc            func(ctx context.Context, storeID string) (*StepResult, error)
	ItemDetailsFunc          func(ctx context.Context, storeID, sectionID, subsectionID, itemID string) (*StepResult, error)
	CreateCartFunc           func(ctx context.Context, item CartItemParams, jar cookie.Jar) (*DraftOrder, error)
	AddItemFunc              func(ctx context.Context, draftOrderUUID, cartUUID string, item CartItemParams, jar cookie.Jar) (*CartMutation, error)
	ComputeFeeFunc           func(ctx context.Context, draftOrderUUID string, jar cookie.Jar) (*StepResult, error)
	RemoveItemFunc           func(ctx context.Context, p RemoveItemParams, jar cookie.Jar) (*StepResult, error)
}

func (m *Mock) AutocompleteLocation(ctx context.Context, query string) (*StepResult, error) {
	if m.AutocompleteLocationFunc != nil {
		return m.AutocompleteLocationFunc(ctx, query)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) LocationDetails(ctx context.Context, candidate json.RawMessage) (*StepResult, error) {
	if m.LocationDetailsFunc != nil {
		return m.LocationDetailsFunc(ctx, candidate)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) DeliveryLocation(ctx context.Context, placeID, provider string) (*StepResult, error) {
	if m.DeliveryLocationFunc != nil {
		return m.DeliveryLocationFunc(ctx, placeID, provider)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) SetLocation(ctx context.Context, loc LocationSelection) (*StepResult, error) {
	if m.SetLocationFunc != nil {
		return m.SetLocationFunc(ctx, loc)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) Search(ctx context.Context, query string, jar cookie.Jar) (*StepResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, jar)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) SearchSuggestions(ctx context.Context, query string, jar cookie.Jar) (*StepResult, error) {
	if m.SearchSuggestionsFunc != nil {
		return m.SearchSuggestionsFunc(ctx, query, jar)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) StoreMenu(ctx context.Context, storeID string) (*StepResult, error) {
	if m.StoreMenuFunc != nil {
		return m.StoreMenuFunc(ctx, storeID)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) ItemDetails(ctx context.Context, storeID, sectionID, subsectionID, itemID string) (*StepResult, error) {
	if m.ItemDetailsFunc != nil {
		return m.ItemDetailsFunc(ctx, storeID, sectionID, subsectionID, itemID)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) CreateCart(ctx context.Context, item CartItemParams, jar cookie.Jar) (*DraftOrder, error) {
	if m.CreateCartFunc != nil {
		return m.CreateCartFunc(ctx, item, jar)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) AddItem(ctx context.Context, draftOrderUUID, cartUUID string, item CartItemParams, jar cookie.Jar) (*CartMutation, error) {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, draftOrderUUID, cartUUID, item, jar)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) ComputeFee(ctx context.Context, draftOrderUUID string, jar cookie.Jar) (*StepResult, error) {
	if m.ComputeFeeFunc != nil {
		return m.ComputeFeeFunc(ctx, draftOrderUUID, jar)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) RemoveItem(ctx context.Context, p RemoveItemParams, jar cookie.Jar) (*StepResult, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, p, jar)
	}
	return nil, model.NewInternalError(nil)
}

// Verify Mock implements API at compile time.
var _ API = (*Mock)(nil)
