package handler

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"eats-proxy/internal/cookie"
	"eats-proxy/internal/model"
	"eats-proxy/internal/remote"
	"eats-proxy/internal/workflow"
)

func newMCPTestHandler(api remote.API) *Handler {
	return New(api, testLogger(), "", "")
}

func TestMCPServerCreation(t *testing.T) {
	server := newMCPTestHandler(&remote.Mock{}).NewMCPServer()
	if server == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPSelectLocation(t *testing.T) {
	api := &remote.Mock{
		AutocompleteLocationFunc: func(ctx context.Context, query string) (*remote.StepResult, error) {
			return &remote.StepResult{Data: json.RawMessage(`{"data":[{"id":"p1","provider":"g"}]}`), Cookies: cookie.Jar{}}, nil
		},
		LocationDetailsFunc: func(ctx context.Context, candidate json.RawMessage) (*remote.StepResult, error) {
			return &remote.StepResult{Data: json.RawMessage(`{"data":{"latitude":40.7}}`), Cookies: cookie.Jar{}}, nil
		},
		DeliveryLocationFunc: func(ctx context.Context, placeID, provider string) (*remote.StepResult, error) {
			return &remote.StepResult{Data: json.RawMessage(`{"data":{}}`), Cookies: cookie.Jar{}}, nil
		},
		SetLocationFunc: func(ctx context.Context, loc remote.LocationSelection) (*remote.StepResult, error) {
			return &remote.StepResult{Data: json.RawMessage(`{"status":"ok"}`), Cookies: cookie.Jar{"uev2.loc": "tok"}}, nil
		},
	}
	h := newMCPTestHandler(api)

	_, out, err := h.mcpSelectLocation(context.Background(), nil, SelectLocationInput{Query: "123 Main St"})
	if err != nil {
		t.Fatalf("mcpSelectLocation() error = %v", err)
	}
	if out.Session.State != workflow.StateLocated {
		t.Errorf("State = %v", out.Session.State)
	}
	if out.Session.Jar["uev2.loc"] != "tok" {
		t.Errorf("Jar = %v", out.Session.Jar)
	}
}

func TestMCPSearchDecodesPayload(t *testing.T) {
	api := &remote.Mock{
		SearchFunc: func(ctx context.Context, query string, jar cookie.Jar) (*remote.StepResult, error) {
			if jar["uev2.loc"] != "tok" {
				t.Errorf("jar = %v", jar)
			}
			return &remote.StepResult{
				Data:    json.RawMessage(`{"data":{"feed":[{"storeUuid":"s1"}]}}`),
				Cookies: cookie.Jar{"sid": "s1"},
			}, nil
		},
	}
	h := newMCPTestHandler(api)

	_, out, err := h.mcpSearch(context.Background(), nil, SearchInput{
		Query:   "pizza",
		Cookies: map[string]string{"uev2.loc": "tok"},
	})
	if err != nil {
		t.Fatalf("mcpSearch() error = %v", err)
	}

	// Data must be plain decoded JSON, not a raw byte blob.
	data, ok := out.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map", out.Data)
	}
	if _, ok := data["data"]; !ok {
		t.Errorf("Data = %v", data)
	}
	if out.Cookies["sid"] != "s1" {
		t.Errorf("Cookies = %v", out.Cookies)
	}
}

func TestMCPCreateCart(t *testing.T) {
	api := &remote.Mock{
		CreateCartFunc: func(ctx context.Context, item remote.CartItemParams, jar cookie.Jar) (*remote.DraftOrder, error) {
			if item.Price != 1250 {
				t.Errorf("price = %d", item.Price)
			}
			return &remote.DraftOrder{
				DraftOrderUUID: "do-1",
				CartUUID:       "cart-1",
				ItemInstanceID: "inst-1",
				Result:         &remote.StepResult{Data: json.RawMessage(`{}`), Cookies: cookie.Jar{"cart": "c1"}},
			}, nil
		},
	}
	h := newMCPTestHandler(api)

	_, out, err := h.mcpCreateCart(context.Background(), nil, CreateCartInput{
		Item:    CartItemInput{ItemID: "burger", StoreID: "store-1", Price: 1250, Quantity: 1},
		Cookies: map[string]string{"uev2.loc": "tok"},
	})
	if err != nil {
		t.Fatalf("mcpCreateCart() error = %v", err)
	}
	if out.DraftOrderUUID != "do-1" || out.ItemInstanceID != "inst-1" {
		t.Errorf("out = %+v", out)
	}
	if out.Cookies["cart"] != "c1" {
		t.Errorf("Cookies = %v", out.Cookies)
	}
}

func TestMCPCreateCartValidation(t *testing.T) {
	h := newMCPTestHandler(&remote.Mock{})

	_, _, err := h.mcpCreateCart(context.Background(), nil, CreateCartInput{
		Item: CartItemInput{StoreID: "store-1", Quantity: 1},
	})
	if err == nil || !strings.Contains(err.Error(), "VALIDATION_ERROR") {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestMCPRemoveItemRequiresIdentifiers(t *testing.T) {
	h := newMCPTestHandler(&remote.Mock{})

	_, _, err := h.mcpRemoveItem(context.Background(), nil, RemoveItemInput{DraftOrderUUID: "do-1"})
	if err == nil {
		t.Fatal("expected error without itemInstanceId")
	}
}

func TestMCPErrorSurfacesPlatformStatus(t *testing.T) {
	api := &remote.Mock{
		ComputeFeeFunc: func(ctx context.Context, draftOrderUUID string, jar cookie.Jar) (*remote.StepResult, error) {
			return nil, model.ClassifyResponse(429, []byte("slow down"))
		},
	}
	h := newMCPTestHandler(api)

	_, _, err := h.mcpComputeFee(context.Background(), nil, ComputeFeeInput{DraftOrderUUID: "do-1"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("error = %v, want platform status surfaced", err)
	}
}

func TestMCPErrorHidesInternals(t *testing.T) {
	api := &remote.Mock{
		StoreMenuFunc: func(ctx context.Context, storeID string) (*remote.StepResult, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h := newMCPTestHandler(api)

	_, _, err := h.mcpStoreMenu(context.Background(), nil, StoreMenuInput{StoreID: "s1"})
	if err == nil || strings.Contains(err.Error(), "deadline") {
		t.Fatalf("error = %v, internals leaked", err)
	}
}
