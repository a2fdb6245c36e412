package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"eats-proxy/internal/cookie"
	"eats-proxy/internal/model"
	"eats-proxy/internal/remote"
)

func step(data string, cookies cookie.Jar) *remote.StepResult {
	if cookies == nil {
		cookies = cookie.Jar{}
	}
	return &remote.StepResult{Data: json.RawMessage(data), Cookies: cookies}
}

// locationMock scripts the four-call location chain and records call order.
func locationMock(calls *[]string) *remote.Mock {
	return &remote.Mock{
		AutocompleteLocationFunc: func(ctx context.Context, query string) (*remote.StepResult, error) {
			*calls = append(*calls, "autocomplete")
			return step(`{"data":[{"id":"place-1","provider":"google_places"},{"id":"place-2"}]}`, nil), nil
		},
		LocationDetailsFunc: func(ctx context.Context, candidate json.RawMessage) (*remote.StepResult, error) {
			*calls = append(*calls, "details")
			var ref struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(candidate, &ref); err != nil || ref.ID != "place-1" {
				return nil, fmt.Errorf("unexpected candidate %s", candidate)
			}
			return step(`{"data":{"address":{"address1":"123 Main St"},"latitude":40.7}}`, nil), nil
		},
		DeliveryLocationFunc: func(ctx context.Context, placeID, provider string) (*remote.StepResult, error) {
			*calls = append(*calls, "delivery")
			if placeID != "place-1" || provider != "google_places" {
				return nil, fmt.Errorf("unexpected place %s/%s", placeID, provider)
			}
			return step(`{"data":{"deliverable":true}}`, nil), nil
		},
		SetLocationFunc: func(ctx context.Context, loc remote.LocationSelection) (*remote.StepResult, error) {
			*calls = append(*calls, "set")
			return step(`{"status":"ok"}`, cookie.Jar{"uev2.loc": "tok", "sid": "s1"}), nil
		},
	}
}

func TestSelectLocationRunsFullChain(t *testing.T) {
	var calls []string
	sess, result, err := New().SelectLocation(context.Background(), locationMock(&calls), "123 Main St")
	if err != nil {
		t.Fatalf("SelectLocation() error = %v", err)
	}

	wantCalls := []string{"autocomplete", "details", "delivery", "set"}
	if !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("call order = %v, want %v", calls, wantCalls)
	}
	if sess.State != StateLocated {
		t.Errorf("State = %v, want located", sess.State)
	}
	if sess.Jar["uev2.loc"] != "tok" || sess.Jar["sid"] != "s1" {
		t.Errorf("Jar = %v, want set-location baseline", sess.Jar)
	}
	if string(result.Data) != `{"status":"ok"}` {
		t.Errorf("Data = %s", result.Data)
	}
}

func TestSelectLocationSynthesizesLocationCookie(t *testing.T) {
	var calls []string
	api := locationMock(&calls)
	api.SetLocationFunc = func(ctx context.Context, loc remote.LocationSelection) (*remote.StepResult, error) {
		return step(`{"status":"ok"}`, cookie.Jar{"sid": "s1"}), nil
	}

	sess, _, err := New().SelectLocation(context.Background(), api, "123 Main St")
	if err != nil {
		t.Fatalf("SelectLocation() error = %v", err)
	}
	if sess.Jar["uev2.loc"] == "" {
		t.Error("location cookie not synthesized when platform omits it")
	}
}

func TestSelectLocationNoCandidates(t *testing.T) {
	api := &remote.Mock{
		AutocompleteLocationFunc: func(ctx context.Context, query string) (*remote.StepResult, error) {
			return step(`{"data":[]}`, nil), nil
		},
	}

	_, _, err := New().SelectLocation(context.Background(), api, "nowhere")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "NOT_FOUND" {
		t.Fatalf("error = %v, want NOT_FOUND APIError", err)
	}
}

func TestSelectLocationEmptyQuery(t *testing.T) {
	_, _, err := New().SelectLocation(context.Background(), &remote.Mock{}, "")
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestSearchRequiresLocation(t *testing.T) {
	_, _, err := New().Search(context.Background(), &remote.Mock{}, "pizza")
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestSearchMergesRotatedCookies(t *testing.T) {
	located := Session{State: StateLocated, Jar: cookie.Jar{"uev2.loc": "tok", "sid": "old"}}
	api := &remote.Mock{
		SearchFunc: func(ctx context.Context, query string, jar cookie.Jar) (*remote.StepResult, error) {
			if jar["uev2.loc"] != "tok" {
				return nil, fmt.Errorf("location cookie not forwarded")
			}
			return step(`{"data":{"feed":[]}}`, cookie.Jar{"sid": "rotated"}), nil
		},
	}

	sess, _, err := located.Search(context.Background(), api, "pizza")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if sess.State != StateSearched {
		t.Errorf("State = %v, want searched", sess.State)
	}
	if sess.Jar["sid"] != "rotated" {
		t.Errorf("Jar = %v, rotated cookie not merged", sess.Jar)
	}
	if located.Jar["sid"] != "old" {
		t.Error("original session mutated")
	}
}

func TestSearchRemoteFailurePreservesSession(t *testing.T) {
	located := Session{State: StateLocated, Jar: cookie.Jar{"uev2.loc": "tok"}}
	api := &remote.Mock{
		SearchFunc: func(ctx context.Context, query string, jar cookie.Jar) (*remote.StepResult, error) {
			return nil, model.ClassifyResponse(503, []byte("unavailable"))
		},
	}

	sess, _, err := located.Search(context.Background(), api, "pizza")
	var remoteErr *model.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error = %v, want *model.RemoteError", err)
	}
	if !reflect.DeepEqual(sess, located) {
		t.Error("failed step changed the session")
	}
}

// cartMock scripts cart endpoints with minted instance ids.
func cartMock() *remote.Mock {
	n := 0
	return &remote.Mock{
		CreateCartFunc: func(ctx context.Context, item remote.CartItemParams, jar cookie.Jar) (*remote.DraftOrder, error) {
			n++
			return &remote.DraftOrder{
				DraftOrderUUID: "do-1",
				CartUUID:       "cart-1",
				ItemInstanceID: fmt.Sprintf("inst-%d", n),
				Result:         step(`{"data":{"draftOrderUUID":"do-1"}}`, cookie.Jar{"cart": "c1"}),
			}, nil
		},
		AddItemFunc: func(ctx context.Context, draftOrderUUID, cartUUID string, item remote.CartItemParams, jar cookie.Jar) (*remote.CartMutation, error) {
			if draftOrderUUID != "do-1" || cartUUID != "cart-1" {
				return nil, fmt.Errorf("cart identifiers not threaded: %s/%s", draftOrderUUID, cartUUID)
			}
			n++
			return &remote.CartMutation{
				ItemInstanceID: fmt.Sprintf("inst-%d", n),
				Result:         step(`{"status":"added"}`, nil),
			}, nil
		},
		RemoveItemFunc: func(ctx context.Context, p remote.RemoveItemParams, jar cookie.Jar) (*remote.StepResult, error) {
			return step(`{"status":"removed"}`, nil), nil
		},
		ComputeFeeFunc: func(ctx context.Context, draftOrderUUID string, jar cookie.Jar) (*remote.StepResult, error) {
			if draftOrderUUID != "do-1" {
				return nil, fmt.Errorf("wrong draft order %s", draftOrderUUID)
			}
			return step(`{"data":{"total":"12.50"}}`, nil), nil
		},
	}
}

func located() Session {
	return Session{State: StateLocated, Jar: cookie.Jar{"uev2.loc": "tok"}}
}

func TestAddItemOpensCartThenAppends(t *testing.T) {
	api := cartMock()
	burger := remote.CartItemParams{ItemID: "burger", StoreID: "store-1", Quantity: 1}

	sess, _, err := located().AddItem(context.Background(), api, burger)
	if err != nil {
		t.Fatalf("first AddItem() error = %v", err)
	}
	if sess.State != StateCartOpen || sess.DraftOrderUUID != "do-1" || sess.CartUUID != "cart-1" || sess.StoreUUID != "store-1" {
		t.Fatalf("session after create = %+v", sess)
	}
	if sess.Jar["cart"] != "c1" {
		t.Error("create-cart cookies not merged")
	}

	fries := remote.CartItemParams{ItemID: "fries", StoreID: "store-1", Quantity: 2}
	sess, _, err = sess.AddItem(context.Background(), api, fries)
	if err != nil {
		t.Fatalf("second AddItem() error = %v", err)
	}
	if len(sess.Items) != 2 {
		t.Fatalf("Items = %v, want 2 entries", sess.Items)
	}
	if sess.Items[0].InstanceID == sess.Items[1].InstanceID {
		t.Error("instance ids not distinct")
	}
}

func TestAddItemValidation(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		item remote.CartItemParams
	}{
		{"no location", New(), remote.CartItemParams{ItemID: "burger", Quantity: 1}},
		{"empty item id", located(), remote.CartItemParams{Quantity: 1}},
		{"zero quantity", located(), remote.CartItemParams{ItemID: "burger"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.sess.AddItem(context.Background(), &remote.Mock{}, tt.item); !errors.Is(err, model.ErrInvalidRequest) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestRemoveItemLeavesJarUntouched(t *testing.T) {
	api := cartMock()
	api.RemoveItemFunc = func(ctx context.Context, p remote.RemoveItemParams, jar cookie.Jar) (*remote.StepResult, error) {
		if p.CartUUID != "cart-1" || p.DraftOrderUUID != "do-1" || p.StoreUUID != "store-1" {
			return nil, fmt.Errorf("identifiers not threaded: %+v", p)
		}
		return step(`{"status":"removed"}`, nil), nil
	}

	sess, _, err := located().AddItem(context.Background(), api, remote.CartItemParams{ItemID: "burger", StoreID: "store-1", Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	jarBefore := sess.Jar.Clone()

	sess, _, err = sess.RemoveItem(context.Background(), api, sess.Items[0].InstanceID)
	if err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if len(sess.Items) != 0 {
		t.Errorf("Items = %v, want empty", sess.Items)
	}
	if !reflect.DeepEqual(sess.Jar, jarBefore) {
		t.Errorf("jar changed across remove: %v -> %v", jarBefore, sess.Jar)
	}
}

func TestRemoveItemUnknownInstance(t *testing.T) {
	sess := located()
	sess.State = StateCartOpen
	sess.DraftOrderUUID = "do-1"
	sess.CartUUID = "cart-1"

	if _, _, err := sess.RemoveItem(context.Background(), &remote.Mock{}, "ghost"); !errors.Is(err, model.ErrInvalidRequest) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestCartOpsWithoutCart(t *testing.T) {
	if _, _, err := located().RemoveItem(context.Background(), &remote.Mock{}, "inst-1"); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("RemoveItem error = %v, want validation error", err)
	}
	if _, _, err := located().ComputeFee(context.Background(), &remote.Mock{}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("ComputeFee error = %v, want validation error", err)
	}
}

func TestComputeFee(t *testing.T) {
	api := cartMock()
	sess, _, err := located().AddItem(context.Background(), api, remote.CartItemParams{ItemID: "burger", StoreID: "store-1", Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	sess, result, err := sess.ComputeFee(context.Background(), api)
	if err != nil {
		t.Fatalf("ComputeFee() error = %v", err)
	}
	if sess.State != StateCartPriced {
		t.Errorf("State = %v, want cart-priced", sess.State)
	}
	if string(result.Data) != `{"data":{"total":"12.50"}}` {
		t.Errorf("Data = %s", result.Data)
	}
}

func TestSyncItemsRemovesBeforeAdding(t *testing.T) {
	api := cartMock()
	var ops []string
	base := api.RemoveItemFunc
	api.RemoveItemFunc = func(ctx context.Context, p remote.RemoveItemParams, jar cookie.Jar) (*remote.StepResult, error) {
		ops = append(ops, "remove:"+p.ItemInstanceID)
		return base(ctx, p, jar)
	}
	baseAdd := api.AddItemFunc
	api.AddItemFunc = func(ctx context.Context, draftOrderUUID, cartUUID string, item remote.CartItemParams, jar cookie.Jar) (*remote.CartMutation, error) {
		ops = append(ops, fmt.Sprintf("add:%s:%d", item.ItemID, item.Quantity))
		return baseAdd(ctx, draftOrderUUID, cartUUID, item, jar)
	}

	sess, _, err := located().AddItem(context.Background(), api, remote.CartItemParams{ItemID: "burger", StoreID: "store-1", Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	ops = nil

	// Quantity change on burger plus one new item.
	sess, err = sess.SyncItems(context.Background(), api, []remote.CartItemParams{
		{ItemID: "burger", StoreID: "store-1", Quantity: 3},
		{ItemID: "fries", StoreID: "store-1", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("SyncItems() error = %v", err)
	}

	want := []string{"remove:inst-1", "add:burger:3", "add:fries:1"}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("ops = %v, want %v", ops, want)
	}
	if len(sess.Items) != 2 {
		t.Errorf("Items = %v, want 2 tracked entries", sess.Items)
	}
}

func TestSyncItemsNoChanges(t *testing.T) {
	api := cartMock()
	sess, _, err := located().AddItem(context.Background(), api, remote.CartItemParams{ItemID: "burger", StoreID: "store-1", Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	synced, err := sess.SyncItems(context.Background(), api, []remote.CartItemParams{{ItemID: "burger", StoreID: "store-1", Quantity: 1}})
	if err != nil {
		t.Fatalf("SyncItems() error = %v", err)
	}
	if !reflect.DeepEqual(synced, sess) {
		t.Error("no-op sync changed the session")
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateUnlocated:  "unlocated",
		StateLocated:    "located",
		StateSearched:   "searched",
		StateCartOpen:   "cart-open",
		StateCartPriced: "cart-priced",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}
