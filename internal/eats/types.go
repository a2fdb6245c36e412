package eats

import (
	"encoding/json"

	"eats-proxy/internal/remote"
)

// Platform request payloads, one per workflow step. Field names follow the
// platform's frontend API and are part of its opaque contract - treat them
// as versioned and subject to silent breakage.

type autocompleteLocationRequest struct {
	Query string `json:"query"`
}

type deliveryLocationRequest struct {
	PlaceID  string `json:"placeId"`
	Provider string `json:"provider"`
	Source   string `json:"source"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchSuggestionsRequest struct {
	UserQuery string `json:"userQuery"`
	Vertical  string `json:"vertical"`
}

type storeMenuRequest struct {
	StoreUUID string `json:"storeUuid"`
}

type itemDetailsRequest struct {
	ItemRequestType string `json:"itemRequestType"`
	StoreUUID       string `json:"storeUuid"`
	SectionUUID     string `json:"sectionUuid"`
	SubsectionUUID  string `json:"subsectionUuid"`
	MenuItemUUID    string `json:"menuItemUuid"`
}

// shoppingCartItem is one cart line as the platform expects it. The
// ShoppingCartItemUUID is minted locally per add; it is what distinguishes
// two additions of the same catalog item.
type shoppingCartItem struct {
	UUID                 string          `json:"uuid"` // catalog item id
	ShoppingCartItemUUID string          `json:"shoppingCartItemUuid"`
	StoreUUID            string          `json:"storeUuid"`
	SectionUUID          string          `json:"sectionUuid"`
	SubsectionUUID       string          `json:"subsectionUuid"`
	Price                int64           `json:"price"`
	Title                string          `json:"title"`
	Quantity             int             `json:"quantity"`
	CustomizationV2      json.RawMessage `json:"customizationV2,omitempty"`
	ImageURL             string          `json:"imageUrl,omitempty"`
}

type createDraftOrderRequest struct {
	ShoppingCartItems []shoppingCartItem `json:"shoppingCartItems"`
	UseCredits        bool               `json:"useCredits"`
}

type addItemsRequest struct {
	DraftOrderUUID    string             `json:"draftOrderUuid"`
	CartUUID          string             `json:"cartUuid"`
	StoreUUID         string             `json:"storeUuid"`
	ShoppingCartItems []shoppingCartItem `json:"shoppingCartItems"`
}

type checkoutPresentationRequest struct {
	DraftOrderUUID string `json:"draftOrderUuid"`
}

type removeItemRequest struct {
	CartUUID             string `json:"cartUuid"`
	DraftOrderUUID       string `json:"draftOrderUuid"`
	ShoppingCartItemUUID string `json:"shoppingCartItemUuid"`
	StoreUUID            string `json:"storeUuid"`
}

// draftOrderProbe extracts the cart identity out of the otherwise opaque
// createDraftOrder response.
type draftOrderProbe struct {
	Data struct {
		DraftOrderUUID string `json:"draftOrderUUID"`
		CartUUID       string `json:"cartUUID"`
	} `json:"data"`
}

// newCartItem converts the step contract's item params into the platform's
// line shape, stamping the given instance id.
func newCartItem(item remote.CartItemParams, instanceID string) shoppingCartItem {
	return shoppingCartItem{
		UUID:                 item.ItemID,
		ShoppingCartItemUUID: instanceID,
		StoreUUID:            item.StoreID,
		SectionUUID:          item.SectionID,
		SubsectionUUID:       item.SubsectionID,
		Price:                item.Price,
		Title:                item.Title,
		Quantity:             item.Quantity,
		CustomizationV2:      item.Customizations,
		ImageURL:             item.ImageURL,
	}
}
