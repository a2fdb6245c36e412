// MCP transport handler for the eats proxy using the official MCP Go SDK.
// Exposes the workflow steps as MCP tools so agents can drive an ordering
// flow without speaking the REST surface.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"eats-proxy/internal/model"
	"eats-proxy/internal/remote"
	"eats-proxy/internal/workflow"
)

// === MCP Tool Input/Output Types ===
// Cookie jars travel as plain name->value maps; the proxy holds nothing
// between tool calls, so every stateful tool takes the caller's cookies
// and hands updated ones back.

// StepOutput is the common result shape for step tools. Data is the
// platform payload decoded to plain JSON values so the SDK can infer a
// schema for it.
type StepOutput struct {
	Data    any               `json:"data,omitempty" jsonschema:"platform response payload"`
	Cookies map[string]string `json:"responseCookies" jsonschema:"cookies to merge into the session jar"`
}

// SelectLocationInput is the input schema for select_location.
type SelectLocationInput struct {
	Query string `json:"query" jsonschema:"free-text delivery address,required"`
}

// SelectLocationOutput carries the session established by the location chain.
type SelectLocationOutput struct {
	Session workflow.Session `json:"session" jsonschema:"session state to pass to later tools"`
	Data    any              `json:"data,omitempty" jsonschema:"set-location response payload"`
}

// SearchInput is the input schema for search and search_suggestions.
type SearchInput struct {
	Query   string            `json:"query" jsonschema:"search text,required"`
	Cookies map[string]string `json:"cookies" jsonschema:"session cookie jar from select_location,required"`
}

// StoreMenuInput is the input schema for store_menu.
type StoreMenuInput struct {
	StoreID string `json:"storeId" jsonschema:"store uuid,required"`
}

// ItemDetailsInput is the input schema for item_details.
type ItemDetailsInput struct {
	StoreID      string `json:"storeId" jsonschema:"store uuid,required"`
	SectionID    string `json:"sectionId,omitempty" jsonschema:"menu section uuid"`
	SubsectionID string `json:"subsectionId,omitempty" jsonschema:"menu subsection uuid"`
	ItemID       string `json:"itemId" jsonschema:"menu item uuid,required"`
}

// CartItemInput describes one item for the cart tools.
type CartItemInput struct {
	ItemID       string `json:"itemId" jsonschema:"menu item uuid,required"`
	StoreID      string `json:"storeId" jsonschema:"store uuid,required"`
	SectionID    string `json:"sectionId,omitempty" jsonschema:"menu section uuid"`
	SubsectionID string `json:"subsectionId,omitempty" jsonschema:"menu subsection uuid"`
	Price        int64  `json:"price" jsonschema:"unit price in integer cents"`
	Title        string `json:"title,omitempty" jsonschema:"item display name"`
	Quantity     int    `json:"quantity" jsonschema:"quantity,required"`
}

// CreateCartInput is the input schema for create_cart.
type CreateCartInput struct {
	Item    CartItemInput     `json:"item" jsonschema:"initial cart item,required"`
	Cookies map[string]string `json:"cookies" jsonschema:"session cookie jar,required"`
}

// CreateCartOutput returns the draft order identifiers the later cart
// tools need.
type CreateCartOutput struct {
	DraftOrderUUID string            `json:"draftOrderUuid" jsonschema:"draft order identifier"`
	CartUUID       string            `json:"cartUuid" jsonschema:"cart identifier"`
	ItemInstanceID string            `json:"itemInstanceId" jsonschema:"instance id of the added item, needed for removal"`
	Cookies        map[string]string `json:"responseCookies" jsonschema:"cookies to merge into the session jar"`
}

// AddItemInput is the input schema for add_item.
type AddItemInput struct {
	DraftOrderUUID string            `json:"draftOrderUuid" jsonschema:"draft order identifier,required"`
	CartUUID       string            `json:"cartUuid,omitempty" jsonschema:"cart identifier"`
	Item           CartItemInput     `json:"item" jsonschema:"item to add,required"`
	Cookies        map[string]string `json:"cookies" jsonschema:"session cookie jar,required"`
}

// AddItemOutput returns the minted instance id for the added item.
type AddItemOutput struct {
	ItemInstanceID string            `json:"itemInstanceId" jsonschema:"instance id of the added item"`
	Cookies        map[string]string `json:"responseCookies" jsonschema:"cookies to merge into the session jar"`
}

// ComputeFeeInput is the input schema for compute_fee.
type ComputeFeeInput struct {
	DraftOrderUUID string            `json:"draftOrderUuid" jsonschema:"draft order identifier,required"`
	Cookies        map[string]string `json:"cookies" jsonschema:"session cookie jar,required"`
}

// RemoveItemInput is the input schema for remove_item.
type RemoveItemInput struct {
	DraftOrderUUID string            `json:"draftOrderUuid" jsonschema:"draft order identifier,required"`
	CartUUID       string            `json:"cartUuid,omitempty" jsonschema:"cart identifier"`
	ItemInstanceID string            `json:"itemInstanceId" jsonschema:"instance id from create_cart or add_item,required"`
	StoreUUID      string            `json:"storeUuid,omitempty" jsonschema:"store uuid"`
	Cookies        map[string]string `json:"cookies" jsonschema:"session cookie jar,required"`
}

// NewMCPServer creates an MCP server with the step tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "eats-proxy",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Eats Proxy - delivery platform ordering steps. " +
				"Start with select_location, thread the returned cookies through " +
				"search and the cart tools, and keep the draft order identifiers " +
				"from create_cart for every later cart call.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_location",
		Description: "Resolve a free-text address and pin it as the delivery location. Returns the session (cookies + state) every later tool needs.",
	}, h.mcpSelectLocation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search stores and dishes near the selected location. Requires the session cookies from select_location.",
	}, h.mcpSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "store_menu",
		Description: "Fetch a store's full menu by store uuid.",
	}, h.mcpStoreMenu)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "item_details",
		Description: "Fetch one menu item's detail (customizations, pricing).",
	}, h.mcpItemDetails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_cart",
		Description: "Open a draft order with an initial item. Returns the draft order identifiers for add_item, compute_fee and remove_item.",
	}, h.mcpCreateCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_item",
		Description: "Add another item to an existing draft order.",
	}, h.mcpAddItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compute_fee",
		Description: "Fetch fees and totals for a draft order.",
	}, h.mcpComputeFee)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove one cart entry by its item instance id.",
	}, h.mcpRemoveItem)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpSelectLocation(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SelectLocationInput,
) (*mcp.CallToolResult, *SelectLocationOutput, error) {
	sess, result, err := workflow.New().SelectLocation(ctx, h.api, input.Query)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &SelectLocationOutput{
		Session: sess,
		Data:    decodeAny(result.Data),
	}, nil
}

func (h *Handler) mcpSearch(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, *StepOutput, error) {
	result, err := h.api.Search(ctx, input.Query, input.Cookies)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, stepOutput(result), nil
}

func (h *Handler) mcpStoreMenu(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input StoreMenuInput,
) (*mcp.CallToolResult, *StepOutput, error) {
	if input.StoreID == "" {
		return nil, nil, fmt.Errorf("storeId is required")
	}

	result, err := h.api.StoreMenu(ctx, input.StoreID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, stepOutput(result), nil
}

func (h *Handler) mcpItemDetails(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ItemDetailsInput,
) (*mcp.CallToolResult, *StepOutput, error) {
	if input.StoreID == "" || input.ItemID == "" {
		return nil, nil, fmt.Errorf("storeId and itemId are required")
	}

	result, err := h.api.ItemDetails(ctx, input.StoreID, input.SectionID, input.SubsectionID, input.ItemID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, stepOutput(result), nil
}

func (h *Handler) mcpCreateCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateCartInput,
) (*mcp.CallToolResult, *CreateCartOutput, error) {
	item := cartItemParams(input.Item)
	if err := validateItem(item); err != nil {
		return nil, nil, h.mcpError(err)
	}

	order, err := h.api.CreateCart(ctx, item, input.Cookies)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &CreateCartOutput{
		DraftOrderUUID: order.DraftOrderUUID,
		CartUUID:       order.CartUUID,
		ItemInstanceID: order.ItemInstanceID,
		Cookies:        order.Result.Cookies,
	}, nil
}

func (h *Handler) mcpAddItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddItemInput,
) (*mcp.CallToolResult, *AddItemOutput, error) {
	if input.DraftOrderUUID == "" {
		return nil, nil, fmt.Errorf("draftOrderUuid is required")
	}
	item := cartItemParams(input.Item)
	if err := validateItem(item); err != nil {
		return nil, nil, h.mcpError(err)
	}

	mutation, err := h.api.AddItem(ctx, input.DraftOrderUUID, input.CartUUID, item, input.Cookies)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &AddItemOutput{
		ItemInstanceID: mutation.ItemInstanceID,
		Cookies:        mutation.Result.Cookies,
	}, nil
}

func (h *Handler) mcpComputeFee(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ComputeFeeInput,
) (*mcp.CallToolResult, *StepOutput, error) {
	if input.DraftOrderUUID == "" {
		return nil, nil, fmt.Errorf("draftOrderUuid is required")
	}

	result, err := h.api.ComputeFee(ctx, input.DraftOrderUUID, input.Cookies)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, stepOutput(result), nil
}

func (h *Handler) mcpRemoveItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveItemInput,
) (*mcp.CallToolResult, *StepOutput, error) {
	if input.DraftOrderUUID == "" || input.ItemInstanceID == "" {
		return nil, nil, fmt.Errorf("draftOrderUuid and itemInstanceId are required")
	}

	result, err := h.api.RemoveItem(ctx, remote.RemoveItemParams{
		CartUUID:       input.CartUUID,
		DraftOrderUUID: input.DraftOrderUUID,
		ItemInstanceID: input.ItemInstanceID,
		StoreUUID:      input.StoreUUID,
	}, input.Cookies)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, stepOutput(result), nil
}

// === Helpers ===

func cartItemParams(in CartItemInput) remote.CartItemParams {
	return remote.CartItemParams{
		ItemID:       in.ItemID,
		StoreID:      in.StoreID,
		SectionID:    in.SectionID,
		SubsectionID: in.SubsectionID,
		Price:        in.Price,
		Title:        in.Title,
		Quantity:     in.Quantity,
	}
}

func stepOutput(result *remote.StepResult) *StepOutput {
	return &StepOutput{
		Data:    decodeAny(result.Data),
		Cookies: result.Cookies,
	}
}

// decodeAny turns a raw platform payload into plain JSON values.
// Non-JSON bodies come back as a string.
func decodeAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// mcpError converts proxy errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	if remoteErr, ok := err.(*model.RemoteError); ok {
		return fmt.Errorf("platform_error: status %d: %s", remoteErr.Status, remoteErr.Body)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
