// Package eats implements the Remote API Client for the delivery
// platform's private web API: one HTTP call per workflow step, caller
// cookies rendered into the request, response cookies normalized back into
// a jar.
package eats

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"eats-proxy/internal/cookie"
	"eats-proxy/internal/model"
	"eats-proxy/internal/remote"
	"eats-proxy/internal/transport"
)

// locationCookieName is the cookie the platform reads the encoded delivery
// location from.
const locationCookieName = "uev2.loc"

// step describes one platform endpoint: its path and whether its response
// cookies flow back to the caller. Forwarding is per-step configuration,
// not a uniform rule - the remove-item endpoint's cookies are not forwarded
// (matching the platform frontend's observed behavior).
type step struct {
	name           string
	path           string
	forwardCookies bool
}

var (
	stepAutocompleteLocation = step{"autocomplete-location", "/api/getLocationAutocompleteV1", true}
	stepLocationDetails      = step{"location-details", "/api/getLocationDetailsV1", true}
	stepDeliveryLocation     = step{"delivery-location", "/api/getDeliveryLocationV1", true}
	stepSetLocation          = step{"set-location", "/api/setTargetLocationV1", true}
	stepSearch               = step{"search", "/api/getSearchFeedV1", true}
	stepSearchSuggestions    = step{"search-suggestions", "/api/getSearchSuggestionsV1", true}
	stepStoreMenu            = step{"store-menu", "/api/getStoreV1", true}
	stepItemDetails          = step{"item-details", "/api/getMenuItemV1", true}
	stepCreateCart           = step{"create-cart", "/api/createDraftOrderV1", true}
	stepAddItem              = step{"add-item", "/api/addItemsToDraftOrderV1", true}
	stepComputeFee           = step{"compute-fee", "/api/getCheckoutPresentationV1", true}
	stepRemoveItem           = step{"remove-item", "/api/removeItemFromDraftOrderV1", false}
)

// Config holds platform client configuration.
type Config struct {
	// BaseURL of the platform's web frontend, e.g. https://www.ubereats.com.
	BaseURL string

	// Locale appended to every endpoint as localeCode. Default "en-US".
	Locale string

	// HeaderOverrides replace individual fabricated browser headers.
	HeaderOverrides map[string]string

	// Timeout for the underlying HTTP client. Default 30s. There is no
	// retry on top; callers wanting tighter deadlines pass a ctx.
	Timeout time.Duration

	// Transport overrides the outbound RoundTripper. Nil selects the
	// Chrome-fingerprint TLS transport; tests point this at a plain one.
	Transport http.RoundTripper
}

// Client implements remote.API against the platform.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	locale        string
	headers       map[string]string
	newInstanceID func() string
}

// New creates a platform client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid platform base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	locale := cfg.Locale
	if locale == "" {
		locale = "en-US"
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	rt := cfg.Transport
	if rt == nil {
		// Chrome TLS fingerprint to get past JA3-based bot detection.
		// See internal/transport for rationale.
		rt = transport.NewBrowserTransport(timeout)
	}

	headers := browserHeaders(baseURL)
	for name, value := range cfg.HeaderOverrides {
		headers[name] = value
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: rt,
		},
		baseURL:       baseURL,
		locale:        locale,
		headers:       headers,
		newInstanceID: uuid.NewString,
	}, nil
}

// === Location Steps ===

func (c *Client) AutocompleteLocation(ctx context.Context, query string) (*remote.StepResult, error) {
	return c.call(ctx, stepAutocompleteLocation, autocompleteLocationRequest{Query: query}, "")
}

func (c *Client) LocationDetails(ctx context.Context, candidate json.RawMessage) (*remote.StepResult, error) {
	return c.call(ctx, stepLocationDetails, candidate, "")
}

func (c *Client) DeliveryLocation(ctx context.Context, placeID, provider string) (*remote.StepResult, error) {
	return c.call(ctx, stepDeliveryLocation, deliveryLocationRequest{
		PlaceID:  placeID,
		Provider: provider,
		Source:   "manual_auto_complete",
	}, "")
}

// SetLocation pins the session's delivery location. The location travels in
// a single cookie (not the body) using the platform's bespoke token
// encoding; the response jar is the fresh baseline for the session.
func (c *Client) SetLocation(ctx context.Context, loc remote.LocationSelection) (*remote.StepResult, error) {
	detail := loc.Detail
	if len(detail) == 0 {
		raw, err := json.Marshal(loc)
		if err != nil {
			return nil, fmt.Errorf("set-location: encoding selection: %w", err)
		}
		detail = raw
	}

	encoded, err := cookie.EncodeLocation(json.RawMessage(detail))
	if err != nil {
		return nil, fmt.Errorf("set-location: %w", err)
	}

	locJar := cookie.Jar{locationCookieName: encoded}
	return c.call(ctx, stepSetLocation, struct{}{}, locJar.HeaderString())
}

// === Discovery Steps ===

func (c *Client) Search(ctx context.Context, query string, jar cookie.Jar) (*remote.StepResult, error) {
	return c.call(ctx, stepSearch, searchRequest{Query: query}, jar.HeaderString())
}

func (c *Client) SearchSuggestions(ctx context.Context, query string, jar cookie.Jar) (*remote.StepResult, error) {
	return c.call(ctx, stepSearchSuggestions, searchSuggestionsRequest{
		UserQuery: query,
		Vertical:  "ALL",
	}, jar.HeaderString())
}

func (c *Client) StoreMenu(ctx context.Context, storeID string) (*remote.StepResult, error) {
	return c.call(ctx, stepStoreMenu, storeMenuRequest{StoreUUID: storeID}, "")
}

func (c *Client) ItemDetails(ctx context.Context, storeID, sectionID, subsectionID, itemID string) (*remote.StepResult, error) {
	return c.call(ctx, stepItemDetails, itemDetailsRequest{
		ItemRequestType: "ITEM",
		StoreUUID:       storeID,
		SectionUUID:     sectionID,
		SubsectionUUID:  subsectionID,
		MenuItemUUID:    itemID,
	}, "")
}

// === Cart Steps ===

func (c *Client) CreateCart(ctx context.Context, item remote.CartItemParams, jar cookie.Jar) (*remote.DraftOrder, error) {
	instanceID := c.newInstanceID()

	result, err := c.call(ctx, stepCreateCart, createDraftOrderRequest{
		ShoppingCartItems: []shoppingCartItem{newCartItem(item, instanceID)},
		UseCredits:        true,
	}, jar.HeaderString())
	if err != nil {
		return nil, err
	}

	var probe draftOrderProbe
	if err := json.Unmarshal(result.Data, &probe); err != nil {
		return nil, fmt.Errorf("create-cart: parsing response: %w", err)
	}
	if probe.Data.DraftOrderUUID == "" {
		return nil, fmt.Errorf("create-cart: platform returned no draftOrderUUID")
	}

	cartUUID := probe.Data.CartUUID
	if cartUUID == "" {
		cartUUID = probe.Data.DraftOrderUUID
	}

	return &remote.DraftOrder{
		DraftOrderUUID: probe.Data.DraftOrderUUID,
		CartUUID:       cartUUID,
		ItemInstanceID: instanceID,
		Result:         result,
	}, nil
}

func (c *Client) AddItem(ctx context.Context, draftOrderUUID, cartUUID string, item remote.CartItemParams, jar cookie.Jar) (*remote.CartMutation, error) {
	instanceID := c.newInstanceID()

	result, err := c.call(ctx, stepAddItem, addItemsRequest{
		DraftOrderUUID:    draftOrderUUID,
		CartUUID:          cartUUID,
		StoreUUID:         item.StoreID,
		ShoppingCartItems: []shoppingCartItem{newCartItem(item, instanceID)},
	}, jar.HeaderString())
	if err != nil {
		return nil, err
	}

	return &remote.CartMutation{ItemInstanceID: instanceID, Result: result}, nil
}

func (c *Client) ComputeFee(ctx context.Context, draftOrderUUID string, jar cookie.Jar) (*remote.StepResult, error) {
	return c.call(ctx, stepComputeFee, checkoutPresentationRequest{DraftOrderUUID: draftOrderUUID}, jar.HeaderString())
}

func (c *Client) RemoveItem(ctx context.Context, p remote.RemoveItemParams, jar cookie.Jar) (*remote.StepResult, error) {
	return c.call(ctx, stepRemoveItem, removeItemRequest{
		CartUUID:             p.CartUUID,
		DraftOrderUUID:       p.DraftOrderUUID,
		ShoppingCartItemUUID: p.ItemInstanceID,
		StoreUUID:            p.StoreUUID,
	}, jar.HeaderString())
}

// === HTTP Plumbing ===

// call performs one POST against a platform endpoint. cookieHeader is the
// pre-rendered Cookie value ("" sends none). On 2xx the raw body is
// forwarded as Data and Set-Cookie headers become the response jar; any
// other status is classified into *model.RemoteError. Network failures
// propagate unclassified.
func (c *Client) call(ctx context.Context, st step, payload any, cookieHeader string) (*remote.StepResult, error) {
	var bodyReader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: marshaling request: %w", st.name, err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + st.path + "?localeCode=" + url.QueryEscape(c.locale)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", st.name, err)
	}

	for name, value := range c.headers {
		req.Header.Set(name, value)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", st.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.ClassifyResponse(resp.StatusCode, respBody)
	}

	result := &remote.StepResult{
		Data:    respBody,
		Cookies: cookie.Jar{},
	}

	if st.forwardCookies {
		lines := resp.Header.Values("Set-Cookie")
		jar, err := cookie.FromSetCookie(lines)
		if err != nil {
			return nil, err
		}
		result.Cookies = jar
		result.SetCookie = lines
	}

	return result, nil
}

// Verify Client implements the step contract at compile time.
var _ remote.API = (*Client)(nil)
