// eatscli is a CLI tool for driving ordering flows through the eats proxy.
// Each command performs a single step; session state (cookies + cart
// identifiers) persists in a jar file between invocations, so the commands
// compose in scripts the same way the workflow chains steps.
//
// Commands:
//
//	eatscli locate -proxy URL -address "123 Main St, Springfield"
//	eatscli search -proxy URL -query pizza
//	eatscli menu -proxy URL -store <store-uuid>
//	eatscli item -proxy URL -store <store-uuid> -item <item-uuid>
//	eatscli cart-create -proxy URL -store <store-uuid> -item <item-uuid> -price 12.50
//	eatscli cart-add -proxy URL -store <store-uuid> -item <item-uuid> -price 4.25
//	eatscli fee -proxy URL
//	eatscli cart-remove -proxy URL -instance <instance-id>
//
// Examples:
//
//	eatscli locate -address "123 Main St, Springfield"
//	eatscli search -query "burgers"
//	eatscli cart-create -store $STORE -item $ITEM -price 12.50 -qty 2
//	eatscli fee
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"eats-proxy/internal/model"
)

var client = &http.Client{Timeout: 60 * time.Second}

// Global flags (apply to all commands)
var (
	proxyURL string
	jarPath  string
	quiet    bool
	noColor  bool
	verbose  bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "locate":
		runLocate(args)
	case "search":
		runSearch(args)
	case "menu":
		runMenu(args)
	case "item":
		runItem(args)
	case "cart-create":
		runCartCreate(args)
	case "cart-add":
		runCartAdd(args)
	case "fee":
		runFee(args)
	case "cart-remove":
		runCartRemove(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `eatscli - eats proxy ordering flow test tool

Usage:
  eatscli <command> [options]

Commands:
  locate       Resolve an address and pin the delivery location
  search       Search stores and dishes near the located address
  menu         Fetch a store's menu
  item         Fetch one menu item's details
  cart-create  Open a cart with an initial item
  cart-add     Add another item to the open cart
  fee          Fetch fees and totals for the open cart
  cart-remove  Remove a cart entry by instance id

Examples:
  # Pin a location (writes the session jar file)
  eatscli locate -address "123 Main St, Springfield"

  # Search and open a cart
  eatscli search -query pizza
  eatscli cart-create -store "$STORE" -item "$ITEM" -price 12.50

  # Price it, then remove the item again
  eatscli fee
  eatscli cart-remove -instance "$INSTANCE"

Run 'eatscli <command> -h' for command-specific options.
`)
}

// =============================================================================
// SESSION JAR FILE
// =============================================================================

// session mirrors the proxy's session shape: the running cookie jar plus
// the cart identifiers threaded through the cart commands.
type session struct {
	State          int               `json:"state"`
	Cookies        map[string]string `json:"cookies"`
	DraftOrderUUID string            `json:"draftOrderUuid,omitempty"`
	CartUUID       string            `json:"cartUuid,omitempty"`
	StoreUUID      string            `json:"storeUuid,omitempty"`
	Items          []sessionItem     `json:"items,omitempty"`
}

type sessionItem struct {
	InstanceID    string `json:"instanceId"`
	CatalogItemID string `json:"catalogItemId"`
	Quantity      int    `json:"quantity"`
}

func defaultJarPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".eatscli-session.json"
	}
	return home + "/.eatscli-session.json"
}

func loadSession() *session {
	data, err := os.ReadFile(jarPath)
	if err != nil {
		return &session{Cookies: map[string]string{}}
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		fatal("Session file %s is corrupt: %v (delete it to start over)", jarPath, err)
	}
	if s.Cookies == nil {
		s.Cookies = map[string]string{}
	}
	return &s
}

func saveSession(s *session) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fatal("Encoding session: %v", err)
	}
	if err := os.WriteFile(jarPath, data, 0o600); err != nil {
		fatal("Writing session file %s: %v", jarPath, err)
	}
	if verbose {
		printInfo("Session saved to %s", jarPath)
	}
}

// mergeCookies folds a step's responseCookies into the session jar.
func (s *session) mergeCookies(resp map[string]interface{}) {
	raw, ok := resp["responseCookies"].(map[string]interface{})
	if !ok {
		return
	}
	for name, value := range raw {
		if str, ok := value.(string); ok {
			s.Cookies[name] = str
		}
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// commonFlags registers the flags shared by every command.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&proxyURL, "proxy", "http://localhost:8080", "Eats proxy base URL")
	fs.StringVar(&jarPath, "jar", defaultJarPath(), "Session jar file path")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

func parseFlags(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
}

func runLocate(args []string) {
	fs := flag.NewFlagSet("locate", flag.ExitOnError)
	commonFlags(fs)
	var address string
	fs.StringVar(&address, "address", "", "Delivery address (required)")
	parseFlags(fs, args)

	if address == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/locations/select", map[string]interface{}{
		"query": address,
	})
	if err != nil {
		fatal("Failed to select location: %v", err)
	}

	rawSession, err := json.Marshal(resp["session"])
	if err != nil {
		fatal("Parsing session: %v", err)
	}
	var s session
	if err := json.Unmarshal(rawSession, &s); err != nil {
		fatal("Parsing session: %v", err)
	}
	saveSession(&s)

	if quiet {
		return
	}
	printSuccess("Location pinned")
	fmt.Printf("  Cookies: %s%d%s\n", colorCyan, len(s.Cookies), colorReset)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	commonFlags(fs)
	var query string
	fs.StringVar(&query, "query", "", "Search text (required)")
	parseFlags(fs, args)

	if query == "" {
		fs.Usage()
		os.Exit(1)
	}

	s := loadSession()
	resp, err := doRequest("POST", "/api/search", map[string]interface{}{
		"query":   query,
		"cookies": s.Cookies,
	})
	if err != nil {
		fatal("Search failed: %v", err)
	}

	s.mergeCookies(resp)
	saveSession(s)
	printData(resp)
}

func runMenu(args []string) {
	fs := flag.NewFlagSet("menu", flag.ExitOnError)
	commonFlags(fs)
	var storeID string
	fs.StringVar(&storeID, "store", "", "Store UUID (required)")
	parseFlags(fs, args)

	if storeID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/stores/menu", map[string]interface{}{
		"storeId": storeID,
	})
	if err != nil {
		fatal("Fetching menu failed: %v", err)
	}
	printData(resp)
}

func runItem(args []string) {
	fs := flag.NewFlagSet("item", flag.ExitOnError)
	commonFlags(fs)
	var storeID, sectionID, subsectionID, itemID string
	fs.StringVar(&storeID, "store", "", "Store UUID (required)")
	fs.StringVar(&sectionID, "section", "", "Menu section UUID")
	fs.StringVar(&subsectionID, "subsection", "", "Menu subsection UUID")
	fs.StringVar(&itemID, "item", "", "Menu item UUID (required)")
	parseFlags(fs, args)

	if storeID == "" || itemID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/stores/item", map[string]interface{}{
		"storeId":      storeID,
		"sectionId":    sectionID,
		"subsectionId": subsectionID,
		"itemId":       itemID,
	})
	if err != nil {
		fatal("Fetching item failed: %v", err)
	}
	printData(resp)
}

// itemFlags holds the flags describing one cart item.
type itemFlags struct {
	store, section, subsection, item, title, price string
	qty                                            int
}

func registerItemFlags(fs *flag.FlagSet, f *itemFlags) {
	fs.StringVar(&f.store, "store", "", "Store UUID (required)")
	fs.StringVar(&f.section, "section", "", "Menu section UUID")
	fs.StringVar(&f.subsection, "subsection", "", "Menu subsection UUID")
	fs.StringVar(&f.item, "item", "", "Menu item UUID (required)")
	fs.StringVar(&f.title, "title", "", "Item display name")
	fs.StringVar(&f.price, "price", "0", "Unit price, e.g. 12.50")
	fs.IntVar(&f.qty, "qty", 1, "Quantity")
}

func (f *itemFlags) payload() map[string]interface{} {
	return map[string]interface{}{
		"itemId":       f.item,
		"storeId":      f.store,
		"sectionId":    f.section,
		"subsectionId": f.subsection,
		"title":        f.title,
		"price":        model.ParseCents(f.price),
		"quantity":     f.qty,
	}
}

func runCartCreate(args []string) {
	fs := flag.NewFlagSet("cart-create", flag.ExitOnError)
	commonFlags(fs)
	var item itemFlags
	registerItemFlags(fs, &item)
	parseFlags(fs, args)

	if item.store == "" || item.item == "" {
		fs.Usage()
		os.Exit(1)
	}

	s := loadSession()
	resp, err := doRequest("POST", "/api/cart/create", map[string]interface{}{
		"item":    item.payload(),
		"cookies": s.Cookies,
	})
	if err != nil {
		fatal("Creating cart failed: %v", err)
	}

	s.DraftOrderUUID, _ = resp["draftOrderUuid"].(string)
	s.CartUUID, _ = resp["cartUuid"].(string)
	s.StoreUUID = item.store
	instanceID, _ := resp["itemInstanceId"].(string)
	s.Items = append(s.Items, sessionItem{
		InstanceID:    instanceID,
		CatalogItemID: item.item,
		Quantity:      item.qty,
	})
	if result, ok := resp["result"].(map[string]interface{}); ok {
		s.mergeCookies(result)
	}
	saveSession(s)

	if quiet {
		fmt.Println(s.DraftOrderUUID)
		return
	}
	printSuccess("Cart created")
	fmt.Printf("  Draft order: %s%s%s\n", colorCyan, s.DraftOrderUUID, colorReset)
	fmt.Printf("  Instance:    %s%s%s\n", colorCyan, instanceID, colorReset)
}

func runCartAdd(args []string) {
	fs := flag.NewFlagSet("cart-add", flag.ExitOnError)
	commonFlags(fs)
	var item itemFlags
	registerItemFlags(fs, &item)
	parseFlags(fs, args)

	if item.store == "" || item.item == "" {
		fs.Usage()
		os.Exit(1)
	}

	s := loadSession()
	if s.DraftOrderUUID == "" {
		fatal("No open cart in %s - run cart-create first", jarPath)
	}

	resp, err := doRequest("POST", "/api/cart/add", map[string]interface{}{
		"draftOrderUuid": s.DraftOrderUUID,
		"cartUuid":       s.CartUUID,
		"item":           item.payload(),
		"cookies":        s.Cookies,
	})
	if err != nil {
		fatal("Adding item failed: %v", err)
	}

	instanceID, _ := resp["itemInstanceId"].(string)
	s.Items = append(s.Items, sessionItem{
		InstanceID:    instanceID,
		CatalogItemID: item.item,
		Quantity:      item.qty,
	})
	if result, ok := resp["result"].(map[string]interface{}); ok {
		s.mergeCookies(result)
	}
	saveSession(s)

	if quiet {
		fmt.Println(instanceID)
		return
	}
	printSuccess("Item added")
	fmt.Printf("  Instance: %s%s%s\n", colorCyan, instanceID, colorReset)
}

func runFee(args []string) {
	fs := flag.NewFlagSet("fee", flag.ExitOnError)
	commonFlags(fs)
	parseFlags(fs, args)

	s := loadSession()
	if s.DraftOrderUUID == "" {
		fatal("No open cart in %s - run cart-create first", jarPath)
	}

	resp, err := doRequest("POST", "/api/cart/fee", map[string]interface{}{
		"draftOrderUuid": s.DraftOrderUUID,
		"cookies":        s.Cookies,
	})
	if err != nil {
		fatal("Computing fees failed: %v", err)
	}

	s.mergeCookies(resp)
	saveSession(s)
	printData(resp)
}

func runCartRemove(args []string) {
	fs := flag.NewFlagSet("cart-remove", flag.ExitOnError)
	commonFlags(fs)
	var instanceID string
	fs.StringVar(&instanceID, "instance", "", "Item instance ID (required)")
	parseFlags(fs, args)

	if instanceID == "" {
		fs.Usage()
		os.Exit(1)
	}

	s := loadSession()
	if s.DraftOrderUUID == "" {
		fatal("No open cart in %s", jarPath)
	}

	_, err := doRequest("POST", "/api/cart/remove", map[string]interface{}{
		"cartUuid":       s.CartUUID,
		"draftOrderUuid": s.DraftOrderUUID,
		"itemInstanceId": instanceID,
		"storeUuid":      s.StoreUUID,
		"cookies":        s.Cookies,
	})
	if err != nil {
		fatal("Removing item failed: %v", err)
	}

	// The remove step's cookies are deliberately not merged.
	kept := s.Items[:0]
	for _, it := range s.Items {
		if it.InstanceID != instanceID {
			kept = append(kept, it)
		}
	}
	s.Items = kept
	saveSession(s)

	if !quiet {
		printSuccess("Item removed")
	}
}

// =============================================================================
// HTTP
// =============================================================================

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	reqURL := proxyURL + path
	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Eats-Client-Version", "1.0.0")

	if verbose {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if verbose {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printRequest(method, path string, body []byte) {
	fmt.Fprintf(os.Stderr, "%s→ %s %s%s\n", colorGray, method, path, colorReset)
	if len(body) > 0 {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", colorGray, string(body), colorReset)
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	color := colorGreen
	if status >= 400 {
		color = colorRed
	}
	fmt.Fprintf(os.Stderr, "%s← %d (%s)%s\n", color, status, duration.Round(time.Millisecond), colorReset)
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorGray, string(body), colorReset)
}

// printData pretty-prints the platform payload from a step response.
func printData(resp map[string]interface{}) {
	if quiet {
		return
	}
	data, ok := resp["data"]
	if !ok {
		return
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✓%s %s\n", colorGreen, colorReset, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%si%s %s\n", colorYellow, colorReset, fmt.Sprintf(format, args...))
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗%s %s\n", colorRed, colorReset, fmt.Sprintf(format, args...))
	os.Exit(1)
}
