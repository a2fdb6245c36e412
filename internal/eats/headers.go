package eats

import (
	"github.com/dunglas/httpsfv"
)

// =============================================================================
// BROWSER HEADER FABRICATION
// =============================================================================
//
// The platform's web API is served to its own frontend only; requests whose
// headers don't resemble that frontend get challenged or 403'd. The headers
// below are a pure configuration table - they never influence control flow,
// and individual entries can be overridden from config when the platform
// moves. Keep fabrication here and TLS fingerprinting in internal/transport.
// =============================================================================

const (
	chromeMajor = "124"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" +
		" (KHTML, like Gecko) Chrome/" + chromeMajor + ".0.0.0 Safari/537.36"
)

// secChUA is the sec-ch-ua client-hint value, an RFC 8941 structured field
// list of brand/version pairs. Built once at init.
var secChUA = buildSecChUA()

func buildSecChUA() string {
	brand := func(name string) httpsfv.Item {
		item := httpsfv.NewItem(name)
		item.Params.Add("v", chromeMajor)
		return item
	}
	notABrand := httpsfv.NewItem("Not-A.Brand")
	notABrand.Params.Add("v", "99")

	value, err := httpsfv.Marshal(httpsfv.List{
		brand("Chromium"),
		brand("Google Chrome"),
		notABrand,
	})
	if err != nil {
		// Marshal only fails on unrepresentable values; the literals above
		// are always representable. Fall back to a minimal brand anyway.
		return `"Chromium";v="` + chromeMajor + `"`
	}
	return value
}

// browserHeaders returns the fabricated header set for requests against
// baseURL. Callers overlay config-supplied overrides on top.
func browserHeaders(baseURL string) map[string]string {
	return map[string]string{
		"Content-Type":       "application/json",
		"Accept":             "*/*",
		"Accept-Language":    "en-US,en;q=0.9",
		"User-Agent":         userAgent,
		"Origin":             baseURL,
		"Referer":            baseURL + "/",
		"X-CSRF-Token":       "x",
		"sec-ch-ua":          secChUA,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"Windows"`,
		"Sec-Fetch-Site":     "same-origin",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Dest":     "empty",
	}
}
