package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/mod/semver"
)

// versionHeader carries the caller's client library version. Optional:
// requests without it pass through untouched.
const versionHeader = "Eats-Client-Version"

// ClientVersion returns middleware that gates requests on the caller's
// declared client version. A different major version gets 426 (the wire
// contract changed); an older minor only logs a warning. Clients that
// don't send the header are assumed current.
func ClientVersion(serverVersion string, logger *slog.Logger) func(http.Handler) http.Handler {
	server := normalizeVersion(serverVersion)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(versionHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			client := normalizeVersion(raw)
			if !semver.IsValid(client) {
				versionError(w, http.StatusBadRequest, "invalid_version",
					fmt.Sprintf("%s %q is not a valid semantic version", versionHeader, raw))
				return
			}

			if semver.Major(client) != semver.Major(server) {
				versionError(w, http.StatusUpgradeRequired, "incompatible_version",
					fmt.Sprintf("client %s is not compatible with server %s", raw, serverVersion))
				return
			}

			if semver.Compare(client, server) < 0 {
				logger.Warn("client behind server version",
					slog.String("client_version", raw),
					slog.String("server_version", serverVersion),
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// normalizeVersion adds the "v" prefix semver.IsValid requires.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "v0.0.0"
	}
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

func versionError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
