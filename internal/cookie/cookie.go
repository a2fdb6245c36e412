// Package cookie converts between the three cookie representations the
// delivery platform's web API deals in: raw Set-Cookie header lines, a
// name→value jar carried across workflow steps, and the platform's
// percent-escaped location token embedded in a single cookie value.
package cookie

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Jar maps cookie names to values. It is the session state the caller
// threads through the workflow: each step's response cookies are merged
// into the running jar before the next step.
type Jar map[string]string

// MalformedCookieError reports a Set-Cookie line that could not be split
// into a name/value pair. The platform is expected to always emit
// well-formed cookies, so this is a data-integrity fault, not something
// to drop silently.
type MalformedCookieError struct {
	Line string
}

func (e *MalformedCookieError) Error() string {
	return fmt.Sprintf("malformed Set-Cookie line: %q", e.Line)
}

// FromSetCookie builds a jar from raw Set-Cookie header lines. Only the
// name=value pair before the first ';' matters; attributes (Path, Domain,
// Expires, ...) are discarded. Later lines overwrite earlier ones for the
// same name. A nil or empty slice yields an empty jar.
func FromSetCookie(lines []string) (Jar, error) {
	jar := make(Jar, len(lines))
	for _, line := range lines {
		pair := line
		if i := strings.IndexByte(pair, ';'); i >= 0 {
			pair = pair[:i]
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, &MalformedCookieError{Line: line}
		}
		jar[strings.TrimSpace(name)] = value
	}
	return jar, nil
}

// HeaderString renders the jar as a Cookie request header value:
// "name=value; " pairs concatenated, trailing separator included. The
// platform's cookie parser tolerates the trailing "; ", and the upstream
// requests are built with exactly this shape. Keys are sorted so the
// rendering is deterministic.
func (j Jar) HeaderString() string {
	var b strings.Builder
	for _, name := range j.sortedNames() {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(j[name])
		b.WriteString("; ")
	}
	return b.String()
}

// Lines renders the jar as bare "name=value" Set-Cookie lines, the inverse
// of FromSetCookie for jars built from attribute-free lines.
func (j Jar) Lines() []string {
	names := j.sortedNames()
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + "=" + j[name]
	}
	return lines
}

// Merged returns a new jar containing this jar's cookies overlaid with
// other's. Last write wins per name; neither input is mutated, so a
// workflow can keep each step's jar as an immutable snapshot.
func (j Jar) Merged(other Jar) Jar {
	merged := make(Jar, len(j)+len(other))
	for name, value := range j {
		merged[name] = value
	}
	for name, value := range other {
		merged[name] = value
	}
	return merged
}

// Clone returns an independent copy of the jar.
func (j Jar) Clone() Jar {
	c := make(Jar, len(j))
	for name, value := range j {
		c[name] = value
	}
	return c
}

func (j Jar) sortedNames() []string {
	names := make([]string, 0, len(j))
	for name := range j {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// locationEscaper compacts and escapes serialized location JSON into the
// token format the platform expects inside its location cookie. This is
// not URL encoding: whitespace is stripped outright, double quotes become
// %22, and backslashes are dropped (which also collapses JSON's \" escape
// into %22).
var locationEscaper = strings.NewReplacer(
	"\t", "",
	"\n", "",
	" ", "",
	`\`, "",
	`"`, "%22",
)

// EncodeLocation serializes a location payload into the platform's cookie
// token format. The exact escaping rules are a fixed external-protocol
// requirement; do not "fix" them.
func EncodeLocation(location any) (string, error) {
	raw, err := json.Marshal(location)
	if err != nil {
		return "", fmt.Errorf("encoding location: %w", err)
	}
	return locationEscaper.Replace(string(raw)), nil
}

// RewriteDomain substitutes the authority domain inside each Set-Cookie
// line, so cookies minted for the platform's domain become valid for this
// service's own domain when handed back to an external caller. The
// substitution is textual, matching how the cookies are consumed.
func RewriteDomain(lines []string, from, to string) []string {
	if from == "" || from == to {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.ReplaceAll(line, from, to)
	}
	return out
}
