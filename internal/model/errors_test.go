package model

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantText   string
		wantJSON   bool
		wantInBody string
	}{
		{
			name:       "json error body",
			status:     403,
			body:       `{"error":"forbidden"}`,
			wantText:   "Forbidden",
			wantJSON:   true,
			wantInBody: "forbidden",
		},
		{
			name:       "html error body kept as text",
			status:     503,
			body:       "<html>maintenance</html>",
			wantText:   "Service Unavailable",
			wantJSON:   false,
			wantInBody: "maintenance",
		},
		{
			name:     "empty body",
			status:   429,
			body:     "",
			wantText: "Too Many Requests",
			wantJSON: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := ClassifyResponse(tt.status, []byte(tt.body))

			if re.Status != tt.status {
				t.Errorf("Status = %d, want %d", re.Status, tt.status)
			}
			if re.StatusText != tt.wantText {
				t.Errorf("StatusText = %q, want %q", re.StatusText, tt.wantText)
			}
			if tt.wantInBody != "" && !strings.Contains(re.Body, tt.wantInBody) {
				t.Errorf("Body = %q, want it to contain %q", re.Body, tt.wantInBody)
			}
			if got := re.Data != nil; got != tt.wantJSON {
				t.Errorf("Data set = %v, want %v", got, tt.wantJSON)
			}
		})
	}
}

func TestRemoteErrorUnwrap(t *testing.T) {
	err := error(ClassifyResponse(500, []byte("boom")))

	if !errors.Is(err, ErrRemote) {
		t.Error("RemoteError should unwrap to ErrRemote")
	}

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatal("errors.As failed to recover *RemoteError")
	}
	if re.Status != 500 {
		t.Errorf("Status = %d, want 500", re.Status)
	}
}

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantIs     error
	}{
		{"validation", NewValidationError("query", "required"), http.StatusBadRequest, "VALIDATION_ERROR", ErrInvalidRequest},
		{"bad cookie", NewBadCookieError(errors.New("no equals")), http.StatusBadGateway, "MALFORMED_COOKIE", nil},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.wantStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.wantIs != nil && !errors.Is(tt.err, tt.wantIs) {
				t.Errorf("errors.Is(%v) = false", tt.wantIs)
			}
		})
	}
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.50", 1250},
		{"9", 900},
		{"0.99", 99},
		{"", 0},
		{"not-a-number", 0},
	}

	for _, tt := range tests {
		if got := ParseCents(tt.in); got != tt.want {
			t.Errorf("ParseCents(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
