package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	cases := []struct {
		name, in string
		keep     bool
	}{
		{"propagated", "abc-123", true},
		{"missing", "", false},
		{"with spaces", "a b", false},
		{"too long", strings.Repeat("x", maxRequestIDLen+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if tc.in != "" {
				req.Header.Set("X-Request-Id", tc.in)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			got := rr.Header().Get("X-Request-Id")
			if got != seen {
				t.Fatalf("header %q and context %q differ", got, seen)
			}
			if tc.keep && got != tc.in {
				t.Fatalf("expected %q to be propagated, got %q", tc.in, got)
			}
			if !tc.keep && (got == "" || got == tc.in) {
				t.Fatalf("expected a minted request id, got %q", got)
			}
		})
	}
}
