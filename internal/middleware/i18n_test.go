package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func negotiated(t *testing.T, build func(*http.Request)) string {
	t.Helper()
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/billing/status", nil)
	build(req)
	I18N("en")(next).ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestI18NNegotiation(t *testing.T) {
	tests := []struct {
		name  string
		build func(*http.Request)
		want  string
	}{
		{
			name:  "accept-language picks supported locale",
			build: func(r *http.Request) { r.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.8") },
			want:  "id",
		},
		{
			name:  "x-locale overrides accept-language",
			build: func(r *http.Request) { r.Header.Set("Accept-Language", "id"); r.Header.Set("X-Locale", "es") },
			want:  "es",
		},
		{
			name:  "unsupported locale falls back to english",
			build: func(r *http.Request) { r.Header.Set("Accept-Language", "fr-FR") },
			want:  "en",
		},
		{
			name:  "no headers uses default",
			build: func(*http.Request) {},
			want:  "en",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := negotiated(t, tc.build); got != tc.want {
				t.Fatalf("locale = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestI18NSessionLocaleWins(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/billing/status", nil)
	req.Header.Set("Accept-Language", "es")
	req = req.WithContext(context.WithValue(req.Context(), LocaleKey, "id"))
	I18N("en")(next).ServeHTTP(httptest.NewRecorder(), req)
	if got != "id" {
		t.Fatalf("locale = %q, want the session-carried id", got)
	}
}
