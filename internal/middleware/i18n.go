package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey is the context key under which the negotiated locale is stored.
var LocaleKey = localeContextKey{}

var supportedLocales = language.NewMatcher([]language.Tag{
	language.English, // default
	language.Indonesian,
	language.Spanish,
})

// I18N negotiates the response locale from X-Locale or Accept-Language against
// the supported set and stores it in the request context. A locale already set
// by the session token wins.
func I18N(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(LocaleKey).(string); ok && v != "" {
				next.ServeHTTP(w, r)
				return
			}
			locale := negotiateLocale(r, defaultLocale)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func negotiateLocale(r *http.Request, fallback string) string {
	accept := r.Header.Get("Accept-Language")
	if v := r.Header.Get("X-Locale"); v != "" {
		accept = v
	}
	if accept == "" {
		if fallback != "" {
			return fallback
		}
		return "en"
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		if fallback != "" {
			return fallback
		}
		return "en"
	}
	tag, _, _ := supportedLocales.Match(tags...)
	base, _ := tag.Base()
	return base.String()
}

// LocaleFromContext returns the negotiated locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}
