package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"wallclient/internal/i18n"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

// I18N stores the negotiated message language in the request context.
func I18N(defaultLocale string) func(http.Handler) http.Handler {
	fallback := i18n.Match(defaultLocale)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := detectLocale(r, fallback)
			ctx := context.WithValue(r.Context(), LocaleKey, tag)
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale honours, in order: the lang query parameter, X-Locale, then
// Accept-Language.
func detectLocale(r *http.Request, fallback language.Tag) language.Tag {
	for _, pref := range []string{
		r.URL.Query().Get("lang"),
		r.Header.Get("X-Locale"),
		r.Header.Get("Accept-Language"),
	} {
		if pref == "" {
			continue
		}
		return i18n.Match(pref)
	}
	return fallback
}

func LocaleFromContext(ctx context.Context) language.Tag {
	if v, ok := ctx.Value(LocaleKey).(language.Tag); ok {
		return v
	}
	return language.English
}
