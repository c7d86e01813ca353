package handlers

import (
	"net/http"

	"wallclient/internal/gallery"
	"wallclient/internal/middleware"
)

// GalleryFragment renders the gallery grid as an HTML fragment. The gallery
// is fetched on every request; a failed fetch still yields 200 with the
// unavailable message so the page can swap it in.
func (a *App) GalleryFragment(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LocaleFromContext(r.Context())
	view := a.Gallery.Load(r.Context()).View(tag)
	if r.URL.Query().Get("format") == "json" {
		a.json(w, http.StatusOK, view)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := gallery.RenderHTML(w, view); err != nil {
		a.Logger.Error().Err(err).Msg("ui: render gallery")
	}
}
