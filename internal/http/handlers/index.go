package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"wallclient/internal/i18n"
	"wallclient/internal/middleware"
)

//go:embed web
var webFS embed.FS

var pageTmpl = template.Must(template.ParseFS(webFS, "web/index.html.tmpl"))

type pageData struct {
	Lang       string
	Title      string
	LightLabel string
	DarkLabel  string
	Heading    string
	State      stateView
	Gallery    template.HTML
}

// Index renders the upload form, the status line and the gallery.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LocaleFromContext(r.Context())
	state := newStateView(tag, a.Jobs.Snapshot())
	galleryHTML, err := a.Gallery.Load(r.Context()).View(tag).HTML()
	if err != nil {
		a.Logger.Error().Err(err).Msg("ui: render gallery")
	}
	data := pageData{
		Lang:       tag.String(),
		Title:      i18n.Text(tag, i18n.PageTitle),
		LightLabel: i18n.Text(tag, i18n.LightImage),
		DarkLabel:  i18n.Text(tag, i18n.DarkImage),
		Heading:    i18n.Text(tag, i18n.GalleryHeading),
		State:      state,
		Gallery:    galleryHTML,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		a.Logger.Error().Err(err).Msg("ui: render page")
	}
}

// Static serves the embedded script and stylesheet.
func Static() http.Handler {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
