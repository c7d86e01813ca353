package gallery

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"golang.org/x/text/language"

	"wallclient/internal/domain"
	"wallclient/internal/i18n"
)

// Item is one rendered gallery tile.
type Item struct {
	PreviewURL  string `json:"preview_url"`
	DownloadURL string `json:"download_url"`
	Alt         string `json:"alt"`
}

// View is the render model of the gallery. Exactly one of Items or Message
// is populated.
type View struct {
	Items       []Item `json:"items,omitempty"`
	Message     string `json:"message,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// Build turns a wallpaper list into a view. Entries without any usable URL
// are skipped.
func Build(tag language.Tag, wallpapers []domain.Wallpaper) View {
	alt := i18n.Text(tag, i18n.GalleryImageAlt)
	items := make([]Item, 0, len(wallpapers))
	for _, w := range wallpapers {
		preview := w.Preview()
		download := strings.TrimSpace(w.FinalURL)
		if download == "" {
			download = preview
		}
		if preview == "" {
			continue
		}
		items = append(items, Item{PreviewURL: preview, DownloadURL: download, Alt: alt})
	}
	if len(items) == 0 {
		return View{Message: i18n.Text(tag, i18n.GalleryEmpty)}
	}
	return View{Items: items}
}

// Unavailable is the view shown when the gallery could not be fetched.
func Unavailable(tag language.Tag) View {
	return View{Message: i18n.Text(tag, i18n.GalleryUnavailable), Unavailable: true}
}

var fragment = template.Must(template.New("gallery").Parse(
	`<div class="gallery-grid" id="gallery-grid">` +
		`{{- if .Items}}{{range .Items}}<a href="{{.DownloadURL}}" download><img src="{{.PreviewURL}}" alt="{{.Alt}}" loading="lazy"></a>{{end}}` +
		`{{- else}}<p class="gallery-message">{{.Message}}</p>{{end -}}` +
		`</div>`))

// RenderHTML writes the gallery grid fragment.
func RenderHTML(w io.Writer, v View) error {
	return fragment.Execute(w, v)
}

// HTML renders the fragment for embedding in a page template.
func (v View) HTML() (template.HTML, error) {
	var sb strings.Builder
	if err := RenderHTML(&sb, v); err != nil {
		return "", err
	}
	return template.HTML(sb.String()), nil
}

// RenderText writes one download URL per line, or the message.
func RenderText(w io.Writer, v View) error {
	if len(v.Items) == 0 {
		_, err := fmt.Fprintln(w, v.Message)
		return err
	}
	for i, item := range v.Items {
		if _, err := fmt.Fprintf(w, "%3d. %s\n", i+1, item.DownloadURL); err != nil {
			return err
		}
	}
	return nil
}
