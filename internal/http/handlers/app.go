package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"wallclient/internal/gallery"
	"wallclient/internal/infra"
	"wallclient/internal/jobclient"
)

const defaultMaxUploadBytes = 64 << 20

// App holds the collaborators of the local UI.
type App struct {
	Jobs    *jobclient.Controller
	Gallery *gallery.Loader
	Hub     *Hub
	Logger  *infra.Logger

	MaxUploadBytes int64
	AllowedOrigins []string

	upgrader websocket.Upgrader
}

// NewApp wires the hub to the controller and the gallery loader.
func NewApp(jobs *jobclient.Controller, loader *gallery.Loader, logger *infra.Logger, allowedOrigins []string) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	a := &App{
		Jobs:           jobs,
		Gallery:        loader,
		Hub:            NewHub(),
		Logger:         logger,
		MaxUploadBytes: defaultMaxUploadBytes,
		AllowedOrigins: allowedOrigins,
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
	jobs.Subscribe(a.Hub.PublishState)
	loader.OnRefresh(a.Hub.PublishGallery)
	return a
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string     `json:"error"`
	Message string     `json:"message"`
	State   *stateView `json:"state,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorBody{Error: kind, Message: message})
}

// checkOrigin accepts same-host pages and the configured CORS origins.
func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range a.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
