package handlers

import (
	"net/http"

	"wallclient/internal/middleware"
)

// Events upgrades to a websocket and streams state and gallery updates. The
// latest snapshot is sent first so a reconnecting page resyncs.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LocaleFromContext(r.Context())
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("ui: websocket upgrade failed")
		return
	}
	c := &wsClient{conn: conn, tag: tag, send: make(chan Event, wsSendBuffer)}
	a.Hub.add(c, a.Jobs.Snapshot())
	a.Logger.Debug().Str("locale", tag.String()).Int("clients", a.Hub.Len()).Msg("ui: websocket connected")

	go c.writeLoop()
	c.readLoop()
	a.Hub.drop(c)
	a.Logger.Debug().Int("clients", a.Hub.Len()).Msg("ui: websocket disconnected")
}
