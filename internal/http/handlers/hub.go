package handlers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"wallclient/internal/gallery"
	"wallclient/internal/jobclient"
)

const (
	eventTypeState   = "state"
	eventTypeGallery = "gallery"

	wsWriteWait  = 7 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
	wsSendBuffer = 16
)

// Event is something the page needs to know about. Payloads are rendered per
// subscriber because messages depend on the subscriber's language.
type Event struct {
	Type     string
	Snapshot jobclient.Snapshot
	Gallery  gallery.Result
}

type wsMessage struct {
	Type    string        `json:"type"`
	State   *stateView    `json:"state,omitempty"`
	Gallery *gallery.View `json:"gallery,omitempty"`
	HTML    string        `json:"html,omitempty"`
}

func renderEvent(tag language.Tag, ev Event) ([]byte, error) {
	msg := wsMessage{Type: ev.Type}
	switch ev.Type {
	case eventTypeState:
		view := newStateView(tag, ev.Snapshot)
		msg.State = &view
	case eventTypeGallery:
		view := ev.Gallery.View(tag)
		html, err := view.HTML()
		if err != nil {
			return nil, err
		}
		msg.Gallery = &view
		msg.HTML = string(html)
	}
	return json.Marshal(msg)
}

// Hub fans events out to connected websocket clients. A slow client never
// blocks a publisher: when its buffer is full the event is dropped for it and
// the connection is closed so the page reconnects and resyncs.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*wsClient]struct{}
	lastState jobclient.Snapshot
	hasState  bool
}

type wsClient struct {
	conn *websocket.Conn
	tag  language.Tag
	send chan Event
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Publish queues ev for every client. The latest state is remembered so
// clients joining later start from it.
func (h *Hub) Publish(ev Event) {
	var slow []*wsClient
	h.mu.Lock()
	if ev.Type == eventTypeState {
		h.lastState = ev.Snapshot
		h.hasState = true
	}
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()
	for _, c := range slow {
		h.drop(c)
	}
}

// PublishState is a jobclient.Observer.
func (h *Hub) PublishState(snap jobclient.Snapshot) {
	h.Publish(Event{Type: eventTypeState, Snapshot: snap})
}

// PublishGallery is registered with gallery.Loader.OnRefresh.
func (h *Hub) PublishGallery(res gallery.Result) {
	h.Publish(Event{Type: eventTypeGallery, Gallery: res})
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// add registers c and queues the current state for it. fallback is used
// until the first state has been published; it must be read before calling
// add so that a transition racing the join is never lost.
func (h *Hub) add(c *wsClient, fallback jobclient.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := fallback
	if h.hasState {
		snap = h.lastState
	}
	c.send <- Event{Type: eventTypeState, Snapshot: snap}
	h.clients[c] = struct{}{}
}

// drop unregisters c and closes its queue. Closing under the write lock
// guarantees no Publish is sending on it.
func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	c.once.Do(func() {
		close(c.send)
	})
}

// writeLoop owns all writes on the connection.
func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			raw, err := renderEvent(c.tag, ev)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages and returns when the peer goes away.
func (c *wsClient) readLoop() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
