package main

// Spectator feed: anyone can open a websocket to /watch and receive the
// game's progress as JSON events, without being a participant. Round
// outcomes already tell bystander clients who scored; this surface extends
// the same information to non-playing watchers (scoreboard displays,
// stream overlays, and the like).

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	eventJoined   = "joined"
	eventLeft     = "left"
	eventStarted  = "started"
	eventQuestion = "question"
	eventBuzz     = "buzz"
	eventNoPoll   = "no_poll"
	eventOutcome  = "outcome"
	eventWinners  = "winners"
)

type watchEvent struct {
	Type     string `json:"type"`
	Round    int    `json:"round,omitempty"`
	ClientID int    `json:"client_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Winners  []int  `json:"winners,omitempty"`
}

type watcher struct {
	conn *websocket.Conn
	send chan watchEvent
}

// WatchHub fans game events out to connected spectators. A nil hub is
// valid: publish becomes a no-op, so the engine runs identically with the
// feed disabled.
type WatchHub struct {
	clients  map[*watcher]bool
	register chan *watcher
	unreg    chan *watcher
	events   chan watchEvent
}

func newWatchHub() *WatchHub {
	return &WatchHub{
		clients:  make(map[*watcher]bool),
		register: make(chan *watcher),
		unreg:    make(chan *watcher),
		events:   make(chan watchEvent, 64),
	}
}

func (h *WatchHub) publish(e watchEvent) {
	if h == nil {
		return
	}

	select {
	case h.events <- e:
	default:
		// Feed is saturated; spectators are best-effort.
	}
}

func (h *WatchHub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for w := range h.clients {
				delete(h.clients, w)
				close(w.send)
			}
			return

		case w := <-h.register:
			h.clients[w] = true

		case w := <-h.unreg:
			if _, ok := h.clients[w]; ok {
				delete(h.clients, w)
				close(w.send)
			}

		case e := <-h.events:
			for w := range h.clients {
				select {
				case w.send <- e:
				default:
					delete(h.clients, w)
					close(w.send)
				}
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWatch(cfg *Config, h *WatchHub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade failed: %v", err)
			return
		}

		watch := &watcher{
			conn: conn,
			send: make(chan watchEvent, 8),
		}

		h.register <- watch

		go watch.writePump()
		watch.readPump(h)
	}
}

// readPump discards inbound messages; the feed is one-way. It exists to
// notice the peer closing.
func (w *watcher) readPump(h *WatchHub) {
	defer func() {
		h.unreg <- w
		_ = w.conn.Close()
	}()

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (w *watcher) writePump() {
	defer w.conn.Close()

	for e := range w.send {
		if err := w.conn.WriteJSON(e); err != nil {
			return
		}
	}
}
