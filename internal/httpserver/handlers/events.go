package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

// DefaultKeepAlive is the interval between SSE comment lines.
const DefaultKeepAlive = 15 * time.Second

// Events streams registry events as Server-Sent Events.
// A client dropped for lagging sees the stream end and reconnects; it
// should re-read the views on reconnect.
func Events(d deps.Deps) http.HandlerFunc {
	keepAlive := d.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		// The stream outlives the server's WriteTimeout.
		_ = rc.SetWriteDeadline(time.Time{})

		sub := d.Registry.Subscribe()
		defer sub.Cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		if err := writeEvent(w, favorites.Event{Kind: "hello", Version: d.Registry.Version()}); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			d.Logger.Debug("sse: flush unsupported", logger.Error(err))
			return
		}

		d.Logger.Debug("sse: client connected",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Int("subscribers", d.Registry.Subscribers()))

		var shutdown <-chan struct{}
		if d.Streams != nil {
			shutdown = d.Streams.Done()
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-shutdown:
				return
			case ev, ok := <-sub.C:
				if !ok {
					d.Logger.Debug("sse: subscription closed", logger.String("remote_ip", r.RemoteAddr))
					return
				}
				if err := writeEvent(w, ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ":thump\n\n"); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, ev favorites.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: favorites\ndata: %s\n\n", data)
	return err
}
