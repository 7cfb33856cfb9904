package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexis/lmsadmin/internal/sse"
)

const keepaliveInterval = 30 * time.Second

// Stream pushes dashboard events to the browser: transaction status
// changes, saved or deleted rules and directory refreshes.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	events, unsub := s.broadcaster.Subscribe()
	defer unsub()

	hello := map[string]interface{}{"status": "ok"}
	if s.watcher != nil {
		hello["pending"] = len(s.watcher.Pending())
	}
	writeEvent(w, sse.Event{Type: sse.EventConnected, Data: hello})
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return // Broadcaster closed
			}
			writeEvent(w, event)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event sse.Event) {
	data, _ := json.Marshal(event.Data)
	if event.ID != "" {
		fmt.Fprintf(w, "id: %s\n", event.ID)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
}
