package relay

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// SSEHandler streams activity as SSE. ?kinds=grouped,collapsed filters by
// activity kind. Clients resuming with Last-Event-ID (or ?since=) first get
// the retained events they missed.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		kinds := parseKinds(r.URL.Query().Get("kinds"))
		since := lastEventID(r)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		id, backlog, ch := broker.Subscribe(since)
		defer broker.Unsubscribe(id)

		for _, evt := range backlog {
			writeEvent(w, kinds, evt)
		}
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if writeEvent(w, kinds, evt) {
					flusher.Flush()
				}
			}
		}
	}
}

func writeEvent(w io.Writer, kinds map[string]bool, evt Event) bool {
	if kinds != nil && !kinds[evt.Kind] {
		return false
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Seq, evt.Kind, evt.Payload)
	return true
}

func parseKinds(q string) map[string]bool {
	if q == "" {
		return nil
	}
	kinds := make(map[string]bool)
	for _, k := range strings.Split(q, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds[k] = true
		}
	}
	return kinds
}

func lastEventID(r *http.Request) int64 {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("since")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
