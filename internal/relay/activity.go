// Package relay publishes organizer activity to SSE subscribers.
package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/dgnsrekt/tabkeeper/internal/organizer"
)

// ActivityObserver returns an organizer observer publishing each Activity
// on broker under its kind.
func ActivityObserver(broker *Broker) func(organizer.Activity) {
	return func(a organizer.Activity) {
		payload, err := json.Marshal(a)
		if err != nil {
			slog.Debug("relay activity marshal failed", "kind", a.Kind, "error", err)
			return
		}
		broker.Publish(a.Kind, string(payload))
	}
}
