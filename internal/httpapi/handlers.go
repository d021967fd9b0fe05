package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vargha1/bounceroyale/internal/discovery"
	"github.com/vargha1/bounceroyale/internal/relay"
)

// PeerSource supplies rooms discovered on other servers; used as the
// fallback when this process hosts no rooms.
type PeerSource interface {
	Peers() []discovery.Listing
}

// DiscoverLAN lists the currently active rooms, sourced live from the room
// registry. With no local rooms it falls back to the passively discovered
// peer list.
func DiscoverLAN(rl *relay.Relay, peers PeerSource, publicHost string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan relay.View, 1)
		rl.Inbox() <- relay.GetView{Reply: reply}
		view := <-reply

		host := publicHost
		if host == "" {
			host = r.Host
		}

		listings := make([]discovery.Listing, 0, len(view.Rooms))
		for _, room := range view.Rooms {
			listings = append(listings, discovery.Listing{
				Name:    "Bounce Royale Game " + room.GameID,
				Address: host,
				GameID:  room.GameID,
			})
		}
		if len(listings) == 0 && peers != nil {
			if remote := peers.Peers(); len(remote) > 0 {
				listings = remote
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listings)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
