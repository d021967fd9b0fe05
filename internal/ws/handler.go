package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vargha1/bounceroyale/internal/protocol"
	"github.com/vargha1/bounceroyale/internal/relay"
)

const writeTimeout = 10 * time.Second

// Handler upgrades the connection, mints its identity, and pumps frames
// between the socket and the relay. The identity doubles as the player id
// for the connection's lifetime; a reconnect is a brand-new identity.
func Handler(rl *relay.Relay, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// Game clients connect from arbitrary origins (LAN peers,
			// packaged builds), mirroring the permissive CORS policy.
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		out := make(chan []byte, 32)

		rl.Inbox() <- relay.Connect{ClientID: clientID, Outbox: out}
		defer func() { rl.Inbox() <- relay.Disconnect{ClientID: clientID} }()

		// Writer goroutine: drains the outbox until the relay closes it
		// (shutdown or slow-client drop).
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for payload := range out {
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err := conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
			conn.Close(websocket.StatusGoingAway, "server closing")
		}()

		// Reader loop. No read deadline: a lobby creator can idle for the
		// whole countdown without traffic.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Anything else still runs the disconnect path via defer.
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				log.Debug("bad frame", zap.String("client", clientID), zap.Error(err))
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"error","data":{"message":"bad json"}}`))
				continue
			}

			rl.Inbox() <- relay.FromClient{ClientID: clientID, Msg: cm}
		}
	}
}
