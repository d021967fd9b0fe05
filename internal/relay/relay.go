// Package relay owns the single event-processing timeline. Every client
// intent, disconnect, and room timer lands on one inbox and is handled to
// completion before the next, so the game registry needs no locking.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/vargha1/bounceroyale/internal/game"
	"github.com/vargha1/bounceroyale/internal/protocol"
)

type Msg interface{ isRelayMsg() }

// Connect registers a connection and its outbox. The relay immediately sends
// a "connected" frame carrying the assigned identity.
type Connect struct {
	ClientID string
	Outbox   chan []byte
}

func (Connect) isRelayMsg() {}

type Disconnect struct{ ClientID string }

func (Disconnect) isRelayMsg() {}

// FromClient is one decoded intent frame from a connection.
type FromClient struct {
	ClientID string
	Msg      protocol.ClientMessage
}

func (FromClient) isRelayMsg() {}

// GetView reflects internal state without data races; used by the HTTP
// discovery endpoint and by tests.
type GetView struct {
	Reply chan View
}

func (GetView) isRelayMsg() {}

type Shutdown struct{}

func (Shutdown) isRelayMsg() {}

type startFired struct{ RoomID string }

func (startFired) isRelayMsg() {}

type View struct {
	NumClients int
	Rooms      []game.Listing
}

// Announcer is notified when rooms appear and disappear; the discovery
// service implements it. Calls must never block the relay loop.
type Announcer interface {
	RoomCreated(gameID string)
	RoomClosed(gameID string)
}

type Options struct {
	Announcer Announcer
	Logger    *zap.Logger
}

type Relay struct {
	inbox     chan Msg
	registry  *game.Registry
	clients   map[string]chan []byte
	timers    map[string]*time.Timer
	announcer Announcer
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(parent context.Context, registry *game.Registry, opts Options) *Relay {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &Relay{
		inbox:     make(chan Msg, 256),
		registry:  registry,
		clients:   make(map[string]chan []byte),
		timers:    make(map[string]*time.Timer),
		announcer: opts.Announcer,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	go r.loop()
	return r
}

func (r *Relay) Inbox() chan<- Msg { return r.inbox }

func (r *Relay) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Connect:
				r.clients[msg.ClientID] = msg.Outbox
				r.sendTo(msg.ClientID, "connected", protocol.Connected{ID: msg.ClientID})
				r.log.Info("user connected", zap.String("id", msg.ClientID))

			case Disconnect:
				if ch, ok := r.clients[msg.ClientID]; ok {
					close(ch)
					delete(r.clients, msg.ClientID)
				}
				r.dispatch(r.registry.RemovePlayer(msg.ClientID))
				r.log.Info("user disconnected", zap.String("id", msg.ClientID))

			case FromClient:
				r.handleIntent(msg.ClientID, msg.Msg)

			case startFired:
				delete(r.timers, msg.RoomID)
				r.dispatch(r.registry.StartRoom(msg.RoomID))

			case GetView:
				msg.Reply <- View{
					NumClients: len(r.clients),
					Rooms:      r.registry.Listings(),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Relay) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.cancel()
}

// handleIntent routes one decoded frame into the registry. Unknown intents
// and intents against missing rooms are dropped without disturbing the
// connection; only join-game surfaces an error to the caller.
func (r *Relay) handleIntent(clientID string, m protocol.ClientMessage) {
	switch m.Type {
	case "create-game":
		var p protocol.CreateGame
		// tolerant decode: a bad startTimer just clamps to the default
		_ = json.Unmarshal(m.Data, &p)
		room, events := r.registry.CreateRoom(clientID, p.StartTimer)
		r.armStartTimer(room)
		if r.announcer != nil {
			r.announcer.RoomCreated(room.ID)
		}
		r.log.Info("game created",
			zap.String("gameId", room.ID),
			zap.String("creatorId", clientID),
			zap.Int("startTimer", room.StartTimer))
		r.dispatch(events)

	case "join-game":
		var p protocol.JoinGame
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		events, err := r.registry.JoinRoom(p.GameID, clientID)
		if err != nil {
			r.sendTo(clientID, game.EvtError, game.ErrorPayload{Message: err.Error()})
			return
		}
		r.log.Info("player joined", zap.String("gameId", p.GameID), zap.String("playerId", clientID))
		r.dispatch(events)

	case "move":
		var p protocol.Move
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		if p.ID == "" {
			p.ID = clientID
		}
		r.dispatch(r.registry.ApplyMove(p.GameID, p.ID, p.Position, p.Rotation))

	case "jump":
		var p protocol.Jump
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		if p.ID == "" {
			p.ID = clientID
		}
		r.dispatch(r.registry.RelayJump(p.GameID, clientID, p.ID, p.EventID))

	case "rotate":
		var p protocol.Rotate
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		r.dispatch(r.registry.RelayRotate(p.GameID, clientID, p.CameraAzimuth))

	case "hexagon-collided":
		var p protocol.HexagonCollided
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		r.dispatch(r.registry.RelayCollision(p.GameID, clientID, p.Index, p.PlayerID, p.EventID))

	case "player-hit":
		var p protocol.PlayerHit
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		r.dispatch(r.registry.RelayHit(p.GameID, p.TargetID, p.Impulse))

	case "break-hexagon":
		var p protocol.BreakHexagon
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		events := r.registry.BreakHexagon(p.GameID, clientID, p.Index)
		if len(events) > 0 {
			r.log.Info("hexagon broken", zap.String("gameId", p.GameID), zap.Int("index", p.Index))
		}
		r.dispatch(events)

	case "player-eliminated":
		var p protocol.PlayerEliminated
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return
		}
		events := r.registry.EliminatePlayer(p.GameID, p.PlayerID, p.Rank)
		if len(events) > 0 {
			r.log.Info("player eliminated",
				zap.String("gameId", p.GameID),
				zap.String("playerId", p.PlayerID),
				zap.Int("rank", p.Rank))
		}
		r.dispatch(events)

	default:
		r.log.Debug("dropping unknown intent", zap.String("type", m.Type), zap.String("from", clientID))
	}
}

// armStartTimer schedules the authoritative game-started push. The fire is
// delivered through the inbox so StartRoom runs on the relay timeline.
func (r *Relay) armStartTimer(room *game.Room) {
	d := time.Until(room.ServerStartTime)
	if d < 0 {
		d = 0
	}
	id := room.ID
	r.timers[id] = time.AfterFunc(d, func() {
		select {
		case r.inbox <- startFired{RoomID: id}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Relay) dispatch(events []game.Event) {
	for _, ev := range events {
		payload, err := json.Marshal(protocol.ServerMessage{Type: ev.Name, Data: ev.Data})
		if err != nil {
			r.log.Error("marshal event", zap.String("event", ev.Name), zap.Error(err))
			continue
		}
		for _, id := range ev.To {
			r.send(id, payload)
		}
		if ev.Name == game.EvtGameEnded {
			r.closeRoom(ev.RoomID)
		}
	}
}

func (r *Relay) closeRoom(roomID string) {
	if t, ok := r.timers[roomID]; ok {
		t.Stop()
		delete(r.timers, roomID)
	}
	if r.announcer != nil {
		r.announcer.RoomClosed(roomID)
	}
	r.log.Info("game ended", zap.String("gameId", roomID))
}

func (r *Relay) sendTo(clientID, event string, data any) {
	payload, err := json.Marshal(protocol.ServerMessage{Type: event, Data: data})
	if err != nil {
		r.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	r.send(clientID, payload)
}

func (r *Relay) send(clientID string, payload []byte) {
	ch, ok := r.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- payload:
	default:
		// Client is slow/full - drop them; the ws handler notices the
		// closed outbox and runs the disconnect path.
		close(ch)
		delete(r.clients, clientID)
	}
}
