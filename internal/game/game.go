package game

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"
)

var ErrRoomNotFound = errors.New("no such game exists")

type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseRunning Phase = "running"
)

const (
	minStartTimer     = 5
	maxStartTimer     = 60
	defaultStartTimer = 30
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Player struct {
	Position   Vec3
	Rotation   Vec3
	Eliminated bool
	Rank       int
}

type Room struct {
	ID              string
	CreatorID       string
	Phase           Phase
	Players         map[string]*Player
	Order           []string // join order
	Hexagons        []Vec3
	StartTimer      int // seconds, clamped
	ServerStartTime time.Time
}

// Listing is the registry-level view of a room, used by the discovery layer.
type Listing struct {
	GameID  string `json:"gameId"`
	Players int    `json:"players"`
	Phase   Phase  `json:"phase"`
}

// Registry owns every active room. It is not safe for concurrent use: all
// calls must come from the relay's single event-processing goroutine.
type Registry struct {
	rooms map[string]*Room
	now   func() time.Time
	rng   *rand.Rand
}

func NewRegistry() *Registry {
	return NewRegistryWithClock(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewRegistryWithClock injects the clock and randomness source so tests can
// pin room ids, spawn points, and countdown math.
func NewRegistryWithClock(now func() time.Time, rng *rand.Rand) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		now:   now,
		rng:   rng,
	}
}

func (g *Registry) Room(id string) *Room { return g.rooms[id] }

func (g *Registry) Listings() []Listing {
	out := make([]Listing, 0, len(g.rooms))
	for _, id := range sortedRoomIDs(g.rooms) {
		r := g.rooms[id]
		out = append(out, Listing{GameID: r.ID, Players: len(r.Players), Phase: r.Phase})
	}
	return out
}

// CreateRoom allocates a fresh room with the caller as creator and first
// player. The countdown is clamped to [5,60] seconds; anything else falls
// back to 30 (permissive default, not a validation error).
func (g *Registry) CreateRoom(creatorID string, startTimer int) (*Room, []Event) {
	if startTimer < minStartTimer || startTimer > maxStartTimer {
		startTimer = defaultStartTimer
	}

	room := &Room{
		ID:              g.newRoomID(),
		CreatorID:       creatorID,
		Phase:           PhaseWaiting,
		Players:         map[string]*Player{creatorID: {Position: creatorSpawn}},
		Order:           []string{creatorID},
		Hexagons:        defaultHexagons(),
		StartTimer:      startTimer,
		ServerStartTime: g.now().Add(time.Duration(startTimer) * time.Second),
	}
	g.rooms[room.ID] = room

	return room, []Event{{
		Name:   EvtInit,
		RoomID: room.ID,
		To:     []string{creatorID},
		Data:   g.snapshot(room),
	}}
}

// JoinRoom inserts the joiner at a random spawn and returns the asymmetric
// pair of events: a full snapshot for the joiner, a new-player delta for
// everyone already in the room.
func (g *Registry) JoinRoom(roomID, joinerID string) ([]Event, error) {
	room := g.rooms[roomID]
	if room == nil {
		return nil, ErrRoomNotFound
	}

	notify := room.memberIDs(joinerID)
	pos := g.randomSpawn()
	room.Players[joinerID] = &Player{Position: pos}
	room.Order = append(room.Order, joinerID)

	return []Event{
		{
			Name:   EvtInit,
			RoomID: room.ID,
			To:     []string{joinerID},
			Data:   g.snapshot(room),
		},
		{
			Name:   EvtNewPlayer,
			RoomID: room.ID,
			To:     notify,
			Data:   NewPlayerPayload{ID: joinerID, Position: pos},
		},
	}, nil
}

// ApplyMove is a trust-the-client relay: the stored position is whatever the
// client reported, with no plausibility checks.
func (g *Registry) ApplyMove(roomID, playerID string, position, rotation Vec3) []Event {
	room := g.rooms[roomID]
	if room == nil {
		return nil
	}
	p := room.Players[playerID]
	if p == nil {
		return nil
	}
	p.Position = position
	p.Rotation = rotation
	return []Event{{
		Name:   EvtPlayerMoved,
		RoomID: room.ID,
		To:     room.memberIDs(playerID),
		Data:   MovedPayload{ID: playerID, Position: position, Rotation: rotation},
	}}
}

func (g *Registry) RelayJump(roomID, senderID, playerID, eventID string) []Event {
	room := g.rooms[roomID]
	if room == nil {
		return nil
	}
	events := []Event{{
		Name:   EvtPlayerJumped,
		RoomID: room.ID,
		To:     room.memberIDs(senderID),
		Data:   JumpedPayload{ID: playerID},
	}}
	if eventID != "" {
		events = append(events, Event{
			Name:   EvtPlayerJumped,
			RoomID: room.ID,
			To:     []string{senderID},
			Data:   JumpedPayload{ID: senderID, EventID: eventID},
		})
	}
	return events
}

func (g *Registry) RelayRotate(roomID, senderID string, cameraAzimuth float64) []Event {
	room := g.rooms[roomID]
	if room == nil {
		return nil
	}
	return []Event{{
		Name:   EvtPlayerRotated,
		RoomID: room.ID,
		To:     room.memberIDs(senderID),
		Data:   RotatedPayload{ID: senderID, CameraAzimuth: cameraAzimuth},
	}}
}

// RelayCollision forwards a hexagon collision report to the rest of the room
// (notably the creator, who does the hit counting) and acks the sender so its
// retry loop can stop.
func (g *Registry) RelayCollision(roomID, senderID string, index int, playerID, eventID string) []Event {
	room := g.rooms[roomID]
	if room == nil {
		return nil
	}
	var events []Event
	if eventID != "" {
		events = append(events, Event{
			Name:   EvtHexagonCollidedAck,
			RoomID: room.ID,
			To:     []string{senderID},
			Data:   CollidedAckPayload{EventID: eventID},
		})
	}
	events = append(events, Event{
		Name:   EvtHexagonCollided,
		RoomID: room.ID,
		To:     room.memberIDs(senderID),
		Data:   CollidedPayload{Index: index, PlayerID: playerID, EventID: eventID},
	})
	return events
}

// RelayHit forwards a knockback impulse to the target player only.
func (g *Registry) RelayHit(roomID, targetID string, impulse Vec3) []Event {
	room := g.rooms[roomID]
	if room == nil {
		return nil
	}
	if room.Players[targetID] == nil {
		return nil
	}
	return []Event{{
		Name:   EvtPlayerHit,
		RoomID: room.ID,
		To:     []string{targetID},
		Data:   HitPayload{TargetID: targetID, Impulse: impulse},
	}}
}

// BreakHexagon executes a creator-authoritative break. The wire protocol
// addresses hexagons by current array index, so every removal shifts the
// meaning of later indices; callers must always use the post-removal array.
func (g *Registry) BreakHexagon(roomID, requesterID string, index int) []Event {
	room := g.rooms[roomID]
	if room == nil || requesterID != room.CreatorID {
		return nil
	}
	if index < 0 || index >= len(room.Hexagons) {
		return nil
	}
	room.Hexagons = append(room.Hexagons[:index], room.Hexagons[index+1:]...)
	return []Event{{
		Name:   EvtHexagonBroken,
		RoomID: room.ID,
		To:     room.memberIDs(""), // symmetric: includes the creator
		Data:   BrokenPayload{Index: index},
	}}
}

// EliminatePlayer marks a player out of the game with a final rank.
// Elimination is terminal: duplicate reports are no-ops and the first rank
// sticks. May end the game.
func (g *Registry) EliminatePlayer(roomID, playerID string, rank int) []Event {
	room := g.rooms[roomID]
	if room == nil {
		return nil
	}
	p := room.Players[playerID]
	if p == nil || p.Eliminated {
		return nil
	}
	p.Eliminated = true
	p.Rank = rank

	events := []Event{{
		Name:   EvtPlayerEliminated,
		RoomID: room.ID,
		To:     room.memberIDs(""),
		Data:   EliminatedPayload{ID: playerID, Rank: rank},
	}}
	return append(events, g.endIfDecided(room)...)
}

// RemovePlayer handles a disconnect. Creator departure tears the whole room
// down with a winnerless game-ended; anyone else is removed and the end
// condition re-evaluated, since a disconnect can leave one player standing.
func (g *Registry) RemovePlayer(clientID string) []Event {
	var events []Event
	for _, roomID := range sortedRoomIDs(g.rooms) {
		room := g.rooms[roomID]
		if room == nil || room.Players[clientID] == nil {
			continue
		}
		if clientID == room.CreatorID {
			remaining := room.memberIDs(clientID)
			delete(g.rooms, room.ID)
			events = append(events, Event{
				Name:   EvtGameEnded,
				RoomID: room.ID,
				To:     remaining,
				Data:   GameEndedPayload{},
			})
			continue
		}
		delete(room.Players, clientID)
		room.Order = removeID(room.Order, clientID)
		events = append(events, Event{
			Name:   EvtPlayerDisconnected,
			RoomID: room.ID,
			To:     room.memberIDs(""),
			Data:   DisconnectedPayload{ID: clientID},
		})
		events = append(events, g.endIfDecided(room)...)
	}
	return events
}

// StartRoom is driven by the relay's per-room timer at ServerStartTime. A
// room that died before its countdown finished makes this a no-op.
func (g *Registry) StartRoom(roomID string) []Event {
	room := g.rooms[roomID]
	if room == nil || room.Phase != PhaseWaiting {
		return nil
	}
	room.Phase = PhaseRunning
	return []Event{{
		Name:   EvtGameStarted,
		RoomID: room.ID,
		To:     room.memberIDs(""),
		Data:   GameStartedPayload{StartedAt: room.ServerStartTime.UnixMilli()},
	}}
}

// endIfDecided deletes the room and broadcasts a single game-ended once the
// alive count drops to one or zero.
func (g *Registry) endIfDecided(room *Room) []Event {
	alive := 0
	var winner string
	for _, id := range room.Order {
		if !room.Players[id].Eliminated {
			alive++
			winner = id
		}
	}
	if alive > 1 {
		return nil
	}

	payload := GameEndedPayload{}
	if alive == 1 {
		payload.Winner = &winner
	}
	members := room.memberIDs("")
	delete(g.rooms, room.ID)
	return []Event{{
		Name:   EvtGameEnded,
		RoomID: room.ID,
		To:     members,
		Data:   payload,
	}}
}

func (g *Registry) snapshot(room *Room) InitPayload {
	players := make([]PlayerInfo, 0, len(room.Order))
	for _, id := range room.Order {
		players = append(players, PlayerInfo{ID: id, Position: room.Players[id].Position})
	}
	hexagons := make([]Vec3, len(room.Hexagons))
	copy(hexagons, room.Hexagons)

	remaining := math.Ceil(room.ServerStartTime.Sub(g.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return InitPayload{
		GameID:          room.ID,
		CreatorID:       room.CreatorID,
		Players:         players,
		Hexagons:        hexagons,
		StartTimer:      room.StartTimer,
		RemainingTime:   int(remaining),
		ServerStartTime: room.ServerStartTime.UnixMilli(),
	}
}

// memberIDs returns the room's broadcast group in join order, minus exclude
// when non-empty.
func (r *Room) memberIDs(exclude string) []string {
	out := make([]string, 0, len(r.Order))
	for _, id := range r.Order {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

// newRoomID mints a unix-milli token, bumping past collisions so two rooms
// created inside the same millisecond stay distinct.
func (g *Registry) newRoomID() string {
	ms := g.now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, taken := g.rooms[id]; !taken {
			return id
		}
		ms++
	}
}

func sortedRoomIDs(rooms map[string]*Room) []string {
	ids := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
