// Package protocol defines the JSON wire format. Both directions use the
// same envelope:
//
//	{"type": "<event name>", "data": {...}}
//
// Inbound types are the client intents (create-game, join-game, move, jump,
// rotate, hexagon-collided, player-hit, break-hexagon, player-eliminated);
// outbound types are the game event names plus "connected", which delivers
// the identity the relay assigned to the connection.
package protocol

import (
	"encoding/json"

	"github.com/vargha1/bounceroyale/internal/game"
)

type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Connected tells a fresh connection which identity it holds; the same id is
// its player id in any room it creates or joins.
type Connected struct {
	ID string `json:"id"`
}

type CreateGame struct {
	StartTimer int `json:"startTimer"`
}

type JoinGame struct {
	GameID string `json:"gameId"`
}

type Move struct {
	GameID   string    `json:"gameId"`
	ID       string    `json:"id"`
	Position game.Vec3 `json:"position"`
	Rotation game.Vec3 `json:"rotation"`
}

type Jump struct {
	GameID  string `json:"gameId"`
	ID      string `json:"id"`
	EventID string `json:"eventId,omitempty"`
}

type Rotate struct {
	GameID        string  `json:"gameId"`
	ID            string  `json:"id"`
	CameraAzimuth float64 `json:"cameraAzimuth"`
}

type HexagonCollided struct {
	GameID   string `json:"gameId"`
	Index    int    `json:"index"`
	PlayerID string `json:"playerId"`
	EventID  string `json:"eventId,omitempty"`
}

type PlayerHit struct {
	GameID   string    `json:"gameId"`
	TargetID string    `json:"targetId"`
	Impulse  game.Vec3 `json:"impulse"`
}

type BreakHexagon struct {
	GameID string `json:"gameId"`
	Index  int    `json:"index"`
}

type PlayerEliminated struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"`
}
