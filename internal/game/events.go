package game

// Outbound event names. These are the wire `type` values; the relay wraps
// each payload in a {type, data} envelope.
const (
	EvtInit               = "init"
	EvtNewPlayer          = "new-player"
	EvtPlayerMoved        = "player-moved"
	EvtPlayerJumped       = "player-jumped"
	EvtPlayerRotated      = "player-rotated"
	EvtHexagonCollided    = "hexagon-collided"
	EvtHexagonCollidedAck = "hexagon-collided-ack"
	EvtHexagonBroken      = "hexagon-broken"
	EvtPlayerHit          = "player-hit"
	EvtPlayerEliminated   = "player-eliminated"
	EvtPlayerDisconnected = "player-disconnected"
	EvtGameStarted        = "game-started"
	EvtGameEnded          = "game-ended"
	EvtError              = "error"
)

// Event is one outbound emission with its recipients already resolved, so
// the relay never has to consult room state (which may be gone by the time
// the event is fanned out, e.g. after game-ended deletes the room).
type Event struct {
	Name   string
	RoomID string // for logging and relay timer cleanup, not serialized
	To     []string
	Data   any
}

type PlayerInfo struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
}

// InitPayload is the full room snapshot sent to a creator or joiner.
// ServerStartTime is absolute (unix millis) so clients with skewed clocks
// converge on the same activation moment.
type InitPayload struct {
	GameID          string       `json:"gameId"`
	CreatorID       string       `json:"creatorId"`
	Players         []PlayerInfo `json:"players"`
	Hexagons        []Vec3       `json:"hexagons"`
	StartTimer      int          `json:"startTimer"`
	RemainingTime   int          `json:"remainingTime"`
	ServerStartTime int64        `json:"serverStartTime"`
}

type NewPlayerPayload struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
}

type MovedPayload struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
}

type JumpedPayload struct {
	ID      string `json:"id"`
	EventID string `json:"eventId,omitempty"`
}

type RotatedPayload struct {
	ID            string  `json:"id"`
	CameraAzimuth float64 `json:"cameraAzimuth"`
}

type CollidedPayload struct {
	Index    int    `json:"index"`
	PlayerID string `json:"playerId"`
	EventID  string `json:"eventId,omitempty"`
}

type CollidedAckPayload struct {
	EventID string `json:"eventId"`
}

type BrokenPayload struct {
	Index int `json:"index"`
}

type HitPayload struct {
	TargetID string `json:"targetId"`
	Impulse  Vec3   `json:"impulse"`
}

type EliminatedPayload struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"`
}

type DisconnectedPayload struct {
	ID string `json:"id"`
}

type GameStartedPayload struct {
	StartedAt int64 `json:"startedAt"`
}

// GameEndedPayload carries the winner when exactly one player was left
// standing; creator disconnects end the game with no winner at all.
type GameEndedPayload struct {
	Winner *string `json:"winner"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
