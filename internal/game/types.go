package game

import "time"

// ruleErr refuses a command under the rules of chess. Any other error from Game
// means the command could not be carried out.
type ruleErr string

func (e ruleErr) Error() string { return string(e) }

func (ruleErr) Rejected() bool { return true }

const (
	ErrIllegalMove   = ruleErr("illegal move")
	ErrGameOver      = ruleErr("game is already over")
	ErrNothingToUndo = ruleErr("no moves to undo")
)

// Snapshot is the persisted state of the game bound to one voice session.
// Moves are replayed from the start position on load; FEN is kept for clients.
type Snapshot struct {
	GameID    string    `json:"game_id"`
	SessionID string    `json:"session_id"`
	MovesUCI  []string  `json:"moves_uci"`
	MovesSAN  []string  `json:"moves_san"`
	FEN       string    `json:"fen"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.MovesUCI = append([]string(nil), s.MovesUCI...)
	c.MovesSAN = append([]string(nil), s.MovesSAN...)
	return &c
}

// Record is an archived game.
type Record struct {
	GameID    string
	SessionID string
	MovesUCI  []string
	MovesSAN  []string
	Result    string // PGN result token: 1-0, 0-1, 1/2-1/2, *
	Method    string
	PGN       string
	StartedAt time.Time
	EndedAt   time.Time
}
