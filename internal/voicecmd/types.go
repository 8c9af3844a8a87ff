package voicecmd

import "fmt"

// Square is a board coordinate: file 'a'..'h', rank '1'..'8'.
type Square struct {
	File byte
	Rank byte
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.File >= 'a' && s.File <= 'h' && s.Rank >= '1' && s.Rank <= '8'
}

// String returns the canonical lowercase form, e.g. "e4".
func (s Square) String() string {
	return string([]byte{s.File, s.Rank})
}

// Kind tags the Command variant.
type Kind int

const (
	KindMove Kind = iota + 1
	KindNewGame
	KindUndo
	KindCastle
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindNewGame:
		return "new_game"
	case KindUndo:
		return "undo"
	case KindCastle:
		return "castle"
	default:
		return "unknown"
	}
}

// CastleSide selects the rook the king castles towards.
type CastleSide string

const (
	Kingside  CastleSide = "kingside"
	Queenside CastleSide = "queenside"
)

// Command is a parsed voice command. From/To are set for KindMove, Side for KindCastle.
type Command struct {
	Kind Kind
	From Square
	To   Square
	Side CastleSide
}

func Move(from, to Square) Command   { return Command{Kind: KindMove, From: from, To: to} }
func NewGame() Command               { return Command{Kind: KindNewGame} }
func Undo() Command                  { return Command{Kind: KindUndo} }
func Castle(side CastleSide) Command { return Command{Kind: KindCastle, Side: side} }

func (c Command) String() string {
	switch c.Kind {
	case KindMove:
		return fmt.Sprintf("move %s%s", c.From, c.To)
	case KindCastle:
		return "castle " + string(c.Side)
	default:
		return c.Kind.String()
	}
}
