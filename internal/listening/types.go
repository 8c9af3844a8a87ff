package listening

import (
	"context"
	"errors"

	"github.com/park285/Cheese-VoiceChess/internal/voicecmd"
)

// Status is the externally visible state of a listening session.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusReady       Status = "ready"
	StatusListening   Status = "listening"
	StatusProcessing  Status = "processing"
	StatusError       Status = "error"
	StatusUnsupported Status = "unsupported"
)

// ErrorNoSpeech is the recognizer error code for a round that heard only silence.
const ErrorNoSpeech = "no-speech"

var (
	// ErrUnsupported is returned by a RecognizerFactory when the platform has no recognition capability.
	ErrUnsupported = errors.New("speech recognition unsupported")

	// ErrAlreadyStarted is returned by Recognizer.Start while a round is still in flight.
	ErrAlreadyStarted = errors.New("recognition already started")
)

// RecognizerConfig is the fixed configuration handed to the platform recognizer.
type RecognizerConfig struct {
	Continuous      bool   `json:"continuous"`
	Lang            string `json:"lang"`
	InterimResults  bool   `json:"interim_results"`
	MaxAlternatives int    `json:"max_alternatives"`
}

// DefaultRecognizerConfig: one utterance per round, en-US, final results only.
func DefaultRecognizerConfig() RecognizerConfig {
	return RecognizerConfig{Continuous: false, Lang: "en-US", InterimResults: false, MaxAlternatives: 1}
}

// Recognizer is a single-utterance platform recognizer.
// Start/Stop/Abort are fire-and-forget; effects arrive later through EventHandler.
// Implementations must not call the handler from inside these methods.
type Recognizer interface {
	Start() error
	Stop() error
	Abort() error
}

// EventHandler receives recognizer events in round order (start → result|error → end).
type EventHandler interface {
	OnStart()
	OnEnd()
	OnResult(transcript string)
	OnError(code string)
}

// RecognizerFactory creates the recognizer bound to h, or returns ErrUnsupported.
type RecognizerFactory func(cfg RecognizerConfig, h EventHandler) (Recognizer, error)

// Speaker is the speech-output capability.
type Speaker interface {
	Speak(text string)
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(text string)

func (f SpeakerFunc) Speak(text string) { f(text) }

// GameControl is the game layer the controller dispatches commands to.
// An error satisfying RuleError refuses the command; any other error is a failure.
type GameControl interface {
	ApplyMove(ctx context.Context, from, to voicecmd.Square) error
	Castle(ctx context.Context, side voicecmd.CastleSide) error
	NewGame(ctx context.Context) error
	Undo(ctx context.Context) error
}

// RuleError is implemented by game errors that refuse a command, such as an illegal move.
type RuleError interface {
	error
	Rejected() bool
}

func isRejection(err error) bool {
	var re RuleError
	return errors.As(err, &re) && re.Rejected()
}

// NoticeRenderer renders a spoken notice by key. *msgcat.Catalog satisfies it.
type NoticeRenderer interface {
	Render(key string, data any) (string, error)
}

// Notice identifies a spoken message in the catalog.
type Notice string

const (
	NoticeWelcome         Notice = "voice.welcome"
	NoticeInvalidFormat   Notice = "voice.invalid_format"
	NoticeError           Notice = "voice.error"
	NoticeMove            Notice = "voice.move"
	NoticeNewGame         Notice = "voice.new_game"
	NoticeUndo            Notice = "voice.undo"
	NoticeCastleKingside  Notice = "voice.castle_kingside"
	NoticeCastleQueenside Notice = "voice.castle_queenside"
	NoticeMoveRejected    Notice = "voice.move_rejected"
	NoticeActionFailed    Notice = "voice.action_failed"
)

// Notices lists every notice the controller can speak.
func Notices() []Notice {
	return []Notice{
		NoticeWelcome, NoticeInvalidFormat, NoticeError, NoticeMove, NoticeNewGame,
		NoticeUndo, NoticeCastleKingside, NoticeCastleQueenside, NoticeMoveRejected, NoticeActionFailed,
	}
}

// fallbackNotices are spoken when no catalog is wired or rendering fails.
var fallbackNotices = map[Notice]string{
	NoticeWelcome:         "Voice control is ready. Press the microphone and say a move like e2 to e4.",
	NoticeInvalidFormat:   "Sorry, I did not understand that. Say a move like e2 to e4.",
	NoticeError:           "Speech recognition failed. Press the microphone to try again.",
	NoticeMove:            "Moving.",
	NoticeNewGame:         "Starting a new game.",
	NoticeUndo:            "Move taken back.",
	NoticeCastleKingside:  "Castling kingside.",
	NoticeCastleQueenside: "Castling queenside.",
	NoticeMoveRejected:    "That move is not legal.",
	NoticeActionFailed:    "That could not be done.",
}
