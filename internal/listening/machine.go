package listening

import "github.com/park285/Cheese-VoiceChess/internal/voicecmd"

// State is everything the session remembers across recognizer rounds.
// Intent is the user's wish to keep listening; Status is the momentary round state.
type State struct {
	Status Status
	Intent bool
	Closed bool
}

// EventKind enumerates inputs to Step.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventStop
	EventToggle
	EventRecognizerStarted
	EventResult
	EventRecognizerEnded
	EventRecognizerError
	EventTeardown
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	case EventToggle:
		return "toggle"
	case EventRecognizerStarted:
		return "recognizer_started"
	case EventResult:
		return "result"
	case EventRecognizerEnded:
		return "recognizer_ended"
	case EventRecognizerError:
		return "recognizer_error"
	case EventTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// Event is a UI action or recognizer callback. Transcript is set for EventResult, Code for EventRecognizerError.
type Event struct {
	Kind       EventKind
	Transcript string
	Code       string
}

// EffectKind enumerates side effects requested by Step.
type EffectKind int

const (
	EffectStartRecognizer EffectKind = iota + 1
	EffectStopRecognizer
	EffectAbortRecognizer
	EffectRecordTranscript
	EffectSpeak
	EffectDispatch
)

// Effect is a side effect for the controller to perform, in order.
type Effect struct {
	Kind EffectKind
	// Restart marks a start issued because a round ended while intent was set.
	Restart    bool
	Transcript string
	Notice     Notice
	Command    voicecmd.Command
}

// Initial returns the state after the capability check at construction.
func Initial(supported bool) (State, []Effect) {
	if !supported {
		return State{Status: StatusUnsupported}, nil
	}
	return State{Status: StatusReady}, []Effect{speak(NoticeWelcome)}
}

// Step applies ev to s. It is pure: all I/O is described by the returned effects.
func Step(s State, ev Event) (State, []Effect) {
	if s.Closed {
		return s, nil
	}
	if ev.Kind == EventTeardown {
		s.Closed = true
		s.Intent = false
		return s, []Effect{{Kind: EffectAbortRecognizer}}
	}
	if s.Status == StatusUnsupported || s.Status == StatusIdle {
		return s, nil
	}

	switch ev.Kind {
	case EventToggle:
		if roundActive(s) {
			return Step(s, Event{Kind: EventStop})
		}
		return Step(s, Event{Kind: EventStart})

	case EventStart:
		s.Intent = true
		return s, []Effect{{Kind: EffectStartRecognizer}}

	case EventStop:
		active := roundActive(s)
		s.Intent = false
		if !active {
			return s, nil
		}
		// the following round end moves the status to Ready
		return s, []Effect{{Kind: EffectStopRecognizer}}

	case EventRecognizerStarted:
		s.Status = StatusListening
		return s, nil

	case EventResult:
		effects := []Effect{{Kind: EffectRecordTranscript, Transcript: ev.Transcript}}
		cmd, ok := voicecmd.Parse(ev.Transcript)
		if !ok {
			return s, append(effects, speak(NoticeInvalidFormat))
		}
		if s.Status == StatusListening {
			s.Status = StatusProcessing
		}
		return s, append(effects, Effect{Kind: EffectDispatch, Command: cmd, Notice: confirmation(cmd)})

	case EventRecognizerEnded:
		if s.Status == StatusError {
			return s, nil
		}
		if s.Intent {
			s.Status = StatusListening
			return s, []Effect{{Kind: EffectStartRecognizer, Restart: true}}
		}
		s.Status = StatusReady
		return s, nil

	case EventRecognizerError:
		if ev.Code == ErrorNoSpeech {
			s.Status = StatusReady
			return s, nil
		}
		s.Status = StatusError
		s.Intent = false
		return s, []Effect{speak(NoticeError)}
	}
	return s, nil
}

func roundActive(s State) bool {
	return s.Intent || s.Status == StatusListening || s.Status == StatusProcessing
}

func speak(n Notice) Effect { return Effect{Kind: EffectSpeak, Notice: n} }

func confirmation(cmd voicecmd.Command) Notice {
	switch cmd.Kind {
	case voicecmd.KindMove:
		return NoticeMove
	case voicecmd.KindNewGame:
		return NoticeNewGame
	case voicecmd.KindUndo:
		return NoticeUndo
	case voicecmd.KindCastle:
		if cmd.Side == voicecmd.Queenside {
			return NoticeCastleQueenside
		}
		return NoticeCastleKingside
	}
	return ""
}
