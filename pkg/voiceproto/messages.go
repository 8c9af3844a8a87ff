// Package voiceproto defines the JSON frames exchanged between a browser page
// hosting Web Speech recognition/synthesis and the voice chess server.
package voiceproto

// Client → server frame types.
const (
	TypeHello            = "hello"
	TypeRecognizerStart  = "recognizer_start"
	TypeRecognizerEnd    = "recognizer_end"
	TypeRecognizerResult = "recognizer_result"
	TypeRecognizerError  = "recognizer_error"
	TypeToggle           = "toggle"
	TypeStop             = "stop"
)

// Server → client frame types.
const (
	TypeRecognizerCommand = "recognizer_command"
	TypeSpeak             = "speak"
	TypeState             = "state"
	TypeErrorEvent        = "error_event"
)

// Recognizer command actions.
const (
	ActionStart = "start"
	ActionStop  = "stop"
	ActionAbort = "abort"
)

// Error event codes sent by the server.
const (
	CodeBadFrame      = "bad_frame"
	CodeHelloRequired = "hello_required"
	CodeUnknownType   = "unknown_type"
	CodeInternal      = "internal"
)

// RecognizerConfig mirrors the Web Speech SpeechRecognition settings.
type RecognizerConfig struct {
	Continuous      bool   `json:"continuous"`
	Lang            string `json:"lang"`
	InterimResults  bool   `json:"interim_results"`
	MaxAlternatives int    `json:"max_alternatives"`
}

// Envelope is the single frame shape; Type selects which fields are meaningful.
type Envelope struct {
	Type string `json:"type"`

	// hello
	SessionID string `json:"session_id,omitempty"`
	Supported *bool  `json:"supported,omitempty"`

	// recognizer_result / recognizer_error / error_event
	Transcript string `json:"transcript,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`

	// recognizer_command
	Action string            `json:"action,omitempty"`
	Config *RecognizerConfig `json:"config,omitempty"`

	// speak
	Text string `json:"text,omitempty"`

	// state
	Status      string `json:"status,omitempty"`
	LastCommand string `json:"last_command,omitempty"`
	FEN         string `json:"fen,omitempty"`
}

// Hello builds the opening client frame.
func Hello(sessionID string, supported bool) Envelope {
	return Envelope{Type: TypeHello, SessionID: sessionID, Supported: &supported}
}

// IsSupported treats a missing supported flag as true.
func (e Envelope) IsSupported() bool {
	return e.Supported == nil || *e.Supported
}

func RecognizerCommand(action string, cfg *RecognizerConfig) Envelope {
	return Envelope{Type: TypeRecognizerCommand, Action: action, Config: cfg}
}

func Speak(text string) Envelope { return Envelope{Type: TypeSpeak, Text: text} }

func State(status, lastCommand, fen string) Envelope {
	return Envelope{Type: TypeState, Status: status, LastCommand: lastCommand, FEN: fen}
}

func ErrorEvent(code, message string) Envelope {
	return Envelope{Type: TypeErrorEvent, Code: code, Message: message}
}
