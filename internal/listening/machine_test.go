package listening

import (
	"testing"

	"github.com/park285/Cheese-VoiceChess/internal/voicecmd"
)

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

func sameKinds(a, b []EffectKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStepTable(t *testing.T) {
	ready := State{Status: StatusReady}
	listening := State{Status: StatusListening, Intent: true}
	cases := []struct {
		name    string
		in      State
		ev      Event
		want    State
		effects []EffectKind
	}{
		{"start from ready", ready, Event{Kind: EventStart}, State{Status: StatusReady, Intent: true}, []EffectKind{EffectStartRecognizer}},
		{"started", State{Status: StatusReady, Intent: true}, Event{Kind: EventRecognizerStarted}, listening, nil},
		{"stop while listening", listening, Event{Kind: EventStop}, State{Status: StatusListening}, []EffectKind{EffectStopRecognizer}},
		{"stop when ready", ready, Event{Kind: EventStop}, ready, nil},
		{"end with intent", listening, Event{Kind: EventRecognizerEnded}, listening, []EffectKind{EffectStartRecognizer}},
		{"end without intent", State{Status: StatusListening}, Event{Kind: EventRecognizerEnded}, ready, nil},
		{"end in error", State{Status: StatusError}, Event{Kind: EventRecognizerEnded}, State{Status: StatusError}, nil},
		{"no speech", listening, Event{Kind: EventRecognizerError, Code: ErrorNoSpeech}, State{Status: StatusReady, Intent: true}, nil},
		{"other error", listening, Event{Kind: EventRecognizerError, Code: "audio-capture"}, State{Status: StatusError}, []EffectKind{EffectSpeak}},
		{"result parsed", listening, Event{Kind: EventResult, Transcript: "e2e4"}, State{Status: StatusProcessing, Intent: true}, []EffectKind{EffectRecordTranscript, EffectDispatch}},
		{"result unparsed", listening, Event{Kind: EventResult, Transcript: "hello"}, listening, []EffectKind{EffectRecordTranscript, EffectSpeak}},
		{"toggle ready", ready, Event{Kind: EventToggle}, State{Status: StatusReady, Intent: true}, []EffectKind{EffectStartRecognizer}},
		{"toggle listening", listening, Event{Kind: EventToggle}, State{Status: StatusListening}, []EffectKind{EffectStopRecognizer}},
		{"unsupported ignores start", State{Status: StatusUnsupported}, Event{Kind: EventStart}, State{Status: StatusUnsupported}, nil},
		{"teardown", listening, Event{Kind: EventTeardown}, State{Status: StatusListening, Closed: true}, []EffectKind{EffectAbortRecognizer}},
		{"closed ignores all", State{Status: StatusReady, Closed: true}, Event{Kind: EventTeardown}, State{Status: StatusReady, Closed: true}, nil},
	}
	for _, c := range cases {
		got, effects := Step(c.in, c.ev)
		if got != c.want {
			t.Fatalf("%s: state = %+v; want %+v", c.name, got, c.want)
		}
		if !sameKinds(kinds(effects), c.effects) {
			t.Fatalf("%s: effects = %v; want %v", c.name, kinds(effects), c.effects)
		}
	}
}

func TestStepRestartFlag(t *testing.T) {
	_, effects := Step(State{Status: StatusListening, Intent: true}, Event{Kind: EventRecognizerEnded})
	if len(effects) != 1 || !effects[0].Restart {
		t.Fatalf("expected restart start effect, got %+v", effects)
	}
}

func TestStepDispatchCarriesCommand(t *testing.T) {
	_, effects := Step(State{Status: StatusListening, Intent: true}, Event{Kind: EventResult, Transcript: "castle queenside"})
	d := effects[len(effects)-1]
	if d.Kind != EffectDispatch || d.Command != voicecmd.Castle(voicecmd.Queenside) || d.Notice != NoticeCastleQueenside {
		t.Fatalf("unexpected dispatch effect %+v", d)
	}
}

func TestInitial(t *testing.T) {
	s, effects := Initial(false)
	if s.Status != StatusUnsupported || len(effects) != 0 {
		t.Fatalf("unsupported initial = %+v %v", s, effects)
	}
	s, effects = Initial(true)
	if s.Status != StatusReady || len(effects) != 1 || effects[0].Notice != NoticeWelcome {
		t.Fatalf("supported initial = %+v %v", s, effects)
	}
}
