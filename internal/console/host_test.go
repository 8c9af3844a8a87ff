package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/Cheese-VoiceChess/internal/game"
	"github.com/park285/Cheese-VoiceChess/internal/listening"
	"github.com/park285/Cheese-VoiceChess/internal/msgcat"
)

func runScript(t *testing.T, script string) (string, *game.Game, *listening.Controller) {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	g, err := game.Open(context.Background(), "console", game.NewMemoryStore())
	if err != nil {
		t.Fatalf("game.Open: %v", err)
	}
	var out bytes.Buffer
	host := New(strings.NewReader(script), &out, cat, nil)
	ctrl, err := listening.NewController(host.Factory(), host, g, listening.Options{SessionID: "console", Notices: cat, OnChange: host.ShowView})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if err := host.Run(context.Background(), ctrl, g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), g, ctrl
}

func TestConsoleContinuousSession(t *testing.T) {
	out, g, ctrl := runScript(t, "e2e4\n/toggle\ne2 to e4\ne7e5\n/stop\n/quit\nd2d4\n")

	if !strings.Contains(out, "Not listening") {
		t.Fatalf("utterance before /toggle must be refused:\n%s", out)
	}
	if !strings.Contains(out, "» Moving e2 to e4.") || !strings.Contains(out, "» Moving e7 to e5.") {
		t.Fatalf("missing move confirmations:\n%s", out)
	}
	if got := strings.Join(g.Snapshot().MovesUCI, " "); got != "e2e4 e7e5" {
		t.Fatalf("moves = %s", got)
	}
	if ctrl.Status() != listening.StatusReady {
		t.Fatalf("status after /stop = %s", ctrl.Status())
	}
	if ctrl.LastCommand() != "e7e5" {
		t.Fatalf("last command = %q", ctrl.LastCommand())
	}
	if !strings.Contains(out, "[listening]") {
		t.Fatalf("status transitions not printed:\n%s", out)
	}
}

func TestConsoleStatusAndUnknown(t *testing.T) {
	out, _, _ := runScript(t, "/toggle\nplay something\n/status\n")
	if !strings.Contains(out, "» Sorry, I did not understand that.") {
		t.Fatalf("expected invalid format notice:\n%s", out)
	}
	if !strings.Contains(out, `last="play something"`) || !strings.Contains(out, "fen=rnbqkbnr/pppppppp") {
		t.Fatalf("unexpected status line:\n%s", out)
	}
}

type collector struct{ events []string }

func (c *collector) OnStart()            { c.events = append(c.events, "start") }
func (c *collector) OnEnd()              { c.events = append(c.events, "end") }
func (c *collector) OnResult(tr string)  { c.events = append(c.events, "result:"+tr) }
func (c *collector) OnError(code string) { c.events = append(c.events, "error:"+code) }

func TestLineRecognizerQueuesEvents(t *testing.T) {
	c := &collector{}
	r := &lineRecognizer{handler: c}
	if r.hear("x") {
		t.Fatalf("hear without an active round must fail")
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(); !errors.Is(err, listening.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if len(c.events) != 0 {
		t.Fatalf("events must not be delivered from Start: %v", c.events)
	}
	r.hear("e2e4")
	_ = r.Stop()
	r.drain()
	if got := strings.Join(c.events, ","); got != "start,result:e2e4,end" {
		t.Fatalf("events = %s", got)
	}
}
