// Package console hosts a listening session on a terminal. Each input line is
// one utterance; lines starting with a slash are UI actions.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/Cheese-VoiceChess/internal/listening"
)

// Session is the part of listening.Controller the console drives.
type Session interface {
	Start()
	Stop()
	Toggle()
	View() listening.View
}

// FENer is optionally implemented by the game to print the board after /status.
type FENer interface {
	FEN() string
}

var fallbackText = map[string]string{
	"console.prompt":        "Type an utterance, or /toggle, /stop, /status, /quit.",
	"console.not_listening": "Not listening. Type /toggle to start.",
}

type Host struct {
	in      io.Reader
	out     io.Writer
	outMu   sync.Mutex
	notices listening.NoticeRenderer
	logger  *zap.Logger
	rec     *lineRecognizer
	last    listening.Status
}

func New(in io.Reader, out io.Writer, notices listening.NoticeRenderer, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{in: in, out: out, notices: notices, logger: logger}
}

// Factory returns the recognizer factory bound to this terminal.
func (h *Host) Factory() listening.RecognizerFactory {
	return func(cfg listening.RecognizerConfig, handler listening.EventHandler) (listening.Recognizer, error) {
		h.rec = &lineRecognizer{handler: handler}
		h.logger.Debug("console_recognizer", zap.String("lang", cfg.Lang))
		return h.rec, nil
	}
}

func (h *Host) Speak(text string) { h.println("» " + text) }

// ShowView prints status transitions; use it as listening.Options.OnChange.
func (h *Host) ShowView(v listening.View) {
	h.outMu.Lock()
	changed := v.Status != h.last
	h.last = v.Status
	h.outMu.Unlock()
	if changed {
		h.println("[" + string(v.Status) + "]")
	}
}

// Run reads lines until EOF, /quit or ctx cancellation. game may be nil.
func (h *Host) Run(ctx context.Context, s Session, game FENer) error {
	if h.rec == nil {
		return fmt.Errorf("console recognizer not created")
	}
	lines := make(chan string)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		sc := bufio.NewScanner(h.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	h.rec.drain()
	h.println(h.text("console.prompt"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if quit := h.handleLine(s, game, strings.TrimSpace(line)); quit {
				return nil
			}
			h.rec.drain()
		}
	}
}

func (h *Host) handleLine(s Session, game FENer, line string) bool {
	switch strings.ToLower(line) {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/toggle":
		s.Toggle()
	case "/start":
		s.Start()
	case "/stop":
		s.Stop()
	case "/status":
		v := s.View()
		msg := fmt.Sprintf("status=%s last=%q", v.Status, v.LastCommand)
		if game != nil {
			msg += " fen=" + game.FEN()
		}
		h.println(msg)
	default:
		if !h.rec.hear(line) {
			h.println(h.text("console.not_listening"))
		}
	}
	return false
}

func (h *Host) text(key string) string {
	if h.notices != nil {
		if out, err := h.notices.Render(key, map[string]string{}); err == nil && out != "" {
			return out
		}
	}
	return fallbackText[key]
}

func (h *Host) println(s string) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	_, _ = fmt.Fprintln(h.out, s)
}

// lineRecognizer queues events and delivers them from drain, never from inside
// Start/Stop/Abort.
type lineRecognizer struct {
	handler listening.EventHandler

	mu      sync.Mutex
	active  bool
	pending []func(listening.EventHandler)
}

func (r *lineRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return listening.ErrAlreadyStarted
	}
	r.active = true
	r.push(func(h listening.EventHandler) { h.OnStart() })
	return nil
}

func (r *lineRecognizer) Stop() error  { r.end(); return nil }
func (r *lineRecognizer) Abort() error { r.end(); return nil }

func (r *lineRecognizer) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.active = false
	r.push(func(h listening.EventHandler) { h.OnEnd() })
}

// hear completes the active round with line. It reports false when no round is active.
func (r *lineRecognizer) hear(line string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return false
	}
	r.active = false
	r.push(func(h listening.EventHandler) { h.OnResult(line) })
	r.push(func(h listening.EventHandler) { h.OnEnd() })
	return true
}

// push: caller holds r.mu.
func (r *lineRecognizer) push(fn func(listening.EventHandler)) {
	r.pending = append(r.pending, fn)
}

// drain delivers queued events, including ones queued while delivering.
func (r *lineRecognizer) drain() {
	for {
		r.mu.Lock()
		if len(r.pending) == 0 {
			r.mu.Unlock()
			return
		}
		fn := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		fn(r.handler)
	}
}
