// Package listening runs a continuous voice session on top of a
// single-utterance recognizer: it restarts recognition after every round while
// the user wants to keep listening, parses each transcript into a chess
// command, dispatches it to the game and speaks the outcome.
package listening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/Cheese-VoiceChess/internal/voicecmd"
	"go.uber.org/zap"
)

// View is the observable part of a session for hosting UIs.
type View struct {
	SessionID   string
	Status      Status
	LastCommand string
}

type Options struct {
	SessionID string
	Notices   NoticeRenderer
	Logger    *zap.Logger
	// Context is used for game dispatch; defaults to context.Background().
	Context context.Context
	// OnChange is called after every handled event, outside the controller lock.
	OnChange func(View)
}

// Controller owns one listening session. Methods are safe for concurrent use,
// but recognizer events are expected to arrive serially.
type Controller struct {
	mu          sync.Mutex
	state       State
	lastCommand string

	rec     Recognizer
	speaker Speaker
	game    GameControl
	notices NoticeRenderer

	ctx       context.Context
	sessionID string
	logger    *zap.Logger
	onChange  func(View)
}

// NewController checks the recognition capability through factory and returns
// a controller in StatusReady, or StatusUnsupported when the factory reports ErrUnsupported.
func NewController(factory RecognizerFactory, speaker Speaker, game GameControl, opts Options) (*Controller, error) {
	if factory == nil {
		return nil, fmt.Errorf("recognizer factory is required")
	}
	if speaker == nil {
		return nil, fmt.Errorf("speaker is required")
	}
	if game == nil {
		return nil, fmt.Errorf("game control is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Controller{
		state:     State{Status: StatusIdle},
		speaker:   speaker,
		game:      game,
		notices:   opts.Notices,
		ctx:       ctx,
		sessionID: strings.TrimSpace(opts.SessionID),
		logger:    logger,
		onChange:  opts.OnChange,
	}

	rec, err := factory(DefaultRecognizerConfig(), c)
	supported := true
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			return nil, fmt.Errorf("create recognizer: %w", err)
		}
		supported = false
	}

	view := func() View {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.rec = rec
		state, effects := Initial(supported)
		c.state = state
		c.run(effects)
		return c.viewLocked()
	}()

	c.logger.Info("voice_session_init",
		zap.String("session_id", c.sessionID),
		zap.String("status", string(view.Status)),
	)
	c.notify(view)
	return c, nil
}

// Start requests continuous listening. No-op when recognition is unsupported.
func (c *Controller) Start() { c.handle(Event{Kind: EventStart}) }

// Stop ends continuous listening after the current round.
func (c *Controller) Stop() { c.handle(Event{Kind: EventStop}) }

// Toggle stops an active session or starts an idle one.
func (c *Controller) Toggle() { c.handle(Event{Kind: EventToggle}) }

// Close aborts the recognizer. Events after Close are ignored.
func (c *Controller) Close() { c.handle(Event{Kind: EventTeardown}) }

func (c *Controller) OnStart()                   { c.handle(Event{Kind: EventRecognizerStarted}) }
func (c *Controller) OnEnd()                     { c.handle(Event{Kind: EventRecognizerEnded}) }
func (c *Controller) OnResult(transcript string) { c.handle(Event{Kind: EventResult, Transcript: transcript}) }
func (c *Controller) OnError(code string)        { c.handle(Event{Kind: EventRecognizerError, Code: code}) }

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Status
}

// LastCommand returns the raw transcript of the most recent utterance.
func (c *Controller) LastCommand() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCommand
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	return View{SessionID: c.sessionID, Status: c.state.Status, LastCommand: c.lastCommand}
}

func (c *Controller) handle(ev Event) {
	prev, view, ok := c.step(ev)
	if !ok {
		return
	}
	if prev != view.Status {
		c.logger.Debug("voice_status",
			zap.String("session_id", c.sessionID),
			zap.String("event", ev.Kind.String()),
			zap.String("from", string(prev)),
			zap.String("to", string(view.Status)),
		)
	}
	c.notify(view)
}

// step applies ev under the lock. ok is false once the session is closed.
func (c *Controller) step(ev Event) (prev Status, view View, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Closed {
		return "", View{}, false
	}
	prev = c.state.Status
	next, effects := Step(c.state, ev)
	c.state = next
	c.run(effects)
	return prev, c.viewLocked(), true
}

func (c *Controller) notify(v View) {
	if c.onChange != nil {
		c.onChange(v)
	}
}

// run performs effects in order. Caller holds c.mu.
func (c *Controller) run(effects []Effect) {
	for _, e := range effects {
		switch e.Kind {
		case EffectStartRecognizer:
			c.startRecognizer(e.Restart)
		case EffectStopRecognizer:
			if c.rec == nil {
				continue
			}
			if err := c.rec.Stop(); err != nil {
				c.logger.Debug("voice_stop_ignored", zap.String("session_id", c.sessionID), zap.Error(err))
			}
		case EffectAbortRecognizer:
			if c.rec == nil {
				continue
			}
			if err := c.rec.Abort(); err != nil {
				c.logger.Warn("voice_abort_error", zap.String("session_id", c.sessionID), zap.Error(err))
			}
		case EffectRecordTranscript:
			c.lastCommand = e.Transcript
			c.logger.Info("voice_transcript", zap.String("session_id", c.sessionID), zap.String("transcript", e.Transcript))
		case EffectSpeak:
			c.say(e.Notice, nil)
		case EffectDispatch:
			c.dispatch(e.Command, e.Notice)
		}
	}
}

func (c *Controller) startRecognizer(restart bool) {
	if c.rec == nil {
		return
	}
	err := c.rec.Start()
	if err == nil {
		return
	}
	if errors.Is(err, ErrAlreadyStarted) {
		// 진행 중인 라운드가 결과를 계속 전달하므로 무시
		c.logger.Debug("voice_start_already_active", zap.String("session_id", c.sessionID), zap.Bool("restart", restart))
		return
	}
	c.logger.Warn("voice_start_error", zap.String("session_id", c.sessionID), zap.Bool("restart", restart), zap.Error(err))
	next, effects := Step(c.state, Event{Kind: EventRecognizerError, Code: "start-failed"})
	c.state = next
	c.run(effects)
}

func (c *Controller) dispatch(cmd voicecmd.Command, confirm Notice) {
	err := c.invoke(cmd)
	data := noticeData(cmd)
	if err != nil {
		c.logger.Info("voice_command_rejected",
			zap.String("session_id", c.sessionID),
			zap.String("command", cmd.String()),
			zap.Bool("rule", isRejection(err)),
			zap.Error(err),
		)
		if isRejection(err) && (cmd.Kind == voicecmd.KindMove || cmd.Kind == voicecmd.KindCastle) {
			c.say(NoticeMoveRejected, data)
		} else {
			c.say(NoticeActionFailed, data)
		}
		return
	}
	c.logger.Info("voice_command", zap.String("session_id", c.sessionID), zap.String("command", cmd.String()))
	c.say(confirm, data)
}

// invoke runs cmd against the game. A panic in the game layer is reported as an error.
func (c *Controller) invoke(cmd voicecmd.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("voice_dispatch_panic", zap.String("session_id", c.sessionID), zap.String("command", cmd.String()), zap.Any("panic", r))
			err = fmt.Errorf("game panic: %v", r)
		}
	}()
	switch cmd.Kind {
	case voicecmd.KindMove:
		return c.game.ApplyMove(c.ctx, cmd.From, cmd.To)
	case voicecmd.KindCastle:
		return c.game.Castle(c.ctx, cmd.Side)
	case voicecmd.KindNewGame:
		return c.game.NewGame(c.ctx)
	case voicecmd.KindUndo:
		return c.game.Undo(c.ctx)
	}
	return fmt.Errorf("unknown command kind %d", cmd.Kind)
}

func noticeData(cmd voicecmd.Command) map[string]string {
	data := map[string]string{"Command": cmd.Kind.String(), "From": "", "To": "", "Side": string(cmd.Side)}
	if cmd.Kind == voicecmd.KindMove {
		data["From"] = cmd.From.String()
		data["To"] = cmd.To.String()
	}
	return data
}

func (c *Controller) say(n Notice, data map[string]string) {
	if data == nil {
		data = map[string]string{}
	}
	text := ""
	if c.notices != nil {
		out, err := c.notices.Render(string(n), data)
		if err != nil {
			c.logger.Warn("voice_notice_render_error", zap.String("notice", string(n)), zap.Error(err))
		} else {
			text = out
		}
	}
	if strings.TrimSpace(text) == "" {
		text = fallbackNotices[n]
	}
	if text == "" {
		return
	}
	c.speaker.Speak(text)
}
