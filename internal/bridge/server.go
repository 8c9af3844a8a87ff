// Package bridge serves the voice WebSocket endpoint. Each connection is one
// listening session: the browser reports recognizer events and the server
// answers with recognizer commands, speech and state frames.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/Cheese-VoiceChess/internal/game"
	"github.com/park285/Cheese-VoiceChess/internal/listening"
	"github.com/park285/Cheese-VoiceChess/internal/metrics"
	"github.com/park285/Cheese-VoiceChess/pkg/voiceproto"
)

const (
	defaultHelloTimeout = 10 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

// ErrProtocol marks a connection closed because the client broke the frame protocol.
const ErrProtocol = staticErr("voice protocol violation")

type Options struct {
	Store   game.Store
	Archive game.Archiver
	Notices listening.NoticeRenderer
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// OriginPatterns are host patterns accepted besides same-origin requests.
	OriginPatterns []string
	HelloTimeout   time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

// Server is an http.Handler for the voice socket.
type Server struct {
	opts   Options
	logger *zap.Logger
}

func NewServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = game.NewMemoryStore()
	}
	if opts.HelloTimeout <= 0 {
		opts.HelloTimeout = defaultHelloTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{opts: opts, logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.opts.OriginPatterns})
	if err != nil {
		s.logger.Warn("voice_ws_accept_failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if err := s.serve(ctx, conn); err != nil {
		s.logger.Info("voice_ws_closed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) error {
	p := &peer{conn: conn, ctx: ctx, writeTimeout: s.opts.WriteTimeout, logger: s.logger, metrics: s.opts.Metrics}

	helloCtx, cancel := context.WithTimeout(ctx, s.opts.HelloTimeout)
	hello, err := readFrame(helloCtx, conn)
	cancel()
	if err != nil {
		if errors.Is(err, ErrProtocol) {
			return s.reject(p, voiceproto.CodeBadFrame, err)
		}
		return err
	}
	s.opts.Metrics.Inbound(hello.Type)
	if hello.Type != voiceproto.TypeHello {
		return s.reject(p, voiceproto.CodeHelloRequired, fmt.Errorf("%w: first frame was %q", ErrProtocol, hello.Type))
	}

	sessionID := strings.TrimSpace(hello.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	p.sessionID = sessionID
	logger := s.logger.With(zap.String("session_id", sessionID))
	p.logger = logger

	opts := []game.Option{game.WithLogger(logger)}
	if s.opts.Archive != nil {
		opts = append(opts, game.WithArchive(s.opts.Archive))
	}
	g, err := game.Open(ctx, sessionID, s.opts.Store, opts...)
	if err != nil {
		_ = p.send(voiceproto.ErrorEvent(voiceproto.CodeInternal, "game unavailable"))
		_ = conn.Close(websocket.StatusInternalError, "game unavailable")
		return fmt.Errorf("open game: %w", err)
	}

	var (
		rec  *remoteRecognizer
		last listening.Status
	)
	factory := func(cfg listening.RecognizerConfig, _ listening.EventHandler) (listening.Recognizer, error) {
		if !hello.IsSupported() {
			return nil, listening.ErrUnsupported
		}
		rec = newRemoteRecognizer(p, cfg)
		return rec, nil
	}
	ctrl, err := listening.NewController(factory, p, g, listening.Options{
		SessionID: sessionID,
		Notices:   s.opts.Notices,
		Logger:    logger,
		Context:   ctx,
		OnChange: func(v listening.View) {
			if v.Status != last {
				last = v.Status
				s.opts.Metrics.Status(string(v.Status))
			}
			_ = p.send(voiceproto.State(string(v.Status), v.LastCommand, g.FEN()))
		},
	})
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "session init failed")
		return err
	}
	defer ctrl.Close()
	s.opts.Metrics.SessionOpened()
	defer s.opts.Metrics.SessionClosed()

	go s.keepAlive(ctx, conn, logger)

	logger.Info("voice_ws_session", zap.Bool("supported", hello.IsSupported()))
	for {
		env, err := readFrame(ctx, conn)
		if err != nil {
			if errors.Is(err, ErrProtocol) {
				return s.reject(p, voiceproto.CodeBadFrame, err)
			}
			if isClosed(err) {
				return nil
			}
			return err
		}
		s.opts.Metrics.Inbound(env.Type)
		switch env.Type {
		case voiceproto.TypeRecognizerStart:
			ctrl.OnStart()
		case voiceproto.TypeRecognizerEnd:
			if rec != nil {
				rec.ended()
			}
			ctrl.OnEnd()
		case voiceproto.TypeRecognizerResult:
			ctrl.OnResult(env.Transcript)
		case voiceproto.TypeRecognizerError:
			ctrl.OnError(env.Code)
		case voiceproto.TypeToggle:
			ctrl.Toggle()
		case voiceproto.TypeStop:
			ctrl.Stop()
		default:
			_ = p.send(voiceproto.ErrorEvent(voiceproto.CodeUnknownType, "unknown frame type "+env.Type))
		}
	}
}

func (s *Server) reject(p *peer, code string, err error) error {
	s.opts.Metrics.SessionRejected(code)
	_ = p.send(voiceproto.ErrorEvent(code, err.Error()))
	_ = p.conn.Close(websocket.StatusPolicyViolation, code)
	return err
}

func (s *Server) keepAlive(ctx context.Context, conn *websocket.Conn, logger *zap.Logger) {
	t := time.NewTicker(s.opts.PingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				logger.Info("voice_ws_ping_failed", zap.Error(err))
				_ = conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func readFrame(ctx context.Context, conn *websocket.Conn) (voiceproto.Envelope, error) {
	var env voiceproto.Envelope
	typ, data, err := conn.Read(ctx)
	if err != nil {
		return env, err
	}
	if typ != websocket.MessageText {
		return env, fmt.Errorf("%w: binary frame", ErrProtocol)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if strings.TrimSpace(env.Type) == "" {
		return env, fmt.Errorf("%w: missing type", ErrProtocol)
	}
	return env, nil
}

func isClosed(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
