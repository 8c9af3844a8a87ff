package bridge

import (
    "context"
    "sync"
    "time"

    "github.com/park285/Cheese-VoiceChess/internal/listening"
    "github.com/park285/Cheese-VoiceChess/internal/metrics"
    "github.com/park285/Cheese-VoiceChess/pkg/voiceproto"
    "go.uber.org/zap"
    "nhooyr.io/websocket"
    "nhooyr.io/websocket/wsjson"
)

// peer writes frames to one browser connection. Conn writes are safe for concurrent use.
type peer struct {
    conn         *websocket.Conn
    ctx          context.Context
    writeTimeout time.Duration
    sessionID    string
    logger       *zap.Logger
    metrics      *metrics.Metrics
}

func (p *peer) send(env voiceproto.Envelope) error {
    ctx, cancel := context.WithTimeout(p.ctx, p.writeTimeout)
    defer cancel()
    if err := wsjson.Write(ctx, p.conn, env); err != nil {
        p.logger.Debug("voice_ws_write_failed", zap.String("session_id", p.sessionID), zap.String("type", env.Type), zap.Error(err))
        return err
    }
    p.metrics.Outbound(env.Type)
    return nil
}

func (p *peer) Speak(text string) { _ = p.send(voiceproto.Speak(text)) }

// remoteRecognizer drives the browser's SpeechRecognition over the socket.
// A round is active from Start until the client reports recognizer_end.
type remoteRecognizer struct {
    peer *peer
    cfg  voiceproto.RecognizerConfig

    mu     sync.Mutex
    active bool
}

func newRemoteRecognizer(p *peer, cfg listening.RecognizerConfig) *remoteRecognizer {
    return &remoteRecognizer{peer: p, cfg: voiceproto.RecognizerConfig{
        Continuous:      cfg.Continuous,
        Lang:            cfg.Lang,
        InterimResults:  cfg.InterimResults,
        MaxAlternatives: cfg.MaxAlternatives,
    }}
}

func (r *remoteRecognizer) Start() error {
    r.mu.Lock()
    if r.active {
        r.mu.Unlock()
        return listening.ErrAlreadyStarted
    }
    r.active = true
    r.mu.Unlock()

    cfg := r.cfg
    if err := r.peer.send(voiceproto.RecognizerCommand(voiceproto.ActionStart, &cfg)); err != nil {
        r.ended()
        return err
    }
    return nil
}

func (r *remoteRecognizer) Stop() error {
    if !r.isActive() { return nil }
    return r.peer.send(voiceproto.RecognizerCommand(voiceproto.ActionStop, nil))
}

func (r *remoteRecognizer) Abort() error {
    if !r.isActive() { return nil }
    return r.peer.send(voiceproto.RecognizerCommand(voiceproto.ActionAbort, nil))
}

func (r *remoteRecognizer) isActive() bool {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.active
}

func (r *remoteRecognizer) ended() {
    r.mu.Lock()
    r.active = false
    r.mu.Unlock()
}
