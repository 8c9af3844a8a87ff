// Package game owns the chess position behind a voice session: it validates
// moves with corentings/chess, persists a snapshot after every change and
// archives games once they are finished or replaced.
package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Cheese-VoiceChess/internal/voicecmd"
)

// Option configures a Game.
type Option func(*Game)

// WithArchive attaches an archive for finished and abandoned games.
func WithArchive(a Archiver) Option {
	return func(g *Game) { g.archive = a }
}

// WithLogger overrides the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

// Game is safe for concurrent use.
type Game struct {
	mu       sync.Mutex
	store    Store
	archive  Archiver
	logger   *zap.Logger
	now      func() time.Time
	snap     *Snapshot
	board    *nchess.Game
	archived bool
}

// Open resumes the stored game for sessionID or starts a fresh one.
func Open(ctx context.Context, sessionID string, store Store, opts ...Option) (*Game, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	g := &Game{store: store, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(g)
	}

	stored, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if stored != nil {
		board, rerr := replay(stored.MovesUCI)
		if rerr == nil {
			g.snap, g.board = stored, board
			g.archived = board.Outcome() != nchess.NoOutcome
			g.logger.Info("voice_game_resumed", zap.String("session", sessionID), zap.String("game_id", stored.GameID), zap.Int("plies", len(stored.MovesUCI)))
			return g, nil
		}
		g.logger.Warn("voice_game_replay_failed", zap.String("session", sessionID), zap.Error(rerr))
	}

	snap, board := fresh(sessionID, g.now())
	if err := g.commit(ctx, snap, board); err != nil {
		return nil, err
	}
	return g, nil
}

// ApplyMove plays from→to for the side to move. A bare pawn move onto the last
// rank promotes to a queen.
func (g *Game) ApplyMove(ctx context.Context, from, to voicecmd.Square) error {
	if !from.Valid() || !to.Valid() {
		return ErrIllegalMove
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.play(ctx, from.String(), to.String())
}

// Castle plays the king's castling move for the side to move.
func (g *Game) Castle(ctx context.Context, side voicecmd.CastleSide) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rank := "1"
	if g.board.Position().Turn() != nchess.White {
		rank = "8"
	}
	target := "g"
	if side == voicecmd.Queenside {
		target = "c"
	}
	return g.play(ctx, "e"+rank, target+rank)
}

// NewGame archives the current game if it has moves and starts over.
func (g *Game) NewGame(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var abandoned *Record
	if len(g.snap.MovesUCI) > 0 && !g.archived {
		abandoned = g.record("abandoned")
	}
	snap, board := fresh(g.snap.SessionID, g.now())
	if err := g.commit(ctx, snap, board); err != nil {
		return err
	}
	g.archived = false
	if abandoned != nil {
		g.saveRecord(ctx, abandoned)
	}
	g.logger.Info("voice_game_new", zap.String("session", snap.SessionID), zap.String("game_id", snap.GameID))
	return nil
}

// Undo takes back the last ply.
func (g *Game) Undo(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.snap.MovesUCI)
	if n == 0 {
		return ErrNothingToUndo
	}
	board, err := replay(g.snap.MovesUCI[:n-1])
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	snap := g.snap.clone()
	snap.MovesUCI = snap.MovesUCI[:n-1]
	if len(snap.MovesSAN) >= n {
		snap.MovesSAN = snap.MovesSAN[:n-1]
	}
	if err := g.commit(ctx, snap, board); err != nil {
		return err
	}
	g.archived = board.Outcome() != nchess.NoOutcome
	return nil
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.snap.clone()
}

func (g *Game) FEN() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.FEN()
}

// Outcome returns the PGN result token ("*" while in progress).
func (g *Game) Outcome() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return string(g.board.Outcome())
}

// play applies the legal from->to move and commits it once the store accepts
// the new snapshot. The live position is untouched on any error.
func (g *Game) play(ctx context.Context, from, to string) error {
	if g.board.Outcome() != nchess.NoOutcome {
		return ErrGameOver
	}
	mv, ok := legalMove(g.board, from, to)
	if !ok {
		return ErrIllegalMove
	}
	pos := g.board.Position()
	next := g.board.Clone()
	if err := next.Move(&mv, nil); err != nil {
		return ErrIllegalMove
	}
	snap := g.snap.clone()
	snap.MovesUCI = append(snap.MovesUCI, mv.String())
	snap.MovesSAN = append(snap.MovesSAN, nchess.AlgebraicNotation{}.Encode(pos, &mv))
	if err := g.commit(ctx, snap, next); err != nil {
		return err
	}
	if next.Outcome() != nchess.NoOutcome && !g.archived {
		g.archiveCurrent(ctx, strings.ToLower(next.Method().String()))
	}
	return nil
}

// legalMove finds from->to among the legal moves. Promotions resolve to a queen.
func legalMove(board *nchess.Game, from, to string) (nchess.Move, bool) {
	for _, mv := range board.ValidMoves() {
		if mv.S1().String() != from || mv.S2().String() != to {
			continue
		}
		if p := mv.Promo(); p == nchess.NoPieceType || p == nchess.Queen {
			return mv, true
		}
	}
	return nchess.Move{}, false
}

func fresh(sessionID string, now time.Time) (*Snapshot, *nchess.Game) {
	return &Snapshot{
		GameID:    uuid.NewString(),
		SessionID: sessionID,
		MovesUCI:  []string{},
		MovesSAN:  []string{},
		StartedAt: now,
		UpdatedAt: now,
	}, nchess.NewGame()
}

// commit saves snap and swaps it in with board only after the store succeeds.
func (g *Game) commit(ctx context.Context, snap *Snapshot, board *nchess.Game) error {
	snap.FEN = board.FEN()
	snap.UpdatedAt = g.now()
	if err := g.store.Save(ctx, snap); err != nil {
		g.logger.Warn("voice_game_save_failed", zap.String("session", snap.SessionID), zap.Error(err))
		return fmt.Errorf("save game: %w", err)
	}
	g.snap, g.board = snap, board
	return nil
}

func (g *Game) archiveCurrent(ctx context.Context, method string) {
	g.archived = true
	g.saveRecord(ctx, g.record(method))
}

func (g *Game) record(method string) *Record {
	rec := &Record{
		GameID:    g.snap.GameID,
		SessionID: g.snap.SessionID,
		MovesUCI:  append([]string(nil), g.snap.MovesUCI...),
		MovesSAN:  append([]string(nil), g.snap.MovesSAN...),
		Result:    string(g.board.Outcome()),
		Method:    method,
		StartedAt: g.snap.StartedAt,
		EndedAt:   g.now(),
	}
	rec.PGN = buildPGN(rec)
	return rec
}

// saveRecord failures are logged only; the live game must keep going.
func (g *Game) saveRecord(ctx context.Context, rec *Record) {
	if g.archive == nil {
		return
	}
	if err := g.archive.SaveGame(ctx, rec); err != nil {
		g.logger.Warn("voice_game_archive_failed", zap.String("game_id", rec.GameID), zap.Error(err))
		return
	}
	g.logger.Info("voice_game_archived", zap.String("game_id", rec.GameID), zap.String("result", rec.Result), zap.String("method", rec.Method))
}

func replay(moves []string) (*nchess.Game, error) {
	board := nchess.NewGame()
	for _, mv := range moves {
		if err := board.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", mv, err)
		}
	}
	return board, nil
}
