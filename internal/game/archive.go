package game

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    _ "github.com/lib/pq"
)

// Archiver stores finished or abandoned games.
type Archiver interface {
    SaveGame(ctx context.Context, rec *Record) error
}

const archiveSchema = `CREATE TABLE IF NOT EXISTS voice_games (
    game_id       TEXT PRIMARY KEY,
    session_id    TEXT NOT NULL,
    result        TEXT NOT NULL,
    result_method TEXT NOT NULL,
    moves_uci     JSONB NOT NULL,
    moves_san     JSONB NOT NULL,
    pgn           TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL
)`

// PostgresArchive writes records into voice_games.
type PostgresArchive struct {
    db *sql.DB
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(8)
    db.SetMaxIdleConns(4)
    db.SetConnMaxLifetime(30 * time.Minute)
    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(pctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    if _, err := db.ExecContext(pctx, archiveSchema); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ensure schema: %w", err)
    }
    return &PostgresArchive{db: db}, nil
}

func (a *PostgresArchive) Close() error {
    if a == nil || a.db == nil { return nil }
    return a.db.Close()
}

// SaveGame upserts rec by game id.
func (a *PostgresArchive) SaveGame(ctx context.Context, rec *Record) error {
    if a == nil || a.db == nil || rec == nil {
        return nil
    }
    movesUCIRaw, _ := json.Marshal(nonNil(rec.MovesUCI))
    movesSANRaw, _ := json.Marshal(nonNil(rec.MovesSAN))
    duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
    if duration < 0 { duration = 0 }

    q := `INSERT INTO voice_games (
        game_id, session_id, result, result_method,
        moves_uci, moves_san, pgn, started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
      ) ON CONFLICT (game_id) DO UPDATE SET
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

    _, err := a.db.ExecContext(ctx, q,
        rec.GameID, rec.SessionID, rec.Result, strings.TrimSpace(rec.Method),
        string(movesUCIRaw), string(movesSANRaw), rec.PGN,
        rec.StartedAt, rec.EndedAt, duration,
    )
    return err
}

func nonNil(s []string) []string {
    if s == nil { return []string{} }
    return s
}

func buildPGN(rec *Record) string {
    if rec == nil {
        return ""
    }
    var b strings.Builder
    date := rec.EndedAt
    if date.IsZero() {
        date = time.Now()
    }
    result := rec.Result
    if result == "" { result = "*" }
    b.WriteString("[Event \"Voice Chess\"]\n")
    b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizePGN(rec.SessionID)))
    b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
    b.WriteString("[White \"Voice\"]\n")
    b.WriteString("[Black \"Voice\"]\n")
    if strings.TrimSpace(rec.Method) != "" {
        b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(rec.Method))))
    }
    b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", result))

    for i := 0; i < len(rec.MovesSAN); i += 2 {
        b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(rec.MovesSAN[i])))
        if i+1 < len(rec.MovesSAN) {
            b.WriteString(" ")
            b.WriteString(strings.TrimSpace(rec.MovesSAN[i+1]))
        }
        b.WriteString(" ")
    }
    b.WriteString(result)
    return b.String()
}

func sanitizePGN(s string) string {
    s = strings.ReplaceAll(s, "\\", " ")
    s = strings.ReplaceAll(s, "\"", "'")
    return strings.TrimSpace(s)
}
