package game

import (
    "context"
    "fmt"
    "strings"
    "testing"
    "time"

    miniredis "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(mr.Close)
    rdb, err := DialRedis(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
    if err != nil { t.Fatalf("DialRedis: %v", err) }
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func TestRedisStoreRoundTripAndTTL(t *testing.T) {
    mr, rdb := newTestRedis(t)
    store := NewRedisStore(rdb, 10*time.Minute)
    ctx := context.Background()

    got, err := store.Load(ctx, "s1")
    if err != nil || got != nil { t.Fatalf("expected empty load, got %v %v", got, err) }

    snap := &Snapshot{GameID: "g1", SessionID: "s1", MovesUCI: []string{"e2e4"}, MovesSAN: []string{"e4"}, FEN: "x"}
    if err := store.Save(ctx, snap); err != nil { t.Fatalf("Save: %v", err) }
    if ttl := mr.TTL("voicechess:game:s1"); ttl != 10*time.Minute { t.Fatalf("ttl = %v", ttl) }

    got, err = store.Load(ctx, "s1")
    if err != nil || got == nil { t.Fatalf("Load: %v %v", got, err) }
    if got.GameID != "g1" || len(got.MovesSAN) != 1 || got.MovesSAN[0] != "e4" { t.Fatalf("unexpected snapshot %+v", got) }

    mr.FastForward(11 * time.Minute)
    got, err = store.Load(ctx, "s1")
    if err != nil || got != nil { t.Fatalf("expected expired session, got %v %v", got, err) }
}

func TestRedisStoreCorruptPayload(t *testing.T) {
    mr, rdb := newTestRedis(t)
    _ = mr.Set("voicechess:game:s1", "{not json")
    if _, err := NewRedisStore(rdb, 0).Load(context.Background(), "s1"); err == nil {
        t.Fatalf("expected decode error")
    }
}

func TestOpenResumesFromRedis(t *testing.T) {
    _, rdb := newTestRedis(t)
    store := NewRedisStore(rdb, time.Hour)
    g, err := Open(context.Background(), "room", store)
    if err != nil { t.Fatalf("Open: %v", err) }
    play(t, g, "d2d4", "d7d5")

    again, err := Open(context.Background(), "room", store)
    if err != nil { t.Fatalf("Open again: %v", err) }
    if strings.Join(again.Snapshot().MovesSAN, " ") != "d4 d5" { t.Fatalf("resume lost moves: %v", again.Snapshot().MovesSAN) }
}

func TestParseRedisURL(t *testing.T) {
    opts, err := parseRedisURL("redis://user:pw@localhost:6380/2")
    if err != nil { t.Fatalf("parse: %v", err) }
    if opts.Addr != "localhost:6380" || opts.Username != "user" || opts.Password != "pw" || opts.DB != 2 {
        t.Fatalf("unexpected options %+v", opts)
    }
    if _, err := parseRedisURL("http://localhost"); err == nil { t.Fatalf("expected scheme error") }
    if _, err := parseRedisURL("redis://localhost/abc"); err == nil { t.Fatalf("expected db error") }
}

func TestBuildPGN(t *testing.T) {
    rec := &Record{SessionID: "s\"1", MovesSAN: []string{"e4", "e5", "Nf3"}, Result: "", Method: "Abandoned", EndedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
    pgn := buildPGN(rec)
    for _, want := range []string{"[Site \"s'1\"]", "[Date \"2024.03.05\"]", "[Termination \"abandoned\"]", "[Result \"*\"]", "1. e4 e5 2. Nf3 *"} {
        if !strings.Contains(pgn, want) { t.Fatalf("pgn missing %q:\n%s", want, pgn) }
    }
}
