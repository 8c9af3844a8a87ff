package game

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

const defaultGameTTL = time.Hour

// RedisStore keeps snapshots as JSON under voicechess:game:<session> with a sliding TTL.
type RedisStore struct {
    rdb *redis.Client
    ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
    if ttl <= 0 { ttl = defaultGameTTL }
    return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string { return "voicechess:game:" + strings.TrimSpace(sessionID) }

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
    raw, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, fmt.Errorf("redis get: %w", err) }
    var snap Snapshot
    if err := json.Unmarshal(raw, &snap); err != nil { return nil, fmt.Errorf("decode snapshot: %w", err) }
    return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
    if snap == nil { return nil }
    raw, err := json.Marshal(snap)
    if err != nil { return err }
    return s.rdb.Set(ctx, s.key(snap.SessionID), raw, s.ttl).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
    if s == nil || s.rdb == nil { return nil }
    return s.rdb.Close()
}

// DialRedis parses REDIS_URL (redis:// or rediss://) and pings the server.
func DialRedis(ctx context.Context, raw string) (*redis.Client, error) {
    opts, err := parseRedisURL(raw)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(strings.TrimSpace(raw))
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" {
        n, err := strconv.Atoi(p)
        if err != nil { return nil, fmt.Errorf("invalid redis db %q", p) }
        db = n
    }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}
