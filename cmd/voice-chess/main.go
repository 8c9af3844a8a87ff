package main

import (
    "context"
    "errors"
    "fmt"
    "io"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/park285/Cheese-VoiceChess/internal/bridge"
    appcfg "github.com/park285/Cheese-VoiceChess/internal/config"
    "github.com/park285/Cheese-VoiceChess/internal/console"
    "github.com/park285/Cheese-VoiceChess/internal/game"
    "github.com/park285/Cheese-VoiceChess/internal/httpapi"
    "github.com/park285/Cheese-VoiceChess/internal/listening"
    "github.com/park285/Cheese-VoiceChess/internal/metrics"
    "github.com/park285/Cheese-VoiceChess/internal/msgcat"
    "github.com/park285/Cheese-VoiceChess/internal/obslog"
    "go.uber.org/zap"
)

func main() {
    if err := run(); err != nil {
        log.Fatalf("voice-chess: %v", err)
    }
}

func run() error {
    cfg, err := appcfg.Load()
    if err != nil {
        return fmt.Errorf("config error: %w", err)
    }
    // console mode owns stdout for speech
    var logOut io.Writer
    if cfg.Mode == appcfg.ModeConsole {
        logOut = os.Stderr
    }
    if err := obslog.InitFromEnv(logOut); err != nil {
        return fmt.Errorf("logger init error: %w", err)
    }
    logger := obslog.L()
    defer func() { _ = logger.Sync() }()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    catalog, err := msgcat.New(cfg.MessagesDir)
    if err != nil {
        return fmt.Errorf("message catalog error: %w", err)
    }
    for _, n := range listening.Notices() {
        if !catalog.Has(string(n)) {
            return fmt.Errorf("message catalog error: missing notice %s", n)
        }
    }

    // Session store: Redis when configured, memory otherwise
    var store game.Store = game.NewMemoryStore()
    if cfg.RedisURL != "" {
        rdb, err := game.DialRedis(ctx, cfg.RedisURL)
        if err != nil {
            return fmt.Errorf("redis init error: %w", err)
        }
        rs := game.NewRedisStore(rdb, cfg.SessionTTL())
        defer func() { _ = rs.Close() }()
        store = rs
    } else {
        logger.Warn("voice_store_memory", zap.String("reason", "REDIS_URL not set"))
    }

    // Optional archive of finished games
    var archive game.Archiver
    if cfg.DatabaseURL != "" {
        pg, err := game.NewPostgresArchive(ctx, cfg.DatabaseURL)
        if err != nil {
            return fmt.Errorf("archive init error: %w", err)
        }
        defer func() { _ = pg.Close() }()
        archive = pg
    }

    if cfg.Mode == appcfg.ModeConsole {
        return runConsole(ctx, cfg, store, archive, catalog, logger)
    }
    return runServer(ctx, cfg, store, archive, catalog, logger)
}

func runServer(ctx context.Context, cfg *appcfg.AppConfig, store game.Store, archive game.Archiver, catalog *msgcat.Catalog, logger *zap.Logger) error {
    m := metrics.New("voicechess")
    voice := bridge.NewServer(bridge.Options{
        Store:          store,
        Archive:        archive,
        Notices:        catalog,
        Logger:         logger,
        Metrics:        m,
        OriginPatterns: cfg.AllowedOrigins,
    })
    router := httpapi.NewRouter(httpapi.Routes{VoicePath: cfg.VoicePath, Voice: voice, Metrics: m.Handler()})

    srv := &http.Server{Addr: cfg.ListenAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
    errc := make(chan error, 1)
    go func() { errc <- srv.ListenAndServe() }()
    logger.Info("voice_server_listening", zap.String("addr", cfg.ListenAddr), zap.String("path", cfg.VoicePath))

    select {
    case err := <-errc:
        if errors.Is(err, http.ErrServerClosed) { return nil }
        return err
    case <-ctx.Done():
    }
    sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return srv.Shutdown(sctx)
}

func runConsole(ctx context.Context, cfg *appcfg.AppConfig, store game.Store, archive game.Archiver, catalog *msgcat.Catalog, logger *zap.Logger) error {
    opts := []game.Option{game.WithLogger(logger)}
    if archive != nil {
        opts = append(opts, game.WithArchive(archive))
    }
    g, err := game.Open(ctx, cfg.ConsoleSession, store, opts...)
    if err != nil {
        return err
    }
    host := console.New(os.Stdin, os.Stdout, catalog, logger)
    ctrl, err := listening.NewController(host.Factory(), host, g, listening.Options{
        SessionID: cfg.ConsoleSession,
        Notices:   catalog,
        Logger:    logger,
        Context:   ctx,
        OnChange:  host.ShowView,
    })
    if err != nil {
        return err
    }
    defer ctrl.Close()
    return host.Run(ctx, ctrl, g)
}
