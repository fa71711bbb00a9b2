package main

import (
    "context"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "routesync/internal/api"
    "routesync/internal/config"
    "routesync/internal/livestatus"
    "routesync/internal/logging"
    "routesync/internal/metrics"
    "routesync/internal/provider"
    "routesync/internal/statuscache"
    "routesync/internal/store"
    "routesync/internal/webhooks"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        boot := logging.New("info")
        boot.Fatal().Err(err).Msg("config load failed")
    }
    log := logging.New(cfg.LogLevel)
    metrics.RegisterDefault()

    var st store.Store
    if cfg.DatabaseURL == "" {
        log.Info().Msg("DATABASE_URL unset, using in-memory store")
        st = store.NewMemory()
    } else {
        pg, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            log.Fatal().Err(err).Msg("postgres connect failed")
        }
        if os.Getenv("DB_MIGRATE") != "false" {
            if err := pg.MigrateDir("db/migrations"); err != nil {
                log.Fatal().Err(err).Msg("migrations failed")
            }
        }
        st = pg
    }

    gw := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey,
        time.Duration(cfg.Provider.TimeoutMS)*time.Millisecond, cfg.Provider.RateRPS)

    var cache statuscache.Cache
    if cfg.RedisURL != "" {
        rc, err := statuscache.NewRedis(cfg.RedisURL, 5*time.Minute)
        if err != nil {
            log.Fatal().Err(err).Str("url", cfg.RedisURL).Msg("redis connect failed")
        }
        cache = rc
    } else {
        cache = statuscache.NewMemory(5 * time.Minute)
    }

    srv := api.NewServer(cfg, st, gw, cache, log)

    poller := livestatus.NewPoller(gw, cache, time.Duration(cfg.LivePollIntervalMS)*time.Millisecond, log)
    poller.Start()

    worker := webhooks.NewWorker(st, cfg.WebhookMaxAttempts, log)
    worker.Start()

    httpSrv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           srv.Routes(),
        ReadHeaderTimeout: 5 * time.Second,
    }

    go func() {
        log.Info().Str("addr", httpSrv.Addr).Msg("API listening")
        if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("server error")
        }
    }()

    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop

    log.Info().Msg("shutting down")
    poller.Stop()
    close(worker.Stop)
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := httpSrv.Shutdown(ctx); err != nil {
        log.Error().Err(err).Msg("shutdown error")
    }
}
