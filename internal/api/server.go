package api

import (
    "net/http"

    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/rs/zerolog"

    "routesync/internal/auth"
    "routesync/internal/bidding"
    "routesync/internal/config"
    "routesync/internal/coverage"
    "routesync/internal/metrics"
    "routesync/internal/planning"
    "routesync/internal/provider"
    "routesync/internal/statuscache"
    "routesync/internal/store"
    "routesync/internal/sync"
    "routesync/internal/webhooks"
)

type Server struct {
    Store    store.Store
    Gateway  provider.API
    Sync     *sync.Engine
    Bids     *bidding.Coordinator
    Planning *planning.Orchestrator
    Coverage *coverage.Analyzer
    Cache    statuscache.Cache
    Pub      *webhooks.Publisher
    Auth     *auth.Verifier
    Log      zerolog.Logger
}

// NewServer wires the engines around a store and provider gateway. The
// store and cache backends are chosen by the caller (cmd/api) from config.
func NewServer(cfg config.Config, st store.Store, gw provider.API, cache statuscache.Cache, log zerolog.Logger) *Server {
    pub := webhooks.NewPublisher(st)
    return &Server{
        Store:    st,
        Gateway:  gw,
        Sync:     sync.NewEngine(st, gw, pub, log),
        Bids:     bidding.NewCoordinator(st, pub, log),
        Planning: planning.NewOrchestrator(gw, pub, log),
        Coverage: coverage.NewAnalyzer(st),
        Cache:    cache,
        Pub:      pub,
        Auth:     auth.NewVerifier(cfg.AuthMode, cfg.AuthHMACSecret),
        Log:      log.With().Str("component", "api").Logger(),
    }
}

// Routes builds the HTTP mux with logging and metrics middleware applied.
func (s *Server) Routes() http.Handler {
    mux := http.NewServeMux()

    mux.HandleFunc("/v1/sync/import", s.SyncImportHandler)
    mux.HandleFunc("/v1/sync/pickup-days", s.SyncPickupDaysHandler)
    mux.HandleFunc("/v1/sync/runs", s.SyncRunsHandler)

    mux.HandleFunc("/v1/routes", s.RoutesIndexHandler)
    mux.HandleFunc("/v1/routes/", s.RouteByIDHandler)

    mux.HandleFunc("/v1/planning", s.PlanningHandler)
    mux.HandleFunc("/v1/planning/", s.PlanningByIDHandler)

    mux.HandleFunc("/v1/live/events", s.LiveEventsHandler)
    mux.HandleFunc("/v1/coverage/gaps", s.CoverageGapsHandler)

    mux.HandleFunc("/v1/subscriptions", s.SubscriptionsHandler)
    mux.HandleFunc("/v1/subscriptions/", s.SubscriptionByIDHandler)

    mux.HandleFunc("/healthz", s.HealthHandler)
    mux.HandleFunc("/readyz", s.ReadyHandler)
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    return s.instrument(mux)
}
