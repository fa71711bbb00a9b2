package livestatus

import (
    "context"
    "time"

    "github.com/rs/zerolog"

    "routesync/internal/provider"
    "routesync/internal/statuscache"
)

// Poller tails the provider event feed and publishes merged snapshots
// into the status cache. Poll failures are logged and retried on the
// next tick; the cursor only advances after a successful apply.
type Poller struct {
    Gateway  provider.API
    Cache    statuscache.Cache
    Interval time.Duration
    Log      zerolog.Logger

    proj *Projection
    stop chan struct{}
}

func NewPoller(gw provider.API, cache statuscache.Cache, interval time.Duration, log zerolog.Logger) *Poller {
    if interval <= 0 {
        interval = 15 * time.Second
    }
    return &Poller{
        Gateway:  gw,
        Cache:    cache,
        Interval: interval,
        Log:      log.With().Str("component", "livestatus").Logger(),
        proj:     NewProjection(),
        stop:     make(chan struct{}),
    }
}

func (p *Poller) Start() {
    go func() {
        t := time.NewTicker(p.Interval)
        defer t.Stop()
        for {
            select {
            case <-p.stop:
                return
            case <-t.C:
                p.pollOnce(context.Background())
            }
        }
    }()
}

func (p *Poller) Stop() { close(p.stop) }

func (p *Poller) pollOnce(ctx context.Context) {
    ctx, cancel := context.WithTimeout(ctx, p.Interval)
    defer cancel()
    batch, err := p.Gateway.PollEvents(ctx, p.proj.Tag())
    if err != nil {
        p.Log.Warn().Err(err).Msg("event poll failed")
        return
    }
    p.proj.Apply(batch)
    drivers, stops := p.proj.Overlay()
    snap := statuscache.Snapshot{Tag: p.proj.Tag(), Drivers: drivers, Stops: stops, UpdatedAt: time.Now().UTC()}
    if err := p.Cache.Put(ctx, snap); err != nil {
        p.Log.Warn().Err(err).Msg("snapshot publish failed")
    }
}
