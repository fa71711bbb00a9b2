// Package planning drives route optimization jobs on the provider side.
// Jobs live entirely in the provider; this package validates requests and
// passes them through without keeping local state.
package planning

import (
    "context"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "routesync/internal/model"
    "routesync/internal/provider"
    "routesync/internal/webhooks"
)

type Orchestrator struct {
    Gateway provider.API
    Pub     *webhooks.Publisher
    Log     zerolog.Logger

    mu       sync.Mutex
    notified map[string]bool
}

func NewOrchestrator(gw provider.API, pub *webhooks.Publisher, log zerolog.Logger) *Orchestrator {
    return &Orchestrator{
        Gateway:  gw,
        Pub:      pub,
        Log:      log.With().Str("component", "planning").Logger(),
        notified: map[string]bool{},
    }
}

var validBalanceBy = map[string]bool{"": true, "distance": true, "duration": true, "orders": true}

// Start validates and submits an optimization request. The returned job id
// is the provider's; callers poll Status with it.
func (o *Orchestrator) Start(ctx context.Context, req provider.PlanningRequest) (string, error) {
    if req.Date == "" {
        return "", model.Invalid("date is required")
    }
    if _, err := time.Parse("2006-01-02", req.Date); err != nil {
        return "", model.Invalid("date must be YYYY-MM-DD")
    }
    if !validBalanceBy[req.BalanceBy] {
        return "", model.Invalid("balanceBy must be one of distance, duration, orders")
    }
    id, err := o.Gateway.StartPlanning(ctx, req)
    if err != nil {
        return "", err
    }
    o.Log.Info().Str("job_id", id).Str("date", req.Date).Msg("planning started")
    return id, nil
}

// Status polls the provider. The first time a job is seen finished, a
// planning.finished notification goes out; repeat polls stay quiet.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (provider.PlanningStatus, error) {
    if jobID == "" {
        return provider.PlanningStatus{}, model.Invalid("job id is required")
    }
    st, err := o.Gateway.PlanningStatus(ctx, jobID)
    if err != nil {
        return provider.PlanningStatus{}, err
    }
    if st.Status == provider.PlanningFinished && o.markFinished(jobID) {
        o.Log.Info().Str("job_id", jobID).Msg("planning finished")
        if o.Pub != nil {
            o.Pub.Emit(ctx, "planning.finished", map[string]any{"planningId": jobID, "status": st})
        }
    }
    return st, nil
}

func (o *Orchestrator) markFinished(jobID string) bool {
    o.mu.Lock()
    defer o.mu.Unlock()
    if o.notified[jobID] {
        return false
    }
    o.notified[jobID] = true
    return true
}

// Cancel is advisory. The provider may have already finished the job, in
// which case cancellation is a no-op on its side.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
    if jobID == "" {
        return model.Invalid("job id is required")
    }
    if err := o.Gateway.CancelPlanning(ctx, jobID); err != nil {
        return err
    }
    o.Log.Info().Str("job_id", jobID).Msg("planning cancelled")
    return nil
}
