// Package sync reconciles locally-owned route state with the external
// provider, in both directions, keyed on provider_route_key and
// provider_order_no so re-runs never duplicate anything.
package sync

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "routesync/internal/metrics"
    "routesync/internal/model"
    "routesync/internal/provider"
    "routesync/internal/store"
    "routesync/internal/webhooks"
)

type Engine struct {
    Store   store.Store
    Gateway provider.API
    Pub     *webhooks.Publisher
    Log     zerolog.Logger
}

func NewEngine(s store.Store, gw provider.API, pub *webhooks.Publisher, log zerolog.Logger) *Engine {
    return &Engine{Store: s, Gateway: gw, Pub: pub, Log: log.With().Str("component", "sync").Logger()}
}

// ImportRange pulls provider routes and orders for [from,to] into the
// store. Routes already holding the provider key are skipped; orders are
// matched to properties by address or proximity, unmatched ones become
// address-only stops flagged for review. Running the same range twice
// creates nothing new.
func (e *Engine) ImportRange(ctx context.Context, actor model.Actor, from, to string) (model.ImportResult, error) {
    res := model.ImportResult{Errors: []model.ItemError{}}
    if err := validateRange(from, to); err != nil {
        return res, err
    }
    started := time.Now().UTC()
    routes, err := e.Gateway.FetchRoutes(ctx, from, to)
    if err != nil {
        e.recordRun(ctx, "import", actor, started, nil, []model.ItemError{{Item: "provider", Error: err.Error()}})
        metrics.SyncOperations.WithLabelValues("import", "error").Inc()
        return res, err
    }
    for _, pr := range routes {
        if pr.RouteKey == "" {
            res.Errors = append(res.Errors, model.ItemError{Item: "route " + pr.Title, Error: "provider route missing key"})
            continue
        }
        local, err := e.Store.FindRouteByProviderKey(ctx, pr.RouteKey)
        switch {
        case err == nil:
            res.RoutesSkipped++
        case errors.Is(err, store.ErrNotFound):
            title := pr.Title
            if title == "" {
                title = "Imported " + pr.Date
            }
            local, err = e.Store.CreateRoute(ctx, model.Route{
                Title:            title,
                ScheduledDate:    pr.Date,
                Status:           model.RouteDraft,
                Source:           "imported",
                ProviderRouteKey: pr.RouteKey,
            })
            if err != nil {
                res.Errors = append(res.Errors, model.ItemError{Item: "route " + pr.RouteKey, Error: err.Error()})
                continue
            }
            res.RoutesImported++
        default:
            res.Errors = append(res.Errors, model.ItemError{Item: "route " + pr.RouteKey, Error: err.Error()})
            continue
        }
        e.importOrders(ctx, local, pr.Orders, &res)
    }
    e.recordRun(ctx, "import", actor, started, map[string]int{
        "routesImported": res.RoutesImported, "routesSkipped": res.RoutesSkipped,
        "stopsImported": res.StopsImported, "stopsMatched": res.StopsMatched,
        "stopsUnmatched": res.StopsUnmatched,
    }, res.Errors)
    metrics.SyncOperations.WithLabelValues("import", "ok").Inc()
    metrics.SyncItems.WithLabelValues("import", "imported").Add(float64(res.StopsImported))
    metrics.SyncItems.WithLabelValues("import", "skipped").Add(float64(res.RoutesSkipped))
    if e.Pub != nil {
        e.Pub.Emit(ctx, "sync.completed", map[string]any{"operation": "import", "from": from, "to": to, "result": res})
    }
    return res, nil
}

func (e *Engine) importOrders(ctx context.Context, route model.Route, orders []provider.Order, res *model.ImportResult) {
    for _, ord := range orders {
        if ord.OrderNo == "" {
            res.Errors = append(res.Errors, model.ItemError{Item: "order in route " + route.ProviderRouteKey, Error: "missing orderNo"})
            continue
        }
        // dedup before create: already-imported orders are untouched
        if _, err := e.Store.FindStopByOrderNo(ctx, ord.OrderNo); err == nil {
            continue
        } else if !errors.Is(err, store.ErrNotFound) {
            res.Errors = append(res.Errors, model.ItemError{Item: "order " + ord.OrderNo, Error: err.Error()})
            continue
        }
        stop := model.RouteStop{
            RouteID:         route.ID,
            Address:         ord.Address,
            Lat:             ord.Lat,
            Lng:             ord.Lng,
            OrderType:       orderType(ord.Type),
            ProviderOrderNo: ord.OrderNo,
        }
        prop, err := e.Store.MatchProperty(ctx, ord.Address, ord.Lat, ord.Lng)
        switch {
        case err == nil:
            stop.PropertyID = prop.ID
        case errors.Is(err, store.ErrNotFound):
            stop.NeedsReview = true
        default:
            res.Errors = append(res.Errors, model.ItemError{Item: "order " + ord.OrderNo, Error: err.Error()})
            continue
        }
        if _, err := e.Store.CreateStop(ctx, stop); err != nil {
            res.Errors = append(res.Errors, model.ItemError{Item: "order " + ord.OrderNo, Error: err.Error()})
            continue
        }
        res.StopsImported++
        if stop.PropertyID != "" {
            res.StopsMatched++
        } else {
            res.StopsUnmatched++
        }
    }
}

// PushRoute creates the provider counterpart for the route and for every
// stop still lacking a provider order number. A failed stop is recorded and
// skipped, the remaining stops are still pushed; provider_synced flips true
// only when every stop succeeded.
func (e *Engine) PushRoute(ctx context.Context, actor model.Actor, routeID string) (model.PushResult, error) {
    res := model.PushResult{Errors: []model.ItemError{}}
    started := time.Now().UTC()
    r, err := e.Store.GetRoute(ctx, routeID)
    if err != nil {
        return res, err
    }
    if r.Status.Terminal() {
        return res, model.Conflict("route is %s and can no longer be pushed", r.Status)
    }
    if r.ProviderRouteKey == "" {
        key, err := e.Gateway.UpsertRoute(ctx, provider.RouteUpsert{Title: r.Title, Date: r.ScheduledDate})
        if err != nil {
            e.recordRun(ctx, "push", actor, started, nil, []model.ItemError{{Item: "route " + routeID, Error: err.Error()}})
            metrics.SyncOperations.WithLabelValues("push", "error").Inc()
            return res, err
        }
        if err := e.Store.SetRouteProviderKey(ctx, r.ID, key); err != nil {
            return res, err
        }
        r.ProviderRouteKey = key
    }
    stops, err := e.Store.ListStops(ctx, r.ID)
    if err != nil {
        return res, err
    }
    for _, s := range stops {
        if s.ProviderOrderNo != "" {
            res.OrdersSynced++
            continue
        }
        orderNo, err := e.Gateway.CreateOrder(ctx, r.ProviderRouteKey, provider.OrderCreate{
            Address: s.Address, Lat: s.Lat, Lng: s.Lng, Type: string(s.OrderType),
        })
        if err != nil {
            res.Errors = append(res.Errors, model.ItemError{Item: fmt.Sprintf("stop %d", s.StopNumber), Error: err.Error()})
            continue
        }
        if err := e.Store.SetStopOrderNo(ctx, s.ID, orderNo); err != nil {
            res.Errors = append(res.Errors, model.ItemError{Item: fmt.Sprintf("stop %d", s.StopNumber), Error: err.Error()})
            continue
        }
        res.OrdersSynced++
    }
    synced := len(res.Errors) == 0 && res.OrdersSynced == len(stops)
    if err := e.Store.MarkRouteSynced(ctx, r.ID, synced); err != nil {
        return res, err
    }
    e.recordRun(ctx, "push", actor, started, map[string]int{"ordersSynced": res.OrdersSynced}, res.Errors)
    metrics.SyncOperations.WithLabelValues("push", "ok").Inc()
    metrics.SyncItems.WithLabelValues("push", "synced").Add(float64(res.OrdersSynced))
    metrics.SyncItems.WithLabelValues("push", "failed").Add(float64(len(res.Errors)))
    if e.Pub != nil {
        e.Pub.Emit(ctx, "sync.completed", map[string]any{"operation": "push", "routeId": routeID, "result": res})
    }
    return res, nil
}

// DetectPickupDays infers each approved property's likely pickup day as the
// modal weekday of its provider order history over the trailing 90 days.
// Updates are best-effort; one property's failure never aborts the batch.
func (e *Engine) DetectPickupDays(ctx context.Context, actor model.Actor) (model.DetectResult, error) {
    res := model.DetectResult{Errors: []model.ItemError{}}
    started := time.Now().UTC()
    since := time.Now().UTC().AddDate(0, 0, -90).Format("2006-01-02")
    history, err := e.Gateway.OrderHistory(ctx, since)
    if err != nil {
        e.recordRun(ctx, "pickup_days", actor, started, nil, []model.ItemError{{Item: "provider", Error: err.Error()}})
        metrics.SyncOperations.WithLabelValues("pickup_days", "error").Inc()
        return res, err
    }
    weekdays := map[string][7]int{}
    for _, h := range history {
        d, err := time.Parse("2006-01-02", h.Date)
        if err != nil {
            continue
        }
        key := normalizeAddress(h.Address)
        counts := weekdays[key]
        counts[int(d.Weekday())]++
        weekdays[key] = counts
    }
    props, err := e.Store.ListApprovedProperties(ctx)
    if err != nil {
        return res, err
    }
    for _, p := range props {
        counts, ok := weekdays[normalizeAddress(p.Address)]
        if !ok {
            res.NoData++
            continue
        }
        day := modalWeekday(counts)
        if strings.EqualFold(p.PickupDay, day) {
            res.Skipped++
            continue
        }
        if err := e.Store.SetPropertyPickupDay(ctx, p.ID, day); err != nil {
            res.Skipped++
            res.Errors = append(res.Errors, model.ItemError{Item: "property " + p.ID, Error: err.Error()})
            continue
        }
        res.Updated++
    }
    e.recordRun(ctx, "pickup_days", actor, started, map[string]int{
        "updated": res.Updated, "noData": res.NoData, "skipped": res.Skipped,
    }, res.Errors)
    metrics.SyncOperations.WithLabelValues("pickup_days", "ok").Inc()
    return res, nil
}

func (e *Engine) recordRun(ctx context.Context, op string, actor model.Actor, started time.Time, counts map[string]int, errs []model.ItemError) {
    if counts == nil {
        counts = map[string]int{}
    }
    run := model.SyncRun{
        Operation:  op,
        Actor:      actor.ID,
        StartedAt:  started,
        FinishedAt: time.Now().UTC(),
        Counts:     counts,
        Errors:     errs,
    }
    if _, err := e.Store.RecordSyncRun(ctx, run); err != nil {
        e.Log.Error().Err(err).Str("operation", op).Msg("record sync run")
    }
}

func validateRange(from, to string) error {
    f, err := time.Parse("2006-01-02", from)
    if err != nil {
        return model.Invalid("from: expected YYYY-MM-DD, got %q", from)
    }
    t, err := time.Parse("2006-01-02", to)
    if err != nil {
        return model.Invalid("to: expected YYYY-MM-DD, got %q", to)
    }
    if t.Before(f) {
        return model.Invalid("to %s is before from %s", to, from)
    }
    return nil
}

func orderType(s string) model.OrderType {
    switch model.OrderType(s) {
    case model.OrderSpecial:
        return model.OrderSpecial
    case model.OrderMissedRedo:
        return model.OrderMissedRedo
    }
    return model.OrderRecurring
}

func normalizeAddress(s string) string {
    return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// modalWeekday picks the weekday with the most orders; ties go to the
// earlier weekday so the result is stable across runs.
func modalWeekday(counts [7]int) string {
    best := 0
    for i := 1; i < 7; i++ {
        if counts[i] > counts[best] {
            best = i
        }
    }
    return strings.ToLower(time.Weekday(best).String())
}
