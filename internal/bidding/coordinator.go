// Package bidding runs the bid submission and exclusive-acceptance state
// machine on routes.
package bidding

import (
    "context"
    "errors"

    "github.com/rs/zerolog"

    "routesync/internal/metrics"
    "routesync/internal/model"
    "routesync/internal/store"
    "routesync/internal/webhooks"
)

type Coordinator struct {
    Store store.Store
    Pub   *webhooks.Publisher
    Log   zerolog.Logger
}

func NewCoordinator(s store.Store, pub *webhooks.Publisher, log zerolog.Logger) *Coordinator {
    return &Coordinator{Store: s, Pub: pub, Log: log.With().Str("component", "bidding").Logger()}
}

// Publish opens a draft route for bids.
func (c *Coordinator) Publish(ctx context.Context, actor model.Actor, routeID string) (model.Route, error) {
    return c.Store.TransitionRoute(ctx, routeID, []model.RouteStatus{model.RouteDraft}, model.RouteOpen)
}

// Cancel moves any non-terminal route to cancelled.
func (c *Coordinator) Cancel(ctx context.Context, actor model.Actor, routeID string) (model.Route, error) {
    return c.Store.TransitionRoute(ctx, routeID, model.NonTerminalStatuses(), model.RouteCancelled)
}

// Transition applies an explicit status change, validated against the
// central transition table before touching the store.
func (c *Coordinator) Transition(ctx context.Context, actor model.Actor, routeID string, to model.RouteStatus) (model.Route, error) {
    r, err := c.Store.GetRoute(ctx, routeID)
    if err != nil {
        return model.Route{}, err
    }
    if !r.Status.CanTransition(to) {
        return model.Route{}, model.Conflict("route cannot move from %s to %s", r.Status, to)
    }
    return c.Store.TransitionRoute(ctx, routeID, []model.RouteStatus{r.Status}, to)
}

// SubmitBid stores a bid while the route is open or bidding. The driver's
// rating is snapshotted at submission; the first bid flips open to bidding.
func (c *Coordinator) SubmitBid(ctx context.Context, actor model.Actor, routeID, driverID string, amount float64, message string) (model.Bid, error) {
    if amount <= 0 {
        return model.Bid{}, model.Invalid("bidAmount must be positive")
    }
    if driverID == "" {
        return model.Bid{}, model.Invalid("driverId is required")
    }
    driver, err := c.Store.GetDriver(ctx, driverID)
    if errors.Is(err, store.ErrNotFound) {
        return model.Bid{}, &model.NotFoundError{Kind: "driver", ID: driverID}
    }
    if err != nil {
        return model.Bid{}, err
    }
    if !driver.Active {
        return model.Bid{}, model.Conflict("driver %s is inactive", driverID)
    }
    bid := model.Bid{
        RouteID:           routeID,
        DriverID:          driverID,
        Amount:            amount,
        Message:           message,
        DriverRatingAtBid: driver.Rating,
    }
    out, err := c.Store.CreateBid(ctx, bid)
    if err != nil {
        return model.Bid{}, err
    }
    c.Log.Info().Str("route", routeID).Str("driver", driverID).Float64("amount", amount).Msg("bid submitted")
    return out, nil
}

// AcceptBid assigns the route to the bid's driver through the store's
// compare-and-set. Of two racing acceptances exactly one succeeds; the
// loser sees a *model.StateConflictError.
func (c *Coordinator) AcceptBid(ctx context.Context, actor model.Actor, routeID, bidID string) (model.Route, error) {
    bid, err := c.Store.GetBid(ctx, bidID)
    if errors.Is(err, store.ErrNotFound) {
        return model.Route{}, &model.NotFoundError{Kind: "bid", ID: bidID}
    }
    if err != nil {
        return model.Route{}, err
    }
    if bid.RouteID != routeID {
        return model.Route{}, model.Invalid("bid %s does not belong to route %s", bidID, routeID)
    }
    r, err := c.Store.AcceptBid(ctx, routeID, bid.ID, bid.DriverID, bid.Amount)
    if err != nil {
        var conflict *model.StateConflictError
        if errors.As(err, &conflict) {
            metrics.BidAcceptances.WithLabelValues("conflict").Inc()
        } else {
            metrics.BidAcceptances.WithLabelValues("error").Inc()
        }
        return model.Route{}, err
    }
    metrics.BidAcceptances.WithLabelValues("won").Inc()
    c.Log.Info().Str("route", routeID).Str("bid", bidID).Str("driver", bid.DriverID).Msg("bid accepted")
    if c.Pub != nil {
        c.Pub.Emit(ctx, "route.assigned", map[string]any{
            "routeId": r.ID, "bidId": bid.ID, "driverId": bid.DriverID, "actualPay": bid.Amount,
        })
    }
    return r, nil
}
