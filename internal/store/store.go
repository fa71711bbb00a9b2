// Package store provides persistence for routes, stops, bids and the sync
// audit log. Postgres is the production backend; Memory is a mutex-guarded
// twin used in tests and when DATABASE_URL is unset.
package store

import (
    "context"
    "errors"
    "time"

    "routesync/internal/model"
)

type Store interface {
    // Routes
    CreateRoute(ctx context.Context, r model.Route) (model.Route, error)
    GetRoute(ctx context.Context, id string) (model.Route, error)
    ListRoutes(ctx context.Context, status, date, cursor string, limit int) ([]model.Route, string, error)
    FindRouteByProviderKey(ctx context.Context, key string) (model.Route, error)
    SetRouteProviderKey(ctx context.Context, id, key string) error
    MarkRouteSynced(ctx context.Context, id string, synced bool) error
    // TransitionRoute is a compare-and-set: the update applies only while
    // the route is in one of the from states, otherwise a
    // *model.StateConflictError is returned.
    TransitionRoute(ctx context.Context, id string, from []model.RouteStatus, to model.RouteStatus) (model.Route, error)
    // AcceptBid atomically assigns the route to the bid's driver. Exactly
    // one of two concurrent calls can succeed.
    AcceptBid(ctx context.Context, routeID, bidID, driverID string, actualPay float64) (model.Route, error)

    // Stops
    CreateStop(ctx context.Context, s model.RouteStop) (model.RouteStop, error)
    ListStops(ctx context.Context, routeID string) ([]model.RouteStop, error)
    FindStopByOrderNo(ctx context.Context, orderNo string) (model.RouteStop, error)
    SetStopOrderNo(ctx context.Context, stopID, orderNo string) error

    // Bids
    CreateBid(ctx context.Context, b model.Bid) (model.Bid, error)
    GetBid(ctx context.Context, id string) (model.Bid, error)
    ListBids(ctx context.Context, routeID string) ([]model.Bid, error)

    // Reference data owned by the external CRUD app
    GetDriver(ctx context.Context, id string) (model.Driver, error)
    MatchProperty(ctx context.Context, address string, lat, lng float64) (model.Property, error)
    ListApprovedProperties(ctx context.Context) ([]model.Property, error)
    SetPropertyPickupDay(ctx context.Context, propertyID, day string) error
    UnassignedProperties(ctx context.Context, adminZoneID string) ([]model.Property, error)
    ZoneStaffing(ctx context.Context, adminZoneID string) ([]model.ZoneStaffing, error)

    // Sync audit
    RecordSyncRun(ctx context.Context, run model.SyncRun) (model.SyncRun, error)
    ListSyncRuns(ctx context.Context, cursor string, limit int) ([]model.SyncRun, string, error)

    // Webhook subscriptions and delivery queue
    CreateSubscription(ctx context.Context, sub model.Subscription) (model.Subscription, error)
    ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
    DeleteSubscription(ctx context.Context, id string) error
    GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
    EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error
}

var ErrNotFound = errors.New("not found")
