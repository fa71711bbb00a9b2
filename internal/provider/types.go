// Package provider is the typed HTTP client for the external
// route-optimization service. It owns request/response mapping and error
// classification only; business logic lives in the engines that call it.
package provider

import "context"

// API is the gateway surface consumed by the sync engine, the planning
// orchestrator, and the live status poller. Tests substitute fakes.
type API interface {
    FetchRoutes(ctx context.Context, from, to string) ([]Route, error)
    UpsertRoute(ctx context.Context, in RouteUpsert) (string, error)
    CreateOrder(ctx context.Context, routeKey string, in OrderCreate) (string, error)
    OrderHistory(ctx context.Context, since string) ([]HistoryOrder, error)
    StartPlanning(ctx context.Context, req PlanningRequest) (string, error)
    PlanningStatus(ctx context.Context, planningID string) (PlanningStatus, error)
    CancelPlanning(ctx context.Context, planningID string) error
    PollEvents(ctx context.Context, afterTag string) (EventBatch, error)
}

// Route is a provider-side route with its nested orders.
type Route struct {
    RouteKey string  `json:"routeKey"`
    Title    string  `json:"title"`
    Date     string  `json:"date"` // YYYY-MM-DD
    Orders   []Order `json:"orders"`
}

type Order struct {
    OrderNo string  `json:"orderNo"`
    Address string  `json:"address"`
    Lat     float64 `json:"lat"`
    Lng     float64 `json:"lng"`
    Type    string  `json:"type,omitempty"`
}

type RouteUpsert struct {
    RouteKey string `json:"routeKey,omitempty"` // empty on first push
    Title    string `json:"title"`
    Date     string `json:"date"`
}

type OrderCreate struct {
    Address string  `json:"address"`
    Lat     float64 `json:"lat,omitempty"`
    Lng     float64 `json:"lng,omitempty"`
    Type    string  `json:"type,omitempty"`
}

// HistoryOrder is one served order from the provider's order history.
type HistoryOrder struct {
    OrderNo string `json:"orderNo"`
    Address string `json:"address"`
    Date    string `json:"date"` // YYYY-MM-DD service date
}

type PlanningRequest struct {
    Date       string `json:"date"`
    Balancing  bool   `json:"balancing"`
    BalanceBy  string `json:"balanceBy,omitempty"`
    StartWith  string `json:"startWith,omitempty"`
    Clustering bool   `json:"clustering"`
}

// PlanningState values as reported by the provider. Finished, Error and
// Cancelled are terminal; callers stop polling on any of them.
type PlanningState string

const (
    PlanningRunning   PlanningState = "Running"
    PlanningFinished  PlanningState = "Finished"
    PlanningError     PlanningState = "Error"
    PlanningCancelled PlanningState = "Cancelled"
)

func (s PlanningState) Terminal() bool {
    return s == PlanningFinished || s == PlanningError || s == PlanningCancelled
}

type PlanningStatus struct {
    Status             PlanningState `json:"status"`
    PercentageComplete int           `json:"percentageComplete"`
}

// Event is one entry from the provider's append-only event log. Either the
// driver fields or the order fields may be empty depending on event type.
type Event struct {
    Event        string `json:"event"`
    LocalTime    string `json:"localTime"`
    DriverName   string `json:"driverName,omitempty"`
    DriverSerial string `json:"driverSerial,omitempty"`
    OrderNo      string `json:"orderNo,omitempty"`
    OrderID      string `json:"orderId,omitempty"`
}

// EventBatch carries events since the requested cursor plus the new cursor.
/// Delivery is at-least-once: consumers must merge idempotently.
type EventBatch struct {
    Tag    string  `json:"tag"`
    Events []Event `json:"events"`
}
