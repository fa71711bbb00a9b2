// Package model holds the domain types shared by the store, the sync
// engine, and the HTTP layer.
package model

import "time"

// Actor identifies the caller of a mutating operation. It is passed
// explicitly so audit rows never depend on ambient session state.
type Actor struct {
    ID   string `json:"id"`
    Role string `json:"role"` // admin, dispatcher, driver
}

type Route struct {
    ID                 string        `json:"id"`
    Title              string        `json:"title"`
    ScheduledDate      string        `json:"scheduledDate"` // YYYY-MM-DD
    RouteType          RouteType     `json:"routeType"`
    Status             RouteStatus   `json:"status"`
    ServiceZoneID      string        `json:"serviceZoneId,omitempty"`
    BasePay            float64       `json:"basePay"`
    ActualPay          float64       `json:"actualPay"`
    PaymentStatus      PaymentStatus `json:"paymentStatus"`
    AssignedDriverID   string        `json:"assignedDriverId,omitempty"`
    AcceptedBidID      string        `json:"acceptedBidId,omitempty"`
    ProviderRouteKey   string        `json:"providerRouteKey,omitempty"`
    ProviderSynced     bool          `json:"providerSynced"`
    ProviderSyncedAt   *time.Time    `json:"providerSyncedAt,omitempty"`
    Source             string        `json:"source"` // local | imported
    StopCount          int           `json:"stopCount"`
    CompletedStopCount int           `json:"completedStopCount"`
    CreatedAt          time.Time     `json:"createdAt"`
}

type RouteStop struct {
    ID              string     `json:"id"`
    RouteID         string     `json:"routeId"`
    PropertyID      string     `json:"propertyId,omitempty"` // empty means address-only
    Address         string     `json:"address"`
    Lat             float64    `json:"lat"`
    Lng             float64    `json:"lng"`
    OrderType       OrderType  `json:"orderType"`
    ProviderOrderNo string     `json:"providerOrderNo,omitempty"`
    StopNumber      int        `json:"stopNumber"`
    Status          StopStatus `json:"status"`
    NeedsReview     bool       `json:"needsReview"`
}

// Bid is append-only. DriverRatingAtBid is snapshotted at submission and
// never recomputed from the driver's current rating.
type Bid struct {
    ID                string    `json:"id"`
    RouteID           string    `json:"routeId"`
    DriverID          string    `json:"driverId"`
    Amount            float64   `json:"bidAmount"`
    Message           string    `json:"message,omitempty"`
    DriverRatingAtBid float64   `json:"driverRatingAtBid"`
    CreatedAt         time.Time `json:"createdAt"`
}

type ServiceZone struct {
    ID          string `json:"id"`
    Name        string `json:"name"`
    AdminZoneID string `json:"adminZoneId,omitempty"`
    Active      bool   `json:"active"`
}

type AdminZone struct {
    ID     string `json:"id"`
    Name   string `json:"name"`
    Active bool   `json:"active"`
}

// Property rows are owned by the external CRUD app. The engine reads them
// for import matching and coverage, and best-effort-updates PickupDay.
type Property struct {
    ID            string  `json:"id"`
    Address       string  `json:"address"`
    Lat           float64 `json:"lat"`
    Lng           float64 `json:"lng"`
    Status        string  `json:"status"` // pending, approved, rejected
    ServiceZoneID string  `json:"serviceZoneId,omitempty"`
    PickupDay     string  `json:"pickupDay,omitempty"` // lowercase weekday
}

type Driver struct {
    ID            string  `json:"id"`
    Name          string  `json:"name"`
    Rating        float64 `json:"rating"`
    Active        bool    `json:"active"`
    ServiceZoneID string  `json:"serviceZoneId,omitempty"`
}

// SyncRun is the append-only audit record for every import/push/detect run.
type SyncRun struct {
    ID         string         `json:"id"`
    Operation  string         `json:"operation"` // import, push, pickup_days
    Actor      string         `json:"actor"`
    StartedAt  time.Time      `json:"startedAt"`
    FinishedAt time.Time      `json:"finishedAt"`
    Counts     map[string]int `json:"counts"`
    Errors     []ItemError    `json:"errors,omitempty"`
}

// ItemError records one failed item inside an aggregate operation.
type ItemError struct {
    Item  string `json:"item"`
    Error string `json:"error"`
}

type ImportResult struct {
    RoutesImported int         `json:"routesImported"`
    RoutesSkipped  int         `json:"routesSkipped"`
    StopsImported  int         `json:"stopsImported"`
    StopsMatched   int         `json:"stopsMatched"`
    StopsUnmatched int         `json:"stopsUnmatched"`
    Errors         []ItemError `json:"errors"`
}

type PushResult struct {
    OrdersSynced int         `json:"ordersSynced"`
    Errors       []ItemError `json:"errors"`
}

type DetectResult struct {
    Updated int         `json:"updated"`
    NoData  int         `json:"noData"`
    Skipped int         `json:"skipped"`
    Errors  []ItemError `json:"errors"`
}

// ZoneStaffing pairs a service zone with its active driver and property counts.
type ZoneStaffing struct {
    Zone          ServiceZone `json:"zone"`
    ActiveDrivers int         `json:"activeDrivers"`
    Properties    int         `json:"properties"`
}

type CoverageGaps struct {
    UnassignedProperties []Property     `json:"unassignedProperties"`
    EmptyZones           []ZoneStaffing `json:"emptyZones"`
    UnderstaffedZones    []ZoneStaffing `json:"understaffedZones"`
}

// Subscription registers an outbound webhook endpoint for one event type.
type Subscription struct {
    ID        string    `json:"id"`
    EventType string    `json:"eventType"`
    URL       string    `json:"url"`
    Secret    string    `json:"-"`
    CreatedAt time.Time `json:"createdAt"`
}
