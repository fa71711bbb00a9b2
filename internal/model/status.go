package model

import "fmt"

// RouteStatus is the closed set of route lifecycle states. Transitions go
// through CanTransition so the graph lives in exactly one place.
type RouteStatus string

const (
    RouteDraft      RouteStatus = "draft"
    RouteOpen       RouteStatus = "open"
    RouteBidding    RouteStatus = "bidding"
    RouteAssigned   RouteStatus = "assigned"
    RouteInProgress RouteStatus = "in_progress"
    RouteCompleted  RouteStatus = "completed"
    RouteCancelled  RouteStatus = "cancelled"
)

var routeTransitions = map[RouteStatus][]RouteStatus{
    RouteDraft:      {RouteOpen, RouteCancelled},
    RouteOpen:       {RouteBidding, RouteAssigned, RouteCancelled},
    RouteBidding:    {RouteAssigned, RouteCancelled},
    RouteAssigned:   {RouteInProgress, RouteCancelled},
    RouteInProgress: {RouteCompleted, RouteCancelled},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s RouteStatus) CanTransition(next RouteStatus) bool {
    for _, t := range routeTransitions[s] {
        if t == next {
            return true
        }
    }
    return false
}

// Terminal states freeze the route and its stops.
func (s RouteStatus) Terminal() bool {
    return s == RouteCompleted || s == RouteCancelled
}

// Biddable reports whether bids may be submitted or accepted.
func (s RouteStatus) Biddable() bool {
    return s == RouteOpen || s == RouteBidding
}

// NonTerminalStatuses lists every state a route may be cancelled from.
func NonTerminalStatuses() []RouteStatus {
    return []RouteStatus{RouteDraft, RouteOpen, RouteBidding, RouteAssigned, RouteInProgress}
}

func ParseRouteStatus(s string) (RouteStatus, error) {
    switch RouteStatus(s) {
    case RouteDraft, RouteOpen, RouteBidding, RouteAssigned, RouteInProgress, RouteCompleted, RouteCancelled:
        return RouteStatus(s), nil
    }
    return "", fmt.Errorf("unknown route status %q", s)
}

type StopStatus string

const (
    StopPending   StopStatus = "pending"
    StopCompleted StopStatus = "completed"
    StopFailed    StopStatus = "failed"
    StopSkipped   StopStatus = "skipped"
)

type RouteType string

const (
    RouteTypeRecurring RouteType = "recurring"
    RouteTypeBulk      RouteType = "bulk"
    RouteTypeSpecial   RouteType = "special"
)

func ParseRouteType(s string) (RouteType, error) {
    switch RouteType(s) {
    case RouteTypeRecurring, RouteTypeBulk, RouteTypeSpecial:
        return RouteType(s), nil
    }
    return "", fmt.Errorf("unknown route type %q", s)
}

type OrderType string

const (
    OrderRecurring  OrderType = "recurring"
    OrderSpecial    OrderType = "special"
    OrderMissedRedo OrderType = "missed_redo"
)

type PaymentStatus string

const (
    PaymentUnpaid  PaymentStatus = "unpaid"
    PaymentPending PaymentStatus = "pending"
    PaymentPaid    PaymentStatus = "paid"
)
