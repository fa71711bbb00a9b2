package store

import (
    "testing"

    "routesync/internal/model"
)

func TestStatusList(t *testing.T) {
    got := statusList([]model.RouteStatus{model.RouteOpen, model.RouteBidding})
    if got != "'open','bidding'" {
        t.Fatalf("statusList = %s", got)
    }
}

func TestStatusNames(t *testing.T) {
    got := statusNames([]model.RouteStatus{model.RouteOpen, model.RouteBidding})
    if got != "open/bidding" {
        t.Fatalf("statusNames = %s", got)
    }
}

func TestNullIfEmpty(t *testing.T) {
    if v := nullIfEmpty(""); v != nil {
        t.Fatal("empty string -> nil expected")
    }
    if v := nullIfEmpty("x"); v != "x" {
        t.Fatalf("got %v", v)
    }
}

func TestToJSON(t *testing.T) {
    if string(toJSON(nil)) != "null" {
        t.Fatal("nil -> null expected")
    }
    if string(toJSON(map[string]int{"a": 1})) != `{"a":1}` {
        t.Fatalf("got %s", toJSON(map[string]int{"a": 1}))
    }
}
