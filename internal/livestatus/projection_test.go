package livestatus

import (
    "context"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "routesync/internal/provider"
    "routesync/internal/statuscache"
)

func batch(tag string, events ...provider.Event) provider.EventBatch {
    return provider.EventBatch{Tag: tag, Events: events}
}

func TestDriverStatusMonotonic(t *testing.T) {
    p := NewProjection()
    p.Apply(batch("t1", provider.Event{Event: "start_route", DriverSerial: "D1"}))
    drivers, _ := p.Overlay()
    if drivers["D1"] != DriverInProgress {
        t.Fatalf("after start_route: %q", drivers["D1"])
    }

    p.Apply(batch("t2", provider.Event{Event: "end_route", DriverSerial: "D1"}))
    drivers, _ = p.Overlay()
    if drivers["D1"] != DriverCompleted {
        t.Fatalf("after end_route: %q", drivers["D1"])
    }

    // at-least-once delivery can replay earlier events after end_route
    p.Apply(batch("t3",
        provider.Event{Event: "start_route", DriverSerial: "D1"},
        provider.Event{Event: "success", DriverSerial: "D1", OrderNo: "ORD1"},
    ))
    drivers, _ = p.Overlay()
    if drivers["D1"] != DriverCompleted {
        t.Fatalf("completed must not regress, got %q", drivers["D1"])
    }
}

func TestStopTerminalSticky(t *testing.T) {
    p := NewProjection()
    p.Apply(batch("t1", provider.Event{Event: "success", DriverSerial: "D1", OrderNo: "ORD1"}))
    p.Apply(batch("t2", provider.Event{Event: "start_service", DriverSerial: "D1", OrderNo: "ORD1"}))
    _, stops := p.Overlay()
    if stops["ORD1"] != "success" {
        t.Fatalf("terminal stop event overwritten: %q", stops["ORD1"])
    }
    if p.DoneCount() != 1 {
        t.Fatalf("done count = %d", p.DoneCount())
    }
}

func TestDriverNameFallbackAndOrderID(t *testing.T) {
    p := NewProjection()
    p.Apply(batch("t1",
        provider.Event{Event: "on_duty", DriverName: "Pat"},
        provider.Event{Event: "failed", DriverName: "Pat", OrderID: "777"},
    ))
    drivers, stops := p.Overlay()
    if drivers["Pat"] != DriverInProgress {
        t.Fatalf("driver keyed by name: %+v", drivers)
    }
    if stops["777"] != "failed" {
        t.Fatalf("stop keyed by order id: %+v", stops)
    }
}

func TestDriverKeyedBySerialAndName(t *testing.T) {
    p := NewProjection()
    p.Apply(batch("t1", provider.Event{Event: "start_route", DriverSerial: "D1", DriverName: "Pat"}))
    drivers, _ := p.Overlay()
    if drivers["D1"] != DriverInProgress || drivers["Pat"] != DriverInProgress {
        t.Fatalf("status should land under serial and name: %+v", drivers)
    }
    p.Apply(batch("t2", provider.Event{Event: "end_route", DriverSerial: "D1", DriverName: "Pat"}))
    drivers, _ = p.Overlay()
    if drivers["D1"] != DriverCompleted || drivers["Pat"] != DriverCompleted {
        t.Fatalf("completion should land under both keys: %+v", drivers)
    }
}

func TestCursorAdvancesAndEmptyTagKept(t *testing.T) {
    p := NewProjection()
    p.Apply(batch("t1"))
    p.Apply(batch("")) // provider may omit the tag on empty batches
    if p.Tag() != "t1" {
        t.Fatalf("tag = %q", p.Tag())
    }
    p.Apply(batch("t2"))
    if p.Tag() != "t2" {
        t.Fatalf("tag = %q", p.Tag())
    }
}

type pollGateway struct {
    provider.API
    calls []string
    batch provider.EventBatch
}

func (g *pollGateway) PollEvents(_ context.Context, afterTag string) (provider.EventBatch, error) {
    g.calls = append(g.calls, afterTag)
    return g.batch, nil
}

func TestPollOncePublishesSnapshot(t *testing.T) {
    gw := &pollGateway{batch: batch("t9", provider.Event{Event: "start_route", DriverSerial: "D1"})}
    cache := statuscache.NewMemory(time.Minute)
    p := NewPoller(gw, cache, time.Second, zerolog.Nop())

    p.pollOnce(context.Background())
    p.pollOnce(context.Background())

    if len(gw.calls) != 2 || gw.calls[0] != "" || gw.calls[1] != "t9" {
        t.Fatalf("cursor not threaded through polls: %v", gw.calls)
    }
    snap, ok, err := cache.Get(context.Background())
    if err != nil || !ok {
        t.Fatalf("snapshot missing: ok=%v err=%v", ok, err)
    }
    if snap.Tag != "t9" || snap.Drivers["D1"] != DriverInProgress {
        t.Fatalf("snapshot: %+v", snap)
    }
}
