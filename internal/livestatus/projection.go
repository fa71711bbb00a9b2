// Package livestatus folds provider telemetry events into an ephemeral
// view of driver and stop statuses. The projection is an overlay on top
// of persisted route data and is never written back to the store.
package livestatus

import (
    "sync"

    "routesync/internal/provider"
)

const (
    DriverInProgress = "in_progress"
    DriverCompleted  = "completed"
)

// workingEvents mark a driver as actively on a route. end_route and
// off_duty mark the day as done; once completed a driver never moves
// back, since event delivery is at-least-once and unordered.
var workingEvents = map[string]bool{
    "start_route":   true,
    "on_duty":       true,
    "start_service": true,
    "success":       true,
    "failed":        true,
    "rejected":      true,
}

var doneStopEvents = map[string]bool{
    "completed": true,
    "success":   true,
    "failed":    true,
    "rejected":  true,
}

// StopDone reports whether a projected stop event is terminal.
func StopDone(event string) bool { return doneStopEvents[event] }

type Projection struct {
    mu      sync.RWMutex
    tag     string
    drivers map[string]string // serial and name -> status
    stops   map[string]string // order no (or id) -> last event
}

func NewProjection() *Projection {
    return &Projection{drivers: map[string]string{}, stops: map[string]string{}}
}

// Apply merges one event batch. Re-delivered and out-of-order events are
// safe: driver status is monotonic and stop terminal states are sticky.
func (p *Projection) Apply(batch provider.EventBatch) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if batch.Tag != "" {
        p.tag = batch.Tag
    }
    for _, evt := range batch.Events {
        // Events carry a serial, a display name, or both. Status lands
        // under every key present so name-based lookups still resolve
        // serial-keyed telemetry.
        for _, key := range driverKeys(evt) {
            switch {
            case evt.Event == "end_route" || evt.Event == "off_duty":
                p.drivers[key] = DriverCompleted
            case workingEvents[evt.Event]:
                if p.drivers[key] != DriverCompleted {
                    p.drivers[key] = DriverInProgress
                }
            }
        }
        if key := stopKey(evt); key != "" && stopEvent(evt.Event) {
            if !doneStopEvents[p.stops[key]] {
                p.stops[key] = evt.Event
            }
        }
    }
}

func driverKeys(evt provider.Event) []string {
    keys := make([]string, 0, 2)
    if evt.DriverSerial != "" {
        keys = append(keys, evt.DriverSerial)
    }
    if evt.DriverName != "" && evt.DriverName != evt.DriverSerial {
        keys = append(keys, evt.DriverName)
    }
    return keys
}

func stopKey(evt provider.Event) string {
    if evt.OrderNo != "" {
        return evt.OrderNo
    }
    return evt.OrderID
}

func stopEvent(name string) bool {
    switch name {
    case "start_service", "completed", "success", "failed", "rejected":
        return true
    }
    return false
}

// Tag returns the cursor to resume polling from.
func (p *Projection) Tag() string {
    p.mu.RLock()
    defer p.mu.RUnlock()
    return p.tag
}

// Overlay returns copies of the current driver and stop maps.
func (p *Projection) Overlay() (drivers, stops map[string]string) {
    p.mu.RLock()
    defer p.mu.RUnlock()
    drivers = make(map[string]string, len(p.drivers))
    for k, v := range p.drivers {
        drivers[k] = v
    }
    stops = make(map[string]string, len(p.stops))
    for k, v := range p.stops {
        stops[k] = v
    }
    return drivers, stops
}

// DoneCount reports how many projected stops reached a terminal event.
func (p *Projection) DoneCount() int {
    p.mu.RLock()
    defer p.mu.RUnlock()
    n := 0
    for _, evt := range p.stops {
        if doneStopEvents[evt] {
            n++
        }
    }
    return n
}
