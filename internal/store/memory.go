package store

import (
    "context"
    "math"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "routesync/internal/model"
)

// Memory is a mutex-guarded Store used for tests and DATABASE_URL-less dev
// runs. Semantics mirror Postgres, including the accept-bid compare-and-set.
type Memory struct {
    mu            sync.Mutex
    routes        map[string]model.Route
    stops         map[string]model.RouteStop
    bids          map[string]model.Bid
    drivers       map[string]model.Driver
    properties    map[string]model.Property
    zones         map[string]model.ServiceZone
    syncRuns      []model.SyncRun
    subscriptions map[string]model.Subscription
    deliveries    map[string]*WebhookDelivery
    dueAt         map[string]time.Time
}

func NewMemory() *Memory {
    return &Memory{
        routes:        map[string]model.Route{},
        stops:         map[string]model.RouteStop{},
        bids:          map[string]model.Bid{},
        drivers:       map[string]model.Driver{},
        properties:    map[string]model.Property{},
        zones:         map[string]model.ServiceZone{},
        subscriptions: map[string]model.Subscription{},
        deliveries:    map[string]*WebhookDelivery{},
        dueAt:         map[string]time.Time{},
    }
}

// Seed helpers for reference data the engine reads but never creates.

func (m *Memory) AddDriver(d model.Driver) model.Driver {
    m.mu.Lock()
    defer m.mu.Unlock()
    if d.ID == "" { d.ID = uuid.NewString() }
    m.drivers[d.ID] = d
    return d
}

func (m *Memory) AddProperty(p model.Property) model.Property {
    m.mu.Lock()
    defer m.mu.Unlock()
    if p.ID == "" { p.ID = uuid.NewString() }
    m.properties[p.ID] = p
    return p
}

func (m *Memory) AddServiceZone(z model.ServiceZone) model.ServiceZone {
    m.mu.Lock()
    defer m.mu.Unlock()
    if z.ID == "" { z.ID = uuid.NewString() }
    m.zones[z.ID] = z
    return z
}

func (m *Memory) CreateRoute(ctx context.Context, r model.Route) (model.Route, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if r.ID == "" { r.ID = uuid.NewString() }
    if r.Status == "" { r.Status = model.RouteDraft }
    if r.RouteType == "" { r.RouteType = model.RouteTypeRecurring }
    if r.PaymentStatus == "" { r.PaymentStatus = model.PaymentUnpaid }
    if r.Source == "" { r.Source = "local" }
    r.CreatedAt = time.Now().UTC()
    m.routes[r.ID] = r
    return r, nil
}

func (m *Memory) GetRoute(ctx context.Context, id string) (model.Route, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.routes[id]
    if !ok { return model.Route{}, ErrNotFound }
    return r, nil
}

func (m *Memory) ListRoutes(ctx context.Context, status, date, cursor string, limit int) ([]model.Route, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    m.mu.Lock()
    defer m.mu.Unlock()
    ids := make([]string, 0, len(m.routes))
    for id := range m.routes { ids = append(ids, id) }
    sort.Strings(ids)
    out := []model.Route{}
    var last string
    for _, id := range ids {
        if cursor != "" && id <= cursor { continue }
        r := m.routes[id]
        if status != "" && string(r.Status) != status { continue }
        if date != "" && r.ScheduledDate != date { continue }
        out = append(out, r)
        last = id
        if len(out) == limit { break }
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, nil
}

func (m *Memory) FindRouteByProviderKey(ctx context.Context, key string) (model.Route, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, r := range m.routes {
        if key != "" && r.ProviderRouteKey == key { return r, nil }
    }
    return model.Route{}, ErrNotFound
}

func (m *Memory) SetRouteProviderKey(ctx context.Context, id, key string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.routes[id]
    if !ok { return ErrNotFound }
    r.ProviderRouteKey = key
    m.routes[id] = r
    return nil
}

func (m *Memory) MarkRouteSynced(ctx context.Context, id string, synced bool) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.routes[id]
    if !ok { return ErrNotFound }
    r.ProviderSynced = synced
    if synced {
        now := time.Now().UTC()
        r.ProviderSyncedAt = &now
    }
    m.routes[id] = r
    return nil
}

func (m *Memory) TransitionRoute(ctx context.Context, id string, from []model.RouteStatus, to model.RouteStatus) (model.Route, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.routes[id]
    if !ok { return model.Route{}, ErrNotFound }
    if !statusIn(r.Status, from) {
        return model.Route{}, model.Conflict("route is %s, expected one of %s", r.Status, statusNames(from))
    }
    r.Status = to
    m.routes[id] = r
    return r, nil
}

func (m *Memory) AcceptBid(ctx context.Context, routeID, bidID, driverID string, actualPay float64) (model.Route, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.routes[routeID]
    if !ok { return model.Route{}, ErrNotFound }
    if !r.Status.Biddable() {
        return model.Route{}, model.Conflict("route is %s, expected one of open/bidding", r.Status)
    }
    r.Status = model.RouteAssigned
    r.AcceptedBidID = bidID
    r.AssignedDriverID = driverID
    r.ActualPay = actualPay
    m.routes[routeID] = r
    return r, nil
}

func (m *Memory) CreateStop(ctx context.Context, s model.RouteStop) (model.RouteStop, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.routes[s.RouteID]
    if !ok { return model.RouteStop{}, ErrNotFound }
    if s.ID == "" { s.ID = uuid.NewString() }
    if s.Status == "" { s.Status = model.StopPending }
    if s.OrderType == "" { s.OrderType = model.OrderRecurring }
    if s.StopNumber == 0 {
        max := 0
        for _, other := range m.stops {
            if other.RouteID == s.RouteID && other.StopNumber > max { max = other.StopNumber }
        }
        s.StopNumber = max + 1
    }
    m.stops[s.ID] = s
    r.StopCount++
    m.routes[r.ID] = r
    return s, nil
}

func (m *Memory) ListStops(ctx context.Context, routeID string) ([]model.RouteStop, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.RouteStop{}
    for _, s := range m.stops {
        if s.RouteID == routeID { out = append(out, s) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].StopNumber < out[j].StopNumber })
    return out, nil
}

func (m *Memory) FindStopByOrderNo(ctx context.Context, orderNo string) (model.RouteStop, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, s := range m.stops {
        if orderNo != "" && s.ProviderOrderNo == orderNo { return s, nil }
    }
    return model.RouteStop{}, ErrNotFound
}

func (m *Memory) SetStopOrderNo(ctx context.Context, stopID, orderNo string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.stops[stopID]
    if !ok { return ErrNotFound }
    s.ProviderOrderNo = orderNo
    m.stops[stopID] = s
    return nil
}

func (m *Memory) CreateBid(ctx context.Context, b model.Bid) (model.Bid, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.routes[b.RouteID]
    if !ok { return model.Bid{}, ErrNotFound }
    if !r.Status.Biddable() {
        return model.Bid{}, model.Conflict("route is %s, expected one of open/bidding", r.Status)
    }
    if r.Status == model.RouteOpen {
        r.Status = model.RouteBidding
        m.routes[r.ID] = r
    }
    if b.ID == "" { b.ID = uuid.NewString() }
    b.CreatedAt = time.Now().UTC()
    m.bids[b.ID] = b
    return b, nil
}

func (m *Memory) GetBid(ctx context.Context, id string) (model.Bid, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.bids[id]
    if !ok { return model.Bid{}, ErrNotFound }
    return b, nil
}

func (m *Memory) ListBids(ctx context.Context, routeID string) ([]model.Bid, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Bid{}
    for _, b := range m.bids {
        if b.RouteID == routeID { out = append(out, b) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
    return out, nil
}

func (m *Memory) GetDriver(ctx context.Context, id string) (model.Driver, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    d, ok := m.drivers[id]
    if !ok { return model.Driver{}, ErrNotFound }
    return d, nil
}

func (m *Memory) MatchProperty(ctx context.Context, address string, lat, lng float64) (model.Property, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var near *model.Property
    for _, p := range m.properties {
        if p.Status != "approved" { continue }
        if strings.EqualFold(strings.TrimSpace(p.Address), strings.TrimSpace(address)) { return p, nil }
        if near == nil && haversineMeters(p.Lat, p.Lng, lat, lng) < 30 {
            cp := p
            near = &cp
        }
    }
    if near != nil { return *near, nil }
    return model.Property{}, ErrNotFound
}

func (m *Memory) ListApprovedProperties(ctx context.Context) ([]model.Property, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Property{}
    for _, p := range m.properties {
        if p.Status == "approved" { out = append(out, p) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (m *Memory) SetPropertyPickupDay(ctx context.Context, propertyID, day string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    p, ok := m.properties[propertyID]
    if !ok { return ErrNotFound }
    p.PickupDay = day
    m.properties[propertyID] = p
    return nil
}

func (m *Memory) UnassignedProperties(ctx context.Context, adminZoneID string) ([]model.Property, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Property{}
    for _, p := range m.properties {
        if p.Status == "approved" && p.ServiceZoneID == "" { out = append(out, p) }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (m *Memory) ZoneStaffing(ctx context.Context, adminZoneID string) ([]model.ZoneStaffing, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.ZoneStaffing{}
    for _, z := range m.zones {
        if !z.Active { continue }
        if adminZoneID != "" && z.AdminZoneID != adminZoneID { continue }
        zs := model.ZoneStaffing{Zone: z}
        for _, d := range m.drivers {
            if d.Active && d.ServiceZoneID == z.ID { zs.ActiveDrivers++ }
        }
        for _, p := range m.properties {
            if p.Status == "approved" && p.ServiceZoneID == z.ID { zs.Properties++ }
        }
        out = append(out, zs)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Zone.Name < out[j].Zone.Name })
    return out, nil
}

func (m *Memory) RecordSyncRun(ctx context.Context, run model.SyncRun) (model.SyncRun, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if run.ID == "" { run.ID = uuid.NewString() }
    m.syncRuns = append(m.syncRuns, run)
    return run, nil
}

func (m *Memory) ListSyncRuns(ctx context.Context, cursor string, limit int) ([]model.SyncRun, string, error) {
    if limit <= 0 || limit > 500 { limit = 50 }
    m.mu.Lock()
    defer m.mu.Unlock()
    runs := append([]model.SyncRun{}, m.syncRuns...)
    sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
    out := []model.SyncRun{}
    var last string
    for _, r := range runs {
        if cursor != "" && r.ID <= cursor { continue }
        out = append(out, r)
        last = r.ID
        if len(out) == limit { break }
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, sub model.Subscription) (model.Subscription, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if sub.ID == "" { sub.ID = uuid.NewString() }
    sub.CreatedAt = time.Now().UTC()
    m.subscriptions[sub.ID] = sub
    return sub, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Subscription{}
    for _, s := range m.subscriptions { out = append(out, s) }
    sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
    return out, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.subscriptions[id]; !ok { return ErrNotFound }
    delete(m.subscriptions, id)
    return nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Subscription{}
    for _, s := range m.subscriptions {
        if s.EventType == eventType { out = append(out, s) }
    }
    return out, nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    id := uuid.NewString()
    m.deliveries[id] = &WebhookDelivery{
        ID: id, SubscriptionID: subscriptionID, EventType: eventType,
        URL: url, Secret: secret, Payload: payload, Status: "pending",
    }
    m.dueAt[id] = time.Now().UTC()
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    if limit <= 0 { limit = 50 }
    m.mu.Lock()
    defer m.mu.Unlock()
    now := time.Now().UTC()
    out := []WebhookDelivery{}
    for id, d := range m.deliveries {
        if d.Status != "pending" && d.Status != "retry" { continue }
        if m.dueAt[id].After(now) { continue }
        out = append(out, *d)
        if len(out) == limit { break }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    d, ok := m.deliveries[id]
    if !ok { return ErrNotFound }
    d.Attempts++
    if success {
        d.Status = "delivered"
    } else {
        d.Status = "retry"
        if nextAttemptAt != nil { m.dueAt[id] = *nextAttemptAt }
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    d, ok := m.deliveries[id]
    if !ok { return ErrNotFound }
    d.Attempts++
    d.Status = "failed"
    return nil
}

func statusIn(s model.RouteStatus, set []model.RouteStatus) bool {
    for _, x := range set {
        if x == s { return true }
    }
    return false
}

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
    const r = 6371000.0
    toRad := func(d float64) float64 { return d * math.Pi / 180 }
    dLat := toRad(lat2 - lat1)
    dLng := toRad(lng2 - lng1)
    a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
    return 2 * r * math.Asin(math.Sqrt(a))
}
