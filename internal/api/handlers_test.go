package api

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "routesync/internal/config"
    "routesync/internal/model"
    "routesync/internal/provider"
    "routesync/internal/statuscache"
    "routesync/internal/store"
)

type fakeGateway struct {
    provider.API
    fetchRoutes func(ctx context.Context, from, to string) ([]provider.Route, error)
    pollEvents  func(ctx context.Context, afterTag string) (provider.EventBatch, error)
    startPlan   func(ctx context.Context, req provider.PlanningRequest) (string, error)
    planStatus  func(ctx context.Context, id string) (provider.PlanningStatus, error)
    cancelPlan  func(ctx context.Context, id string) error
}

func (f *fakeGateway) FetchRoutes(ctx context.Context, from, to string) ([]provider.Route, error) {
    return f.fetchRoutes(ctx, from, to)
}
func (f *fakeGateway) PollEvents(ctx context.Context, afterTag string) (provider.EventBatch, error) {
    return f.pollEvents(ctx, afterTag)
}
func (f *fakeGateway) StartPlanning(ctx context.Context, req provider.PlanningRequest) (string, error) {
    return f.startPlan(ctx, req)
}
func (f *fakeGateway) PlanningStatus(ctx context.Context, id string) (provider.PlanningStatus, error) {
    return f.planStatus(ctx, id)
}
func (f *fakeGateway) CancelPlanning(ctx context.Context, id string) error {
    return f.cancelPlan(ctx, id)
}

func newTestServer(t *testing.T, gw provider.API) (*Server, *store.Memory, *statuscache.Memory) {
    t.Helper()
    m := store.NewMemory()
    cache := statuscache.NewMemory(time.Minute)
    s := NewServer(config.Config{AuthMode: "dev"}, m, gw, cache, zerolog.Nop())
    return s, m, cache
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
    t.Helper()
    var buf bytes.Buffer
    if body != nil {
        if err := json.NewEncoder(&buf).Encode(body); err != nil { t.Fatalf("encode: %v", err) }
    }
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set("Content-Type", "application/json")
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestHealthReady(t *testing.T) {
    s, _, _ := newTestServer(t, &fakeGateway{})
    h := s.Routes()
    if rr := doJSON(t, h, http.MethodGet, "/healthz", nil); rr.Code != 200 { t.Fatalf("health: %d", rr.Code) }
    if rr := doJSON(t, h, http.MethodGet, "/readyz", nil); rr.Code != 200 { t.Fatalf("ready: %d", rr.Code) }
}

func TestBidLifecycleHTTP(t *testing.T) {
    s, m, _ := newTestServer(t, &fakeGateway{})
    h := s.Routes()
    ctx := context.Background()
    route, err := m.CreateRoute(ctx, model.Route{Title: "Tue loop", ScheduledDate: "2025-06-03", BasePay: 120})
    if err != nil { t.Fatalf("seed route: %v", err) }
    d1 := m.AddDriver(model.Driver{Name: "d1", Active: true, Rating: 4.4})
    d2 := m.AddDriver(model.Driver{Name: "d2", Active: true, Rating: 3.9})

    if rr := doJSON(t, h, http.MethodPost, "/v1/routes/"+route.ID+"/publish", nil); rr.Code != 200 {
        t.Fatalf("publish: %d %s", rr.Code, rr.Body.String())
    }

    rr := doJSON(t, h, http.MethodPost, "/v1/routes/"+route.ID+"/bids", map[string]any{"driverId": d1.ID, "bidAmount": 110.0})
    if rr.Code != http.StatusCreated { t.Fatalf("bid 1: %d %s", rr.Code, rr.Body.String()) }
    var bid1 model.Bid
    if err := json.Unmarshal(rr.Body.Bytes(), &bid1); err != nil { t.Fatalf("decode bid: %v", err) }

    rr = doJSON(t, h, http.MethodPost, "/v1/routes/"+route.ID+"/bids", map[string]any{"driverId": d2.ID, "bidAmount": 105.0})
    if rr.Code != http.StatusCreated { t.Fatalf("bid 2: %d", rr.Code) }
    var bid2 model.Bid
    if err := json.Unmarshal(rr.Body.Bytes(), &bid2); err != nil { t.Fatalf("decode bid: %v", err) }

    rr = doJSON(t, h, http.MethodPost, "/v1/routes/"+route.ID+"/bids/"+bid1.ID+"/accept", nil)
    if rr.Code != 200 { t.Fatalf("accept: %d %s", rr.Code, rr.Body.String()) }
    var assigned model.Route
    if err := json.Unmarshal(rr.Body.Bytes(), &assigned); err != nil { t.Fatalf("decode route: %v", err) }
    if assigned.Status != model.RouteAssigned || assigned.AssignedDriverID != d1.ID || assigned.ActualPay != 110 {
        t.Fatalf("assigned route: %+v", assigned)
    }

    // losing accept must be a typed state conflict, not a validation error
    rr = doJSON(t, h, http.MethodPost, "/v1/routes/"+route.ID+"/bids/"+bid2.ID+"/accept", nil)
    if rr.Code != http.StatusConflict { t.Fatalf("second accept: %d", rr.Code) }
    var prob Problem
    if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil { t.Fatalf("decode problem: %v", err) }
    if prob.Type != problemStateConflict { t.Fatalf("problem type = %q", prob.Type) }
}

func TestBidValidationHTTP(t *testing.T) {
    s, m, _ := newTestServer(t, &fakeGateway{})
    h := s.Routes()
    route, _ := m.CreateRoute(context.Background(), model.Route{Title: "r"})

    rr := doJSON(t, h, http.MethodPost, "/v1/routes/"+route.ID+"/bids", map[string]any{"driverId": "", "bidAmount": 0})
    if rr.Code != http.StatusBadRequest { t.Fatalf("invalid bid: %d", rr.Code) }
    var prob Problem
    _ = json.Unmarshal(rr.Body.Bytes(), &prob)
    if prob.Type != problemValidation { t.Fatalf("problem type = %q", prob.Type) }
}

func TestSyncImportHTTP(t *testing.T) {
    gw := &fakeGateway{fetchRoutes: func(_ context.Context, from, to string) ([]provider.Route, error) {
        return []provider.Route{{RouteKey: "RK-1", Title: "Imported", Date: from, Orders: []provider.Order{
            {OrderNo: "ORD-1", Address: "1 Elm St", Lat: 40.1, Lng: -75.2},
        }}}, nil
    }}
    s, m, _ := newTestServer(t, gw)
    h := s.Routes()

    rr := doJSON(t, h, http.MethodPost, "/v1/sync/import", map[string]string{"date": "2025-06-02"})
    if rr.Code != 200 { t.Fatalf("import: %d %s", rr.Code, rr.Body.String()) }
    var res model.ImportResult
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if res.RoutesImported != 1 || res.StopsImported != 1 {
        t.Fatalf("import result: %+v", res)
    }
    if _, err := m.FindRouteByProviderKey(context.Background(), "RK-1"); err != nil {
        t.Fatalf("imported route missing: %v", err)
    }

    if rr := doJSON(t, h, http.MethodPost, "/v1/sync/import", map[string]string{"date": "06/02/2025"}); rr.Code != 400 {
        t.Fatalf("bad date: %d", rr.Code)
    }

    if rr := doJSON(t, h, http.MethodGet, "/v1/sync/runs", nil); rr.Code != 200 {
        t.Fatalf("runs: %d", rr.Code)
    }
}

func TestPlanningHTTP(t *testing.T) {
    gw := &fakeGateway{
        startPlan: func(_ context.Context, req provider.PlanningRequest) (string, error) { return "job-1", nil },
        planStatus: func(_ context.Context, id string) (provider.PlanningStatus, error) {
            return provider.PlanningStatus{Status: provider.PlanningRunning, PercentageComplete: 40}, nil
        },
        cancelPlan: func(_ context.Context, id string) error { return nil },
    }
    s, _, _ := newTestServer(t, gw)
    h := s.Routes()

    rr := doJSON(t, h, http.MethodPost, "/v1/planning", map[string]any{"date": "2025-06-02", "balancing": true, "balanceBy": "duration"})
    if rr.Code != http.StatusAccepted { t.Fatalf("start: %d %s", rr.Code, rr.Body.String()) }

    if rr := doJSON(t, h, http.MethodGet, "/v1/planning/job-1", nil); rr.Code != 200 { t.Fatalf("status: %d", rr.Code) }
    if rr := doJSON(t, h, http.MethodDelete, "/v1/planning/job-1", nil); rr.Code != http.StatusAccepted { t.Fatalf("cancel: %d", rr.Code) }

    if rr := doJSON(t, h, http.MethodPost, "/v1/planning", map[string]any{"balanceBy": "weight"}); rr.Code != 400 {
        t.Fatalf("invalid planning request: %d", rr.Code)
    }
}

func TestRouteLiveOverlay(t *testing.T) {
    s, m, cache := newTestServer(t, &fakeGateway{})
    h := s.Routes()
    ctx := context.Background()
    drv := m.AddDriver(model.Driver{Name: "Pat", Active: true})
    route, _ := m.CreateRoute(ctx, model.Route{Title: "r", Status: model.RouteInProgress, AssignedDriverID: drv.ID})
    stop, _ := m.CreateStop(ctx, model.RouteStop{RouteID: route.ID, Address: "1 Elm St"})
    _ = m.SetStopOrderNo(ctx, stop.ID, "ORD-9")

    _ = cache.Put(ctx, statuscache.Snapshot{
        Tag:     "t5",
        Drivers: map[string]string{"Pat": "in_progress"},
        Stops:   map[string]string{"ORD-9": "success"},
    })

    rr := doJSON(t, h, http.MethodGet, "/v1/routes/"+route.ID+"/live", nil)
    if rr.Code != 200 { t.Fatalf("live: %d %s", rr.Code, rr.Body.String()) }
    var res struct {
        Stops []struct {
            ID         string `json:"id"`
            LiveStatus string `json:"liveStatus"`
        } `json:"stops"`
        Live map[string]any `json:"live"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if len(res.Stops) != 1 || res.Stops[0].LiveStatus != "success" {
        t.Fatalf("stops: %+v", res.Stops)
    }
    if res.Live["driverStatus"] != "in_progress" || res.Live["completedStops"] != float64(1) {
        t.Fatalf("live: %+v", res.Live)
    }
}

func TestLiveEventsPassThrough(t *testing.T) {
    gw := &fakeGateway{pollEvents: func(_ context.Context, afterTag string) (provider.EventBatch, error) {
        if afterTag != "t3" { t.Fatalf("afterTag = %q", afterTag) }
        return provider.EventBatch{Tag: "t4"}, nil
    }}
    s, _, _ := newTestServer(t, gw)
    rr := doJSON(t, s.Routes(), http.MethodGet, "/v1/live/events?afterTag=t3", nil)
    if rr.Code != 200 { t.Fatalf("events: %d", rr.Code) }
}

func TestProviderErrorMapsToBadGateway(t *testing.T) {
    gw := &fakeGateway{pollEvents: func(_ context.Context, afterTag string) (provider.EventBatch, error) {
        return provider.EventBatch{}, &model.ProviderError{Op: "pollEvents", Status: 503}
    }}
    s, _, _ := newTestServer(t, gw)
    rr := doJSON(t, s.Routes(), http.MethodGet, "/v1/live/events", nil)
    if rr.Code != http.StatusBadGateway { t.Fatalf("provider error: %d", rr.Code) }
}

func TestCoverageGapsHTTP(t *testing.T) {
    s, m, _ := newTestServer(t, &fakeGateway{})
    m.AddServiceZone(model.ServiceZone{Name: "Empty", Active: true})
    rr := doJSON(t, s.Routes(), http.MethodGet, "/v1/coverage/gaps", nil)
    if rr.Code != 200 { t.Fatalf("gaps: %d", rr.Code) }
    var gaps model.CoverageGaps
    if err := json.Unmarshal(rr.Body.Bytes(), &gaps); err != nil { t.Fatalf("decode: %v", err) }
    if len(gaps.EmptyZones) != 1 { t.Fatalf("empty zones: %+v", gaps.EmptyZones) }
}

func TestSubscriptionsRBAC(t *testing.T) {
    s, _, _ := newTestServer(t, &fakeGateway{})
    h := s.Routes()

    req := httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
    req.Header.Set("X-Role", "driver")
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("driver list subs: %d", rr.Code) }

    rr2 := doJSON(t, h, http.MethodPost, "/v1/subscriptions", map[string]string{"eventType": "route.assigned", "url": "https://hooks.example/route"})
    if rr2.Code != http.StatusCreated { t.Fatalf("create sub: %d %s", rr2.Code, rr2.Body.String()) }
    var sub model.Subscription
    if err := json.Unmarshal(rr2.Body.Bytes(), &sub); err != nil { t.Fatalf("decode: %v", err) }

    req = httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil)
    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusNoContent { t.Fatalf("delete sub: %d", rr.Code) }
}

func TestDevBearerToken(t *testing.T) {
    s, _, _ := newTestServer(t, &fakeGateway{})
    req := httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
    req.Header.Set("Authorization", "Bearer driver:drv-1")
    rr := httptest.NewRecorder()
    s.Routes().ServeHTTP(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("driver token: %d", rr.Code) }
}
