package provider

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "routesync/internal/model"
)

func newTestClient(h http.HandlerFunc) (*Client, *httptest.Server) {
    srv := httptest.NewServer(h)
    c := NewClient(srv.URL, "test-key", 2*time.Second, 100)
    return c, srv
}

func TestFetchRoutesDecodesAndSendsKey(t *testing.T) {
    var gotKey, gotFrom string
    c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
        gotKey = r.Header.Get("X-Api-Key")
        gotFrom = r.URL.Query().Get("from")
        _ = json.NewEncoder(w).Encode([]Route{{
            RouteKey: "prv-1", Title: "Monday North", Date: "2025-06-02",
            Orders: []Order{{OrderNo: "ord-9", Address: "12 Elm St", Lat: 41.1, Lng: -73.2}},
        }})
    })
    defer srv.Close()

    routes, err := c.FetchRoutes(context.Background(), "2025-06-02", "2025-06-03")
    if err != nil {
        t.Fatalf("fetch: %v", err)
    }
    if gotKey != "test-key" {
        t.Errorf("api key header = %q", gotKey)
    }
    if gotFrom != "2025-06-02" {
        t.Errorf("from = %q", gotFrom)
    }
    if len(routes) != 1 || routes[0].RouteKey != "prv-1" || len(routes[0].Orders) != 1 {
        t.Fatalf("unexpected routes: %+v", routes)
    }
}

func TestNon2xxIsProviderErrorWithStatus(t *testing.T) {
    c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "nope", http.StatusBadGateway)
    })
    defer srv.Close()

    _, err := c.FetchRoutes(context.Background(), "2025-06-02", "2025-06-03")
    var pe *model.ProviderError
    if !errors.As(err, &pe) {
        t.Fatalf("want ProviderError, got %T: %v", err, err)
    }
    if pe.Status != http.StatusBadGateway || pe.Op != "fetch_routes" {
        t.Errorf("pe = %+v", pe)
    }
}

func TestMalformedBodyIsProviderError(t *testing.T) {
    c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte("{not json"))
    })
    defer srv.Close()

    _, err := c.PollEvents(context.Background(), "")
    var pe *model.ProviderError
    if !errors.As(err, &pe) {
        t.Fatalf("want ProviderError, got %v", err)
    }
    if pe.Status != 0 || pe.Err == nil {
        t.Errorf("decode failure should carry wrapped error, got %+v", pe)
    }
}

func TestUpsertRouteRequiresKeyInResponse(t *testing.T) {
    c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
        _ = json.NewEncoder(w).Encode(map[string]string{})
    })
    defer srv.Close()

    _, err := c.UpsertRoute(context.Background(), RouteUpsert{Title: "t", Date: "2025-06-02"})
    var pe *model.ProviderError
    if !errors.As(err, &pe) {
        t.Fatalf("want ProviderError for missing routeKey, got %v", err)
    }
}

func TestPollEventsOmitsEmptyTag(t *testing.T) {
    var raw string
    c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
        raw = r.URL.RawQuery
        _ = json.NewEncoder(w).Encode(EventBatch{Tag: "t-1"})
    })
    defer srv.Close()

    batch, err := c.PollEvents(context.Background(), "")
    if err != nil {
        t.Fatalf("poll: %v", err)
    }
    if raw != "" {
        t.Errorf("expected no query params, got %q", raw)
    }
    if batch.Tag != "t-1" {
        t.Errorf("tag = %q", batch.Tag)
    }
}

func TestPlanningStateTerminal(t *testing.T) {
    for _, s := range []PlanningState{PlanningFinished, PlanningError, PlanningCancelled} {
        if !s.Terminal() {
            t.Errorf("%s should be terminal", s)
        }
    }
    if PlanningRunning.Terminal() {
        t.Error("Running is not terminal")
    }
}
