package provider

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "time"

    "golang.org/x/time/rate"

    "routesync/internal/metrics"
    "routesync/internal/model"
)

// Client implements API against the provider's REST surface. Every call is
// bounded by the client timeout and throttled by a shared rate limiter so a
// burst of sync work cannot trip the provider's quota.
type Client struct {
    baseURL string
    apiKey  string
    http    *http.Client
    limiter *rate.Limiter
}

func NewClient(baseURL, apiKey string, timeout time.Duration, rps int) *Client {
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    if rps <= 0 {
        rps = 5
    }
    return &Client{
        baseURL: baseURL,
        apiKey:  apiKey,
        http:    &http.Client{Timeout: timeout},
        limiter: rate.NewLimiter(rate.Limit(rps), rps),
    }
}

func (c *Client) FetchRoutes(ctx context.Context, from, to string) ([]Route, error) {
    q := url.Values{"from": {from}, "to": {to}}
    var out []Route
    if err := c.do(ctx, "fetch_routes", http.MethodGet, "/api/routes", q, nil, &out); err != nil {
        return nil, err
    }
    return out, nil
}

func (c *Client) UpsertRoute(ctx context.Context, in RouteUpsert) (string, error) {
    var out struct {
        RouteKey string `json:"routeKey"`
    }
    if err := c.do(ctx, "upsert_route", http.MethodPost, "/api/routes", nil, in, &out); err != nil {
        return "", err
    }
    if out.RouteKey == "" {
        return "", &model.ProviderError{Op: "upsert_route", Err: fmt.Errorf("response missing routeKey")}
    }
    return out.RouteKey, nil
}

func (c *Client) CreateOrder(ctx context.Context, routeKey string, in OrderCreate) (string, error) {
    var out struct {
        OrderNo string `json:"orderNo"`
    }
    path := "/api/routes/" + url.PathEscape(routeKey) + "/orders"
    if err := c.do(ctx, "create_order", http.MethodPost, path, nil, in, &out); err != nil {
        return "", err
    }
    if out.OrderNo == "" {
        return "", &model.ProviderError{Op: "create_order", Err: fmt.Errorf("response missing orderNo")}
    }
    return out.OrderNo, nil
}

func (c *Client) OrderHistory(ctx context.Context, since string) ([]HistoryOrder, error) {
    q := url.Values{"since": {since}}
    var out []HistoryOrder
    if err := c.do(ctx, "order_history", http.MethodGet, "/api/orders/history", q, nil, &out); err != nil {
        return nil, err
    }
    return out, nil
}

func (c *Client) StartPlanning(ctx context.Context, req PlanningRequest) (string, error) {
    var out struct {
        PlanningID string `json:"planningId"`
    }
    if err := c.do(ctx, "start_planning", http.MethodPost, "/api/planning", nil, req, &out); err != nil {
        return "", err
    }
    if out.PlanningID == "" {
        return "", &model.ProviderError{Op: "start_planning", Err: fmt.Errorf("response missing planningId")}
    }
    return out.PlanningID, nil
}

func (c *Client) PlanningStatus(ctx context.Context, planningID string) (PlanningStatus, error) {
    var out PlanningStatus
    path := "/api/planning/" + url.PathEscape(planningID)
    if err := c.do(ctx, "planning_status", http.MethodGet, path, nil, nil, &out); err != nil {
        return PlanningStatus{}, err
    }
    return out, nil
}

func (c *Client) CancelPlanning(ctx context.Context, planningID string) error {
    path := "/api/planning/" + url.PathEscape(planningID)
    return c.do(ctx, "cancel_planning", http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) PollEvents(ctx context.Context, afterTag string) (EventBatch, error) {
    q := url.Values{}
    if afterTag != "" {
        q.Set("afterTag", afterTag)
    }
    var out EventBatch
    if err := c.do(ctx, "poll_events", http.MethodGet, "/api/events", q, nil, &out); err != nil {
        return EventBatch{}, err
    }
    return out, nil
}

// do performs one provider call. Non-2xx statuses and undecodable bodies
// both surface as *model.ProviderError carrying the operation name.
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body, out any) error {
    if err := c.limiter.Wait(ctx); err != nil {
        return &model.ProviderError{Op: op, Err: err}
    }
    u := c.baseURL + path
    if len(q) > 0 {
        u += "?" + q.Encode()
    }
    var rdr io.Reader
    if body != nil {
        raw, err := json.Marshal(body)
        if err != nil {
            return &model.ProviderError{Op: op, Err: err}
        }
        rdr = bytes.NewReader(raw)
    }
    req, err := http.NewRequestWithContext(ctx, method, u, rdr)
    if err != nil {
        return &model.ProviderError{Op: op, Err: err}
    }
    if body != nil {
        req.Header.Set("Content-Type", "application/json")
    }
    if c.apiKey != "" {
        req.Header.Set("X-Api-Key", c.apiKey)
    }
    start := time.Now()
    resp, err := c.http.Do(req)
    metrics.ProviderLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
    if err != nil {
        metrics.ProviderRequests.WithLabelValues(op, "0").Inc()
        return &model.ProviderError{Op: op, Err: err}
    }
    defer func() { _ = resp.Body.Close() }()
    metrics.ProviderRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        // drain a little so keep-alive connections can be reused
        _, _ = io.CopyN(io.Discard, resp.Body, 4096)
        return &model.ProviderError{Op: op, Status: resp.StatusCode}
    }
    if out == nil {
        return nil
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return &model.ProviderError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
    }
    return nil
}
