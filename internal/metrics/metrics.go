package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // SyncOperations counts import/push/detect runs by outcome
    SyncOperations = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "sync_operations_total", Help: "Sync engine runs by operation and result."},
        []string{"operation", "result"},
    )
    // SyncItems counts per-item outcomes inside aggregate sync runs
    SyncItems = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "sync_items_total", Help: "Per-item sync outcomes by operation."},
        []string{"operation", "outcome"},
    )

    // ProviderRequests counts upstream calls by operation and status code
    ProviderRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "provider_requests_total", Help: "Provider API calls by operation and HTTP status."},
        []string{"op", "code"},
    )
    // ProviderLatency tracks upstream call latencies in seconds
    ProviderLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "provider_request_duration_seconds", Help: "Provider API call duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"op"},
    )

    // BidAcceptances counts accept attempts: won, conflict, error
    BidAcceptances = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "bid_acceptances_total", Help: "Bid acceptance attempts by result."},
        []string{"result"},
    )

    // WebhookDeliveries counts webhook delivery outcomes by event type and status
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
        []string{"event_type", "status"},
    )
    // WebhookLatency tracks webhook delivery latencies in milliseconds
    WebhookLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
        []string{"event_type", "status"},
    )
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
    regOnce.Do(func() {
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(SyncOperations)
        Registry.MustRegister(SyncItems)
        Registry.MustRegister(ProviderRequests)
        Registry.MustRegister(ProviderLatency)
        Registry.MustRegister(BidAcceptances)
        Registry.MustRegister(WebhookDeliveries)
        Registry.MustRegister(WebhookLatency)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
