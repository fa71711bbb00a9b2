package webhooks

import (
    "context"
    "net/http"
    "net/http/httptest"
    "sync"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "routesync/internal/store"
)

type recordStore struct {
    *store.Memory
    mu    sync.Mutex
    marks []markRec
    fails []failRec
}
type markRec struct {
    ID      string
    Success bool
    Code    int
    LastErr string
}
type failRec struct {
    ID      string
    Code    int
    LastErr string
}

func (r *recordStore) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    r.mu.Lock()
    r.marks = append(r.marks, markRec{ID: id, Success: success, Code: responseCode, LastErr: lastError})
    r.mu.Unlock()
    return r.Memory.MarkWebhookDelivery(ctx, id, success, nextAttemptAt, lastError, responseCode, latencyMs)
}
func (r *recordStore) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    r.mu.Lock()
    r.fails = append(r.fails, failRec{ID: id, Code: responseCode, LastErr: lastError})
    r.mu.Unlock()
    return r.Memory.FailWebhookDelivery(ctx, id, lastError, responseCode, latencyMs)
}

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
    var gotSig, gotType string
    var gotBody []byte
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotSig = r.Header.Get("X-Signature")
        gotType = r.Header.Get("X-Event-Type")
        buf := make([]byte, r.ContentLength)
        _, _ = r.Body.Read(buf)
        gotBody = buf
        w.WriteHeader(200)
    }))
    defer srv.Close()

    rs := &recordStore{Memory: store.NewMemory()}
    w := &Worker{Store: rs, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 3, Log: zerolog.Nop()}
    id, err := rs.Memory.EnqueueWebhook(context.Background(), "sub1", "route.assigned", srv.URL, "secret", []byte(`{"id":"evt1"}`))
    if err != nil || id == "" {
        t.Fatalf("enqueue failed: %v", err)
    }

    w.processOnce()

    if gotType != "route.assigned" {
        t.Fatalf("event type header = %q", gotType)
    }
    if !VerifyHMAC("secret", gotBody, gotSig) {
        t.Fatalf("signature did not verify: sig=%q body=%q", gotSig, gotBody)
    }
    if len(rs.marks) == 0 || !rs.marks[0].Success {
        t.Fatalf("expected mark success, got: %+v", rs.marks)
    }
}

func TestWorkerProcessOnce_FailDeadLetters(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }))
    defer srv.Close()
    rs := &recordStore{Memory: store.NewMemory()}
    w := &Worker{Store: rs, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 1, Log: zerolog.Nop()}
    _, _ = rs.Memory.EnqueueWebhook(context.Background(), "sub1", "sync.completed", srv.URL, "", []byte(`{}`))
    w.processOnce()
    if len(rs.fails) == 0 {
        t.Fatalf("expected dead-letter after max attempts")
    }
}

func TestNextBackoffCapped(t *testing.T) {
    if nextBackoff(0) != time.Second {
        t.Errorf("first retry = %v", nextBackoff(0))
    }
    if nextBackoff(3) != 8*time.Second {
        t.Errorf("fourth retry = %v", nextBackoff(3))
    }
    if nextBackoff(11) != 2048*time.Second {
        t.Errorf("twelfth retry = %v", nextBackoff(11))
    }
    if nextBackoff(12) != time.Hour {
        t.Errorf("backoff past ceiling = %v", nextBackoff(12))
    }
    if nextBackoff(20) != time.Hour {
        t.Errorf("backoff not capped: %v", nextBackoff(20))
    }
}
