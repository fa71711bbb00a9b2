package statuscache

import (
    "context"
    "testing"
    "time"
)

func TestMemoryPutGet(t *testing.T) {
    c := NewMemory(time.Minute)
    ctx := context.Background()

    if _, ok, err := c.Get(ctx); err != nil || ok {
        t.Fatalf("empty cache: ok=%v err=%v", ok, err)
    }

    snap := Snapshot{Tag: "t1", Drivers: map[string]string{"D1": "in_progress"}, Stops: map[string]string{"ORD1": "success"}}
    if err := c.Put(ctx, snap); err != nil {
        t.Fatalf("put: %v", err)
    }
    got, ok, err := c.Get(ctx)
    if err != nil || !ok {
        t.Fatalf("get: ok=%v err=%v", ok, err)
    }
    if got.Tag != "t1" || got.Drivers["D1"] != "in_progress" || got.Stops["ORD1"] != "success" {
        t.Fatalf("snapshot mismatch: %+v", got)
    }
    if got.UpdatedAt.IsZero() {
        t.Fatal("UpdatedAt should be stamped on Put")
    }
}

func TestMemoryTTLExpiry(t *testing.T) {
    c := NewMemory(10 * time.Millisecond)
    ctx := context.Background()
    if err := c.Put(ctx, Snapshot{Tag: "t1", UpdatedAt: time.Now().Add(-time.Second)}); err != nil {
        t.Fatalf("put: %v", err)
    }
    if _, ok, _ := c.Get(ctx); ok {
        t.Fatal("stale snapshot should not be returned")
    }
}
