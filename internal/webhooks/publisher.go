// Package webhooks delivers outbound event notifications to registered
// subscriber endpoints. Events: route.assigned, sync.completed,
// planning.finished.
package webhooks

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "routesync/internal/store"
)

type Publisher struct {
    Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
    return &Publisher{Store: s}
}

// Emit enqueues one delivery per subscription registered for the event
// type. Delivery is asynchronous; failures here are silent because the
// worker retries from the queue.
func (p *Publisher) Emit(ctx context.Context, eventType string, data any) {
    subs, err := p.Store.GetSubscriptionsForEvent(ctx, eventType)
    if err != nil || len(subs) == 0 {
        return
    }
    payload := map[string]any{
        "id":   fmt.Sprintf("evt_%d", time.Now().UnixNano()),
        "type": eventType,
        "ts":   time.Now().UTC().Format(time.RFC3339),
        "data": data,
    }
    body, _ := json.Marshal(payload)
    for _, s := range subs {
        _, _ = p.Store.EnqueueWebhook(ctx, s.ID, eventType, s.URL, s.Secret, body)
    }
}
