package statuscache

import (
    "context"
    "encoding/json"
    "time"

    redis "github.com/redis/go-redis/v9"
)

const snapshotKey = "livestatus:snapshot"

// Redis stores the snapshot as a single JSON value with a TTL, so multiple
// API instances share one projection and stale data expires on its own.
type Redis struct {
    rdb *redis.Client
    ttl time.Duration
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, err }
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }
    return &Redis{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (r *Redis) Put(ctx context.Context, snap Snapshot) error {
    if snap.UpdatedAt.IsZero() {
        snap.UpdatedAt = time.Now().UTC()
    }
    data, err := json.Marshal(snap)
    if err != nil { return err }
    return r.rdb.Set(ctx, snapshotKey, data, r.ttl).Err()
}

func (r *Redis) Get(ctx context.Context) (Snapshot, bool, error) {
    data, err := r.rdb.Get(ctx, snapshotKey).Bytes()
    if err == redis.Nil {
        return Snapshot{}, false, nil
    }
    if err != nil {
        return Snapshot{}, false, err
    }
    var snap Snapshot
    if err := json.Unmarshal(data, &snap); err != nil {
        return Snapshot{}, false, err
    }
    return snap, true, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
