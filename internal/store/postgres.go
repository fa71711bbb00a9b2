package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "routesync/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

// MigrateDir applies every .sql file in dir in lexical order.
func (p *Postgres) MigrateDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil { return err }
    var files []string
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { files = append(files, e.Name()) }
    }
    sort.Strings(files)
    for _, f := range files {
        raw, err := os.ReadFile(filepath.Join(dir, f))
        if err != nil { return err }
        if _, err := p.db.Exec(string(raw)); err != nil { return fmt.Errorf("migrate %s: %w", f, err) }
    }
    return nil
}

// Ping reports backend reachability for readiness checks.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

const routeCols = `id::text, title, to_char(scheduled_date,'YYYY-MM-DD'), route_type, status,
    COALESCE(service_zone_id::text,''), base_pay, actual_pay, payment_status,
    COALESCE(assigned_driver_id::text,''), COALESCE(accepted_bid_id::text,''),
    COALESCE(provider_route_key,''), provider_synced, provider_synced_at, source,
    stop_count, completed_stop_count, created_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanRoute(row rowScanner) (model.Route, error) {
    var r model.Route
    var syncedAt sql.NullTime
    err := row.Scan(&r.ID, &r.Title, &r.ScheduledDate, &r.RouteType, &r.Status,
        &r.ServiceZoneID, &r.BasePay, &r.ActualPay, &r.PaymentStatus,
        &r.AssignedDriverID, &r.AcceptedBidID,
        &r.ProviderRouteKey, &r.ProviderSynced, &syncedAt, &r.Source,
        &r.StopCount, &r.CompletedStopCount, &r.CreatedAt)
    if err != nil { return r, err }
    if syncedAt.Valid { t := syncedAt.Time; r.ProviderSyncedAt = &t }
    return r, nil
}

func (p *Postgres) CreateRoute(ctx context.Context, r model.Route) (model.Route, error) {
    if r.ID == "" { r.ID = uuid.NewString() }
    if r.Status == "" { r.Status = model.RouteDraft }
    if r.RouteType == "" { r.RouteType = model.RouteTypeRecurring }
    if r.PaymentStatus == "" { r.PaymentStatus = model.PaymentUnpaid }
    if r.Source == "" { r.Source = "local" }
    _, err := p.db.ExecContext(ctx, `INSERT INTO routes
        (id, title, scheduled_date, route_type, status, service_zone_id, base_pay, actual_pay,
         payment_status, assigned_driver_id, provider_route_key, provider_synced, source)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
        r.ID, r.Title, r.ScheduledDate, r.RouteType, r.Status, nullIfEmpty(r.ServiceZoneID),
        r.BasePay, r.ActualPay, r.PaymentStatus, nullIfEmpty(r.AssignedDriverID),
        nullIfEmpty(r.ProviderRouteKey), r.ProviderSynced, r.Source)
    if err != nil { return model.Route{}, err }
    return p.GetRoute(ctx, r.ID)
}

func (p *Postgres) GetRoute(ctx context.Context, id string) (model.Route, error) {
    row := p.db.QueryRowContext(ctx, `SELECT `+routeCols+` FROM routes WHERE id=$1`, id)
    r, err := scanRoute(row)
    if errors.Is(err, sql.ErrNoRows) { return model.Route{}, ErrNotFound }
    return r, err
}

func (p *Postgres) ListRoutes(ctx context.Context, status, date, cursor string, limit int) ([]model.Route, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    where := []string{"TRUE"}
    args := []any{}
    if status != "" {
        args = append(args, status)
        where = append(where, fmt.Sprintf("status=$%d", len(args)))
    }
    if date != "" {
        args = append(args, date)
        where = append(where, fmt.Sprintf("scheduled_date=$%d::date", len(args)))
    }
    if cursor != "" {
        args = append(args, cursor)
        where = append(where, fmt.Sprintf("id::text > $%d", len(args)))
    }
    args = append(args, limit)
    q := `SELECT ` + routeCols + ` FROM routes WHERE ` + strings.Join(where, " AND ") +
        fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Route{}
    var last string
    for rows.Next() {
        r, err := scanRoute(rows)
        if err != nil { return nil, "", err }
        out = append(out, r)
        last = r.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) FindRouteByProviderKey(ctx context.Context, key string) (model.Route, error) {
    row := p.db.QueryRowContext(ctx, `SELECT `+routeCols+` FROM routes WHERE provider_route_key=$1`, key)
    r, err := scanRoute(row)
    if errors.Is(err, sql.ErrNoRows) { return model.Route{}, ErrNotFound }
    return r, err
}

func (p *Postgres) SetRouteProviderKey(ctx context.Context, id, key string) error {
    res, err := p.db.ExecContext(ctx, `UPDATE routes SET provider_route_key=$1 WHERE id=$2`, key, id)
    if err != nil { return err }
    return expectOne(res)
}

func (p *Postgres) MarkRouteSynced(ctx context.Context, id string, synced bool) error {
    var res sql.Result
    var err error
    if synced {
        res, err = p.db.ExecContext(ctx, `UPDATE routes SET provider_synced=TRUE, provider_synced_at=now() WHERE id=$1`, id)
    } else {
        res, err = p.db.ExecContext(ctx, `UPDATE routes SET provider_synced=FALSE WHERE id=$1`, id)
    }
    if err != nil { return err }
    return expectOne(res)
}

// TransitionRoute applies a status compare-and-set in a single UPDATE so
// concurrent callers cannot both move the same route.
func (p *Postgres) TransitionRoute(ctx context.Context, id string, from []model.RouteStatus, to model.RouteStatus) (model.Route, error) {
    row := p.db.QueryRowContext(ctx, `UPDATE routes SET status=$1 WHERE id=$2 AND status IN (`+statusList(from)+`) RETURNING `+routeCols, to, id)
    r, err := scanRoute(row)
    if errors.Is(err, sql.ErrNoRows) { return model.Route{}, p.routeConflict(ctx, id, from) }
    return r, err
}

// AcceptBid is the exclusive-assignment compare-and-set: the UPDATE commits
// for exactly one of two racing callers, the other sees zero rows.
func (p *Postgres) AcceptBid(ctx context.Context, routeID, bidID, driverID string, actualPay float64) (model.Route, error) {
    row := p.db.QueryRowContext(ctx, `UPDATE routes
        SET status=$1, accepted_bid_id=$2, assigned_driver_id=$3, actual_pay=$4
        WHERE id=$5 AND status IN (`+statusList(mustBeBiddable())+`) RETURNING `+routeCols,
        model.RouteAssigned, bidID, driverID, actualPay, routeID)
    r, err := scanRoute(row)
    if errors.Is(err, sql.ErrNoRows) { return model.Route{}, p.routeConflict(ctx, routeID, mustBeBiddable()) }
    return r, err
}

// routeConflict distinguishes a missing route from one in the wrong state.
func (p *Postgres) routeConflict(ctx context.Context, id string, wanted []model.RouteStatus) error {
    var cur string
    err := p.db.QueryRowContext(ctx, `SELECT status FROM routes WHERE id=$1`, id).Scan(&cur)
    if errors.Is(err, sql.ErrNoRows) { return ErrNotFound }
    if err != nil { return err }
    return model.Conflict("route is %s, expected one of %s", cur, statusNames(wanted))
}

func (p *Postgres) CreateStop(ctx context.Context, s model.RouteStop) (model.RouteStop, error) {
    if s.ID == "" { s.ID = uuid.NewString() }
    if s.Status == "" { s.Status = model.StopPending }
    if s.OrderType == "" { s.OrderType = model.OrderRecurring }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return model.RouteStop{}, err }
    defer func() { _ = tx.Rollback() }()
    if s.StopNumber == 0 {
        err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(stop_number),0)+1 FROM route_stops WHERE route_id=$1`, s.RouteID).Scan(&s.StopNumber)
        if err != nil { return model.RouteStop{}, err }
    }
    _, err = tx.ExecContext(ctx, `INSERT INTO route_stops
        (id, route_id, property_id, address, lat, lng, order_type, provider_order_no, stop_number, status, needs_review)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
        s.ID, s.RouteID, nullIfEmpty(s.PropertyID), s.Address, s.Lat, s.Lng, s.OrderType,
        nullIfEmpty(s.ProviderOrderNo), s.StopNumber, s.Status, s.NeedsReview)
    if err != nil { return model.RouteStop{}, err }
    _, err = tx.ExecContext(ctx, `UPDATE routes SET stop_count=stop_count+1 WHERE id=$1`, s.RouteID)
    if err != nil { return model.RouteStop{}, err }
    if err := tx.Commit(); err != nil { return model.RouteStop{}, err }
    return s, nil
}

const stopCols = `id::text, route_id::text, COALESCE(property_id::text,''), address, lat, lng,
    order_type, COALESCE(provider_order_no,''), stop_number, status, needs_review`

func scanStop(row rowScanner) (model.RouteStop, error) {
    var s model.RouteStop
    err := row.Scan(&s.ID, &s.RouteID, &s.PropertyID, &s.Address, &s.Lat, &s.Lng,
        &s.OrderType, &s.ProviderOrderNo, &s.StopNumber, &s.Status, &s.NeedsReview)
    return s, err
}

func (p *Postgres) ListStops(ctx context.Context, routeID string) ([]model.RouteStop, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT `+stopCols+` FROM route_stops WHERE route_id=$1 ORDER BY stop_number`, routeID)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.RouteStop{}
    for rows.Next() {
        s, err := scanStop(rows)
        if err != nil { return nil, err }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) FindStopByOrderNo(ctx context.Context, orderNo string) (model.RouteStop, error) {
    row := p.db.QueryRowContext(ctx, `SELECT `+stopCols+` FROM route_stops WHERE provider_order_no=$1`, orderNo)
    s, err := scanStop(row)
    if errors.Is(err, sql.ErrNoRows) { return model.RouteStop{}, ErrNotFound }
    return s, err
}

func (p *Postgres) SetStopOrderNo(ctx context.Context, stopID, orderNo string) error {
    res, err := p.db.ExecContext(ctx, `UPDATE route_stops SET provider_order_no=$1 WHERE id=$2`, orderNo, stopID)
    if err != nil { return err }
    return expectOne(res)
}

// CreateBid inserts the bid and flips an open route to bidding in the same
// transaction; a route outside open/bidding rejects the insert.
func (p *Postgres) CreateBid(ctx context.Context, b model.Bid) (model.Bid, error) {
    if b.ID == "" { b.ID = uuid.NewString() }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return model.Bid{}, err }
    defer func() { _ = tx.Rollback() }()
    res, err := tx.ExecContext(ctx, `UPDATE routes SET status=$1 WHERE id=$2 AND status IN (`+statusList(mustBeBiddable())+`)`,
        model.RouteBidding, b.RouteID)
    if err != nil { return model.Bid{}, err }
    if n, _ := res.RowsAffected(); n == 0 { return model.Bid{}, p.routeConflict(ctx, b.RouteID, mustBeBiddable()) }
    err = tx.QueryRowContext(ctx, `INSERT INTO bids (id, route_id, driver_id, amount, message, driver_rating_at_bid)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
        b.ID, b.RouteID, b.DriverID, b.Amount, b.Message, b.DriverRatingAtBid).Scan(&b.CreatedAt)
    if err != nil { return model.Bid{}, err }
    if err := tx.Commit(); err != nil { return model.Bid{}, err }
    return b, nil
}

const bidCols = `id::text, route_id::text, driver_id::text, amount, message, driver_rating_at_bid, created_at`

func scanBid(row rowScanner) (model.Bid, error) {
    var b model.Bid
    err := row.Scan(&b.ID, &b.RouteID, &b.DriverID, &b.Amount, &b.Message, &b.DriverRatingAtBid, &b.CreatedAt)
    return b, err
}

func (p *Postgres) GetBid(ctx context.Context, id string) (model.Bid, error) {
    row := p.db.QueryRowContext(ctx, `SELECT `+bidCols+` FROM bids WHERE id=$1`, id)
    b, err := scanBid(row)
    if errors.Is(err, sql.ErrNoRows) { return model.Bid{}, ErrNotFound }
    return b, err
}

func (p *Postgres) ListBids(ctx context.Context, routeID string) ([]model.Bid, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT `+bidCols+` FROM bids WHERE route_id=$1 ORDER BY created_at`, routeID)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Bid{}
    for rows.Next() {
        b, err := scanBid(rows)
        if err != nil { return nil, err }
        out = append(out, b)
    }
    return out, rows.Err()
}

func (p *Postgres) GetDriver(ctx context.Context, id string) (model.Driver, error) {
    var d model.Driver
    row := p.db.QueryRowContext(ctx, `SELECT id::text, name, rating, active, COALESCE(service_zone_id::text,'') FROM drivers WHERE id=$1`, id)
    err := row.Scan(&d.ID, &d.Name, &d.Rating, &d.Active, &d.ServiceZoneID)
    if errors.Is(err, sql.ErrNoRows) { return model.Driver{}, ErrNotFound }
    return d, err
}

const propertyCols = `id::text, address, lat, lng, status, COALESCE(service_zone_id::text,''), COALESCE(pickup_day,'')`

func scanProperty(row rowScanner) (model.Property, error) {
    var pr model.Property
    err := row.Scan(&pr.ID, &pr.Address, &pr.Lat, &pr.Lng, &pr.Status, &pr.ServiceZoneID, &pr.PickupDay)
    return pr, err
}

// MatchProperty finds an approved property by case-insensitive address or
// coordinates within roughly thirty meters.
func (p *Postgres) MatchProperty(ctx context.Context, address string, lat, lng float64) (model.Property, error) {
    row := p.db.QueryRowContext(ctx, `SELECT `+propertyCols+` FROM properties
        WHERE status='approved' AND (lower(address)=lower($1) OR (abs(lat-$2) < 0.0003 AND abs(lng-$3) < 0.0003))
        ORDER BY lower(address)=lower($1) DESC LIMIT 1`, address, lat, lng)
    pr, err := scanProperty(row)
    if errors.Is(err, sql.ErrNoRows) { return model.Property{}, ErrNotFound }
    return pr, err
}

func (p *Postgres) ListApprovedProperties(ctx context.Context) ([]model.Property, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT `+propertyCols+` FROM properties WHERE status='approved' ORDER BY id`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Property{}
    for rows.Next() {
        pr, err := scanProperty(rows)
        if err != nil { return nil, err }
        out = append(out, pr)
    }
    return out, rows.Err()
}

func (p *Postgres) SetPropertyPickupDay(ctx context.Context, propertyID, day string) error {
    res, err := p.db.ExecContext(ctx, `UPDATE properties SET pickup_day=$1 WHERE id=$2`, day, propertyID)
    if err != nil { return err }
    return expectOne(res)
}

func (p *Postgres) UnassignedProperties(ctx context.Context, adminZoneID string) ([]model.Property, error) {
    // Unassigned properties belong to no service zone, so the admin zone
    // filter cannot narrow them further.
    _ = adminZoneID
    rows, err := p.db.QueryContext(ctx, `SELECT `+propertyCols+` FROM properties
        WHERE status='approved' AND service_zone_id IS NULL ORDER BY id`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Property{}
    for rows.Next() {
        pr, err := scanProperty(rows)
        if err != nil { return nil, err }
        out = append(out, pr)
    }
    return out, rows.Err()
}

func (p *Postgres) ZoneStaffing(ctx context.Context, adminZoneID string) ([]model.ZoneStaffing, error) {
    q := `SELECT z.id::text, z.name, COALESCE(z.admin_zone_id::text,''), z.active,
        (SELECT COUNT(*) FROM drivers d WHERE d.service_zone_id=z.id AND d.active),
        (SELECT COUNT(*) FROM properties pr WHERE pr.service_zone_id=z.id AND pr.status='approved')
        FROM service_zones z WHERE z.active`
    args := []any{}
    if adminZoneID != "" {
        q += ` AND z.admin_zone_id=$1`
        args = append(args, adminZoneID)
    }
    q += ` ORDER BY z.name`
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.ZoneStaffing{}
    for rows.Next() {
        var zs model.ZoneStaffing
        if err := rows.Scan(&zs.Zone.ID, &zs.Zone.Name, &zs.Zone.AdminZoneID, &zs.Zone.Active, &zs.ActiveDrivers, &zs.Properties); err != nil { return nil, err }
        out = append(out, zs)
    }
    return out, rows.Err()
}

func (p *Postgres) RecordSyncRun(ctx context.Context, run model.SyncRun) (model.SyncRun, error) {
    if run.ID == "" { run.ID = uuid.NewString() }
    _, err := p.db.ExecContext(ctx, `INSERT INTO sync_runs (id, operation, actor, started_at, finished_at, counts, errors)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`,
        run.ID, run.Operation, run.Actor, run.StartedAt, run.FinishedAt, toJSON(run.Counts), toJSON(run.Errors))
    if err != nil { return model.SyncRun{}, err }
    return run, nil
}

func (p *Postgres) ListSyncRuns(ctx context.Context, cursor string, limit int) ([]model.SyncRun, string, error) {
    if limit <= 0 || limit > 500 { limit = 50 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, operation, actor, started_at, finished_at, counts, errors
            FROM sync_runs WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, operation, actor, started_at, finished_at, counts, errors
            FROM sync_runs ORDER BY id LIMIT $1`, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.SyncRun{}
    var last string
    for rows.Next() {
        var run model.SyncRun
        var counts, errsRaw []byte
        if err := rows.Scan(&run.ID, &run.Operation, &run.Actor, &run.StartedAt, &run.FinishedAt, &counts, &errsRaw); err != nil { return nil, "", err }
        _ = json.Unmarshal(counts, &run.Counts)
        _ = json.Unmarshal(errsRaw, &run.Errors)
        out = append(out, run)
        last = run.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, sub model.Subscription) (model.Subscription, error) {
    if sub.ID == "" { sub.ID = uuid.NewString() }
    err := p.db.QueryRowContext(ctx, `INSERT INTO webhook_subscriptions (id, event_type, url, secret)
        VALUES ($1,$2,$3,$4) RETURNING created_at`, sub.ID, sub.EventType, sub.URL, sub.Secret).Scan(&sub.CreatedAt)
    if err != nil { return model.Subscription{}, err }
    return sub, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, event_type, url, secret, created_at FROM webhook_subscriptions ORDER BY created_at`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        if err := rows.Scan(&s.ID, &s.EventType, &s.URL, &s.Secret, &s.CreatedAt); err != nil { return nil, err }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM webhook_subscriptions WHERE id=$1`, id)
    if err != nil { return err }
    return expectOne(res)
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, event_type, url, secret, created_at FROM webhook_subscriptions WHERE event_type=$1`, eventType)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        if err := rows.Scan(&s.ID, &s.EventType, &s.URL, &s.Secret, &s.CreatedAt); err != nil { return nil, err }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.NewString()
    _, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload)
        VALUES ($1,$2,$3,$4,$5,$6)`, id, subscriptionID, eventType, url, secret, payload)
    if err != nil { return "", err }
    return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    if limit <= 0 { limit = 50 }
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, subscription_id::text, event_type, url, secret, payload, status, attempts
        FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now()
        ORDER BY next_attempt_at LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil { return nil, err }
        out = append(out, d)
    }
    return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
    if success {
        _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries
            SET status='delivered', attempts=attempts+1, last_error='', response_code=$2, latency_ms=$3, updated_at=now()
            WHERE id=$1`, id, responseCode, latencyMs)
        return err
    }
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries
        SET status='retry', attempts=attempts+1, next_attempt_at=$2, last_error=$3, response_code=$4, latency_ms=$5, updated_at=now()
        WHERE id=$1`, id, nextAttemptAt, lastError, responseCode, latencyMs)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries
        SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4, updated_at=now()
        WHERE id=$1`, id, lastError, responseCode, latencyMs)
    return err
}

// helpers

func nullIfEmpty(s string) any {
    if s == "" { return nil }
    return s
}

func toJSON(v any) []byte {
    if v == nil { return []byte("null") }
    b, err := json.Marshal(v)
    if err != nil { return []byte("null") }
    return b
}

func expectOne(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil { return err }
    if n == 0 { return ErrNotFound }
    return nil
}

// statusList renders a status set as quoted SQL literals. Statuses are
// internal constants, never user input.
func statusList(ss []model.RouteStatus) string {
    parts := make([]string, len(ss))
    for i, s := range ss { parts[i] = "'" + string(s) + "'" }
    return strings.Join(parts, ",")
}

func statusNames(ss []model.RouteStatus) string {
    parts := make([]string, len(ss))
    for i, s := range ss { parts[i] = string(s) }
    return strings.Join(parts, "/")
}

func mustBeBiddable() []model.RouteStatus {
    return []model.RouteStatus{model.RouteOpen, model.RouteBidding}
}
