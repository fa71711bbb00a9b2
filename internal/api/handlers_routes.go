package api

import (
    "fmt"
    "net/http"
    "strings"

    "routesync/internal/livestatus"
    "routesync/internal/model"
)

// RoutesIndexHandler handles GET /v1/routes
func (s *Server) RoutesIndexHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/routes" { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    status := r.URL.Query().Get("status")
    date := r.URL.Query().Get("date")
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListRoutes(r.Context(), status, date, cursor, limit)
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// RouteByIDHandler handles /v1/routes/{id} and its subresources:
// push, publish, cancel, status, live, bids, bids/{bidId}/accept.
func (s *Server) RouteByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/routes/")
    if rest == r.URL.Path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]

    if len(parts) == 1 {
        if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
        route, err := s.Store.GetRoute(r.Context(), id)
        if err != nil { writeError(w, r, err); return }
        stops, err := s.Store.ListStops(r.Context(), id)
        if err != nil { writeError(w, r, err); return }
        writeJSON(w, http.StatusOK, map[string]any{"route": route, "stops": stops})
        return
    }

    switch parts[1] {
    case "push":
        s.routePush(w, r, id)
    case "publish":
        s.routePublish(w, r, id)
    case "cancel":
        s.routeCancel(w, r, id)
    case "status":
        s.routeStatus(w, r, id)
    case "live":
        s.routeLive(w, r, id)
    case "bids":
        s.routeBids(w, r, id, parts[1:])
    default:
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
    }
}

func (s *Server) routePush(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p := s.getPrincipal(r)
    if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    res, err := s.Sync.PushRoute(r.Context(), s.actor(r), id)
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, res)
}

func (s *Server) routePublish(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p := s.getPrincipal(r)
    if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    route, err := s.Bids.Publish(r.Context(), s.actor(r), id)
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, route)
}

func (s *Server) routeCancel(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p := s.getPrincipal(r)
    if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    route, err := s.Bids.Cancel(r.Context(), s.actor(r), id)
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, route)
}

func (s *Server) routeStatus(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p := s.getPrincipal(r)
    if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    var req struct {
        Status string `json:"status"`
    }
    if err := decodeValid(r, &req); err != nil { writeError(w, r, err); return }
    to, err := model.ParseRouteStatus(req.Status)
    if err != nil { writeError(w, r, err); return }
    route, err := s.Bids.Transition(r.Context(), s.actor(r), id, to)
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, route)
}

// routeLive merges the persisted route with the freshest live-status
// snapshot. Live values win; nothing here is written back to the store.
func (s *Server) routeLive(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    route, err := s.Store.GetRoute(r.Context(), id)
    if err != nil { writeError(w, r, err); return }
    stops, err := s.Store.ListStops(r.Context(), id)
    if err != nil { writeError(w, r, err); return }

    snap, ok, err := s.Cache.Get(r.Context())
    if err != nil {
        s.Log.Warn().Err(err).Msg("live snapshot read failed")
    }

    type liveStop struct {
        model.RouteStop
        LiveStatus string `json:"liveStatus,omitempty"`
    }
    out := make([]liveStop, 0, len(stops))
    completed := route.CompletedStopCount
    liveDone := 0
    driverStatus := ""
    if ok {
        for _, st := range stops {
            ls := liveStop{RouteStop: st}
            if st.ProviderOrderNo != "" {
                ls.LiveStatus = snap.Stops[st.ProviderOrderNo]
                if livestatus.StopDone(ls.LiveStatus) {
                    liveDone++
                }
            }
            out = append(out, ls)
        }
        if liveDone > completed {
            completed = liveDone
        }
        if route.AssignedDriverID != "" {
            if drv, err := s.Store.GetDriver(r.Context(), route.AssignedDriverID); err == nil {
                driverStatus = snap.Drivers[drv.Name]
            }
        }
    } else {
        for _, st := range stops {
            out = append(out, liveStop{RouteStop: st})
        }
    }

    live := map[string]any{"completedStops": completed}
    if ok {
        live["tag"] = snap.Tag
        live["updatedAt"] = snap.UpdatedAt
        if driverStatus != "" {
            live["driverStatus"] = driverStatus
        }
    }
    writeJSON(w, http.StatusOK, map[string]any{"route": route, "stops": out, "live": live})
}

func (s *Server) routeBids(w http.ResponseWriter, r *http.Request, id string, parts []string) {
    // parts is ["bids"] or ["bids", {bidId}, "accept"]
    if len(parts) == 1 {
        switch r.Method {
        case http.MethodGet:
            items, err := s.Store.ListBids(r.Context(), id)
            if err != nil { writeError(w, r, err); return }
            writeJSON(w, http.StatusOK, map[string]any{"items": items})
        case http.MethodPost:
            var req bidRequest
            if err := decodeValid(r, &req); err != nil { writeError(w, r, err); return }
            bid, err := s.Bids.SubmitBid(r.Context(), s.actor(r), id, req.DriverID, req.BidAmount, req.Message)
            if err != nil { writeError(w, r, err); return }
            writeJSON(w, http.StatusCreated, bid)
        default:
            w.WriteHeader(http.StatusMethodNotAllowed)
        }
        return
    }
    if len(parts) == 3 && parts[2] == "accept" {
        if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
        p := s.getPrincipal(r)
        if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
        route, err := s.Bids.AcceptBid(r.Context(), s.actor(r), id, parts[1])
        if err != nil { writeError(w, r, err); return }
        writeJSON(w, http.StatusOK, route)
        return
    }
    writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
}
