package api

import (
    "fmt"
    "net/http"
)

// SyncImportHandler handles POST /v1/sync/import
func (s *Server) SyncImportHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    var req importRequest
    if err := decodeValid(r, &req); err != nil {
        writeError(w, r, err)
        return
    }
    from, to := req.From, req.To
    if req.Date != "" {
        from, to = req.Date, req.Date
    }
    res, err := s.Sync.ImportRange(r.Context(), s.actor(r), from, to)
    if err != nil {
        writeError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, res)
}

// SyncPickupDaysHandler handles POST /v1/sync/pickup-days
func (s *Server) SyncPickupDaysHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    res, err := s.Sync.DetectPickupDays(r.Context(), s.actor(r))
    if err != nil {
        writeError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, res)
}

// SyncRunsHandler handles GET /v1/sync/runs
func (s *Server) SyncRunsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    cursor := r.URL.Query().Get("cursor")
    limit := 50
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListSyncRuns(r.Context(), cursor, limit)
    if err != nil {
        writeError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}
