package api

import (
    "net/http"
    "strings"

    "routesync/internal/provider"
)

// PlanningHandler handles POST /v1/planning
func (s *Server) PlanningHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
    var req planningRequest
    if err := decodeValid(r, &req); err != nil {
        writeError(w, r, err)
        return
    }
    id, err := s.Planning.Start(r.Context(), provider.PlanningRequest{
        Date:       req.Date,
        Balancing:  req.Balancing,
        BalanceBy:  req.BalanceBy,
        StartWith:  req.StartWith,
        Clustering: req.Clustering,
    })
    if err != nil {
        writeError(w, r, err)
        return
    }
    writeJSON(w, http.StatusAccepted, map[string]string{"planningId": id})
}

// PlanningByIDHandler handles GET/DELETE /v1/planning/{id}
func (s *Server) PlanningByIDHandler(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/v1/planning/")
    if id == "" || strings.Contains(id, "/") {
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        return
    }
    switch r.Method {
    case http.MethodGet:
        st, err := s.Planning.Status(r.Context(), id)
        if err != nil { writeError(w, r, err); return }
        writeJSON(w, http.StatusOK, st)
    case http.MethodDelete:
        p := s.getPrincipal(r)
        if !isDispatcher(p) { writeProblem(w, 403, "Forbidden", "dispatcher or admin required", r.URL.Path); return }
        if err := s.Planning.Cancel(r.Context(), id); err != nil { writeError(w, r, err); return }
        writeJSON(w, http.StatusAccepted, map[string]bool{"cancelled": true})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}
