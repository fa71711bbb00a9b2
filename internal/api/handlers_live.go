package api

import "net/http"

// LiveEventsHandler handles GET /v1/live/events, a pass-through to the
// provider event feed for operators who want the raw stream.
func (s *Server) LiveEventsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    batch, err := s.Gateway.PollEvents(r.Context(), r.URL.Query().Get("afterTag"))
    if err != nil {
        writeError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, batch)
}

// CoverageGapsHandler handles GET /v1/coverage/gaps
func (s *Server) CoverageGapsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    gaps, err := s.Coverage.Gaps(r.Context(), r.URL.Query().Get("adminZoneId"))
    if err != nil {
        writeError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, gaps)
}
