package api

import (
    "encoding/json"
    "errors"
    "net/http"

    "routesync/internal/model"
    "routesync/internal/store"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
    Type     string `json:"type"`
    Title    string `json:"title"`
    Status   int    `json:"status"`
    Detail   string `json:"detail,omitempty"`
    Instance string `json:"instance,omitempty"`
}

// Problem types let clients tell a lost race apart from a bad request
// without parsing detail strings.
const (
    problemGeneric       = "about:blank"
    problemValidation    = "urn:routesync:validation"
    problemStateConflict = "urn:routesync:state-conflict"
    problemProvider      = "urn:routesync:provider"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
    writeTypedProblem(w, problemGeneric, status, title, detail, instance)
}

func writeTypedProblem(w http.ResponseWriter, ptype string, status int, title, detail, instance string) {
    writeJSON(w, status, Problem{
        Type:     ptype,
        Title:    title,
        Status:   status,
        Detail:   detail,
        Instance: instance,
    })
}

// writeError maps the typed errors produced by the engines onto problem
// responses. Anything unclassified is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
    var ve *model.ValidationError
    var nf *model.NotFoundError
    var sc *model.StateConflictError
    var pe *model.ProviderError
    switch {
    case errors.As(err, &ve):
        writeTypedProblem(w, problemValidation, http.StatusBadRequest, "Invalid request", ve.Detail, r.URL.Path)
    case errors.As(err, &nf):
        writeProblem(w, http.StatusNotFound, "Not Found", nf.Error(), r.URL.Path)
    case errors.Is(err, store.ErrNotFound):
        writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), r.URL.Path)
    case errors.As(err, &sc):
        writeTypedProblem(w, problemStateConflict, http.StatusConflict, "State conflict", sc.Detail, r.URL.Path)
    case errors.As(err, &pe):
        writeTypedProblem(w, problemProvider, http.StatusBadGateway, "Provider error", pe.Error(), r.URL.Path)
    default:
        writeProblem(w, http.StatusInternalServerError, "Internal error", err.Error(), r.URL.Path)
    }
}
