package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/despeckle/internal/domain/purge"
)

// Response statuses for a filtered path.
const (
	statusReplaced = "replaced"
	statusRemoved  = "removed"
)

// pathRequest mirrors the OpenAPI schema for POST /v1/paths.
type pathRequest struct {
	D        string   `json:"d"`
	Area     *float64 `json:"area,omitempty"`
	Segments *int     `json:"segments,omitempty"`
	Debug    *bool    `json:"debug,omitempty"`
}

func (r pathRequest) options() []purge.Option {
	var opts []purge.Option
	if r.Area != nil {
		opts = append(opts, purge.WithArea(*r.Area))
	}
	if r.Segments != nil {
		opts = append(opts, purge.WithSegments(*r.Segments))
	}
	if r.Debug != nil {
		opts = append(opts, purge.WithDebug(*r.Debug))
	}
	return opts
}

type contourResponse struct {
	Index   int     `json:"index"`
	Area    float64 `json:"area"`
	Kept    bool    `json:"kept"`
	Overlay string  `json:"overlay"`
}

type pathResponse struct {
	Status           string            `json:"status"`
	D                string            `json:"d"`
	Kept             int               `json:"kept"`
	Dropped          int               `json:"dropped"`
	DegenerateCurves int               `json:"degenerateCurves,omitempty"`
	Contours         []contourResponse `json:"contours,omitempty"`
}

func newPathResponse(res purge.Result) pathResponse {
	out := pathResponse{
		Status:           statusReplaced,
		D:                res.Data,
		Kept:             res.Kept,
		Dropped:          res.Dropped,
		DegenerateCurves: res.DegenerateCurves,
	}
	if res.Remove {
		out.Status = statusRemoved
	}
	for _, c := range res.Contours {
		out.Contours = append(out.Contours, contourResponse{
			Index:   c.Index,
			Area:    c.Area,
			Kept:    c.Kept,
			Overlay: c.Overlay,
		})
	}
	return out
}

// PathsHandler filters single paths.
type PathsHandler struct {
	deps Dependencies
}

// NewPathsHandler creates a new paths handler.
func NewPathsHandler(deps Dependencies) *PathsHandler {
	return &PathsHandler{deps: deps}
}

// HandleFilterPath handles POST /v1/paths requests.
func (h *PathsHandler) HandleFilterPath(w http.ResponseWriter, r *http.Request) {
	const op = "api.filter_path"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req pathRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeKind(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.FilterPath(r.Context(), req.D, req.options()...)
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newPathResponse(res))
}
