package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/despeckle/internal/adapters/svgdoc"
	service "github.com/okian/despeckle/internal/app"
	"github.com/okian/despeckle/internal/domain/purge"
)

// Report is the per-document summary returned by Dependencies.
type Report = service.Report

// Response headers summarizing a document run.
const (
	HeaderNodes    = "X-Despeckle-Nodes"
	HeaderReplaced = "X-Despeckle-Replaced"
	HeaderRemoved  = "X-Despeckle-Removed"
	HeaderFailed   = "X-Despeckle-Failed"
	HeaderKept     = "X-Despeckle-Contours-Kept"
	HeaderDropped  = "X-Despeckle-Contours-Dropped"
	HeaderMissing  = "X-Despeckle-Missing"
)

// DocumentsHandler filters whole SVG documents.
type DocumentsHandler struct {
	deps Dependencies
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(deps Dependencies) *DocumentsHandler {
	return &DocumentsHandler{deps: deps}
}

// HandleFilterDocument handles POST /v1/documents requests. The body is an
// SVG document; repeatable id query parameters restrict the scope, and area
// and segments override the filter defaults.
func (h *DocumentsHandler) HandleFilterDocument(w http.ResponseWriter, r *http.Request) {
	const op = "api.filter_document"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	q := r.URL.Query()
	opts, err := queryOptions(q.Get("area"), q.Get("segments"))
	if err != nil {
		writeKind(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	doc, err := svgdoc.Parse(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeKind(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	rep, err := h.deps.ProcessDocument(r.Context(), doc, q["id"], opts...)
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "image/svg+xml")
	hdr.Set(HeaderNodes, strconv.Itoa(rep.Nodes))
	hdr.Set(HeaderReplaced, strconv.Itoa(rep.Replaced))
	hdr.Set(HeaderRemoved, strconv.Itoa(rep.Removed))
	hdr.Set(HeaderFailed, strconv.Itoa(len(rep.Failed)))
	hdr.Set(HeaderKept, strconv.Itoa(rep.Kept))
	hdr.Set(HeaderDropped, strconv.Itoa(rep.Dropped))
	if len(rep.Missing) > 0 {
		hdr.Set(HeaderMissing, strings.Join(rep.Missing, ","))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = doc.WriteTo(w)
}

func queryOptions(area, segments string) ([]purge.Option, error) {
	var opts []purge.Option
	if area != "" {
		v, err := strconv.ParseFloat(area, 64)
		if err != nil {
			return nil, err
		}
		opts = append(opts, purge.WithArea(v))
	}
	if segments != "" {
		v, err := strconv.Atoi(segments)
		if err != nil {
			return nil, err
		}
		opts = append(opts, purge.WithSegments(v))
	}
	return opts, nil
}
