package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/despeckle/internal/adapters/overlay"
	"github.com/okian/despeckle/internal/domain/purge"
)

// NodeError records a node that could not be filtered. The node is left
// untouched in the document.
type NodeError struct {
	Node string // element id, or "#<worklist index>" for elements without one
	Err  error
}

func (e NodeError) Error() string { return fmt.Sprintf("node %s: %v", e.Node, e.Err) }
func (e NodeError) Unwrap() error { return e.Err }

// NodeDiagnostics holds the debug diagnostics of one node.
type NodeDiagnostics struct {
	Node     string
	Contours []purge.Diagnostic
}

// Report summarizes one document run.
type Report struct {
	Nodes            int
	Replaced         int
	Removed          int
	Kept             int
	Dropped          int
	DegenerateCurves int
	Failed           []NodeError
	Missing          []string // selected ids that matched no element

	// Diagnostics is filled in debug mode only.
	Diagnostics []NodeDiagnostics
}

// Err joins the node failures, or returns nil when every node succeeded.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Shapes returns the polygon approximations of every diagnosed contour for
// the overlay renderer.
func (r *Report) Shapes() []overlay.Shape {
	var shapes []overlay.Shape
	for _, nd := range r.Diagnostics {
		for _, c := range nd.Contours {
			shapes = append(shapes, overlay.Shape{Ring: c.Polygon, Kept: c.Kept})
		}
	}
	return shapes
}

func nodeName(id string, index int) string {
	if id != "" {
		return id
	}
	return "#" + strconv.Itoa(index)
}
