package svgdoc

import "errors"

// Sentinel kinds for document errors.
var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrNodeDetached      = errors.New("node is not attached to a document")
)
