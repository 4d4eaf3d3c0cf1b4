package speckles

import (
	"errors"
	"fmt"
)

// ErrMismatch reports a server answer that differs from the expected one.
var ErrMismatch = errors.New("unexpected filter result")

// Verify checks a path response against the case it was generated from:
// every blob kept, every speck dropped, and removal when no blob exists.
func Verify(c Case, got PathResponse) error {
	want := "replaced"
	if c.Blobs == 0 {
		want = "removed"
	}
	switch {
	case got.Status != want:
		return fmt.Errorf("%w: case %s: status %q, want %q", ErrMismatch, c.ID, got.Status, want)
	case got.Kept != c.Blobs:
		return fmt.Errorf("%w: case %s: kept %d contours, want %d", ErrMismatch, c.ID, got.Kept, c.Blobs)
	case got.Dropped != c.Specks:
		return fmt.Errorf("%w: case %s: dropped %d contours, want %d", ErrMismatch, c.ID, got.Dropped, c.Specks)
	case c.Blobs == 0 && got.D != "":
		return fmt.Errorf("%w: case %s: removed path carries data", ErrMismatch, c.ID)
	}
	return nil
}

// VerifyDocument checks a document summary against the cases it was
// rendered from.
func VerifyDocument(cases []Case, got DocumentSummary) error {
	var removed int
	for _, c := range cases {
		if c.Blobs == 0 {
			removed++
		}
	}
	switch {
	case got.Nodes != len(cases):
		return fmt.Errorf("%w: document: %d nodes, want %d", ErrMismatch, got.Nodes, len(cases))
	case got.Failed != 0:
		return fmt.Errorf("%w: document: %d nodes failed", ErrMismatch, got.Failed)
	case got.Removed != removed:
		return fmt.Errorf("%w: document: %d nodes removed, want %d", ErrMismatch, got.Removed, removed)
	case got.Replaced != len(cases)-removed:
		return fmt.Errorf("%w: document: %d nodes replaced, want %d", ErrMismatch, got.Replaced, len(cases)-removed)
	}
	return nil
}
