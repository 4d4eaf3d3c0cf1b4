// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/despeckle/internal/domain/purge"
)

// Job asks for the path data of one node to be filtered.
type Job struct {
	ID       string         // unique id, used to correlate logs and outcomes
	Node     int            // worklist index of the path-bearing node
	Data     string         // raw path data of the node
	Filter   *purge.Filter  // filter to apply; nil means the worker default
	Reply    chan<- Outcome // receives exactly one Outcome
	Enqueued time.Time
}

// NewJob creates a Job with a fresh id.
func NewJob(node int, data string, f *purge.Filter, reply chan<- Outcome) Job {
	return Job{
		ID:       uuid.NewString(),
		Node:     node,
		Data:     data,
		Filter:   f,
		Reply:    reply,
		Enqueued: time.Now(),
	}
}

// Outcome is the result of processing one Job.
type Outcome struct {
	JobID    string
	Node     int
	Result   purge.Result
	Err      error
	Duration time.Duration
}

// Failed reports whether the job could not be processed.
func (o Outcome) Failed() bool { return o.Err != nil }
