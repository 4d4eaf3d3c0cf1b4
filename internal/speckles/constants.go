package speckles

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	ProgressInterval     = time.Second
	PercentageMultiplier = 100
)

// Shape sizing relative to the area threshold. Specks stay below
// speckFraction of the threshold and blobs exceed blobFactor times it for
// any segment count.
const (
	speckFraction = 0.7
	blobFactor    = 4.0

	// circleKappa places cubic control points for a quarter circle.
	circleKappa = 0.5522847498

	// canvas is the side of the square the shapes are scattered over.
	canvas = 1000.0
)
