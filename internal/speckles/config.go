// Package speckles generates speckled path data with a known answer and
// drives a running despeckle server with it.
package speckles

import "time"

// Config holds configuration for a bench run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumPaths   int           // Number of paths to generate
	MaxBlobs   int           // Upper bound of large contours per path
	MaxSpecks  int           // Upper bound of small contours per path
	Area       float64       // Threshold sent with every request
	Segments   int           // Segment count sent with every request
	Seed       uint64        // Generator seed; equal seeds give equal cases
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated cases
	Verbose    bool          // Enable verbose logging
}

// Case is one generated path and the outcome the server must produce.
type Case struct {
	ID     string `json:"id"`
	D      string `json:"d"`
	Blobs  int    `json:"blobs"`
	Specks int    `json:"specks"`
}

// PathRequest is the body of POST /v1/paths.
type PathRequest struct {
	D        string  `json:"d"`
	Area     float64 `json:"area"`
	Segments int     `json:"segments"`
}

// PathResponse is the body returned by POST /v1/paths.
type PathResponse struct {
	Status  string `json:"status"`
	D       string `json:"d"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
}

// Stats holds bench statistics.
type Stats struct {
	PathsGenerated int
	PathsSubmitted int
	PathsVerified  int
	PathsFailed    int
	Mismatches     int
	DocumentNodes  int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
