package common

import (
	"errors"
)

// Common error constants
var (
	// ErrRunInProgress is returned when a harvest run is attempted while another holds the run lock
	ErrRunInProgress = errors.New("harvest run already in progress")

	// ErrMissingAPIKey is returned when the summarization client is created without credentials
	ErrMissingAPIKey = errors.New("summarization API key is not configured")

	// ErrInvalidConfig is returned when an invalid configuration is provided
	ErrInvalidConfig = errors.New("invalid configuration")
)
