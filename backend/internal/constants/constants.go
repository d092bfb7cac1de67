package constants

import "time"

// Ingestion constants
const (
	// MaxBatchSize is the maximum number of articles accepted in one batch request
	MaxBatchSize = 100

	// MirrorTimeout bounds how long one article may take to reach the mirror
	MirrorTimeout = 10 * time.Second
)

// LLM constants
const (
	// LLMMaxRetries is the number of attempts made for one chat completion
	LLMMaxRetries = 3
)

// POS tagger constants
const (
	// DefaultPOSModelVersion is reported for models saved without a version
	DefaultPOSModelVersion = "sinhala_pos_v1.0"
)
