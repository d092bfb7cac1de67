package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStore represents graph store load/persist errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeIngestion represents article ingestion errors
	ErrorTypeIngestion ErrorType = "ingestion"
	// ErrorTypeSchema represents schema violations
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeTagger represents POS tagger errors
	ErrorTypeTagger ErrorType = "tagger"
	// ErrorTypeExtraction represents entity extractor errors
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// errorType lets IsErrorType see through the typed wrappers below.
func (e *BaseError) errorType() ErrorType {
	return e.Type
}

type typed interface {
	errorType() ErrorType
}

// Store Errors

// ErrCorruptStore is returned when a snapshot exists but cannot be parsed or
// fails integrity checks. The process must not start on a partial graph.
type ErrCorruptStore struct {
	*BaseError
	Path string
}

func NewCorruptStore(path, reason string, err error) *ErrCorruptStore {
	return &ErrCorruptStore{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("corrupt graph snapshot %s: %s", path, reason), err),
		Path:      path,
	}
}

// ErrStoreUnreadable is returned when the snapshot exists but cannot be read at all.
type ErrStoreUnreadable struct {
	*BaseError
	Path string
}

func NewStoreUnreadable(path string, err error) *ErrStoreUnreadable {
	return &ErrStoreUnreadable{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("cannot read graph snapshot: %s", path), err),
		Path:      path,
	}
}

// ErrPersistence is returned when writing the snapshot fails after the
// in-memory graph was already updated. Retrying Persist is enough to recover.
type ErrPersistence struct {
	*BaseError
	Path string
}

func NewPersistence(path string, err error) *ErrPersistence {
	return &ErrPersistence{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to persist graph snapshot: %s", path), err),
		Path:      path,
	}
}

// ErrNodeNotFound is returned when a node id is not present in the store
type ErrNodeNotFound struct {
	*BaseError
	ID string
}

func NewNodeNotFound(id string) *ErrNodeNotFound {
	return &ErrNodeNotFound{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("node not found: %s", id), nil),
		ID:        id,
	}
}

// Schema Errors

// ErrSchemaViolation is returned when a node or edge does not fit the schema
type ErrSchemaViolation struct {
	*BaseError
	Kind   string
	Reason string
}

func NewSchemaViolation(kind, reason string) *ErrSchemaViolation {
	return &ErrSchemaViolation{
		BaseError: NewBaseError(ErrorTypeSchema, fmt.Sprintf("schema violation on %s: %s", kind, reason), nil),
		Kind:      kind,
		Reason:    reason,
	}
}

// Ingestion Errors

// ErrMissingSource is returned when an article has no usable source label.
// No article is created and nothing is persisted.
var ErrMissingSource = NewBaseError(ErrorTypeIngestion, "article has no usable source label", nil)

// ErrMissingText is returned when an article has no text
var ErrMissingText = NewBaseError(ErrorTypeIngestion, "article text is required", nil)

// Tagger Errors

// ErrModelNotLoaded is returned by every tagging call when the model failed to load
type ErrModelNotLoaded struct {
	*BaseError
	Path string
}

func NewModelNotLoaded(path string, err error) *ErrModelNotLoaded {
	return &ErrModelNotLoaded{
		BaseError: NewBaseError(ErrorTypeTagger, fmt.Sprintf("POS tagger model is not loaded (%s); check server startup logs", path), err),
		Path:      path,
	}
}

// Extraction Errors

// ErrExtractionFailed is returned when an extractor cannot produce mentions
type ErrExtractionFailed struct {
	*BaseError
	Extractor string
}

func NewExtractionFailed(extractor, reason string, err error) *ErrExtractionFailed {
	return &ErrExtractionFailed{
		BaseError: NewBaseError(ErrorTypeExtraction, fmt.Sprintf("%s extractor failed: %s", extractor, reason), err),
		Extractor: extractor,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if t, ok := err.(typed); ok {
		return t.errorType() == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// IsRetryable checks if an error is retryable.
// Only snapshot writes are: the in-memory graph is already correct.
func IsRetryable(err error) bool {
	for err != nil {
		if _, ok := err.(*ErrPersistence); ok {
			return true
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}
