package graph

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsgraph/backend/pkg/logger"
)

// WarningCode identifies a non-fatal condition reported next to a result.
type WarningCode string

const (
	// WarningMissingName is reported when a resolve call gets a blank name
	WarningMissingName WarningCode = "missing_name"
	// WarningUnknownEntityType is reported when an extractor tag is not a known entity kind
	WarningUnknownEntityType WarningCode = "unknown_entity_type"
)

// Warning is a non-fatal condition. It never replaces a result.
type Warning struct {
	Code    WarningCode `json:"code"`
	Kind    Kind        `json:"kind,omitempty"`
	Name    string      `json:"name,omitempty"`
	Tag     string      `json:"tag,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// MissingNameWarning builds the warning for a blank name.
func MissingNameWarning(kind Kind) Warning {
	return Warning{
		Code:    WarningMissingName,
		Kind:    kind,
		Message: fmt.Sprintf("attempted to find or create %s with an empty name", kind),
	}
}

// UnknownEntityTypeWarning builds the warning for an unrecognized extractor tag.
func UnknownEntityTypeWarning(name, tag string) Warning {
	return Warning{
		Code:    WarningUnknownEntityType,
		Name:    name,
		Tag:     tag,
		Message: fmt.Sprintf("unknown entity type %q for %q, skipping", tag, name),
	}
}

// Resolution is the outcome of a resolve call. Node is nil exactly when
// Warning is set.
type Resolution struct {
	Node    *Node
	Created bool
	Warning *Warning
}

// Resolver is the single place Entity, Category and NewsSource nodes are
// created: at most one node exists per (kind, name).
type Resolver struct {
	store  *Store
	logger *zap.Logger
}

// NewResolver creates a resolver over store
func NewResolver(store *Store) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger.Named("graph.resolver"),
	}
}

// Resolve returns the existing node of kind named name, creating it if needed.
// A blank name produces no node and a MissingName warning; an error is only
// returned when kind cannot be resolved by name or the store rejects the node.
func (r *Resolver) Resolve(kind Kind, name string) (Resolution, error) {
	if strings.TrimSpace(name) == "" {
		w := MissingNameWarning(kind)
		r.logger.Warn("Resolve called with empty name", zap.String("kind", string(kind)))
		return Resolution{Warning: &w}, nil
	}

	n, created, err := r.store.FindOrInsert(kind, name)
	if err != nil {
		return Resolution{}, err
	}

	if created {
		r.logger.Debug("Created node",
			zap.String("kind", string(kind)),
			zap.String("name", name),
			zap.String("id", n.ID),
		)
	}
	return Resolution{Node: n, Created: created}, nil
}
