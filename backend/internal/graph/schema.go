package graph

import (
	"fmt"

	apperrors "newsgraph/backend/pkg/errors"
)

// ============================================================================
// Schema
// ============================================================================

// Kind is the closed set of node types.
type Kind string

const (
	KindArticle      Kind = "Article"
	KindEntity       Kind = "Entity"
	KindPerson       Kind = "Person"
	KindOrganization Kind = "Organization"
	KindLocation     Kind = "Location"
	KindNewsSource   Kind = "NewsSource"
	KindCategory     Kind = "Category"
)

// Property names
const (
	PropTitle        = "title"
	PropSourceLabel  = "sourceLabel"
	PropFullText     = "fullText"
	PropTimestamp    = "timestamp"
	PropEntityName   = "entityName"
	PropCategoryName = "categoryName"
)

// EdgeKind names a directed, typed relationship.
type EdgeKind string

const (
	EdgePublishedBy EdgeKind = "publishedBy"
	EdgeHasCategory EdgeKind = "hasCategory"
	EdgeMentions    EdgeKind = "mentions"
)

// Cardinality constrains how many values a property or edge may hold.
type Cardinality int

const (
	// ZeroOrOne allows an absent value or a single one
	ZeroOrOne Cardinality = iota
	// ExactlyOne requires a single value
	ExactlyOne
	// Many allows any number of distinct values
	Many
)

func (c Cardinality) String() string {
	switch c {
	case ZeroOrOne:
		return "zero-or-one"
	case ExactlyOne:
		return "exactly-one"
	case Many:
		return "zero-or-many"
	}
	return fmt.Sprintf("cardinality(%d)", int(c))
}

func (c Cardinality) allows(n int) bool {
	switch c {
	case ZeroOrOne:
		return n <= 1
	case ExactlyOne:
		return n == 1
	case Many:
		return true
	}
	return false
}

// KindSpec describes one node kind. Entity subkinds share the resolvable-by-name
// contract through ResolvableByName and UniqueName, not through inheritance.
type KindSpec struct {
	Kind Kind
	// Abstract kinds group others and are never instantiated
	Abstract bool
	// ResolvableByName kinds are created only through the resolver
	ResolvableByName bool
	// UniqueName is the property holding the dedup key, empty if none
	UniqueName string
	// Tag is the identifier fragment used in generated ids
	Tag string
	// EntityLike kinds may be targets of mentions and carry the :Entity label
	EntityLike bool
}

// PropertySpec describes a data property.
type PropertySpec struct {
	Name        string
	Owners      []Kind
	Cardinality Cardinality
}

// EdgeSpec describes an object property.
type EdgeSpec struct {
	Name        EdgeKind
	Source      Kind
	Targets     []Kind
	Cardinality Cardinality
}

var kindSpecs = map[Kind]KindSpec{
	KindArticle:      {Kind: KindArticle, Tag: "article"},
	KindEntity:       {Kind: KindEntity, Abstract: true, UniqueName: PropEntityName, Tag: "Entity", EntityLike: true},
	KindPerson:       {Kind: KindPerson, ResolvableByName: true, UniqueName: PropEntityName, Tag: "Person", EntityLike: true},
	KindOrganization: {Kind: KindOrganization, ResolvableByName: true, UniqueName: PropEntityName, Tag: "Organization", EntityLike: true},
	KindLocation:     {Kind: KindLocation, ResolvableByName: true, UniqueName: PropEntityName, Tag: "Location", EntityLike: true},
	KindNewsSource:   {Kind: KindNewsSource, ResolvableByName: true, UniqueName: PropEntityName, Tag: "NewsSource", EntityLike: true},
	KindCategory:     {Kind: KindCategory, ResolvableByName: true, UniqueName: PropCategoryName, Tag: "Category"},
}

var entityKinds = []Kind{KindPerson, KindOrganization, KindLocation, KindNewsSource}

var propertySpecs = map[string]PropertySpec{
	PropTitle:        {Name: PropTitle, Owners: []Kind{KindArticle}, Cardinality: ZeroOrOne},
	PropSourceLabel:  {Name: PropSourceLabel, Owners: []Kind{KindArticle}, Cardinality: ZeroOrOne},
	PropFullText:     {Name: PropFullText, Owners: []Kind{KindArticle}, Cardinality: ZeroOrOne},
	PropTimestamp:    {Name: PropTimestamp, Owners: []Kind{KindArticle}, Cardinality: ZeroOrOne},
	PropEntityName:   {Name: PropEntityName, Owners: entityKinds, Cardinality: ExactlyOne},
	PropCategoryName: {Name: PropCategoryName, Owners: []Kind{KindCategory}, Cardinality: ExactlyOne},
}

var edgeSpecs = map[EdgeKind]EdgeSpec{
	EdgePublishedBy: {Name: EdgePublishedBy, Source: KindArticle, Targets: []Kind{KindNewsSource}, Cardinality: ExactlyOne},
	EdgeHasCategory: {Name: EdgeHasCategory, Source: KindArticle, Targets: []Kind{KindCategory}, Cardinality: ZeroOrOne},
	EdgeMentions:    {Name: EdgeMentions, Source: KindArticle, Targets: entityKinds, Cardinality: Many},
}

// entityTypeTags maps extractor type tags to entity subkinds.
var entityTypeTags = map[string]Kind{
	"Person":       KindPerson,
	"Organization": KindOrganization,
	"Location":     KindLocation,
}

// Spec returns the schema entry for a kind.
func Spec(kind Kind) (KindSpec, bool) {
	spec, ok := kindSpecs[kind]
	return spec, ok
}

// Property returns the schema entry for a property.
func Property(name string) (PropertySpec, bool) {
	spec, ok := propertySpecs[name]
	return spec, ok
}

// Edge returns the schema entry for an edge kind.
func Edge(name EdgeKind) (EdgeSpec, bool) {
	spec, ok := edgeSpecs[name]
	return spec, ok
}

// Kinds returns every concrete (instantiable) kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindArticle, KindPerson, KindOrganization, KindLocation, KindNewsSource, KindCategory}
}

// EntityKindForTag maps an extractor type tag to an entity subkind.
func EntityKindForTag(tag string) (Kind, bool) {
	kind, ok := entityTypeTags[tag]
	return kind, ok
}

// IsValid returns true if the kind is part of the schema.
func (k Kind) IsValid() bool {
	_, ok := kindSpecs[k]
	return ok
}

func (s PropertySpec) ownedBy(kind Kind) bool {
	return containsKind(s.Owners, kind)
}

func (s EdgeSpec) accepts(kind Kind) bool {
	return containsKind(s.Targets, kind)
}

func containsKind(kinds []Kind, kind Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// validateNode checks a node's kind and properties against the schema.
// Edges are checked separately because their targets live in the store.
func validateNode(n *Node) error {
	spec, ok := kindSpecs[n.Kind]
	if !ok {
		return apperrors.NewSchemaViolation(string(n.Kind), "unknown node kind")
	}
	if spec.Abstract {
		return apperrors.NewSchemaViolation(string(n.Kind), "abstract kind cannot be instantiated")
	}

	for name, values := range n.Properties {
		prop, ok := propertySpecs[name]
		if !ok {
			return apperrors.NewSchemaViolation(string(n.Kind), fmt.Sprintf("unknown property %q", name))
		}
		if !prop.ownedBy(n.Kind) {
			return apperrors.NewSchemaViolation(string(n.Kind), fmt.Sprintf("property %q not allowed", name))
		}
		if !prop.Cardinality.allows(len(values)) {
			return apperrors.NewSchemaViolation(string(n.Kind),
				fmt.Sprintf("property %q has %d values, want %s", name, len(values), prop.Cardinality))
		}
	}

	// ExactlyOne properties must be present even when absent from the map
	for _, prop := range propertySpecs {
		if prop.Cardinality == ExactlyOne && prop.ownedBy(n.Kind) && len(n.Properties[prop.Name]) != 1 {
			return apperrors.NewSchemaViolation(string(n.Kind), fmt.Sprintf("property %q is required", prop.Name))
		}
	}

	for edge := range n.Edges {
		es, ok := edgeSpecs[edge]
		if !ok {
			return apperrors.NewSchemaViolation(string(n.Kind), fmt.Sprintf("unknown edge %q", edge))
		}
		if es.Source != n.Kind {
			return apperrors.NewSchemaViolation(string(n.Kind), fmt.Sprintf("edge %q not allowed", edge))
		}
	}
	return nil
}
