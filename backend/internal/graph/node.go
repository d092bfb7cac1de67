package graph

import "sort"

// Node is a typed vertex. Properties hold one or many values per the schema;
// Edges map an edge kind to the ordered ids of its targets.
type Node struct {
	ID         string                `json:"id"`
	Kind       Kind                  `json:"kind"`
	Properties map[string][]string   `json:"properties"`
	Edges      map[EdgeKind][]string `json:"edges,omitempty"`
}

// NewNode creates an unsaved node of the given kind.
func NewNode(kind Kind) *Node {
	return &Node{
		Kind:       kind,
		Properties: make(map[string][]string),
		Edges:      make(map[EdgeKind][]string),
	}
}

// SetProperty replaces the values of a property. Empty values remove it.
func (n *Node) SetProperty(name string, values ...string) {
	if len(values) == 0 {
		delete(n.Properties, name)
		return
	}
	n.Properties[name] = append([]string(nil), values...)
}

// First returns the first value of a property.
func (n *Node) First(name string) (string, bool) {
	values := n.Properties[name]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Name returns the unique-name property value for resolvable kinds.
func (n *Node) Name() string {
	spec, ok := kindSpecs[n.Kind]
	if !ok || spec.UniqueName == "" {
		return ""
	}
	name, _ := n.First(spec.UniqueName)
	return name
}

// Targets returns the target ids of an edge kind.
func (n *Node) Targets(edge EdgeKind) []string {
	return append([]string(nil), n.Edges[edge]...)
}

// Clone returns a deep copy so callers never share the store's maps.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:         n.ID,
		Kind:       n.Kind,
		Properties: make(map[string][]string, len(n.Properties)),
		Edges:      make(map[EdgeKind][]string, len(n.Edges)),
	}
	for k, v := range n.Properties {
		c.Properties[k] = append([]string(nil), v...)
	}
	for k, v := range n.Edges {
		c.Edges[k] = append([]string(nil), v...)
	}
	return c
}

// EdgeKinds returns the node's edge kinds in a stable order.
func (n *Node) EdgeKinds() []EdgeKind {
	kinds := make([]EdgeKind, 0, len(n.Edges))
	for k := range n.Edges {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
