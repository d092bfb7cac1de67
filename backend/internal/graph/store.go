package graph

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

const articlePrefix = "article_"

type nameKey struct {
	kind Kind
	name string
}

// index is the in-memory node set plus its lookup structures.
type index struct {
	nodes      map[string]*Node
	order      []string
	byKind     map[Kind][]string
	byName     map[nameKey]string
	articleSeq uint64
}

func newIndex() *index {
	return &index{
		nodes:  make(map[string]*Node),
		byKind: make(map[Kind][]string),
		byName: make(map[nameKey]string),
	}
}

func (ix *index) add(n *Node) {
	ix.nodes[n.ID] = n
	ix.order = append(ix.order, n.ID)
	ix.byKind[n.Kind] = append(ix.byKind[n.Kind], n.ID)
	if name, ok := uniqueName(n); ok {
		ix.byName[nameKey{kind: n.Kind, name: name}] = n.ID
	}
	if ord, ok := articleOrdinal(n.ID); ok && n.Kind == KindArticle && ord > ix.articleSeq {
		ix.articleSeq = ord
	}
}

func (ix *index) get(id string) (*Node, bool) {
	n, ok := ix.nodes[id]
	return n, ok
}

// Store holds every node and edge of the graph and persists them as a single
// snapshot file. All mutations and Persist share one exclusive lock; lookups
// take the read lock.
type Store struct {
	path      string
	baseIRI   string
	logger    *zap.Logger
	newSuffix func() string

	mu    sync.RWMutex
	ix    *index
	dirty bool
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseIRI records the namespace written into snapshots
func WithBaseIRI(iri string) Option {
	return func(s *Store) {
		s.baseIRI = iri
	}
}

// WithSuffixFunc replaces the random id suffix generator
func WithSuffixFunc(f func() string) Option {
	return func(s *Store) {
		if f != nil {
			s.newSuffix = f
		}
	}
}

// NewStore loads the snapshot at path, or starts empty if there is none.
func NewStore(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:      path,
		logger:    logger.Named("graph.store"),
		newSuffix: randomSuffix,
		ix:        newIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the snapshot path
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory graph with the snapshot on disk. A missing file
// yields an empty graph; an unreadable or corrupt one leaves the current graph
// untouched and returns an error.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.ix = newIndex()
			s.dirty = false
			s.mu.Unlock()
			s.logger.Info("No graph snapshot found, starting empty", zap.String("path", s.path))
			return nil
		}
		return apperrors.NewStoreUnreadable(s.path, err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return apperrors.NewCorruptStore(s.path, "cannot parse snapshot", err)
	}
	ix, err := buildIndex(snap)
	if err != nil {
		return apperrors.NewCorruptStore(s.path, "integrity check failed", err)
	}

	s.mu.Lock()
	s.ix = ix
	s.dirty = false
	if s.baseIRI == "" {
		s.baseIRI = snap.BaseIRI
	}
	s.mu.Unlock()

	s.logger.Info("Graph snapshot loaded",
		zap.String("path", s.path),
		zap.Int("nodes", len(ix.nodes)),
		zap.Uint64("article_seq", ix.articleSeq),
	)
	return nil
}

// FindByUniqueName returns the node of kind whose unique-name property equals
// name exactly.
func (s *Store) FindByUniqueName(kind Kind, name string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findLocked(kind, name)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

func (s *Store) findLocked(kind Kind, name string) (*Node, bool) {
	id, ok := s.ix.byName[nameKey{kind: kind, name: name}]
	if !ok {
		return nil, false
	}
	return s.ix.get(id)
}

// Insert assigns a fresh id to n, validates it against the schema and adds it
// to the graph. n itself is not retained; the stored copy is returned.
func (s *Store) Insert(n *Node) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.insertLocked(n)
	if err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// FindOrInsert is the atomic find-or-create used by the resolver: the lookup
// and the insert happen under one exclusive lock.
func (s *Store) FindOrInsert(kind Kind, name string) (*Node, bool, error) {
	spec, ok := kindSpecs[kind]
	if !ok || !spec.ResolvableByName {
		return nil, false, apperrors.NewSchemaViolation(string(kind), "kind is not resolvable by name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findLocked(kind, name); ok {
		return existing.Clone(), false, nil
	}

	n := NewNode(kind)
	n.SetProperty(spec.UniqueName, name)
	stored, err := s.insertLocked(n)
	if err != nil {
		return nil, false, err
	}
	return stored.Clone(), true, nil
}

func (s *Store) insertLocked(in *Node) (*Node, error) {
	if in == nil {
		return nil, apperrors.NewSchemaViolation("", "nil node")
	}
	n := in.Clone()
	if err := validateNode(n); err != nil {
		return nil, err
	}

	if name, ok := uniqueName(n); ok {
		if _, exists := s.findLocked(n.Kind, name); exists {
			return nil, apperrors.NewSchemaViolation(string(n.Kind), fmt.Sprintf("a node named %q already exists", name))
		}
	}

	for _, es := range edgeSpecs {
		if es.Source != n.Kind {
			continue
		}
		targets := dedupeIDs(n.Edges[es.Name])
		if err := checkEdge(es, targets, s.ix.get); err != nil {
			return nil, err
		}
		if len(targets) > 0 {
			n.Edges[es.Name] = targets
		} else {
			delete(n.Edges, es.Name)
		}
	}

	n.ID = s.nextIDLocked(n)
	s.ix.add(n)
	s.dirty = true

	s.logger.Debug("Node inserted",
		zap.String("id", n.ID),
		zap.String("kind", string(n.Kind)),
	)
	return n, nil
}

func (s *Store) nextIDLocked(n *Node) string {
	if n.Kind == KindArticle {
		for {
			s.ix.articleSeq++
			id := articlePrefix + strconv.FormatUint(s.ix.articleSeq, 10)
			if _, taken := s.ix.nodes[id]; !taken {
				return id
			}
		}
	}

	spec := kindSpecs[n.Kind]
	base := Sanitize(n.Name()) + "_" + spec.Tag + "_"
	for {
		id := base + s.newSuffix()
		if _, taken := s.ix.nodes[id]; !taken {
			return id
		}
	}
}

// SetEdges replaces the targets of one edge kind on node id. Duplicate targets
// are collapsed, keeping first-seen order.
func (s *Store) SetEdges(id string, edge EdgeKind, targets []string) (*Node, error) {
	es, ok := edgeSpecs[edge]
	if !ok {
		return nil, apperrors.NewSchemaViolation(string(edge), "unknown edge kind")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.ix.get(id)
	if !ok {
		return nil, apperrors.NewNodeNotFound(id)
	}
	if n.Kind != es.Source {
		return nil, apperrors.NewSchemaViolation(string(n.Kind), fmt.Sprintf("edge %q not allowed", edge))
	}

	unique := dedupeIDs(targets)
	if err := checkEdge(es, unique, s.ix.get); err != nil {
		return nil, err
	}
	if len(unique) == 0 {
		delete(n.Edges, edge)
	} else {
		n.Edges[edge] = unique
	}
	s.dirty = true

	return n.Clone(), nil
}

// Get returns the node with the given id
func (s *Store) Get(id string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.ix.get(id)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Neighbors returns the targets of every outgoing edge of id.
func (s *Store) Neighbors(id string) (map[EdgeKind][]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.ix.get(id)
	if !ok {
		return nil, apperrors.NewNodeNotFound(id)
	}

	out := make(map[EdgeKind][]*Node, len(n.Edges))
	for edge, targets := range n.Edges {
		for _, t := range targets {
			if target, ok := s.ix.get(t); ok {
				out[edge] = append(out[edge], target.Clone())
			}
		}
	}
	return out, nil
}

// Nodes returns every node in insertion order
func (s *Store) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0, len(s.ix.order))
	for _, id := range s.ix.order {
		out = append(out, s.ix.nodes[id].Clone())
	}
	return out
}

// Len returns the number of nodes
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ix.nodes)
}

// CountByKind returns the number of nodes per concrete kind
func (s *Store) CountByKind() map[Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[Kind]int, len(kindSpecs))
	for _, kind := range Kinds() {
		counts[kind] = len(s.ix.byKind[kind])
	}
	return counts
}

// ArticleSeq returns the highest article ordinal issued so far
func (s *Store) ArticleSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.articleSeq
}

// Dirty reports whether the graph has changes not yet persisted
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Persist writes the full graph to a temporary file and renames it over the
// snapshot, so the previous snapshot survives any failure.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &snapshot{
		Version:    snapshotVersion,
		BaseIRI:    s.baseIRI,
		ArticleSeq: s.ix.articleSeq,
		Nodes:      make([]*Node, 0, len(s.ix.order)),
	}
	for _, id := range s.ix.order {
		snap.Nodes = append(snap.Nodes, s.ix.nodes[id])
	}

	if err := writeSnapshot(s.path, snap); err != nil {
		s.logger.Error("Failed to persist graph snapshot",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return apperrors.NewPersistence(s.path, err)
	}
	s.dirty = false

	s.logger.Debug("Graph snapshot persisted",
		zap.String("path", s.path),
		zap.Int("nodes", len(snap.Nodes)),
	)
	return nil
}

// Helper functions

func uniqueName(n *Node) (string, bool) {
	spec, ok := kindSpecs[n.Kind]
	if !ok || spec.UniqueName == "" {
		return "", false
	}
	return n.First(spec.UniqueName)
}

func articleOrdinal(id string) (uint64, bool) {
	rest, ok := strings.CutPrefix(id, articlePrefix)
	if !ok {
		return 0, false
	}
	ord, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return ord, true
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func dedupeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// checkEdge validates target existence, target kinds and cardinality.
func checkEdge(es EdgeSpec, targets []string, lookup func(string) (*Node, bool)) error {
	if !es.Cardinality.allows(len(targets)) {
		return apperrors.NewSchemaViolation(string(es.Source),
			fmt.Sprintf("edge %q has %d targets, want %s", es.Name, len(targets), es.Cardinality))
	}
	for _, id := range targets {
		target, ok := lookup(id)
		if !ok {
			return apperrors.NewSchemaViolation(string(es.Source),
				fmt.Sprintf("edge %q points at missing node %q", es.Name, id))
		}
		if !es.accepts(target.Kind) {
			return apperrors.NewSchemaViolation(string(es.Source),
				fmt.Sprintf("edge %q cannot target %s", es.Name, target.Kind))
		}
	}
	return nil
}
