// Package mirror copies ingested articles into a Neo4j database for graph
// queries. The file snapshot stays the system of record.
package mirror

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/ingest"
	"newsgraph/backend/pkg/logger"
)

// relTypes maps graph edges to Neo4j relationship types
var relTypes = map[graph.EdgeKind]string{
	graph.EdgePublishedBy: "PUBLISHED_BY",
	graph.EdgeHasCategory: "HAS_CATEGORY",
	graph.EdgeMentions:    "MENTIONS",
}

// Neo4jMirror MERGEs articles and their linked nodes by id.
type Neo4jMirror struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jMirror creates a mirror over an existing driver
func NewNeo4jMirror(driver neo4j.DriverWithContext) *Neo4jMirror {
	return &Neo4jMirror{
		driver: driver,
		logger: logger.Named("mirror.neo4j"),
	}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (*Neo4jMirror, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}
	return NewNeo4jMirror(driver), nil
}

// Close closes the Neo4j driver connection
func (m *Neo4jMirror) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}

// EnsureConstraints creates one id uniqueness constraint per concrete kind.
func (m *Neo4jMirror) EnsureConstraints(ctx context.Context) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, stmt := range constraintStatements() {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

// MirrorArticle writes the article, every linked node and the article's
// edges in one transaction.
func (m *Neo4jMirror) MirrorArticle(ctx context.Context, article *graph.Node, linked []*graph.Node) error {
	stmts, err := buildStatements(article, linked)
	if err != nil {
		return err
	}

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, s := range stmts {
			result, err := tx.Run(ctx, s.Cypher, s.Params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to mirror article %s: %w", article.ID, err)
	}

	m.logger.Debug("Article mirrored",
		zap.String("id", article.ID),
		zap.Int("statements", len(stmts)),
	)
	return nil
}

var _ ingest.Mirror = (*Neo4jMirror)(nil)

type statement struct {
	Cypher string
	Params map[string]any
}

// labels returns the Neo4j labels of a kind, e.g. ":Person:Entity"
func labels(kind graph.Kind) (string, error) {
	spec, ok := graph.Spec(kind)
	if !ok || spec.Abstract {
		return "", fmt.Errorf("cannot mirror node of kind %q", kind)
	}
	l := ":" + string(kind)
	if spec.EntityLike {
		l += ":" + string(graph.KindEntity)
	}
	return l, nil
}

func mergeNode(n *graph.Node) (statement, error) {
	l, err := labels(n.Kind)
	if err != nil {
		return statement{}, err
	}

	props := make(map[string]any, len(n.Properties))
	for name, values := range n.Properties {
		p, ok := graph.Property(name)
		if ok && p.Cardinality == graph.Many {
			props[name] = values
		} else if len(values) > 0 {
			props[name] = values[0]
		}
	}

	return statement{
		Cypher: fmt.Sprintf("MERGE (n%s {id: $id}) SET n += $props", l),
		Params: map[string]any{"id": n.ID, "props": props},
	}, nil
}

func buildStatements(article *graph.Node, linked []*graph.Node) ([]statement, error) {
	if article == nil || article.Kind != graph.KindArticle {
		return nil, fmt.Errorf("mirror expects an Article node")
	}

	kinds := make(map[string]graph.Kind, len(linked))
	var stmts []statement
	for _, n := range linked {
		s, err := mergeNode(n)
		if err != nil {
			return nil, err
		}
		kinds[n.ID] = n.Kind
		stmts = append(stmts, s)
	}

	s, err := mergeNode(article)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, s)

	// mentions replace rather than merge
	stmts = append(stmts, statement{
		Cypher: "MATCH (a:Article {id: $id})-[r:MENTIONS]->() DELETE r",
		Params: map[string]any{"id": article.ID},
	})

	for _, edge := range article.EdgeKinds() {
		rel, ok := relTypes[edge]
		if !ok {
			continue
		}
		for _, target := range article.Targets(edge) {
			kind, ok := kinds[target]
			if !ok {
				return nil, fmt.Errorf("edge %s target %s not among linked nodes", edge, target)
			}
			stmts = append(stmts, statement{
				Cypher: fmt.Sprintf("MATCH (a:Article {id: $from}) MATCH (b:%s {id: $to}) MERGE (a)-[:%s]->(b)", kind, rel),
				Params: map[string]any{"from": article.ID, "to": target},
			})
		}
	}
	return stmts, nil
}

func constraintStatements() []string {
	var out []string
	for _, kind := range graph.Kinds() {
		out = append(out, fmt.Sprintf(
			"CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
			toSnake(string(kind)), kind,
		))
	}
	return out
}

func toSnake(s string) string {
	var out []rune
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
