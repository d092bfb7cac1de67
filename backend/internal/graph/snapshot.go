package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const snapshotVersion = 1

// snapshot is the on-disk form of the whole graph.
type snapshot struct {
	Version    int     `json:"version"`
	BaseIRI    string  `json:"base_iri,omitempty"`
	ArticleSeq uint64  `json:"article_seq"`
	SavedAt    string  `json:"saved_at,omitempty"`
	Nodes      []*Node `json:"nodes"`
}

func decodeSnapshot(data []byte) (*snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after snapshot")
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}

// buildIndex rebuilds the lookup structures from a decoded snapshot and checks
// every invariant the live store maintains. Any failure rejects the snapshot
// as a whole.
func buildIndex(snap *snapshot) (*index, error) {
	ix := newIndex()

	for i, n := range snap.Nodes {
		if n == nil {
			return nil, fmt.Errorf("node %d is null", i)
		}
		if n.ID == "" {
			return nil, fmt.Errorf("node %d has no id", i)
		}
		if _, dup := ix.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		if n.Properties == nil {
			n.Properties = make(map[string][]string)
		}
		if n.Edges == nil {
			n.Edges = make(map[EdgeKind][]string)
		}
		if err := validateNode(n); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		if name, ok := uniqueName(n); ok {
			if other, dup := ix.byName[nameKey{kind: n.Kind, name: name}]; dup {
				return nil, fmt.Errorf("nodes %q and %q share %s name %q", other, n.ID, n.Kind, name)
			}
		}
		ix.add(n)
	}

	for _, id := range ix.order {
		n := ix.nodes[id]
		for _, es := range edgeSpecs {
			if es.Source != n.Kind {
				continue
			}
			targets := n.Edges[es.Name]
			if len(dedupeIDs(targets)) != len(targets) {
				return nil, fmt.Errorf("node %q: edge %q has duplicate targets", id, es.Name)
			}
			if err := checkEdge(es, targets, ix.get); err != nil {
				return nil, fmt.Errorf("node %q: %w", id, err)
			}
		}
	}

	if snap.ArticleSeq > ix.articleSeq {
		ix.articleSeq = snap.ArticleSeq
	}
	return ix, nil
}

// writeSnapshot writes snap next to path and renames it into place.
func writeSnapshot(path string, snap *snapshot) error {
	snap.SavedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
