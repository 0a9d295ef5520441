package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/store"
)

var labelSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func sanitizeLabel(label, fallback string) string {
	label = labelSanitizer.ReplaceAllString(strings.TrimSpace(label), "_")
	label = strings.Trim(label, "_")
	if label == "" {
		return fallback
	}
	return strings.ToUpper(label)
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.Join(strings.Fields(key), " "))
}

type identityKey struct {
	kind string
	key  string
}

type edgeKey struct {
	relType string
	source  string
	target  string
}

type memoryNode struct {
	id         string
	labels     []string
	properties map[string]any
	mentions   map[string]struct{}
}

type memoryEdge struct {
	relType string
	source  string
	target  string
	chunks  []string
}

// InMemoryStorage implements the GraphStorage interface without any
// external store. It backs dry runs and tests, with the same merge
// semantics the database store uses: entities dedupe on (kind,
// normalized key), properties merge additively, and edges dedupe on
// (type, source, target) while accumulating provenance chunk ids.
type InMemoryStorage struct {
	mu       sync.Mutex
	nextID   int
	identity map[identityKey]string
	nodes    map[string]*memoryNode
	edges    map[edgeKey]*memoryEdge
}

// NewInMemoryStorage creates an empty in-memory store.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		identity: make(map[identityKey]string),
		nodes:    make(map[string]*memoryNode),
		edges:    make(map[edgeKey]*memoryEdge),
	}
}

// SaveBatch persists one chunk's extraction result.
func (s *InMemoryStorage) SaveBatch(
	ctx context.Context,
	chunk common.Chunk,
	entities []common.Entity,
	relations []common.Relationship,
) (common.WriteSummary, error) {
	if err := ctx.Err(); err != nil {
		return common.WriteSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := common.WriteSummary{}
	resolved := make(map[identityKey]string, len(entities))

	for _, entity := range entities {
		ik := identityKey{kind: sanitizeLabel(entity.Kind, "CONCEPT"), key: normalizeKey(entity.Key)}
		id, ok := s.identity[ik]
		if !ok {
			s.nextID++
			id = fmt.Sprintf("n%d", s.nextID)
			s.identity[ik] = id
			s.nodes[id] = &memoryNode{
				id:         id,
				labels:     []string{"Entity", ik.kind},
				properties: map[string]any{"key": ik.key, "name": entity.Key},
				mentions:   make(map[string]struct{}),
			}
			summary.NodesCreated++
		} else {
			summary.NodesMerged++
		}
		resolved[ik] = id

		node := s.nodes[id]
		for k, v := range entity.Properties {
			if _, taken := node.properties[k]; taken {
				continue
			}
			node.properties[k] = v
		}
		node.mentions[chunk.ID] = struct{}{}
	}

	for _, rel := range relations {
		if rel.Source == nil || rel.Target == nil {
			continue
		}
		srcID, ok := s.lookup(resolved, rel.Source)
		if !ok {
			continue
		}
		tgtID, ok := s.lookup(resolved, rel.Target)
		if !ok {
			continue
		}

		ek := edgeKey{relType: sanitizeLabel(rel.Type, "RELATED_TO"), source: srcID, target: tgtID}
		edge, ok := s.edges[ek]
		if !ok {
			s.edges[ek] = &memoryEdge{
				relType: ek.relType,
				source:  srcID,
				target:  tgtID,
				chunks:  []string{chunk.ID},
			}
			summary.EdgesCreated++
			continue
		}

		summary.EdgesMerged++
		seen := false
		for _, id := range edge.chunks {
			if id == chunk.ID {
				seen = true
				break
			}
		}
		if !seen {
			edge.chunks = append(edge.chunks, chunk.ID)
		}
	}

	return summary, nil
}

func (s *InMemoryStorage) lookup(resolved map[identityKey]string, entity *common.Entity) (string, bool) {
	ik := identityKey{kind: sanitizeLabel(entity.Kind, "CONCEPT"), key: normalizeKey(entity.Key)}
	if id, ok := resolved[ik]; ok {
		return id, true
	}
	id, ok := s.identity[ik]
	return id, ok
}

// QueryTriples returns up to limit stored triples. The query text is
// ignored, there is no query language to interpret here.
func (s *InMemoryStorage) QueryTriples(ctx context.Context, query string, limit int) ([]store.Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var triples []store.Triple
	for _, edge := range s.edges {
		if limit > 0 && len(triples) >= limit {
			break
		}
		source, ok := s.nodes[edge.source]
		if !ok {
			continue
		}
		target, ok := s.nodes[edge.target]
		if !ok {
			continue
		}
		triples = append(triples, store.Triple{
			Source: snapshotNode(source),
			Type:   edge.relType,
			Target: snapshotNode(target),
		})
	}
	return triples, nil
}

func snapshotNode(node *memoryNode) store.Node {
	props := make(map[string]any, len(node.properties))
	for k, v := range node.properties {
		props[k] = v
	}
	return store.Node{
		ID:         node.id,
		Labels:     append([]string(nil), node.labels...),
		Properties: props,
	}
}

// NodeCount returns the number of distinct entity nodes.
func (s *InMemoryStorage) NodeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// EdgeCount returns the number of distinct edges.
func (s *InMemoryStorage) EdgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

// NodeProperties returns a copy of the properties of the node keyed by
// (kind, key), or nil if no such node exists.
func (s *InMemoryStorage) NodeProperties(kind, key string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	ik := identityKey{kind: sanitizeLabel(kind, "CONCEPT"), key: normalizeKey(key)}
	id, ok := s.identity[ik]
	if !ok {
		return nil
	}
	return snapshotNode(s.nodes[id]).Properties
}

// EdgeProvenance returns the chunk ids recorded for the edge keyed by
// (type, source, target), or nil if no such edge exists.
func (s *InMemoryStorage) EdgeProvenance(relType string, source, target common.Entity) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcID, ok := s.identity[identityKey{kind: sanitizeLabel(source.Kind, "CONCEPT"), key: normalizeKey(source.Key)}]
	if !ok {
		return nil
	}
	tgtID, ok := s.identity[identityKey{kind: sanitizeLabel(target.Kind, "CONCEPT"), key: normalizeKey(target.Key)}]
	if !ok {
		return nil
	}
	edge, ok := s.edges[edgeKey{relType: sanitizeLabel(relType, "RELATED_TO"), source: srcID, target: tgtID}]
	if !ok {
		return nil
	}
	return append([]string(nil), edge.chunks...)
}
