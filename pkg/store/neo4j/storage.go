package neo4j

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/graphloom/graphloom/internal/util"
	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var labelSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// sanitizeLabel makes an extraction-provided kind or relationship type
// safe for interpolation into Cypher. Labels cannot be parameterized.
func sanitizeLabel(label, fallback string) string {
	label = labelSanitizer.ReplaceAllString(strings.TrimSpace(label), "_")
	label = strings.Trim(label, "_")
	if label == "" {
		return fallback
	}
	return strings.ToUpper(label)
}

// normalizeKey case-normalizes a natural key so "Acme Corp" and
// "ACME CORP" resolve to the same node identity.
func normalizeKey(key string) string {
	return strings.ToUpper(strings.Join(strings.Fields(key), " "))
}

type identityKey struct {
	kind string
	key  string
}

// GraphDBStorage implements the GraphStorage interface against Neo4j.
// Each chunk batch is written in one managed transaction, so a failed
// batch leaves nothing half-written.
//
// The identity index maps (kind, normalized key) to the persisted node
// element id. It makes merge semantics explicit: every entity merge
// consults the index first, and relationship endpoints resolve through
// it instead of re-querying the store.
type GraphDBStorage struct {
	manager *Manager

	maxRetries int
	backoff    time.Duration
	timeout    time.Duration

	dbLock   sync.Mutex
	identity map[identityKey]string
}

// GraphDBStorageOption configures a GraphDBStorage.
type GraphDBStorageOption func(*GraphDBStorage)

// WithMaxRetries sets how many times a failed batch write is attempted
// before it surfaces as a WriteError.
func WithMaxRetries(n int) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		s.maxRetries = n
	}
}

// WithBackoff sets the initial backoff delay between write attempts.
func WithBackoff(d time.Duration) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		s.backoff = d
	}
}

// WithTimeout bounds every store round trip.
func WithTimeout(d time.Duration) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		s.timeout = d
	}
}

// NewGraphDBStorage creates a GraphDBStorage on top of the shared
// connection manager.
func NewGraphDBStorage(manager *Manager, opts ...GraphDBStorageOption) *GraphDBStorage {
	s := &GraphDBStorage{
		manager:    manager,
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		timeout:    30 * time.Second,
		identity:   make(map[identityKey]string),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// SaveBatch persists one chunk's extraction result. The whole batch runs
// in a single write transaction; store failures are retried with backoff
// and finally reported as a WriteError carrying the unpersisted counts.
func (s *GraphDBStorage) SaveBatch(
	ctx context.Context,
	chunk common.Chunk,
	entities []common.Entity,
	relations []common.Relationship,
) (common.WriteSummary, error) {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	driver, err := s.manager.Acquire(ctx)
	if err != nil {
		return common.WriteSummary{}, err
	}

	var summary common.WriteSummary
	err = util.RetryErrWithBackoff(ctx, s.maxRetries, s.backoff, func(ctx context.Context) error {
		tctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		session := driver.NewSession(tctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(tctx)

		result, err := session.ExecuteWrite(tctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return s.writeBatch(tctx, tx, chunk, entities, relations)
		})
		if err != nil {
			// A per-attempt timeout should be retried like any other
			// transient store failure, not treated as run cancellation.
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("store write exceeded %s timeout", s.timeout)
			}
			return err
		}

		summary = result.(common.WriteSummary)
		return nil
	})
	if err != nil {
		return common.WriteSummary{}, &common.WriteError{
			EntitiesLost:      len(entities),
			RelationshipsLost: len(relations),
			Err:               err,
		}
	}

	return summary, nil
}

func (s *GraphDBStorage) writeBatch(
	ctx context.Context,
	tx neo4j.ManagedTransaction,
	chunk common.Chunk,
	entities []common.Entity,
	relations []common.Relationship,
) (common.WriteSummary, error) {
	summary := common.WriteSummary{}

	if err := s.writeChunk(ctx, tx, chunk); err != nil {
		return summary, err
	}

	// Entities resolved in this batch, for relationship endpoints.
	resolved := make(map[identityKey]string, len(entities))

	for _, entity := range entities {
		id, created, err := s.mergeEntity(ctx, tx, chunk, entity)
		if err != nil {
			return summary, err
		}
		ik := identityKey{kind: sanitizeLabel(entity.Kind, "CONCEPT"), key: normalizeKey(entity.Key)}
		resolved[ik] = id
		s.identity[ik] = id
		if created {
			summary.NodesCreated++
		} else {
			summary.NodesMerged++
		}
	}

	for _, rel := range relations {
		if rel.Source == nil || rel.Target == nil {
			continue
		}
		srcID, ok := s.resolveEndpoint(resolved, rel.Source)
		if !ok {
			continue
		}
		tgtID, ok := s.resolveEndpoint(resolved, rel.Target)
		if !ok {
			continue
		}

		created, err := s.mergeRelationship(ctx, tx, chunk, rel, srcID, tgtID)
		if err != nil {
			return summary, err
		}
		if created {
			summary.EdgesCreated++
		} else {
			summary.EdgesMerged++
		}
	}

	return summary, nil
}

func (s *GraphDBStorage) resolveEndpoint(resolved map[identityKey]string, entity *common.Entity) (string, bool) {
	ik := identityKey{kind: sanitizeLabel(entity.Kind, "CONCEPT"), key: normalizeKey(entity.Key)}
	if id, ok := resolved[ik]; ok {
		return id, true
	}
	id, ok := s.identity[ik]
	return id, ok
}

func (s *GraphDBStorage) writeChunk(ctx context.Context, tx neo4j.ManagedTransaction, chunk common.Chunk) error {
	query := `
		MERGE (d:Document {source: $source})
		MERGE (c:Chunk {id: $chunkID})
		ON CREATE SET c.text = $text,
			c.sequence_index = $sequenceIndex,
			c.token_count = $tokenCount
		MERGE (c)-[:PART_OF]->(d)
	`

	_, err := tx.Run(ctx, query, map[string]any{
		"source":        chunk.Source,
		"chunkID":       chunk.ID,
		"text":          chunk.Text,
		"sequenceIndex": chunk.SequenceIndex,
		"tokenCount":    chunk.TokenCount,
	})
	if err != nil {
		return fmt.Errorf("failed to write chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// mergeEntity looks up or creates the node keyed by (kind, normalized
// key) and merges properties additively: keys the node already carries
// are never overwritten. Returns the node's element id and whether it
// was created by this call.
func (s *GraphDBStorage) mergeEntity(
	ctx context.Context,
	tx neo4j.ManagedTransaction,
	chunk common.Chunk,
	entity common.Entity,
) (string, bool, error) {
	kind := sanitizeLabel(entity.Kind, "CONCEPT")

	query := fmt.Sprintf(`
		MERGE (n:Entity:%s {key: $key})
		ON CREATE SET n._new = true, n.name = $name
		WITH n, coalesce(n._new, false) AS created
		REMOVE n._new
		WITH n, created
		MATCH (c:Chunk {id: $chunkID})
		MERGE (c)-[:MENTIONS]->(n)
		RETURN elementId(n) AS id, created, properties(n) AS props
	`, kind)

	result, err := tx.Run(ctx, query, map[string]any{
		"key":     normalizeKey(entity.Key),
		"name":    entity.Key,
		"chunkID": chunk.ID,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to merge entity %s: %w", entity.Key, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to merge entity %s: %w", entity.Key, err)
	}

	idVal, _ := record.Get("id")
	createdVal, _ := record.Get("created")
	propsVal, _ := record.Get("props")

	id, _ := idVal.(string)
	created, _ := createdVal.(bool)
	existing, _ := propsVal.(map[string]any)

	delta := make(map[string]any)
	for k, v := range entity.Properties {
		if _, taken := existing[k]; taken {
			continue
		}
		delta[k] = v
	}
	if len(delta) > 0 {
		_, err := tx.Run(ctx, `
			MATCH (n) WHERE elementId(n) = $id
			SET n += $delta
		`, map[string]any{"id": id, "delta": delta})
		if err != nil {
			return "", false, fmt.Errorf("failed to merge properties for %s: %w", entity.Key, err)
		}
	}

	return id, created, nil
}

// mergeRelationship looks up or creates the edge keyed by (type, source
// id, target id). Provenance chunk ids accumulate as a deduplicated
// list, so many chunks can assert the same logical edge without
// duplicating it.
func (s *GraphDBStorage) mergeRelationship(
	ctx context.Context,
	tx neo4j.ManagedTransaction,
	chunk common.Chunk,
	rel common.Relationship,
	srcID string,
	tgtID string,
) (bool, error) {
	relType := sanitizeLabel(rel.Type, "RELATED_TO")

	query := fmt.Sprintf(`
		MATCH (s) WHERE elementId(s) = $srcID
		MATCH (t) WHERE elementId(t) = $tgtID
		MERGE (s)-[r:%s]->(t)
		ON CREATE SET r._new = true, r.chunks = [$chunkID]
		ON MATCH SET r.chunks = CASE
			WHEN $chunkID IN coalesce(r.chunks, []) THEN r.chunks
			ELSE coalesce(r.chunks, []) + $chunkID
		END
		WITH r, coalesce(r._new, false) AS created
		REMOVE r._new
		RETURN created
	`, relType)

	result, err := tx.Run(ctx, query, map[string]any{
		"srcID":   srcID,
		"tgtID":   tgtID,
		"chunkID": chunk.ID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to merge relationship %s: %w", relType, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to merge relationship %s: %w", relType, err)
	}

	createdVal, _ := record.Get("created")
	created, _ := createdVal.(bool)
	return created, nil
}

// QueryTriples runs a read-only query expected to return rows of
// (source node, relationship, target node), in that column order.
func (s *GraphDBStorage) QueryTriples(ctx context.Context, query string, limit int) ([]store.Triple, error) {
	driver, err := s.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := driver.NewSession(tctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(tctx)

	result, err := session.Run(tctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}

	var triples []store.Triple
	for result.Next(tctx) {
		if limit > 0 && len(triples) >= limit {
			break
		}
		record := result.Record()
		if len(record.Values) < 3 {
			continue
		}

		source, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		relationship, ok := record.Values[1].(neo4j.Relationship)
		if !ok {
			continue
		}
		target, ok := record.Values[2].(neo4j.Node)
		if !ok {
			continue
		}

		triples = append(triples, store.Triple{
			Source: store.Node{
				ID:         source.ElementId,
				Labels:     source.Labels,
				Properties: source.Props,
			},
			Type: relationship.Type,
			Target: store.Node{
				ID:         target.ElementId,
				Labels:     target.Labels,
				Properties: target.Props,
			},
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query results: %w", err)
	}

	return triples, nil
}
