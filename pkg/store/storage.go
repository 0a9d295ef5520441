package store

import (
	"context"

	"github.com/graphloom/graphloom/pkg/common"
)

// Node is a persisted graph node as returned by read queries.
type Node struct {
	ID         string
	Labels     []string
	Properties map[string]any
}

// Triple is one (source node, relationship type, target node) row
// returned by a read query.
type Triple struct {
	Source Node
	Type   string
	Target Node
}

// GraphStorage defines the interface for persisting and querying the
// knowledge graph. SaveBatch must be idempotent: re-ingesting the same
// chunk must not duplicate nodes or edges, and node properties merge
// additively instead of being overwritten.
type GraphStorage interface {
	// SaveBatch persists one chunk's extraction result as a single
	// all-or-nothing write, recording provenance links from the chunk
	// to every node and edge it asserted.
	SaveBatch(
		ctx context.Context,
		chunk common.Chunk,
		entities []common.Entity,
		relations []common.Relationship,
	) (common.WriteSummary, error)

	// QueryTriples runs a read-only query and maps each returned
	// (source, relationship, target) row to a Triple. The limit caps
	// the number of rows; the caller is responsible for bounding
	// result size beyond that.
	QueryTriples(ctx context.Context, query string, limit int) ([]Triple, error)
}
