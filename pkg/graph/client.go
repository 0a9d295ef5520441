// Package graph turns documents into knowledge graph content. It splits
// document text into token windows, asks a language model to extract
// entities and relationships from each window, and hands the results to
// a graph storage backend.
package graph

import (
	"time"

	"github.com/graphloom/graphloom/pkg/common"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "o200k_base"

// GraphClient drives the extraction pipeline. Construct it once and
// reuse it across documents, the token encoder is expensive to build.
type GraphClient struct {
	chunkSize           int
	chunkOverlap        int
	parallelExtractions int
	maxRetries          int
	extractTimeout      time.Duration
	entityKinds         []string

	tokenEncoder *tiktoken.Tiktoken
}

// NewGraphClientParams holds the parameters for NewGraphClient. Zero
// values fall back to defaults, except ChunkSize and ChunkOverlap which
// are validated.
type NewGraphClientParams struct {
	// ChunkSize is the window length in tokens. Must be positive.
	ChunkSize int
	// ChunkOverlap is how many tokens consecutive windows share. Must
	// be non-negative and smaller than ChunkSize.
	ChunkOverlap int
	// ParallelExtractions caps concurrent model calls. Defaults to 1.
	ParallelExtractions int
	// MaxRetries bounds attempts per model call. Defaults to 3.
	MaxRetries int
	// ExtractTimeout bounds each model call. Defaults to 2 minutes.
	ExtractTimeout time.Duration
	// EntityKinds overrides the default entity kind vocabulary.
	EntityKinds []string
}

// DefaultEntityKinds is the entity vocabulary offered to the model when
// no override is configured.
var DefaultEntityKinds = []string{
	"ORGANIZATION",
	"PERSON",
	"LOCATION",
	"CONCEPT",
	"CREATIVE_WORK",
	"DATE",
	"PRODUCT",
	"EVENT",
}

// NewGraphClient creates a GraphClient, validating the chunking
// geometry up front so misconfiguration fails before any model call.
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.ChunkSize <= 0 {
		return nil, &common.ConfigurationError{
			Field:  "ChunkSize",
			Reason: "must be positive",
		}
	}
	if params.ChunkOverlap < 0 {
		return nil, &common.ConfigurationError{
			Field:  "ChunkOverlap",
			Reason: "must not be negative",
		}
	}
	if params.ChunkOverlap >= params.ChunkSize {
		return nil, &common.ConfigurationError{
			Field:  "ChunkOverlap",
			Reason: "must be smaller than ChunkSize",
		}
	}

	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, &common.ConfigurationError{
			Field:  "TokenEncoding",
			Reason: err.Error(),
		}
	}

	client := &GraphClient{
		chunkSize:           params.ChunkSize,
		chunkOverlap:        params.ChunkOverlap,
		parallelExtractions: params.ParallelExtractions,
		maxRetries:          params.MaxRetries,
		extractTimeout:      params.ExtractTimeout,
		entityKinds:         params.EntityKinds,
		tokenEncoder:        encoder,
	}
	if client.parallelExtractions < 1 {
		client.parallelExtractions = 1
	}
	if client.maxRetries < 1 {
		client.maxRetries = 3
	}
	if client.extractTimeout <= 0 {
		client.extractTimeout = 2 * time.Minute
	}
	if len(client.entityKinds) == 0 {
		client.entityKinds = DefaultEntityKinds
	}

	return client, nil
}
