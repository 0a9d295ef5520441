package graph

import (
	"fmt"

	"github.com/graphloom/graphloom/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ChunkDocument splits a document into token windows of at most
// chunkSize tokens, with consecutive windows sharing chunkOverlap
// tokens. Every token of the input appears in at least one chunk and
// the final chunk is truncated, never padded.
func (g *GraphClient) ChunkDocument(document common.Document) ([]common.Chunk, error) {
	tokens := g.tokenEncoder.Encode(document.Text, nil, nil)
	if len(tokens) == 0 {
		return nil, nil
	}

	stride := g.chunkSize - g.chunkOverlap

	var chunks []common.Chunk
	for start := 0; ; start += stride {
		end := start + g.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("failed to generate chunk id: %w", err)
		}

		overlap := 0
		if start > 0 {
			overlap = g.chunkOverlap
			if remaining := end - start; overlap > remaining {
				overlap = remaining
			}
		}

		chunks = append(chunks, common.Chunk{
			ID:              id,
			Text:            g.tokenEncoder.Decode(tokens[start:end]),
			TokenCount:      end - start,
			Source:          document.Source,
			SequenceIndex:   len(chunks),
			OverlapWithPrev: overlap,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}
