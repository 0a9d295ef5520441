package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/graphloom/graphloom/internal/util"
	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/loader"
	"github.com/graphloom/graphloom/pkg/logger"
	"github.com/graphloom/graphloom/pkg/store"

	"golang.org/x/sync/errgroup"
)

// ProcessDocuments runs the full pipeline over a set of source files:
// load, chunk, extract, persist. A file that fails to load and a chunk
// whose extraction fails after retries are skipped and recorded in the
// summary, the remaining work continues. A store write failure aborts
// the run, losing writes silently is worse than stopping.
func (g *GraphClient) ProcessDocuments(
	ctx context.Context,
	files []loader.SourceFile,
	aiClient ai.Client,
	storage store.GraphStorage,
) (common.RunSummary, error) {
	summary := common.RunSummary{}

	for _, file := range files {
		document, err := file.GetDocument(ctx)
		if err != nil {
			var loadErr *common.LoadError
			if !errors.As(err, &loadErr) {
				return summary, err
			}
			logger.Warn("skipping file", "path", loadErr.Path, "error", loadErr.Err)
			summary.FilesSkipped++
			summary.LoadFailures = append(summary.LoadFailures, common.LoadFailure{
				Path:   loadErr.Path,
				Reason: loadErr.Err.Error(),
			})
			continue
		}

		chunks, err := g.ChunkDocument(document)
		if err != nil {
			return summary, err
		}
		logger.Info("processing document", "source", document.Source, "chunks", len(chunks))

		if err := g.processChunks(ctx, chunks, aiClient, storage, &summary); err != nil {
			return summary, err
		}
		summary.FilesProcessed++
	}

	return summary, nil
}

// processChunks extracts all chunks of one document in parallel and
// persists each result. Store writes are serialized so the storage
// backend sees one batch at a time.
func (g *GraphClient) processChunks(
	ctx context.Context,
	chunks []common.Chunk,
	aiClient ai.Client,
	storage store.GraphStorage,
	summary *common.RunSummary,
) error {
	var storeLock sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.parallelExtractions)

	for _, chunk := range chunks {
		group.Go(func() error {
			entities, relations, err := util.Retry2WithBackoff(
				gctx,
				g.maxRetries,
				time.Second,
				func(ctx context.Context) ([]common.Entity, []common.Relationship, error) {
					ectx, cancel := context.WithTimeout(ctx, g.extractTimeout)
					defer cancel()
					entities, relations, err := g.ExtractChunk(ectx, aiClient, chunk)
					// A per-attempt timeout is a transient failure, not a
					// cancellation of the run. Rewrap it so the retry loop
					// does not mistake it for the parent context ending.
					if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
						err = &common.ExtractionError{
							Source:        chunk.Source,
							SequenceIndex: chunk.SequenceIndex,
							Err:           fmt.Errorf("model call exceeded %s timeout", g.extractTimeout),
						}
					}
					return entities, relations, err
				},
			)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("skipping chunk",
					"source", chunk.Source,
					"index", chunk.SequenceIndex,
					"error", err,
				)
				storeLock.Lock()
				summary.SkippedChunks = append(summary.SkippedChunks, common.SkippedChunk{
					Source:        chunk.Source,
					SequenceIndex: chunk.SequenceIndex,
					Reason:        err.Error(),
				})
				storeLock.Unlock()
				return nil
			}

			storeLock.Lock()
			defer storeLock.Unlock()

			writes, err := storage.SaveBatch(gctx, chunk, entities, relations)
			if err != nil {
				return err
			}
			summary.Writes.Add(writes)
			summary.ChunksProcessed++
			return nil
		})
	}

	return group.Wait()
}
