package graph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/loader"
	loaderio "github.com/graphloom/graphloom/pkg/loader/io"
	"github.com/graphloom/graphloom/pkg/store"
	"github.com/graphloom/graphloom/pkg/store/memory"
)

func writeSourceFile(t *testing.T, dir, name, content string) loader.SourceFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return loader.SourceFile{ID: name, Path: path, Loader: loaderio.NewIOFileLoader()}
}

func TestProcessDocumentsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	file := writeSourceFile(t, dir, "musk.txt", "Elon Musk founded SpaceX in 2002.")

	client := newTestClient(t, 100, 10)
	fake := &fakeAIClient{respond: func(string) (string, error) { return muskResponse, nil }}
	storage := memory.NewInMemoryStorage()

	summary, err := client.ProcessDocuments(context.Background(), []loader.SourceFile{file}, fake, storage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.FilesProcessed != 1 || summary.FilesSkipped != 0 {
		t.Errorf("unexpected file counts: %+v", summary)
	}
	if summary.ChunksProcessed != 1 {
		t.Errorf("expected 1 processed chunk, got %d", summary.ChunksProcessed)
	}
	if summary.Writes.NodesCreated != 2 || summary.Writes.EdgesCreated != 1 {
		t.Errorf("unexpected write summary: %+v", summary.Writes)
	}
	if storage.NodeCount() != 2 || storage.EdgeCount() != 1 {
		t.Errorf("unexpected store contents: %d nodes, %d edges", storage.NodeCount(), storage.EdgeCount())
	}
}

func TestProcessDocumentsIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	file := writeSourceFile(t, dir, "musk.txt", "Elon Musk founded SpaceX in 2002.")

	client := newTestClient(t, 100, 10)
	fake := &fakeAIClient{respond: func(string) (string, error) { return muskResponse, nil }}
	storage := memory.NewInMemoryStorage()

	for i := 0; i < 2; i++ {
		if _, err := client.ProcessDocuments(context.Background(), []loader.SourceFile{file}, fake, storage); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}

	if storage.NodeCount() != 2 {
		t.Errorf("expected repeated ingestion to merge nodes, got %d", storage.NodeCount())
	}
	if storage.EdgeCount() != 1 {
		t.Errorf("expected repeated ingestion to merge edges, got %d", storage.EdgeCount())
	}
}

func TestProcessDocumentsSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeSourceFile(t, dir, "good.txt", "Elon Musk founded SpaceX.")
	missing := loader.SourceFile{
		ID:     "missing.txt",
		Path:   filepath.Join(dir, "missing.txt"),
		Loader: loaderio.NewIOFileLoader(),
	}

	client := newTestClient(t, 100, 10)
	fake := &fakeAIClient{respond: func(string) (string, error) { return muskResponse, nil }}
	storage := memory.NewInMemoryStorage()

	summary, err := client.ProcessDocuments(context.Background(), []loader.SourceFile{missing, good}, fake, storage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.FilesSkipped != 1 || summary.FilesProcessed != 1 {
		t.Errorf("unexpected file counts: %+v", summary)
	}
	if len(summary.LoadFailures) != 1 {
		t.Fatalf("expected 1 recorded load failure, got %d", len(summary.LoadFailures))
	}
	if summary.LoadFailures[0].Path != missing.Path {
		t.Errorf("unexpected failure path: %q", summary.LoadFailures[0].Path)
	}
	if storage.NodeCount() != 2 {
		t.Errorf("expected the readable file to be ingested, got %d nodes", storage.NodeCount())
	}
}

func TestProcessDocumentsIsolatesChunkFailures(t *testing.T) {
	client, err := NewGraphClient(NewGraphClientParams{
		ChunkSize:  5,
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	dir := t.TempDir()

	// Enough tokens for several windows.
	text := strings.Repeat("Elon Musk founded SpaceX. ", 10)
	file := writeSourceFile(t, dir, "musk.txt", text)

	// Fail every attempt for exactly one chunk. Retries resend the same
	// prompt, so pinning the first prompt seen keeps one chunk failing
	// while the rest succeed.
	var mu sync.Mutex
	failingPrompt := ""
	fake := &fakeAIClient{respond: func(prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if failingPrompt == "" {
			failingPrompt = prompt
		}
		if prompt == failingPrompt {
			return "", errors.New("model unavailable")
		}
		return muskResponse, nil
	}}

	storage := memory.NewInMemoryStorage()
	summary, err := client.ProcessDocuments(context.Background(), []loader.SourceFile{file}, fake, storage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.FilesProcessed != 1 {
		t.Errorf("expected file to complete despite chunk failure: %+v", summary)
	}
	if len(summary.SkippedChunks) != 1 {
		t.Fatalf("expected 1 skipped chunk, got %d", len(summary.SkippedChunks))
	}
	if summary.ChunksProcessed == 0 {
		t.Error("expected surviving chunks to be processed")
	}
	if storage.NodeCount() != 2 {
		t.Errorf("expected surviving chunks to be written, got %d nodes", storage.NodeCount())
	}
}

func TestProcessDocumentsStopsOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	file := writeSourceFile(t, dir, "musk.txt", "Elon Musk founded SpaceX.")

	client := newTestClient(t, 100, 10)
	fake := &fakeAIClient{respond: func(string) (string, error) { return muskResponse, nil }}
	storage := &failingStorage{}

	_, err := client.ProcessDocuments(context.Background(), []loader.SourceFile{file}, fake, storage)

	var writeErr *common.WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if writeErr.EntitiesLost != 2 || writeErr.RelationshipsLost != 1 {
		t.Errorf("unexpected loss counts: %+v", writeErr)
	}
}

type failingStorage struct{}

func (s *failingStorage) SaveBatch(ctx context.Context, chunk common.Chunk, entities []common.Entity, relations []common.Relationship) (common.WriteSummary, error) {
	return common.WriteSummary{}, &common.WriteError{
		EntitiesLost:      len(entities),
		RelationshipsLost: len(relations),
		Err:               errors.New("store unavailable"),
	}
}

func (s *failingStorage) QueryTriples(ctx context.Context, query string, limit int) ([]store.Triple, error) {
	return nil, nil
}
