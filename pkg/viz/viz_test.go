package viz

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/store"
	"github.com/graphloom/graphloom/pkg/store/memory"
)

func seededStorage(t *testing.T) *memory.InMemoryStorage {
	t.Helper()
	storage := memory.NewInMemoryStorage()

	musk := common.Entity{Key: "Elon Musk", Kind: "PERSON"}
	spacex := common.Entity{Key: "SpaceX", Kind: "ORGANIZATION"}
	tesla := common.Entity{Key: "Tesla", Kind: "ORGANIZATION"}

	_, err := storage.SaveBatch(context.Background(), common.Chunk{ID: "c1"},
		[]common.Entity{musk, spacex, tesla},
		[]common.Relationship{
			{Type: "FOUNDED", Source: &musk, Target: &spacex},
			{Type: "LEADS", Source: &musk, Target: &tesla},
		})
	if err != nil {
		t.Fatalf("failed to seed storage: %v", err)
	}
	return storage
}

func TestRenderWritesSelfContainedPage(t *testing.T) {
	storage := seededStorage(t)
	outPath := filepath.Join(t.TempDir(), "graph.html")

	path, err := Render(context.Background(), storage, "", 0, outPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != outPath {
		t.Errorf("expected output at %s, got %s", outPath, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	page := string(content)

	for _, want := range []string{"Elon Musk", "SpaceX", "Tesla", "FOUNDED", "LEADS", "vis.Network"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRenderDedupesSharedNodes(t *testing.T) {
	storage := seededStorage(t)
	outPath := filepath.Join(t.TempDir(), "graph.html")

	if _, err := Render(context.Background(), storage, "", 0, outPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	// Elon Musk appears in both triples but must be one node.
	if got := strings.Count(string(content), `"label":"Elon Musk"`); got != 1 {
		t.Errorf("expected 1 node entry for shared endpoint, got %d", got)
	}
}

func TestRenderDoesNotMutateStore(t *testing.T) {
	storage := seededStorage(t)
	nodesBefore, edgesBefore := storage.NodeCount(), storage.EdgeCount()

	if _, err := Render(context.Background(), storage, "", 0, filepath.Join(t.TempDir(), "g.html")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storage.NodeCount() != nodesBefore || storage.EdgeCount() != edgesBefore {
		t.Error("rendering changed the store")
	}
}

func TestRenderEmptyGraph(t *testing.T) {
	storage := memory.NewInMemoryStorage()
	outPath := filepath.Join(t.TempDir(), "empty.html")

	if _, err := Render(context.Background(), storage, "", 0, outPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(content), "vis.Network") {
		t.Error("expected a valid page even with no data")
	}
}

func TestNodeLabelFallback(t *testing.T) {
	tests := []struct {
		name string
		node store.Node
		want string
	}{
		{"name wins", store.Node{ID: "n1", Properties: map[string]any{"name": "Ada", "title": "Countess"}}, "Ada"},
		{"title next", store.Node{ID: "n1", Properties: map[string]any{"title": "Countess"}}, "Countess"},
		{"id last", store.Node{ID: "n1", Properties: map[string]any{}}, "n1"},
		{"empty name skipped", store.Node{ID: "n1", Properties: map[string]any{"name": ""}}, "n1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nodeLabel(tt.node); got != tt.want {
				t.Errorf("nodeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
