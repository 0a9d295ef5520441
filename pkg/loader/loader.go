package loader

import (
	"context"
	"path/filepath"

	"github.com/graphloom/graphloom/pkg/common"
)

// SourceFile represents a document file that can be loaded into text for
// graph construction. The actual content is retrieved via the associated
// FileLoader, so the same SourceFile value works against the local
// filesystem or a remote bucket.
type SourceFile struct {
	ID     string
	Path   string
	Loader FileLoader
}

// FileLoader defines the interface for loading the contents of a
// SourceFile. Implementations may load files from disk, object storage,
// or other sources.
type FileLoader interface {
	GetFileText(ctx context.Context, file SourceFile) ([]byte, error)
}

// GetText retrieves the raw text content of the file using its Loader.
func (f *SourceFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// GetDocument loads the file and wraps it as a Document for the
// pipeline. Failures become LoadError so the caller can skip the file
// and keep going.
func (f *SourceFile) GetDocument(ctx context.Context) (common.Document, error) {
	text, err := f.GetText(ctx)
	if err != nil {
		return common.Document{}, &common.LoadError{Path: f.Path, Err: err}
	}
	return common.Document{
		Text:   string(text),
		Source: filepath.Base(f.Path),
	}, nil
}

// CacheKey returns the cache key loaders use for a file.
func CacheKey(file SourceFile) string {
	return file.ID + ":" + file.Path
}
