package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphloom/graphloom/pkg/loader"
	"github.com/graphloom/graphloom/pkg/loader/doc"
	lio "github.com/graphloom/graphloom/pkg/loader/io"
	"github.com/graphloom/graphloom/pkg/logger"
)

// ListingLoader is a FileLoader that can also enumerate its files, like
// an object-store bucket.
type ListingLoader interface {
	loader.FileLoader
	List(ctx context.Context, prefix string) ([]loader.SourceFile, error)
}

// routeLoader picks the loader for a file by extension. Plain text and
// markdown pass through raw; .docx goes through the Word document
// parser. Anything else reports false and is skipped.
func routeLoader(name string, raw loader.FileLoader, docLoader loader.FileLoader) (loader.FileLoader, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return raw, true
	case ".docx":
		return docLoader, true
	default:
		return nil, false
	}
}

// Directory scans dir for supported document files and returns one
// SourceFile per match, in lexical order. Unsupported extensions are
// skipped with a debug log.
func Directory(dir string) ([]loader.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory %s: %w", dir, err)
	}

	ioLoader := lio.NewIOFileLoader()
	docLoader := doc.NewDocFileLoader(ioLoader)

	var files []loader.SourceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		fileLoader, ok := routeLoader(entry.Name(), ioLoader, docLoader)
		if !ok {
			logger.Debug("[Scan] Skipping unsupported file", "path", path)
			continue
		}

		files = append(files, loader.SourceFile{
			ID:     entry.Name(),
			Path:   path,
			Loader: fileLoader,
		})
	}

	return files, nil
}

// Bucket lists the objects under prefix and applies the same extension
// routing Directory does, so a .docx stored remotely still goes through
// the document parser and unsupported keys are skipped.
func Bucket(ctx context.Context, src ListingLoader, prefix string) ([]loader.SourceFile, error) {
	listed, err := src.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	docLoader := doc.NewDocFileLoader(src)

	var files []loader.SourceFile
	for _, file := range listed {
		fileLoader, ok := routeLoader(file.Path, src, docLoader)
		if !ok {
			logger.Debug("[Scan] Skipping unsupported object", "key", file.Path)
			continue
		}
		file.Loader = fileLoader
		files = append(files, file)
	}

	return files, nil
}
