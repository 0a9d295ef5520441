package doc

import (
	"context"
	"sync"

	"github.com/graphloom/graphloom/pkg/loader"

	"golang.org/x/sync/singleflight"
)

const docXMLMax = 50 << 20

// DocFileLoader loads Word documents (.docx) and extracts their text
// content from the document XML.
type DocFileLoader struct {
	loader loader.FileLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewDocFileLoader creates a document loader that extracts text directly
// from docx XML. The inner loader supplies the raw file bytes.
func NewDocFileLoader(inner loader.FileLoader) *DocFileLoader {
	return &DocFileLoader{
		loader: inner,
		cache:  make(map[string][]byte),
	}
}

// GetFileText extracts text content from a Word document.
func (l *DocFileLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		parsed, err := parseDocx(content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = parsed
		l.cacheMu.Unlock()

		return parsed, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
