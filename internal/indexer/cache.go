package indexer

import (
	"github.com/dshills/phpdoc-mcp/internal/storage"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// Cache hands back the result of an earlier run for a file whose content
// hash has not changed
type Cache interface {
	Lookup(path, hash string) (*types.File, bool)
}

// MemoryCache is a Cache over the files of a previous Result
type MemoryCache map[string]*types.File

// NewMemoryCache indexes files by path
func NewMemoryCache(files []*types.File) MemoryCache {
	c := make(MemoryCache, len(files))
	for _, f := range files {
		c[f.Path] = f
	}
	return c
}

// Lookup implements Cache
func (c MemoryCache) Lookup(path, hash string) (*types.File, bool) {
	f, ok := c[path]
	if !ok || hash == "" || f.ContentHash != hash {
		return nil, false
	}
	return f, true
}

// storedCache serves cached payloads of the files a project already has in
// storage. It is loaded before the workers start and only read afterwards.
type storedCache map[string]*storage.File

func newStoredCache(files []*storage.File) storedCache {
	c := make(storedCache, len(files))
	for _, f := range files {
		c[f.FilePath] = f
	}
	return c
}

// Lookup implements Cache; a payload that no longer decodes is a miss
func (c storedCache) Lookup(path, hash string) (*types.File, bool) {
	row, ok := c[path]
	if !ok || hash == "" || row.HashHex() != hash {
		return nil, false
	}
	f, err := row.DecodePayload()
	if err != nil {
		return nil, false
	}
	return f, true
}
