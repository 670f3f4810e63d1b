package http

import (
	"fmt"
	"maps"

	"github.com/freekieb7/weblet/filesystem"
)

type CacheEntry struct {
	Body []byte
	// Mime is empty when the type could not be guessed.
	Mime string
}

// Cache holds pre-rendered payloads keyed by name. It is filled before the
// server starts; the server serves from a frozen copy.
type Cache struct {
	entries map[string]CacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]CacheEntry)}
}

func (cache *Cache) Set(key string, body []byte, mime string) {
	cache.entries[key] = CacheEntry{Body: body, Mime: mime}
}

func (cache *Cache) Get(key string) (CacheEntry, bool) {
	entry, found := cache.entries[key]
	return entry, found
}

func (cache *Cache) Len() int {
	return len(cache.entries)
}

// CacheFile reads path fully and stores it under path itself.
func (cache *Cache) CacheFile(path string) error {
	content, err := filesystem.ReadFile(path)
	if err != nil {
		return fmt.Errorf("http: caching %s: %w", path, err)
	}

	mimeType := filesystem.MimeType(path)
	if mimeType == filesystem.DefaultMimeType {
		mimeType = ""
	}

	cache.Set(path, content, mimeType)
	return nil
}

// Response builds the response for key using the same MIME rules as the
// static resolver.
func (cache *Cache) Response(key string) (*Response, error) {
	entry, found := cache.Get(key)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoCacheEntry, key)
	}

	return contentResponse(entry.Body, entry.Mime), nil
}

func (cache *Cache) clone() *Cache {
	return &Cache{entries: maps.Clone(cache.entries)}
}
