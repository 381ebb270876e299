package cache

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/rtftree/core/rtf"
)

// Digest returns the hex BLAKE3 digest of raw input.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type cachedDocument struct {
	doc  *rtf.Document
	size int64
}

// DocumentCache memoizes decoded documents by the digest of their input.
// Cached documents are shared between callers and must not be modified.
type DocumentCache struct {
	cache   Cache[string, cachedDocument]
	decoder rtf.Config

	// load serialises misses so one input is decoded and counted once.
	load sync.Mutex

	mu    sync.Mutex
	bytes int64
}

// NewDocumentCache creates a document cache decoding with decoder.
func NewDocumentCache(config Config, decoder rtf.Config) *DocumentCache {
	c := &DocumentCache{decoder: decoder}
	onEvict := config.OnEvict
	config.OnEvict = func(key, value interface{}) {
		if cd, ok := value.(cachedDocument); ok {
			c.mu.Lock()
			c.bytes -= cd.size
			c.mu.Unlock()
		}
		if onEvict != nil {
			onEvict(key, value)
		}
	}
	c.cache = NewLRUCache[string, cachedDocument](config)
	return c
}

// NewDefaultDocumentCache creates a document cache with default settings.
func NewDefaultDocumentCache() *DocumentCache {
	config := DefaultConfig()
	config.MaxSize = 50 // documents can be large, keep fewer
	return NewDocumentCache(config, rtf.DefaultConfig())
}

// Parse returns the document for data, decoding it on a miss.
func (c *DocumentCache) Parse(data []byte) (*rtf.Document, error) {
	doc, _, err := c.Load(data)
	return doc, err
}

// Load is Parse that also reports whether the document came from the
// cache. Fatal decode errors are not cached.
func (c *DocumentCache) Load(data []byte) (doc *rtf.Document, cached bool, err error) {
	key := Digest(data)
	c.load.Lock()
	defer c.load.Unlock()

	if cd, ok := c.cache.Get(key); ok {
		return cd.doc, true, nil
	}

	doc, err = rtf.ParseWithConfig(data, c.decoder)
	if err != nil {
		return nil, false, err
	}

	size := int64(len(data))
	c.cache.Put(key, cachedDocument{doc: doc, size: size})
	c.mu.Lock()
	c.bytes += size
	c.mu.Unlock()
	return doc, false, nil
}

// Get retrieves a document by digest.
func (c *DocumentCache) Get(digest string) (*rtf.Document, bool) {
	cd, ok := c.cache.Get(digest)
	return cd.doc, ok
}

// Remove drops a document by digest.
func (c *DocumentCache) Remove(digest string) {
	c.cache.Remove(digest)
}

// Clear removes all documents.
func (c *DocumentCache) Clear() {
	c.load.Lock()
	defer c.load.Unlock()

	c.cache.Clear()
	c.mu.Lock()
	c.bytes = 0
	c.mu.Unlock()
}

// Len returns the number of cached documents.
func (c *DocumentCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics. TotalBytes counts the raw input size of
// the cached documents.
func (c *DocumentCache) Stats() Stats {
	s := c.cache.Stats()
	c.mu.Lock()
	s.TotalBytes = c.bytes
	c.mu.Unlock()
	return s
}
