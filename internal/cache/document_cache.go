package cache

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	defaultDocumentTTL     = 10 * time.Minute
	defaultDocumentEntries = 256
)

// DocumentCache memoizes rendered documents per work order. An entry only
// answers for the revision it was rendered from.
type DocumentCache interface {
	Get(id snowflake.ID, revision int64) ([]byte, bool)
	Set(id snowflake.ID, revision int64, data []byte)
	Invalidate(id snowflake.ID)
}

type renderedDocument struct {
	revision int64
	data     []byte
}

type documentCache struct {
	entries Cache[snowflake.ID, renderedDocument]
	ttl     time.Duration
}

func NewDocumentCache(ttl time.Duration, now func() time.Time) DocumentCache {
	if ttl <= 0 {
		ttl = defaultDocumentTTL
	}
	return &documentCache{
		entries: NewTTLCache[snowflake.ID, renderedDocument](defaultDocumentEntries, now),
		ttl:     ttl,
	}
}

func (c *documentCache) Get(id snowflake.ID, revision int64) ([]byte, bool) {
	doc, ok := c.entries.Get(id)
	if !ok || doc.revision != revision {
		return nil, false
	}
	return doc.data, true
}

// Set keeps the newest revision seen for id.
func (c *documentCache) Set(id snowflake.ID, revision int64, data []byte) {
	if current, ok := c.entries.Get(id); ok && current.revision > revision {
		return
	}
	c.entries.Set(id, renderedDocument{revision: revision, data: data}, c.ttl)
}

func (c *documentCache) Invalidate(id snowflake.ID) {
	c.entries.Delete(id)
}
