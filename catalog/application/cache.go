package application

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/openmerch/catalog/catalog/domain"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultCacheMaxSize = 256

	categoryKeyPrefix = "category:"
)

// MetadataCache is an owner-keyed TTL cache over the persistence layer,
// used by the read path to avoid redundant metadata reads. It holds no
// authority: every mutation invalidates it wholesale.
type MetadataCache struct {
	lru *expirable.LRU[string, *domain.Category]
}

// NewMetadataCache builds a cache with the given TTL and entry bound.
// Non-positive arguments fall back to the defaults.
func NewMetadataCache(ttl time.Duration, maxSize int) *MetadataCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = defaultCacheMaxSize
	}
	return &MetadataCache{
		lru: expirable.NewLRU[string, *domain.Category](maxSize, nil, ttl),
	}
}

// Get returns the cached category for id, or nil when absent or expired.
func (c *MetadataCache) Get(id string) *domain.Category {
	cat, ok := c.lru.Get(categoryKeyPrefix + id)
	if !ok {
		return nil
	}
	return cat
}

// Set stores a category; the LRU bound evicts the oldest entry when full.
func (c *MetadataCache) Set(id string, cat *domain.Category) {
	c.lru.Add(categoryKeyPrefix+id, cat)
}

// Invalidate removes every category-prefixed entry. Called on any category
// create, update or delete.
func (c *MetadataCache) Invalidate() {
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, categoryKeyPrefix) {
			c.lru.Remove(key)
		}
	}
}

// Len reports how many live entries the cache holds.
func (c *MetadataCache) Len() int {
	return c.lru.Len()
}
