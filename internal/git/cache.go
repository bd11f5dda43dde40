package git

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kurobon/gitlanes/internal/graph"
)

// DefaultCacheSize is the number of commit records kept by NewCached when
// size is not positive.
const DefaultCacheSize = 4096

// Cached keeps recently read commit records in memory. Commits are
// immutable so entries never go stale; references are always read through.
type Cached struct {
	graph.Backend
	commits *lru.Cache[graph.CommitID, *graph.CommitRecord]
}

// NewCached wraps b with an LRU of size commit records.
func NewCached(b graph.Backend, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	commits, err := lru.New[graph.CommitID, *graph.CommitRecord](size)
	if err != nil {
		return nil, fmt.Errorf("commit cache: %w", err)
	}
	return &Cached{Backend: b, commits: commits}, nil
}

// GetCommit returns the cached record for id, reading and caching it on a
// miss. Errors are not cached.
func (c *Cached) GetCommit(ctx context.Context, id graph.CommitID) (*graph.CommitRecord, error) {
	if rec, ok := c.commits.Get(id); ok {
		return rec, nil
	}
	rec, err := c.Backend.GetCommit(ctx, id)
	if err != nil {
		return nil, err
	}
	c.commits.Add(id, rec)
	return rec, nil
}

// BoundedTraversal delegates to the wrapped backend when it is a
// graph.Traverser and caches what it returns. Otherwise it returns nothing
// and the walk reads commits one at a time.
func (c *Cached) BoundedTraversal(ctx context.Context, tips []graph.CommitID, limit int) ([]*graph.CommitRecord, error) {
	t, ok := c.Backend.(graph.Traverser)
	if !ok {
		return nil, nil
	}
	records, err := t.BoundedTraversal(ctx, tips, limit)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		c.commits.Add(rec.ID, rec)
	}
	return records, nil
}

// Len reports the number of cached commits.
func (c *Cached) Len() int { return c.commits.Len() }

// Purge drops every cached commit.
func (c *Cached) Purge() { c.commits.Purge() }
