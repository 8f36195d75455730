package fetch

import (
	"context"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
	"github.com/FocuswithJustin/tcvalidate/internal/store"
)

// DefaultCacheSize is the number of files kept in memory by NewCaching.
const DefaultCacheSize = 2048

// Caching wraps a Fetcher with an in-memory LRU, call de-duplication and
// an optional persistent store. Not-found results are cached in memory
// so repeated lookups of a missing article cost one fetch.
type Caching struct {
	next   Fetcher
	files  *lru.Cache[string, cachedFile]
	lists  *lru.Cache[string, []string]
	group  singleflight.Group
	store  *store.Store
	hits   atomic.Int64
	misses atomic.Int64
}

type cachedFile struct {
	content  string
	notFound bool
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Files  int   `json:"files"`
	Lists  int   `json:"lists"`
}

// NewCaching wraps next. size <= 0 selects DefaultCacheSize; st may be nil.
func NewCaching(next Fetcher, size int, st *store.Store) (*Caching, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.New[string, cachedFile](size)
	if err != nil {
		return nil, err
	}
	lists, err := lru.New[string, []string](size/8 + 1)
	if err != nil {
		return nil, err
	}
	return &Caching{next: next, files: files, lists: lists, store: st}, nil
}

func cacheKey(req Request) string {
	return strings.Join([]string{req.Username, req.Repository, req.Branch, req.Path}, "\x00")
}

func storeKey(req Request) store.Key {
	return store.Key{Username: req.Username, Repository: req.Repository, Path: req.Path, Branch: req.Branch}
}

// GetFile serves from memory, then the store, then the wrapped fetcher.
func (c *Caching) GetFile(ctx context.Context, req Request) (string, error) {
	req = req.WithDefaults()
	key := cacheKey(req)
	if f, ok := c.files.Get(key); ok {
		c.hits.Add(1)
		if f.notFound {
			return "", errors.NewFetchNotFound(req.Username, req.Repository, req.Path, req.Branch)
		}
		return f.content, nil
	}

	v, err, _ := c.group.Do("f\x00"+key, func() (any, error) {
		if f, ok := c.files.Get(key); ok {
			return f, nil
		}
		if c.store != nil {
			if content, ok, err := c.store.Get(ctx, storeKey(req)); err == nil && ok {
				c.hits.Add(1)
				f := cachedFile{content: string(content)}
				c.files.Add(key, f)
				return f, nil
			}
		}
		c.misses.Add(1)
		content, err := c.next.GetFile(ctx, req)
		if err != nil {
			if errors.IsNotFound(err) {
				f := cachedFile{notFound: true}
				c.files.Add(key, f)
				logging.DebugContext(ctx, "fetch_not_found", "target", req.String())
				return f, nil
			}
			logging.FetchFailed(ctx, req.Username, req.Repository, req.Path, req.Branch, err)
			return nil, err
		}
		f := cachedFile{content: content}
		c.files.Add(key, f)
		if c.store != nil {
			if err := c.store.Put(ctx, storeKey(req), []byte(content)); err != nil {
				logging.WarnContext(ctx, "store_put_failed", "target", req.String(), "error", err.Error())
			}
		}
		return f, nil
	})
	if err != nil {
		return "", err
	}
	if f := v.(cachedFile); !f.notFound {
		return f.content, nil
	}
	return "", errors.NewFetchNotFound(req.Username, req.Repository, req.Path, req.Branch)
}

// ListFiles caches listings in memory only.
func (c *Caching) ListFiles(ctx context.Context, req Request) ([]string, error) {
	req = req.WithDefaults()
	key := cacheKey(req)
	if paths, ok := c.lists.Get(key); ok {
		c.hits.Add(1)
		return append([]string(nil), paths...), nil
	}
	v, err, _ := c.group.Do("l\x00"+key, func() (any, error) {
		if paths, ok := c.lists.Get(key); ok {
			return paths, nil
		}
		c.misses.Add(1)
		paths, err := c.next.ListFiles(ctx, req)
		if err != nil {
			logging.FetchFailed(ctx, req.Username, req.Repository, req.Path, req.Branch, err)
			return nil, err
		}
		c.lists.Add(key, paths)
		return paths, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// GetURL passes web page requests through when the wrapped fetcher
// supports them.
func (c *Caching) GetURL(ctx context.Context, url string) (string, error) {
	web, ok := c.next.(WebFetcher)
	if !ok {
		return "", errors.NewUnsupported("web fetch", "wrapped fetcher cannot load URLs")
	}
	v, err, _ := c.group.Do("u\x00"+url, func() (any, error) {
		return web.GetURL(ctx, url)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Clear drops all cached content, including the persistent store, and
// returns the number of entries removed.
func (c *Caching) Clear(ctx context.Context) (int, error) {
	n := c.files.Len() + c.lists.Len()
	c.files.Purge()
	c.lists.Purge()
	if a, ok := c.next.(*Archive); ok {
		a.Forget()
	}
	if c.store != nil {
		removed, err := c.store.Clear(ctx)
		if err != nil {
			return n, err
		}
		n += removed
	}
	logging.CacheCleared(ctx, "fetch", n)
	return n, nil
}

// Stats returns counters since creation.
func (c *Caching) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Files:  c.files.Len(),
		Lists:  c.lists.Len(),
	}
}
