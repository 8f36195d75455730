package config

import (
	"context"
	"path/filepath"

	"github.com/FocuswithJustin/tcvalidate/core/disabled"
	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/cache"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
	"github.com/FocuswithJustin/tcvalidate/internal/store"
)

// storeFile is the SQLite file created inside CacheDir.
const storeFile = "content.db"

// Runtime holds the long-lived collaborators built from a Config: the
// caching fetcher, the persistent store, the "already checked" set and
// the disabling rules. It is safe for concurrent checks.
type Runtime struct {
	Config  Config
	Fetcher *fetch.Caching
	Store   *store.Store
	Checked *cache.Checked
	Rules   *disabled.Rules
}

// Open builds the runtime for cfg.
func Open(cfg Config) (*Runtime, error) {
	base, err := source(cfg)
	if err != nil {
		return nil, err
	}

	var st *store.Store
	if cfg.CacheDir != "" {
		st, err = store.Open(filepath.Join(cfg.CacheDir, storeFile), cfg.CacheMaxAge)
		if err != nil {
			return nil, errors.Wrap(err, "open content store")
		}
	}
	caching, err := fetch.NewCaching(base, cfg.CacheSize, st)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, errors.Wrap(err, "create fetch cache")
	}

	rules := disabled.Default()
	if cfg.RulesFile != "" {
		rules, err = disabled.Load(cfg.RulesFile)
		if err != nil {
			if st != nil {
				st.Close()
			}
			return nil, errors.Wrap(err, "load disabling rules")
		}
	}

	return &Runtime{
		Config:  cfg,
		Fetcher: caching,
		Store:   st,
		Checked: cache.NewChecked(cfg.CheckedTTL),
		Rules:   rules,
	}, nil
}

func source(cfg Config) (fetch.Fetcher, error) {
	switch cfg.Source {
	case SourceDir:
		return fetch.NewDir(cfg.SourceRoot), nil
	case SourceArchive:
		return fetch.NewArchive(cfg.SourceRoot), nil
	case SourceObjectStore:
		o, err := fetch.NewObjectStore(cfg.ObjectStore)
		if err != nil {
			return nil, errors.Wrap(err, "connect object store")
		}
		return o, nil
	}
	return fetch.NewDoor43(cfg.Door43URL, cfg.HTTPTimeout), nil
}

// Options returns the configured checking options wired to the runtime.
func (r *Runtime) Options() check.Options {
	opts := r.Config.Options()
	opts.Fetcher = r.Fetcher
	opts.Web = r.Fetcher
	opts.Checked = r.Checked
	opts.Rules = r.Rules
	return opts
}

// ClearCaches empties the fetch cache, the persistent store and the
// "already checked" set, returning the number of entries removed.
func (r *Runtime) ClearCaches(ctx context.Context) (int, error) {
	n, err := r.Fetcher.Clear(ctx)
	checked := r.Checked.Clear()
	logging.CacheCleared(ctx, "checked", checked)
	return n + checked, err
}

// Close releases the persistent store.
func (r *Runtime) Close() error {
	if r.Store == nil {
		return nil
	}
	return r.Store.Close()
}
