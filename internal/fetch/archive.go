package fetch

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/archive"
	"github.com/FocuswithJustin/tcvalidate/internal/validation"
)

// Archive serves repository snapshots stored as
// Root/username/repository-branch.{zip,tar.gz,tgz,tar.xz}. Each snapshot
// is decoded once and kept in memory.
type Archive struct {
	Root string

	mu        sync.Mutex
	snapshots map[string]*archive.Snapshot
}

// NewArchive returns an Archive fetcher rooted at root.
func NewArchive(root string) *Archive {
	return &Archive{Root: root, snapshots: make(map[string]*archive.Snapshot)}
}

func (a *Archive) snapshot(req Request) (*archive.Snapshot, error) {
	for _, f := range []struct{ field, value string }{
		{"username", req.Username},
		{"repository", req.Repository},
		{"branch", req.Branch},
	} {
		if err := validation.Name(f.field, f.value); err != nil {
			return nil, err
		}
	}
	key := req.Username + "/" + req.Repository + "@" + req.Branch
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.snapshots[key]; ok {
		return s, nil
	}
	if a.snapshots == nil {
		a.snapshots = make(map[string]*archive.Snapshot)
	}

	for _, ext := range archive.Extensions {
		path := filepath.Join(a.Root, req.Username, req.Repository+"-"+req.Branch+ext)
		s, err := archive.Load(path)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		a.snapshots[key] = s
		return s, nil
	}
	return nil, errors.NewNotFound("snapshot", req.Repository+"-"+req.Branch)
}

// GetFile reads one file from the snapshot.
func (a *Archive) GetFile(ctx context.Context, req Request) (string, error) {
	req = req.WithDefaults()
	s, err := a.snapshot(req)
	if err != nil {
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, err)
	}
	content, err := s.ReadFile(req.Path)
	if err != nil {
		return "", errors.NewFetchNotFound(req.Username, req.Repository, req.Path, req.Branch)
	}
	return string(content), nil
}

// ListFiles lists the snapshot's files under req.Path.
func (a *Archive) ListFiles(ctx context.Context, req Request) ([]string, error) {
	req = req.WithDefaults()
	s, err := a.snapshot(req)
	if err != nil {
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, err)
	}
	return s.Files(req.Path), nil
}

// Forget drops every decoded snapshot.
func (a *Archive) Forget() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.snapshots)
	a.snapshots = make(map[string]*archive.Snapshot)
	return n
}
