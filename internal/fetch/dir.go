package fetch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/validation"
)

// Dir serves local checkouts laid out as Root/username/repository/path.
// Branches are not distinguished: a checkout is whatever is on disk.
type Dir struct {
	Root string
}

// NewDir returns a Dir fetcher rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

func (d *Dir) repoDir(req Request) (string, error) {
	if err := validation.Name("username", req.Username); err != nil {
		return "", err
	}
	if err := validation.Name("repository", req.Repository); err != nil {
		return "", err
	}
	return filepath.Join(d.Root, req.Username, req.Repository), nil
}

// GetFile reads one file from disk.
func (d *Dir) GetFile(ctx context.Context, req Request) (string, error) {
	req = req.WithDefaults()
	if err := ctx.Err(); err != nil {
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, err)
	}
	root, err := d.repoDir(req)
	if err != nil {
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, err)
	}
	path, err := validation.Within(root, req.Path)
	if err != nil {
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewFetchNotFound(req.Username, req.Repository, req.Path, req.Branch)
		}
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, errors.NewIO("read", path, err))
	}
	return string(data), nil
}

// ListFiles walks the checkout, skipping hidden entries such as .git.
func (d *Dir) ListFiles(ctx context.Context, req Request) ([]string, error) {
	req = req.WithDefaults()
	root, err := d.repoDir(req)
	if err != nil {
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, err)
	}
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, errors.NewNotFound("repository", req.Repository))
		}
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, err)
	}
	sort.Strings(paths)
	return filterPrefix(paths, req.Path), nil
}
