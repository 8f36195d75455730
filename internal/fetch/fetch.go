// Package fetch supplies repository content to the checkers.
//
// A Fetcher returns one file of a repository branch, or lists a
// repository's files. Absent files are reported as *errors.FetchError
// wrapping errors.ErrNotFound. Checkers never see these errors: they
// convert every failure into a notice.
package fetch

import (
	"context"
	"strings"
)

// DefaultBranch is used when a request leaves Branch empty.
const DefaultBranch = "master"

// Request addresses a file (or, for ListFiles, a path prefix) in a
// repository branch.
type Request struct {
	Username   string `json:"username"`
	Repository string `json:"repository"`
	Path       string `json:"path,omitempty"`
	Branch     string `json:"branch,omitempty"`
}

// WithDefaults fills in the default branch and trims a leading "./" or
// slash, as manifests write project paths as "./file".
func (r Request) WithDefaults() Request {
	if r.Branch == "" {
		r.Branch = DefaultBranch
	}
	r.Path = strings.TrimPrefix(strings.TrimPrefix(r.Path, "./"), "/")
	return r
}

// String renders "username/repository/path@branch".
func (r Request) String() string {
	s := r.Username + "/" + r.Repository
	if r.Path != "" {
		s += "/" + r.Path
	}
	if r.Branch != "" {
		s += "@" + r.Branch
	}
	return s
}

// Fetcher is the capability the checkers consume.
type Fetcher interface {
	// GetFile returns the content of req.Path.
	GetFile(ctx context.Context, req Request) (string, error)
	// ListFiles returns repository-relative paths starting with req.Path.
	ListFiles(ctx context.Context, req Request) ([]string, error)
}

// WebFetcher retrieves arbitrary web pages for link checks.
type WebFetcher interface {
	GetURL(ctx context.Context, url string) (string, error)
}

func filterPrefix(paths []string, prefix string) []string {
	if prefix == "" {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}
