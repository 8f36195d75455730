package fetch

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
)

// Map is a fixture-backed fetcher keyed by "username/repository/path".
// Branches are ignored. It is safe for concurrent use.
type Map struct {
	mu    sync.RWMutex
	files map[string]string
	calls int
}

// NewMap returns a Map holding files.
func NewMap(files map[string]string) *Map {
	m := &Map{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// Set adds or replaces one file.
func (m *Map) Set(username, repository, path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string]string)
	}
	m.files[username+"/"+repository+"/"+path] = content
}

// Calls returns how many GetFile and ListFiles calls were served.
func (m *Map) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *Map) GetFile(ctx context.Context, req Request) (string, error) {
	req = req.WithDefaults()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	content, ok := m.files[req.Username+"/"+req.Repository+"/"+req.Path]
	if !ok {
		return "", errors.NewFetchNotFound(req.Username, req.Repository, req.Path, req.Branch)
	}
	return content, nil
}

func (m *Map) ListFiles(ctx context.Context, req Request) ([]string, error) {
	req = req.WithDefaults()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	prefix := req.Username + "/" + req.Repository + "/"
	var paths []string
	for key := range m.files {
		if strings.HasPrefix(key, prefix) {
			paths = append(paths, strings.TrimPrefix(key, prefix))
		}
	}
	if len(paths) == 0 {
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, errors.NewNotFound("repository", req.Repository))
	}
	sort.Strings(paths)
	return filterPrefix(paths, req.Path), nil
}

// GetURL serves web pages stored under their full URL.
func (m *Map) GetURL(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	content, ok := m.files[url]
	if !ok {
		return "", errors.NewNotFound("url", url)
	}
	return content, nil
}
