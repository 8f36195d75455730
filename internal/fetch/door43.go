package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/archive"
)

// DefaultDoor43URL is the public Door43 content service.
const DefaultDoor43URL = "https://git.door43.org"

// maxBody bounds a single downloaded file or archive.
const maxBody = 256 << 20

// Door43 fetches files from a Gitea-style content server: raw files from
// {base}/{user}/{repo}/raw/branch/{branch}/{path} and file listings from
// the branch zip archive at {base}/{user}/{repo}/archive/{branch}.zip.
// It also satisfies WebFetcher.
type Door43 struct {
	BaseURL string
	Client  *http.Client
}

// NewDoor43 returns a fetcher for baseURL with the given request timeout.
func NewDoor43(baseURL string, timeout time.Duration) *Door43 {
	if baseURL == "" {
		baseURL = DefaultDoor43URL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Door43{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (d *Door43) rawURL(req Request) string {
	return fmt.Sprintf("%s/%s/%s/raw/branch/%s/%s", d.BaseURL,
		url.PathEscape(req.Username), url.PathEscape(req.Repository),
		url.PathEscape(req.Branch), escapePath(req.Path))
}

func (d *Door43) archiveURL(req Request) string {
	return fmt.Sprintf("%s/%s/%s/archive/%s.zip", d.BaseURL,
		url.PathEscape(req.Username), url.PathEscape(req.Repository), url.PathEscape(req.Branch))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// GetFile downloads one raw file.
func (d *Door43) GetFile(ctx context.Context, req Request) (string, error) {
	req = req.WithDefaults()
	body, err := d.get(ctx, d.rawURL(req))
	if err != nil {
		if errors.IsNotFound(err) {
			return "", errors.NewFetchNotFound(req.Username, req.Repository, req.Path, req.Branch)
		}
		return "", errors.NewFetch(req.Username, req.Repository, req.Path, req.Branch, err)
	}
	return string(body), nil
}

// ListFiles downloads the branch archive and lists its files.
func (d *Door43) ListFiles(ctx context.Context, req Request) ([]string, error) {
	req = req.WithDefaults()
	body, err := d.get(ctx, d.archiveURL(req))
	if err != nil {
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, err)
	}
	snap, err := archive.Decode(body, archive.FormatZip)
	if err != nil {
		return nil, errors.NewFetch(req.Username, req.Repository, "", req.Branch, err)
	}
	return snap.Files(req.Path), nil
}

// GetURL downloads an arbitrary page.
func (d *Door43) GetURL(ctx context.Context, rawURL string) (string, error) {
	body, err := d.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (d *Door43) get(ctx context.Context, target string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.NewValidation("url", err.Error())
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewNotFound("url", target)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("GET %s: %s", target, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.NewIO("read", target, err)
	}
	return body, nil
}
