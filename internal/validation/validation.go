// Package validation checks names and paths that arrive from requests
// before they reach the filesystem, and sniffs archive contents.
package validation

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
)

// Limits on request-supplied values.
const (
	// MaxSnapshotSize is the largest repository snapshot decoded in memory (256 MB).
	MaxSnapshotSize = 256 << 20
	// MaxNameLength bounds usernames, repository names and branches.
	MaxNameLength = 255
	// MaxPathLength bounds file paths inside a repository.
	MaxPathLength = 4096
)

// Name checks a single path segment such as a username, a repository
// name or a branch.
func Name(field, name string) error {
	if name == "" {
		return errors.NewValidation(field, "cannot be empty")
	}
	if len(name) > MaxNameLength {
		return errors.NewValidation(field, fmt.Sprintf("longer than %d bytes", MaxNameLength))
	}
	if name == "." || name == ".." {
		return errors.NewValidation(field, "reserved name")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.NewValidation(field, "path separator not allowed")
	}
	if err := printable(field, name); err != nil {
		return err
	}
	// Leading hyphens get confused with flags by git and tar.
	if strings.HasPrefix(name, "-") {
		return errors.NewValidation(field, "cannot start with a hyphen")
	}
	return nil
}

// RepoPath checks a slash-separated path relative to a repository root
// and returns it cleaned.
func RepoPath(field, p string) (string, error) {
	if p == "" {
		return "", errors.NewValidation(field, "cannot be empty")
	}
	if len(p) > MaxPathLength {
		return "", errors.NewValidation(field, fmt.Sprintf("longer than %d bytes", MaxPathLength))
	}
	if err := printable(field, p); err != nil {
		return "", err
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if strings.HasPrefix(p, "/") || filepath.IsAbs(p) {
		return "", errors.NewValidation(field, "absolute path not allowed")
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.NewValidation(field, "path escapes the repository")
	}
	return clean, nil
}

// Within joins the relative path p onto base and verifies the result
// stays inside base.
func Within(base, p string) (string, error) {
	clean, err := RepoPath("path", p)
	if err != nil {
		return "", err
	}
	full := filepath.Join(base, filepath.FromSlash(clean))
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", errors.NewIO("resolve", base, err)
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", errors.NewIO("resolve", full, err)
	}
	rel, err := filepath.Rel(absBase, absFull)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.NewValidation("path", "path escapes the repository")
	}
	return full, nil
}

func printable(field, s string) error {
	for _, r := range s {
		if r == 0 {
			return errors.NewValidation(field, "null byte not allowed")
		}
		if unicode.IsControl(r) {
			return errors.NewValidation(field, "control character not allowed")
		}
	}
	return nil
}

// Kind is a content type detected from leading bytes.
type Kind string

const (
	KindZip     Kind = "zip"
	KindGzip    Kind = "gzip"
	KindXZ      Kind = "xz"
	KindTar     Kind = "tar"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

var magicBytes = []struct {
	kind   Kind
	magic  []byte
	offset int
}{
	{KindZip, []byte{0x50, 0x4b, 0x03, 0x04}, 0},
	{KindZip, []byte{0x50, 0x4b, 0x05, 0x06}, 0}, // empty archive
	{KindGzip, []byte{0x1f, 0x8b}, 0},
	{KindXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{KindTar, []byte("ustar"), 257},
}

// Detect sniffs the kind of data from its first bytes.
func Detect(data []byte) Kind {
	for _, m := range magicBytes {
		end := m.offset + len(m.magic)
		if len(data) >= end && bytes.Equal(data[m.offset:end], m.magic) {
			return m.kind
		}
	}
	if isLikelyText(data) {
		return KindText
	}
	return KindUnknown
}

// Snapshot verifies that data looks like the archive format its file
// name claims (zip, tar.gz or tar.xz).
func Snapshot(name string, data []byte) error {
	if len(data) > MaxSnapshotSize {
		return errors.NewValidation("snapshot", fmt.Sprintf("%s is larger than %d bytes", name, MaxSnapshotSize))
	}
	var want Kind
	switch {
	case strings.HasSuffix(name, ".zip"):
		want = KindZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		want = KindGzip
	case strings.HasSuffix(name, ".tar.xz"):
		want = KindXZ
	default:
		return errors.NewUnsupported("snapshot", name)
	}
	if got := Detect(data); got != want {
		return errors.NewValidation("snapshot", fmt.Sprintf("%s holds %s data, not %s", name, got, want))
	}
	return nil
}

// isLikelyText reports whether buf looks like text: no NUL bytes and
// mostly printable characters in the first 512 bytes.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	if len(buf) > 512 {
		buf = buf[:512]
	}
	if bytes.IndexByte(buf, 0) >= 0 {
		return false
	}
	nonPrintable := 0
	for _, b := range buf {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' {
			nonPrintable++
		}
	}
	return nonPrintable*10 < len(buf)
}
