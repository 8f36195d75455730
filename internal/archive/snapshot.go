package archive

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
)

// Snapshot is an in-memory repository tree. Paths are relative to the
// repository root: a single top-level directory shared by every entry
// (as in "en_tn-master/manifest.yaml") is stripped.
type Snapshot struct {
	files map[string][]byte
	names []string
}

func newSnapshot(raw map[string][]byte) *Snapshot {
	root := commonRoot(raw)
	s := &Snapshot{files: make(map[string][]byte, len(raw))}
	for name, content := range raw {
		rel := strings.TrimPrefix(strings.TrimPrefix(name, "./"), root)
		if rel == "" {
			continue
		}
		s.files[rel] = content
		s.names = append(s.names, rel)
	}
	sort.Strings(s.names)
	return s
}

// commonRoot returns "dir/" when every entry lives under the same
// top-level directory, else "".
func commonRoot(raw map[string][]byte) string {
	root := ""
	for name := range raw {
		name = strings.TrimPrefix(name, "./")
		idx := strings.Index(name, "/")
		if idx < 0 {
			return ""
		}
		top := name[:idx+1]
		if root == "" {
			root = top
		} else if root != top {
			return ""
		}
	}
	return root
}

// Files lists the repository paths starting with prefix, sorted.
func (s *Snapshot) Files(prefix string) []string {
	var out []string
	for _, name := range s.names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// ReadFile returns the content at a repository path.
func (s *Snapshot) ReadFile(path string) ([]byte, error) {
	content, ok := s.files[strings.TrimPrefix(path, "/")]
	if !ok {
		return nil, errors.NewNotFound("file", path)
	}
	return content, nil
}

// Len returns the number of files.
func (s *Snapshot) Len() int {
	return len(s.names)
}

// FileName returns the conventional snapshot file name for a repository
// branch, e.g. "en_tn-master.tar.xz".
func FileName(repository, branch string, format Format) string {
	if branch == "" {
		branch = "master"
	}
	return repository + "-" + branch + "." + string(format)
}
