package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
)

func writeRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"manifest.yaml":    "dublin_core:\n  identifier: tn\n",
		"LICENSE.md":       "# License\n",
		"en_tn_01-GEN.tsv": "Reference\tID\tTags\tSupportReference\tQuote\tOccurrence\tNote\n",
		"content/01/01.md": "# Title\n",
		".git/HEAD":        "ref: refs/heads/master\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"en_tn-master.zip", FormatZip, false},
		{"en_tn-master.tar.gz", FormatTarGz, false},
		{"en_tn-master.tgz", FormatTarGz, false},
		{"en_tn-master.tar.xz", FormatTarXz, false},
		{"en_tn-master.rar", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrUnsupported) {
				t.Errorf("error should wrap ErrUnsupported")
			}
		})
	}
}

func TestPackAndLoad(t *testing.T) {
	src := writeRepo(t)
	want := []string{"LICENSE.md", "content/01/01.md", "en_tn_01-GEN.tsv", "manifest.yaml"}

	for _, format := range []Format{FormatZip, FormatTarGz, FormatTarXz} {
		t.Run(string(format), func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), FileName("en_tn", "", format))
			if err := Pack(src, dst, "en_tn"); err != nil {
				t.Fatalf("Pack() error = %v", err)
			}

			snap, err := Load(dst)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := snap.Files(""); !reflect.DeepEqual(got, want) {
				t.Errorf("Files() = %v, want %v", got, want)
			}
			if got := snap.Files("content/"); len(got) != 1 {
				t.Errorf("Files(content/) = %v", got)
			}
			content, err := snap.ReadFile("manifest.yaml")
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if string(content) != "dublin_core:\n  identifier: tn\n" {
				t.Errorf("ReadFile() = %q", content)
			}
			if _, err := snap.ReadFile("missing.md"); !errors.IsNotFound(err) {
				t.Errorf("ReadFile(missing) error = %v, want not found", err)
			}
		})
	}
}

func TestTarReaderIterate(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "en_tn-master.tar.xz")
	if err := Pack(writeRepo(t), dst, "en_tn-master"); err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(dst)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	count := 0
	if err := r.Iterate(func(_ *tar.Header, _ io.Reader) (bool, error) {
		count++
		return count == 2, nil
	}); err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Iterate() visited %d entries, want 2 before stopping", count)
	}

	if _, err := NewReader(filepath.Join(t.TempDir(), "x.zip")); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("NewReader(zip) error = %v, want unsupported", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none-master.zip"))
	if !errors.IsNotFound(err) {
		t.Errorf("Load() error = %v, want not found", err)
	}
}

func TestLoadMislabelled(t *testing.T) {
	p := filepath.Join(t.TempDir(), "en_ult-master.zip")
	if err := os.WriteFile(p, []byte("# not a zip\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Load() error = %v, want invalid input", err)
	}
}

func TestCommonRoot(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"shared", []string{"en_tn/a.tsv", "en_tn/b/c.md"}, "en_tn/"},
		{"mixed", []string{"en_tn/a.tsv", "other/b.md"}, ""},
		{"top level file", []string{"a.tsv", "en_tn/b.md"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string][]byte{}
			for _, f := range tt.files {
				raw[f] = nil
			}
			if got := commonRoot(raw); got != tt.want {
				t.Errorf("commonRoot() = %q, want %q", got, tt.want)
			}
		})
	}
}
