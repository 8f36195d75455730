package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, maxAge time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), maxAge)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)
	key := Key{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-metaphor/01.md", Branch: "master"}

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get() before Put = ok %v, err %v", ok, err)
	}
	if err := s.Put(ctx, key, []byte("# Metaphor\n")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if string(got) != "# Metaphor\n" {
		t.Errorf("Get() = %q", got)
	}

	if err := s.Put(ctx, key, []byte("replaced")); err != nil {
		t.Fatal(err)
	}
	got, _, _ = s.Get(ctx, key)
	if string(got) != "replaced" {
		t.Errorf("Get() after replace = %q", got)
	}
	if n, _ := s.Len(ctx); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestEmptyContent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)
	key := Key{Repository: "en_tw", Path: "bible/kt/empty.md"}
	if err := s.Put(ctx, key, nil); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok || len(got) != 0 {
		t.Errorf("Get() = %q, %v, %v; want empty hit", got, ok, err)
	}
}

func TestMaxAge(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, time.Hour)
	current := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return current }

	key := Key{Repository: "hbo_uhb", Path: "01-GEN.usfm"}
	if err := s.Put(ctx, key, []byte(`\id GEN`)); err != nil {
		t.Fatal(err)
	}
	current = current.Add(59 * time.Minute)
	if _, ok, _ := s.Get(ctx, key); !ok {
		t.Error("Get() missed before max age")
	}
	current = current.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, key); ok {
		t.Error("Get() hit at max age")
	}
}

func TestDigestMismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)
	key := Key{Repository: "en_tn", Path: "README.md"}
	if err := s.Put(ctx, key, []byte("original")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(`UPDATE files SET content = ? WHERE key = ?`, []byte("tampered"), key.Digest()); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, key); ok {
		t.Error("Get() returned content whose digest does not match")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)
	for _, p := range []string{"a.md", "b.md", "c.md"} {
		if err := s.Put(ctx, Key{Repository: "en_ta", Path: p}, []byte(p)); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Clear(ctx)
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v; want 3", n, err)
	}
	if n, _ := s.Len(ctx); n != 0 {
		t.Errorf("Len() after Clear = %d", n)
	}
}

func TestKeyDigest(t *testing.T) {
	a := Key{Username: "u", Repository: "r", Path: "p", Branch: "b"}
	b := Key{Username: "u", Repository: "rp", Path: "", Branch: "b"}
	if a.Digest() == b.Digest() {
		t.Error("distinct keys share a digest")
	}
	if len(a.Digest()) != 64 {
		t.Errorf("Digest() length = %d, want 64", len(a.Digest()))
	}
	if got := DriverInfo().DriverName; got == "" {
		t.Error("DriverInfo() has no driver name")
	}
}
