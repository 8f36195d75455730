package text

import "testing"

func TestIsWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{" ", true},
		{" \t\n", true},
		{"\u200B", true},
		{"\u00A0 ", true},
		{" a ", false},
	}
	for _, tt := range tests {
		if got := IsWhitespace(tt.in); got != tt.want {
			t.Errorf("IsWhitespace(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCountOccurrences(t *testing.T) {
	tests := []struct {
		s, sub string
		want   int
	}{
		{"aaaa", "aa", 2},
		{"a  b  c", "  ", 2},
		{"abc", "", 4},
		{"“x” “y”", "“", 2},
	}
	for _, tt := range tests {
		if got := CountOccurrences(tt.s, tt.sub); got != tt.want {
			t.Errorf("CountOccurrences(%q, %q) = %d, want %d", tt.s, tt.sub, got, tt.want)
		}
	}
	if got := CountOverlapping("aaaa", "aa"); got != 3 {
		t.Errorf("CountOverlapping() = %d, want 3", got)
	}
}

func TestRuneIndexes(t *testing.T) {
	s := "“שָׁלוֹם” x"
	if got := Index(s, "x"); got != RuneLen(s)-1 {
		t.Errorf("Index() = %d, want %d", got, RuneLen(s)-1)
	}
	if got := IndexFrom("abcabc", "b", 2); got != 4 {
		t.Errorf("IndexFrom() = %d, want 4", got)
	}
	if got := LastIndex("abcabc", "a"); got != 3 {
		t.Errorf("LastIndex() = %d, want 3", got)
	}
	if got := Substring("hello", -3, 2); got != "he" {
		t.Errorf("Substring() = %q, want %q", got, "he")
	}
	if got := RuneAt("a“b", 1); got != '“' {
		t.Errorf("RuneAt() = %q", got)
	}
}

func TestWindow(t *testing.T) {
	w := NewWindow(10)
	if w.Half != 5 || w.HalfPlus != 5 {
		t.Fatalf("NewWindow(10) = %+v", w)
	}
	tests := []struct {
		name string
		s    string
		idx  int
		want string
	}{
		{"start", "abcdefghijklmnopqrstuvwxyz", 0, "abcde…"},
		{"middle", "abcdefghijklmnopqrstuvwxyz", 12, "…hijklmnopq…"},
		{"end", "abcdefghijklmnopqrstuvwxyz", 24, "…tuvwxyz"},
		{"short", "ab cd", 2, "ab␣cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Around(tt.s, tt.idx, ShowSpaces); got != tt.want {
				t.Errorf("Around() = %q, want %q", got, tt.want)
			}
		})
	}
	if got := NewWindow(3).Head("  abcdef", ShowSpaces); got != "␣␣a…" {
		t.Errorf("Head() = %q", got)
	}
	if got := NewWindow(3).Tail("abcdef  ", ShowSpaces); got != "…f␣␣" {
		t.Errorf("Tail() = %q", got)
	}
}

func TestPairs(t *testing.T) {
	if OpenerFor('”') != '“' {
		t.Errorf("OpenerFor(”) should be “")
	}
	if !IsOpener('«') || IsOpener('»') || !IsCloser('»') {
		t.Errorf("guillemet classification wrong")
	}
	if len(PairedOpeners) != len(PairedClosers) {
		t.Errorf("paired tables differ in length")
	}
}
