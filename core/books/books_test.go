package books

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		id        string
		chapters  int
		usfm      string
		testament Testament
	}{
		{"GEN", 50, "01-GEN", OT},
		{"mal", 4, "39-MAL", OT},
		{"MAT", 28, "41-MAT", NT},
		{"REV", 22, "67-REV", NT},
		{"JUD", 1, "66-JUD", NT},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n, ok := ChaptersInBook(tt.id)
			if !ok || n != tt.chapters {
				t.Errorf("ChaptersInBook(%s) = %d, %v, want %d", tt.id, n, ok, tt.chapters)
			}
			if got, _ := UsfmNumberName(tt.id); got != tt.usfm {
				t.Errorf("UsfmNumberName(%s) = %q, want %q", tt.id, got, tt.usfm)
			}
			if got, _ := TestamentOf(tt.id); got != tt.testament {
				t.Errorf("TestamentOf(%s) = %q, want %q", tt.id, got, tt.testament)
			}
		})
	}
	if len(All()) != 66 {
		t.Errorf("All() has %d books, want 66", len(All()))
	}
}

func TestVersesInChapter(t *testing.T) {
	if n, ok := VersesInChapter("GEN", 1); !ok || n != 31 {
		t.Errorf("VersesInChapter(GEN, 1) = %d, %v", n, ok)
	}
	if n, ok := VersesInChapter("PSA", 119); !ok || n != 176 {
		t.Errorf("VersesInChapter(PSA, 119) = %d, %v", n, ok)
	}
	if _, ok := VersesInChapter("GEN", 51); ok {
		t.Errorf("VersesInChapter(GEN, 51) should fail")
	}
	if _, ok := VersesInChapter("XYZ", 1); ok {
		t.Errorf("VersesInChapter(XYZ, 1) should fail")
	}
}

func TestValidity(t *testing.T) {
	if !IsValid("FRT") || !IsExtra("BAK") || IsExtra("GEN") {
		t.Errorf("extra book codes misclassified")
	}
	if IsValid("XYZ") || !IsOptionalValid("") {
		t.Errorf("optional validity wrong")
	}
	if !IsOneChapterBook("OBA") || IsOneChapterBook("GEN") {
		t.Errorf("IsOneChapterBook wrong")
	}
	if !IsGoodEnglishBookName("1 Timothy") || !IsGoodEnglishBookName("Song of Songs") || IsGoodEnglishBookName("Song of Solomon") {
		t.Errorf("IsGoodEnglishBookName wrong")
	}
	if !IsOftenMissing("MAT", 17, 21) || IsOftenMissing("MAT", 17, 22) {
		t.Errorf("IsOftenMissing wrong")
	}
}
