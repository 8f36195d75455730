package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "repository", ID: "en_tn"},
			wantMsg:  "repository not found: en_tn",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "manifest"},
			wantMsg:  "manifest not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "01-GEN.usfm", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &ValidationError{Field: "excerptLength", Message: "must be positive"},
			wantMsg: "validation failed for excerptLength: must be positive",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "invalid format"},
			wantMsg: "validation failed: invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("errors.Is(%v, ErrInvalidInput) = false", tt.err)
			}
		})
	}
}

func TestIOAndParseErrors(t *testing.T) {
	base := fmt.Errorf("permission denied")
	ioErr := NewIO("open", "/tmp/cache.db", base)
	if got, want := ioErr.Error(), "failed to open /tmp/cache.db: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(ioErr, base) {
		t.Errorf("IOError should unwrap to its cause")
	}

	parseErr := NewParse("YAML", "rules.yaml", "line 3: bad indent")
	if got, want := parseErr.Error(), "failed to parse YAML at rules.yaml: line 3: bad indent"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(parseErr, ErrInvalidInput) {
		t.Errorf("ParseError should unwrap to ErrInvalidInput")
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("archive", ".rar")
	if got, want := err.Error(), "unsupported archive: .rar"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrUnsupported) {
		t.Errorf("Is(err, ErrUnsupported) = false")
	}
}

func TestFetchError(t *testing.T) {
	tests := []struct {
		name         string
		err          *FetchError
		wantMsg      string
		wantNotFound bool
	}{
		{
			name:         "not found",
			err:          NewFetchNotFound("unfoldingWord", "en_ta", "translate/figs-x/01.md", "master"),
			wantMsg:      "fetch unfoldingWord/en_ta@master translate/figs-x/01.md: file not found: translate/figs-x/01.md",
			wantNotFound: true,
		},
		{
			name:    "transport failure",
			err:     NewFetch("unfoldingWord", "en_tn", "", "", fmt.Errorf("timeout")),
			wantMsg: "fetch unfoldingWord/en_tn: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := IsNotFound(tt.err); got != tt.wantNotFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.wantNotFound)
			}
			var fe *FetchError
			if !As(fmt.Errorf("wrapped: %w", tt.err), &fe) {
				t.Errorf("As() failed to find FetchError")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Errorf("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Errorf("Wrapf(nil) should be nil")
	}
	err := Wrapf(ErrNotFound, "load %s", "manifest.yaml")
	if got, want := err.Error(), "load manifest.yaml: not found"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if !Is(err, ErrNotFound) {
		t.Errorf("wrapped error should match ErrNotFound")
	}
	if got, want := Wrap(ErrUnsupported, "store").Error(), "store: unsupported"; got != want {
		t.Errorf("Wrap() = %q, want %q", got, want)
	}
}
