// Package notice defines the result shapes returned by every checker:
// individual notices, the aggregated Result and the legacy processing
// that splits notice lists into display groups.
package notice

import (
	"fmt"
	"strings"
)

// Notice is one reported issue. Priority, Message and Location are
// required; every other field is optional and omitted from JSON when unset.
type Notice struct {
	Priority       int    `json:"priority"`
	Message        string `json:"message"`
	Details        string `json:"details,omitempty"`
	BookID         string `json:"bookID,omitempty"`
	C              string `json:"C,omitempty"`
	V              string `json:"V,omitempty"`
	RowID          string `json:"rowID,omitempty"`
	FieldName      string `json:"fieldName,omitempty"`
	LineNumber     int    `json:"lineNumber,omitempty"`
	CharacterIndex *int   `json:"characterIndex,omitempty"`
	Excerpt        string `json:"excerpt,omitempty"`
	Location       string `json:"location"`

	// Aggregation attributes added by file, repo and book-package checks.
	Filename string `json:"filename,omitempty"`
	RepoCode string `json:"repoCode,omitempty"`
	RepoName string `json:"repoName,omitempty"`
	Username string `json:"username,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Extra    string `json:"extra,omitempty"`
}

// At returns a pointer suitable for Notice.CharacterIndex.
func At(index int) *int {
	return &index
}

// New builds a notice and validates its required fields.
func New(priority int, message, location string) (Notice, error) {
	n := Notice{Priority: priority, Message: message, Location: location}
	return n, n.Validate()
}

// Validate checks the required fields.
func (n Notice) Validate() error {
	if n.Priority < 1 || n.Priority > 999 {
		return fmt.Errorf("notice priority %d out of range 1-999", n.Priority)
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("notice with priority %d has no message", n.Priority)
	}
	return nil
}

// Index returns the character index and whether one was set.
func (n Notice) Index() (int, bool) {
	if n.CharacterIndex == nil {
		return 0, false
	}
	return *n.CharacterIndex, true
}

// String renders the notice in a compact single-line form for text output.
func (n Notice) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", n.Priority, n.Message)
	if n.Details != "" {
		fmt.Fprintf(&b, " (%s)", n.Details)
	}
	if n.BookID != "" || n.C != "" || n.V != "" {
		fmt.Fprintf(&b, " %s %s:%s", n.BookID, n.C, n.V)
	}
	if n.FieldName != "" {
		fmt.Fprintf(&b, " in %s", n.FieldName)
	}
	if n.RowID != "" {
		fmt.Fprintf(&b, " row %s", n.RowID)
	}
	if n.LineNumber > 0 {
		fmt.Fprintf(&b, " line %d", n.LineNumber)
	}
	if idx, ok := n.Index(); ok {
		fmt.Fprintf(&b, " char %d", idx+1)
	}
	if n.Excerpt != "" {
		fmt.Fprintf(&b, " around ▶%s◀", n.Excerpt)
	}
	if n.Filename != "" {
		fmt.Fprintf(&b, " in %s", n.Filename)
	}
	b.WriteString(n.Location)
	return b.String()
}
