// Package xml wraps xmlquery for the USX checker: well-formedness with
// positions, and XPath selection over a parsed document.
//
// Entity expansion is disabled when checking well-formedness, and
// encoding/xml never fetches external entities.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node is one element of a Document.
type Node struct {
	node *xmlquery.Node
}

// SyntaxError locates the first well-formedness failure.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d column %d: %s", e.Line, e.Column, e.Message)
}

// WellFormed decodes every token of data and returns the first syntax
// failure, or nil.
func WellFormed(data []byte) *SyntaxError {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			line, col := decoder.InputPos()
			if se, ok := err.(*xml.SyntaxError); ok {
				return &SyntaxError{Line: se.Line, Column: col, Message: se.Msg}
			}
			return &SyntaxError{Line: line, Column: col, Message: err.Error()}
		}
	}
}

// Parse parses data into a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document element, or nil for an empty document.
func (d *Document) Root() *Node {
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// Select returns the nodes matching expr in document order.
func (d *Document) Select(expr string) ([]*Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	nodes := xmlquery.QuerySelectorAll(d.root, compiled)
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = &Node{node: n}
	}
	return out, nil
}

// First returns the first node matching expr, or nil.
func (d *Document) First(expr string) (*Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	n := xmlquery.QuerySelector(d.root, compiled)
	if n == nil {
		return nil, nil
	}
	return &Node{node: n}, nil
}

// Name returns the element name without namespace prefix.
func (n *Node) Name() string {
	return n.node.Data
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	return n.node.SelectAttr(name)
}

// Text returns the text of the node and its descendants.
func (n *Node) Text() string {
	return n.node.InnerText()
}
