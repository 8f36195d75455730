package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextField(t *testing.T) {
	tests := []struct {
		name       string
		field      Field
		want       []int
		suggestion string
	}{
		{name: "clean", field: Field{Type: FieldText, Text: "Hello world."}},
		{name: "leading space", field: Field{Type: FieldText, Text: " Hello"}, want: []int{109}, suggestion: "Hello"},
		{name: "leading spaces", field: Field{Type: FieldText, Text: "  Hello"}, want: []int{110}, suggestion: "Hello"},
		{name: "trailing space", field: Field{Type: FieldText, Text: "Hello "}, want: []int{95}, suggestion: "Hello"},
		{name: "double space", field: Field{Type: FieldText, Text: "Hello  world"}, want: []int{124}, suggestion: "Hello world"},
		{name: "only whitespace", field: Field{Type: FieldText, Text: "   "}, want: []int{638}},
		{name: "git conflict", field: Field{Type: FieldRaw, Text: "a <<<<<<< HEAD b"}, want: []int{993}},
		{name: "unexpected link", field: Field{Type: FieldText, Text: "see https://example.org/page now"}, want: []int{765}},
		{name: "allowed link", field: Field{Type: FieldText, Text: "see https://example.org/page now", AllowLinks: true}},
		{name: "zero-width space", field: Field{Type: FieldText, Text: "Hel\u200blo"}, want: []int{895}, suggestion: "Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := TextField(tt.field, offline())
			for _, p := range tt.want {
				assert.Contains(t, res.Priorities(), p)
			}
			if tt.want == nil {
				assert.Empty(t, res.NoticeList)
			}
			assert.Equal(t, tt.suggestion, res.Suggestion)
		})
	}
}

func TestTextFieldDetails(t *testing.T) {
	res := TextField(Field{Type: FieldText, Name: "Note", Text: "Hello  world", Location: "in test"}, offline())
	n, ok := find(res, 124)
	require.True(t, ok)
	assert.Equal(t, "Note", n.FieldName)
	assert.Equal(t, " in test", n.Location)
	require.NotNil(t, n.CharacterIndex)
	assert.Equal(t, 5, *n.CharacterIndex)
}

func TestTextFieldCutoff(t *testing.T) {
	opts := offline()
	opts.CutoffPriorityLevel = 200
	res := TextField(Field{Type: FieldText, Text: " Hello"}, opts)
	assert.Empty(t, res.NoticeList)
	assert.Equal(t, "Hello", res.Suggestion)
}

func TestTextFieldEmpty(t *testing.T) {
	res := TextField(Field{Type: FieldText}, offline())
	assert.Empty(t, res.NoticeList)
	assert.Empty(t, res.Suggestion)
}
