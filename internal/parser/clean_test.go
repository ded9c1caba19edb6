package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	var cases = []struct {
		name   string
		input  string
		output string
	}{
		{name: "empty", input: "", output: ""},
		{name: "newlines become spaces", input: "one\ntwo\nthree", output: "one two three"},
		{name: "whitespace collapses", input: "a  \t b\n\n  c", output: "a b c"},
		{name: "punctuation stripped", input: "Hello, world! (really)", output: "Hello world really"},
		{name: "unicode letters survive", input: "Xin chào thế giới", output: "Xin chào thế giới"},
		{name: "digits survive", input: "page 12 of 50.", output: "page 12 of 50"},
		{name: "trimmed", input: "  padded  ", output: "padded"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.output, CleanText(c.input))
		})
	}
}
