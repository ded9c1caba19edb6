package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	require.NoError(t, err)
	b, err := GenerateUUID()
	require.NoError(t, err)

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestSanitizeFilename(t *testing.T) {
	var cases = []struct {
		name   string
		input  string
		output string
	}{
		{name: "plain", input: "report.pdf", output: "report.pdf"},
		{name: "spaces", input: "my report v2.pdf", output: "my_report_v2.pdf"},
		{name: "path traversal", input: "../../etc/passwd", output: "passwd"},
		{name: "windows path", input: `C:\Users\me\doc.pdf`, output: "doc.pdf"},
		{name: "hidden file", input: ".env", output: "env"},
		{name: "unicode replaced", input: "tài liệu.pdf", output: "t_i_li_u.pdf"},
		{name: "nothing left", input: "..", output: "upload"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.output, SanitizeFilename(c.input))
		})
	}
}
