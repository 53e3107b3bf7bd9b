package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarize-case/internal/casesummary"
	"summarize-case/internal/collector"
)

// sections splits an assembled prompt into its "### " blocks, keyed by name.
func sections(t *testing.T, p string) map[string]string {
	t.Helper()
	out := map[string]string{}
	parts := strings.Split(p, "\n\n### ")
	for _, part := range parts[1:] {
		name, body, ok := strings.Cut(part, "\n")
		require.True(t, ok, "section without body: %q", part)
		out[name] = body
	}
	return out
}

func TestAssembleOneSectionPerFile(t *testing.T) {
	files := []collector.InputFile{
		{Name: "patient_info.tsv", Text: "PATIENT_ID\nP04"},
		{Name: "data_timeline_treatment.txt", Text: strings.Repeat("TMZ ", 2000)},
		{Name: "nihms-569639.pdf", Text: ""},
	}

	p := Assemble(files, Options{MaxChars: 100, PatientID: "P04"})

	assert.Equal(t, len(files), strings.Count(p, "\n### "))
	got := sections(t, p)
	require.Len(t, got, len(files))
	assert.Equal(t, "PATIENT_ID\nP04", got["patient_info.tsv"])
	assert.Equal(t, strings.Repeat("TMZ ", 25), got["data_timeline_treatment.txt"])
	assert.Equal(t, "", got["nihms-569639.pdf"])
	for name, body := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(body), 100, name)
	}
}

func TestAssembleKeepsFileOrder(t *testing.T) {
	files := []collector.InputFile{
		{Name: "b.txt", Text: "second"},
		{Name: "a.txt", Text: "first"},
	}
	p := Assemble(files, Options{})
	assert.Less(t, strings.Index(p, "### b.txt"), strings.Index(p, "### a.txt"))
}

func TestAssembleInstructions(t *testing.T) {
	files := []collector.InputFile{{Name: "mutations.tsv", Text: "IDH1 R132H"}}

	t.Run("names patient and files", func(t *testing.T) {
		p := Assemble(files, Options{PatientID: "P04"})
		assert.Contains(t, p, "for patient P04 into")
		assert.Contains(t, p, "- mutations.tsv\n")
	})

	t.Run("generic patient", func(t *testing.T) {
		p := Assemble(files, Options{})
		assert.Contains(t, p, "for the patient into")
	})

	t.Run("lists every schema field", func(t *testing.T) {
		p := Assemble(files, Options{})
		for _, f := range casesummary.Fields {
			assert.Contains(t, p, f.Label+": "+f.Description)
		}
	})

	t.Run("template precedes sections", func(t *testing.T) {
		p := Assemble(files, Options{})
		assert.True(t, strings.HasSuffix(p, "\n\n### mutations.tsv\nIDH1 R132H"))
	})
}

func TestAssembleNoFiles(t *testing.T) {
	p := Assemble(nil, Options{})
	assert.NotContains(t, p, "###")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "abc", 5, "abc"},
		{"exact limit", "abcde", 5, "abcde"},
		{"hard cut mid word", "hello world", 7, "hello w"},
		{"multi-byte runes", "épée—κόσμος", 4, "épée"},
		{"zero uses default", strings.Repeat("x", DefaultMaxChars+10), 0, strings.Repeat("x", DefaultMaxChars)},
		{"negative uses default", "short", -1, "short"},
		{"empty", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
