package prompt

import (
	"fmt"
	"strings"

	"summarize-case/internal/casesummary"
	"summarize-case/internal/collector"
)

// DefaultMaxChars is the excerpt length used when Options.MaxChars is unset.
const DefaultMaxChars = 3000

// SystemPrompt is sent as the system message of every request.
const SystemPrompt = "You are a scientific summarizer."

// Options controls prompt assembly.
type Options struct {
	// MaxChars caps each file excerpt, in characters.
	MaxChars int
	// PatientID names the patient to summarize; empty means "the patient".
	PatientID string
}

// Assemble builds the user prompt: the instruction template followed by one
// "### <name>" section per file holding the first MaxChars characters.
func Assemble(files []collector.InputFile, opts Options) string {
	var b strings.Builder
	b.WriteString(instructions(files, opts.PatientID))
	for _, f := range files {
		b.WriteString("\n\n### ")
		b.WriteString(f.Name)
		b.WriteString("\n")
		b.WriteString(Truncate(f.Text, opts.MaxChars))
	}
	return b.String()
}

// Truncate keeps the first n characters of s. It counts runes, so a
// multi-byte character is never split. n <= 0 selects DefaultMaxChars.
func Truncate(s string, n int) string {
	if n <= 0 {
		n = DefaultMaxChars
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func instructions(files []collector.InputFile, patientID string) string {
	patient := "the patient"
	if patientID != "" {
		patient = "patient " + patientID
	}

	var b strings.Builder
	b.WriteString("You are a scientific assistant reading clinical and genomic data from a cancer patient enrolled in a cohort study.\n")
	b.WriteString("You are provided with the following files:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f.Name)
	}
	fmt.Fprintf(&b, "\nPlease summarize the information for %s into the following structured JSON schema. Keep answers succinct:\n\n", patient)
	for _, f := range casesummary.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Description)
	}
	b.WriteString("\nEach file below is an excerpt; later content may be cut off.")
	return b.String()
}
