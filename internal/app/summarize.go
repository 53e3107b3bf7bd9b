package app

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"summarize-case/internal/casesummary"
	"summarize-case/internal/collector"
	"summarize-case/internal/llm"
	"summarize-case/internal/prompt"
)

// ErrInvalidRequest reports a request that names both or neither input mode.
var ErrInvalidRequest = errors.New("invalid request")

// Request selects the case files for one run: explicit Paths or a Folder.
type Request struct {
	Paths     []string
	Folder    string
	PatientID string
}

// SummarizeCase collects the files named by req and summarizes them. A file
// that cannot be read stops the run before the model is called.
func (d Deps) SummarizeCase(ctx context.Context, req Request) (casesummary.CaseSummary, error) {
	files, err := collect(req)
	if err != nil {
		return casesummary.CaseSummary{}, err
	}
	return d.SummarizeFiles(ctx, files, req.PatientID)
}

// SummarizeFiles assembles the prompt from files, calls the model and decodes
// its answer.
func (d Deps) SummarizeFiles(ctx context.Context, files []collector.InputFile, patientID string) (casesummary.CaseSummary, error) {
	if len(files) == 0 {
		return casesummary.CaseSummary{}, fmt.Errorf("%w: no case files given", ErrInvalidRequest)
	}
	text := prompt.Assemble(files, prompt.Options{
		MaxChars:  d.Config.MaxChars,
		PatientID: patientID,
	})
	d.Log.Info("prompt assembled", "files", len(files), "prompt_chars", utf8.RuneCountInString(text))

	start := time.Now()
	raw, err := d.LLM.Complete(ctx, llm.StructuredRequest{
		System:            prompt.SystemPrompt,
		Prompt:            text,
		SchemaName:        casesummary.SchemaName,
		SchemaDescription: casesummary.SchemaDescription,
		Schema:            casesummary.JSONSchema(),
	})
	if err != nil {
		return casesummary.CaseSummary{}, err
	}
	d.Log.Info("model responded", "duration_ms", time.Since(start).Milliseconds(), "bytes", len(raw))

	summary, err := casesummary.Decode(raw)
	if err != nil {
		return casesummary.CaseSummary{}, err
	}
	return summary, nil
}

func collect(req Request) ([]collector.InputFile, error) {
	switch {
	case req.Folder != "" && len(req.Paths) > 0:
		return nil, fmt.Errorf("%w: give either file paths or a folder, not both", ErrInvalidRequest)
	case req.Folder != "":
		return collector.ReadFolder(req.Folder)
	case len(req.Paths) > 0:
		return collector.ReadFiles(req.Paths)
	default:
		return nil, fmt.Errorf("%w: no case files given", ErrInvalidRequest)
	}
}
