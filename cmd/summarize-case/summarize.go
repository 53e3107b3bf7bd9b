package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"summarize-case/internal/app"
	"summarize-case/internal/casesummary"
	"summarize-case/internal/presenter"
)

type summarizeOptions struct {
	folder   string
	patient  string
	model    string
	apiKey   string
	baseURL  string
	maxChars int
}

func (c *cli) summarizeCmd() *cobra.Command {
	var opts summarizeOptions
	cmd := &cobra.Command{
		Use:   "summarize [FILE...]",
		Short: "Summarize one patient's case files as structured JSON",
		Long: `Reads the given case files (or every .txt and .pdf file in --folder),
sends an excerpt of each to the model and prints the structured case summary
as indented JSON on stdout.

PDF files are converted to text. With explicit paths every other file is read
as text, so tab-separated tables can be passed directly.`,
		Example: `  summarize-case summarize patient_info.tsv samples_info.tsv mutations.tsv \
    data_timeline_specimen.txt data_timeline_status.txt \
    data_timeline_surgery.txt data_timeline_treatment.txt nihms-569639.pdf --patient P04

  summarize-case summarize --folder ./cases/P04`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.folder == "" && len(args) == 0 {
				return errors.New("give case file paths or --folder")
			}
			if opts.folder != "" && len(args) > 0 {
				return errors.New("give either case file paths or --folder, not both")
			}

			cfg := c.cfg
			if cmd.Flags().Changed("model") {
				cfg.LLMModel = opts.model
			}
			if cmd.Flags().Changed("api-key") {
				cfg.OpenAIKey = opts.apiKey
			}
			if cmd.Flags().Changed("base-url") {
				cfg.OpenAIBaseURL = opts.baseURL
			}
			if cmd.Flags().Changed("max-chars") {
				cfg.MaxChars = opts.maxChars
			}

			deps, err := app.Build(cfg, c.log)
			if err != nil {
				return err
			}
			deps.Log.Info("summarizing case", "model", cfg.LLMModel, "files", len(args), "folder", opts.folder)

			summary, err := deps.SummarizeCase(cmd.Context(), app.Request{
				Paths:     args,
				Folder:    opts.folder,
				PatientID: opts.patient,
			})
			if err != nil {
				return err
			}
			return presenter.Write(cmd.OutOrStdout(), summary)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.folder, "folder", "d", "", "read every .txt and .pdf file in this folder")
	f.StringVarP(&opts.patient, "patient", "p", "", "patient identifier to summarize, e.g. P04")
	f.StringVar(&opts.model, "model", "", "model name (default from LLM_MODEL, gpt-4-turbo)")
	f.StringVar(&opts.apiKey, "api-key", "", "OpenAI API key (default from OPENAI_API_KEY)")
	f.StringVar(&opts.baseURL, "base-url", "", "OpenAI-compatible API base URL (default from OPENAI_BASE_URL)")
	f.IntVar(&opts.maxChars, "max-chars", 0, "characters kept from each file (default from PROMPT_MAX_CHARS, 3000)")
	return cmd
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema the model is asked to fill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(casesummary.JSONSchema())
		},
	}
}
