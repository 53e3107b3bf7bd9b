package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"summarize-case/internal/app"
	"summarize-case/internal/casesummary"
	"summarize-case/internal/collector"
	"summarize-case/internal/httputil"
	"summarize-case/internal/presenter"
)

const (
	requestTimeout  = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

type summarizeForm struct {
	PatientID string `validate:"omitempty,max=64,printascii"`
}

func (c *cli) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve case summarization over HTTP",
		Long: `Starts an HTTP server. POST case files as multipart "files" parts
(plus an optional "patient_id" field) to /api/cases/summarize and receive the
same JSON the summarize command prints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			deps, err := app.Build(cfg, c.log)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), deps)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from PORT, 8080)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, deps app.Deps) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("case summarizer listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(deps app.Deps) *chi.Mux {
	r := httputil.NewRouter(deps.Log, requestTimeout)

	r.Post("/api/cases/summarize", summarizeHandler(deps))
	r.Get("/api/cases/schema", schemaHandler())
	r.Get("/healthz", httputil.HealthHandler(deps))
	return r
}

func summarizeHandler(deps app.Deps) http.HandlerFunc {
	maxSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		log := deps.Log.With("request_id", middleware.GetReqID(r.Context()))

		if r.ContentLength > maxSize {
			httputil.Fail(log, w, fmt.Sprintf("request too large (max %d bytes)", maxSize), nil, http.StatusBadRequest)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		if err := r.ParseMultipartForm(maxSize); err != nil {
			httputil.Fail(log, w, "invalid multipart form", err, http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		form := summarizeForm{PatientID: strings.TrimSpace(r.FormValue("patient_id"))}
		if err := httputil.Validator.Struct(&form); err != nil {
			httputil.ValidationError(log, w, err)
			return
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			httputil.Fail(log, w, "at least one file is required", nil, http.StatusBadRequest)
			return
		}
		files := make([]collector.InputFile, 0, len(headers))
		for _, header := range headers {
			name := filepath.Base(header.Filename)
			if !uploadAllowed(name) {
				httputil.Fail(log, w, fmt.Sprintf("unsupported file type %q (only TXT, TSV and PDF allowed)", name), nil, http.StatusBadRequest)
				return
			}
			file, err := header.Open()
			if err != nil {
				httputil.Fail(log, w, "failed to read file", err, http.StatusBadRequest)
				return
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				httputil.Fail(log, w, "failed to read file", err, http.StatusBadRequest)
				return
			}
			in, err := collector.Decode(name, content)
			if err != nil {
				httputil.Fail(log, w, fmt.Sprintf("failed to extract text from %s", name), err, http.StatusBadRequest)
				return
			}
			files = append(files, in)
		}

		summary, err := deps.SummarizeFiles(r.Context(), files, form.PatientID)
		if err != nil {
			httputil.Fail(log, w, "summarization failed", err, http.StatusBadGateway)
			return
		}
		out, err := presenter.Render(summary)
		if err != nil {
			httputil.Fail(log, w, "failed to render summary", err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(out); err != nil {
			log.Warn("response write failed", "err", err)
		}
	}
}

func schemaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, casesummary.JSONSchema())
	}
}

func uploadAllowed(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".tsv", ".pdf":
		return true
	default:
		return false
	}
}
