// Command summarize-case turns one patient's clinical and genomic case files
// into a structured JSON summary using a remote language model.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"summarize-case/internal/app"
	"summarize-case/internal/config"
	"summarize-case/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	cfg    config.Config
	log    *slog.Logger
	stderr io.Writer

	logLevel  string
	logFormat string
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{
		stderr: stderr,
		log:    logger.New(stderr, "info", "text"),
	}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		c.log.Error("summarize-case failed", "err", err)
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "summarize-case",
		Short:         "Summarize clinical and genomic case files with a language model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: text or json (default from LOG_FORMAT)")

	root.AddCommand(c.summarizeCmd(), c.schemaCmd(), c.serveCmd())
	return root
}

// setup loads .env and environment configuration, then builds the logger.
// Logs always go to stderr so stdout carries only results.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := app.LoadEnv(); err != nil {
		return err
	}
	c.cfg = config.Load()
	if cmd.Flags().Changed("log-level") {
		c.cfg.LogLevel = c.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		c.cfg.LogFormat = c.logFormat
	}
	c.log = logger.New(c.stderr, c.cfg.LogLevel, c.cfg.LogFormat).With("run_id", uuid.NewString())
	return nil
}
