package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/exam-regions/internal/config"
	"github.com/ironsheep/exam-regions/internal/ocr"
	"github.com/ironsheep/exam-regions/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// options are the flags shared by every command.
type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "exam-regions",
		Short: "Segment scanned exam pages into question regions",
		Long: `exam-regions finds the question regions of scanned exam pages and
saves each one as its own image.

Without a subcommand it serves MCP over stdin/stdout. Logs go to stderr
because stdout carries the protocol.

Environment variables:
  EXAM_REGIONS_LOG_LEVEL    debug, info, warn or error
  EXAM_REGIONS_OUTPUT_DIR   Directory for region images
  EXAM_REGIONS_WORKERS      Pages processed at once (0 = one per CPU)`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml or .yml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newSegmentCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server.

MCP client configuration:
  {
    "mcpServers": {
      "exam-regions": {
        "command": "/path/to/exam-regions",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("exam-regions %s\n", Version)
			cmd.Printf("  Build time: %s\n", BuildTime)
			cmd.Printf("  Git commit: %s\n", GitCommit)
			cmd.Printf("  OCR:        %t\n", ocr.Available())
		},
	}
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, logger, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	detector, err := newDetector(cfg)
	if err != nil {
		return err
	}

	server.Version = Version
	logger.Debug("starting MCP server", "version", Version, "built", BuildTime, "commit", GitCommit)

	srv := server.New(cfg, detector, logger)
	if err := srv.Run(cmd.Context()); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	return nil
}

// setup loads the configuration and builds the stderr logger.
func setup(cmd *cobra.Command, opts *options) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, nil, err
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	return cfg, logger, nil
}

// newDetector returns the Tesseract detector when OCR is enabled, or nil for
// contour-only segmentation.
func newDetector(cfg *config.Config) (ocr.TextFragmentDetector, error) {
	if !cfg.OCR.Enabled {
		return nil, nil
	}
	detector, err := ocr.NewTesseract(cfg.OCR.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to start OCR: %w", err)
	}
	return detector, nil
}
