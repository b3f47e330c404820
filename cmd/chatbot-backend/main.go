package main

// @title           Chatbot Backend API
// @version         1.0
// @description     Retrieval-augmented chatbot over company documents and the employee database.

// @host      localhost:8000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/DilipGoud03/langchain-chatbot-backend/docs"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are flags shared by every subcommand
type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "chatbot-backend",
		Short:         "Document chatbot API, ingestion worker and scheduler",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd.Context(), opts, modeAll)
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "read environment from this file instead of ./.env")

	root.AddCommand(
		newServeCommand(opts, modeAPI, "api", "Run the HTTP API only"),
		newServeCommand(opts, modeWorker, "worker", "Run the task worker, scheduler and directory watcher only"),
		newServeCommand(opts, modeAll, "all", "Run the API and the worker in one process (default)"),
		newMigrateCommand(opts),
		newScanCommand(opts),
		newIngestCommand(opts),
	)
	return root
}

// load reads configuration and builds the process logger
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	var files []string
	if o.envFile != "" {
		files = append(files, o.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	if cfg.UsesDevelopmentSecret() {
		logger.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

type mode string

const (
	modeAPI    mode = "api"
	modeWorker mode = "worker"
	modeAll    mode = "all"
)

func newServeCommand(opts *rootOptions, m mode, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd.Context(), opts, m)
		},
	}
}

func runMode(parent context.Context, opts *rootOptions, m mode) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	ctx, stop := signalContext(parent)
	defer stop()

	logger.Info("chatbot-backend starting", "version", version, "mode", m)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	switch m {
	case modeAPI:
		return a.newServer().Start(ctx)

	case modeWorker:
		w := a.newWorker()
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		<-ctx.Done()
		logger.Info("stopping worker")
		w.Stop()
		return nil

	default:
		w := a.newWorker()
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		// Stop the worker before connections close
		defer w.Stop()
		return a.newServer().Start(ctx)
	}
}
