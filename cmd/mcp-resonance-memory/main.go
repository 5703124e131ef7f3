package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/buildinfo"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/logging"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type options struct {
	store            string
	memoryFile       string
	libsqlURL        string
	authToken        string
	projectsDir      string
	shadowVocabulary string
	logLevel         string
	logFormat        string
	transport        string
	addr             string
	sseEndpoint      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "mcp-resonance-memory",
		Short:        "MCP server for a resonance-searchable knowledge graph",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.store, "store", "", "Graph store backend: file or libsql (env MEMORY_STORE)")
	f.StringVar(&opts.memoryFile, "memory-file", "", "JSONL graph file for the file store (env MEMORY_FILE_PATH)")
	f.StringVar(&opts.libsqlURL, "libsql-url", "", "libSQL database URL (env LIBSQL_URL)")
	f.StringVar(&opts.authToken, "auth-token", "", "Authentication token for remote databases (env LIBSQL_AUTH_TOKEN)")
	f.StringVar(&opts.projectsDir, "projects-dir", "", "Base directory for projects. Enables multi-project mode.")
	f.StringVar(&opts.shadowVocabulary, "shadow-vocabulary", "", "YAML file overriding the shadow pattern categories")
	f.StringVar(&opts.logLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level: debug, info, warn or error")
	f.StringVar(&opts.logFormat, "log-format", os.Getenv("LOG_FORMAT"), "Log format: console or json")
	f.StringVar(&opts.transport, "transport", "stdio", "Transport to use: stdio or sse")
	f.StringVar(&opts.addr, "addr", ":8080", "Address to listen on when using SSE transport")
	f.StringVar(&opts.sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path when using SSE transport")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (revision %s, built %s)\n", buildinfo.Version, buildinfo.Revision, buildinfo.BuildDate)
		},
	})
	return cmd
}

// applyFlags overrides environment configuration with explicitly set flags.
func applyFlags(config *database.Config, flags *pflag.FlagSet, opts *options) {
	if flags.Changed("store") {
		config.Store = opts.store
	}
	if flags.Changed("memory-file") {
		config.FilePath = opts.memoryFile
	}
	if flags.Changed("libsql-url") {
		config.URL = opts.libsqlURL
	}
	if flags.Changed("auth-token") {
		config.AuthToken = opts.authToken
	}
	if flags.Changed("projects-dir") {
		config.ProjectsDir = opts.projectsDir
		config.MultiProjectMode = opts.projectsDir != ""
	}
	if flags.Changed("shadow-vocabulary") {
		config.ShadowVocabularyFile = opts.shadowVocabulary
	}
}

func run(ctx context.Context, flags *pflag.FlagSet, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if opts.transport != "stdio" && opts.transport != "sse" {
		return fmt.Errorf("unknown transport: %s (expected: stdio or sse)", opts.transport)
	}

	config := database.NewConfig()
	applyFlags(config, flags, opts)

	db, err := database.NewDBManager(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", zap.Error(err))
		}
	}()

	metricsSrv, err := metrics.InitFromEnv()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mcpServer := server.NewMCPServer(db, logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The transport ending for any reason shuts the rest down.
		defer stop()
		logger.Info("starting MCP resonance memory server",
			zap.String("transport", opts.transport),
			zap.String("store", config.Store),
			zap.Bool("multiProject", config.MultiProjectMode),
			zap.String("version", buildinfo.Version))
		if opts.transport == "sse" {
			return mcpServer.RunSSE(gctx, opts.addr, opts.sseEndpoint)
		}
		return mcpServer.Run(gctx)
	})

	if metricsSrv != nil {
		g.Go(func() error {
			logger.Info("metrics exporter listening", zap.String("addr", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
