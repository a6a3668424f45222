package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-apidocs/internal/api"
	"github.com/prasenjit/go-apidocs/internal/history"
	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
	"github.com/prasenjit/go-apidocs/internal/stats"
	"github.com/prasenjit/go-apidocs/internal/storage"
	"github.com/prasenjit/go-apidocs/internal/tester"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the documentation server",
	Long: `Starts the documentation server.

The server will:
  - Register the built-in documentation and the configured documentation file
  - Expose the documentation, cURL examples and the request tester at /_api/
  - Stream tester executions over a WebSocket at /_api/history/stream

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Override server port")
	serveCmd.Flags().String("storage", "", "Override storage type: memory, file or sqlite")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("storage.type", serveCmd.Flags().Lookup("storage"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	enforcement, err := schema.ParseMode(cfg.Schema.Enforcement)
	if err != nil {
		return err
	}
	validation, err := schema.ParseMode(cfg.Tester.Validation)
	if err != nil {
		return err
	}

	storagePath := cfg.Storage.Path
	if cfg.Storage.Type == storage.TypeSQLite {
		if err := os.MkdirAll(storagePath, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
		storagePath = filepath.Join(storagePath, "apidocs.db")
	}
	logger.Info("opening storage", "type", cfg.Storage.Type, "path", storagePath)

	store, err := storage.Open(cfg.Storage.Type, storagePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	engine := tester.NewEngine(tester.Options{
		Timeout:      cfg.Tester.Timeout,
		Validation:   validation,
		MaxBodyBytes: cfg.Tester.MaxBodyBytes,
		Logger:       logger,
	})
	sessions := tester.NewSessionManager(engine, cfg.Tester.SessionIdleTimeout, logger)
	handler := api.NewHandler(store, sessions, history.NewService(cfg.History.MaxEntries), stats.NewCollector(), enforcement, logger)

	builtin, err := schema.Default()
	if err != nil {
		return err
	}
	if _, err := handler.Seed(builtinName, models.SourceBuiltin, builtin); err != nil {
		return fmt.Errorf("failed to register built-in documentation: %w", err)
	}
	if cfg.Docs.File != "" {
		doc, name, source, err := loadDocs(cfg, logger)
		if err != nil {
			return err
		}
		if _, err := handler.Seed(name, source, doc); err != nil {
			return fmt.Errorf("failed to register %s: %w", cfg.Docs.File, err)
		}
	}

	router := api.NewRouter(handler)

	// Writes must outlive the slowest tester call
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Tester.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionsDone := make(chan struct{})
	go func() {
		sessions.Run(ctx, time.Minute)
		close(sessionsDone)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting apidocs server", "addr", server.Addr)
		logger.Info("API available", "url", fmt.Sprintf("http://%s/_api/", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-sessionsDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	// Sessions close first so in-flight tester calls return before Shutdown
	<-sessionsDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
