package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	escrituras "github.com/LACSistemas/EscriturasNew"
	"github.com/LACSistemas/EscriturasNew/internal/logging"
	"github.com/LACSistemas/EscriturasNew/pkg/adapters/extraction"
	redisAdapter "github.com/LACSistemas/EscriturasNew/pkg/adapters/redis"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview HTTP server",
	Long:  `Starts the deed interview engine in server mode, exposing a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		if err := runServe(configPath); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	opts := []escrituras.Option{escrituras.WithLogger(logger)}
	if cfg.Metrics {
		opts = append(opts, escrituras.WithMetrics())
	}

	if cfg.Store.Backend == "redis" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		storeOpts := []redisAdapter.Option{}
		if cfg.Store.Redis.Prefix != "" {
			storeOpts = append(storeOpts, redisAdapter.WithPrefix(cfg.Store.Redis.Prefix))
		}
		if cfg.Store.Redis.TTL > 0 {
			storeOpts = append(storeOpts, redisAdapter.WithTTL(cfg.Store.Redis.TTL.Std()))
		}
		store := redisAdapter.NewFromClient(client, storeOpts...)
		defer store.Close()

		opts = append(opts, escrituras.WithStore(store))
		if cfg.Store.Redis.Lock {
			opts = append(opts, escrituras.WithLocker(redisAdapter.NewLocker(client, "escrituras:")))
		}
	}

	if cfg.Extraction.Endpoint != "" {
		opts = append(opts, escrituras.WithExtractor(extraction.NewClient(cfg.Extraction.Endpoint)))
	}
	if cfg.Extraction.Retry.Attempts > 0 {
		opts = append(opts, escrituras.WithRetryPolicy(workflow.RetryPolicy{
			Attempts:       cfg.Extraction.Retry.Attempts,
			InitialBackoff: cfg.Extraction.Retry.InitialBackoff.Std(),
			MaxBackoff:     cfg.Extraction.Retry.MaxBackoff.Std(),
		}))
	}

	interview, err := escrituras.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize interview: %w", err)
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: interview.Handler(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "store", cfg.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
		}
		logger.Info("server stopped")
	}
	return nil
}
