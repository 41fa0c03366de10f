package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/analysis"
	"github.com/spigell/talentlens/internal/api"
	"github.com/spigell/talentlens/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default from config, :8000)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talentlens api", zap.String("version", version), zap.String("address", config.Server.Address))

	c, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("building components", zap.Error(err))
	}

	store, err := newStore(ctx, config.Storage, logger)
	if err != nil {
		logger.Fatal("creating file storage", zap.Error(err))
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	service := analysis.NewService(store, c.normalizer, c.scorer, logger.Named("analysis"))
	server := api.NewServer(store, service, c.scorer, logger.Named("api"), api.Options{
		AllowedOrigins: config.Server.AllowedOrigins,
		Policy: storage.Policy{
			Extensions: config.Storage.AllowedExtensions,
			MaxSize:    config.Storage.MaxFileSize,
		},
	})

	httpServer := &http.Server{
		Addr:         config.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down", zap.Duration("timeout", config.Server.ShutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	if purger, ok := store.(storage.Purger); ok {
		if err := purger.Purge(shutdownCtx); err != nil {
			logger.Error("clearing stored files", zap.Error(err))
		}
	}

	logger.Info("stopped")
}
