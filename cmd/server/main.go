package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/pepper-api/internal/config"
	"github.com/Brownie44l1/pepper-api/internal/handlers"
	"github.com/Brownie44l1/pepper-api/internal/model"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	cfg.ConfigureLogging()
	if cfg.LogLevel < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	logrus.WithField("model", cfg.ModelPath).Info("loading model")

	modelServer, err := model.NewServer(model.Config{
		ModelPath:    cfg.ModelPath,
		MetadataPath: cfg.MetadataPath,
		InputShape:   cfg.InputShape,
		LibraryPath:  cfg.ONNXLibraryPath,
	})
	if err != nil {
		logrus.Fatalf("initialize model server: %v", err)
	}
	defer modelServer.Close()

	handler := handlers.NewHandler(modelServer, cfg.MaxUploadBytes, cfg.MaxImagePixels)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.Router(handler, cfg.AllowedOrigins),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":    cfg.Port,
			"origins": cfg.AllowedOrigins,
			"classes": modelServer.Metadata.Classes,
		}).Info("starting pepper diagnosis API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("server exited")
			stop()
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("graceful shutdown")
	}
}
