package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"civitai-archiver/internal/adapters/primary/http/handlers"
	"civitai-archiver/internal/adapters/primary/http/middleware"
	"civitai-archiver/internal/adapters/secondary/postgres"
	"civitai-archiver/internal/core/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the archived catalog over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		modelRepo := postgres.NewModelRepository(pool)
		imageRepo := postgres.NewImageRepository(pool)
		runRepo := postgres.NewScrapeRunRepository(pool)

		catalogSvc := services.NewCatalogService(modelRepo, imageRepo)
		statsSvc := services.NewStatsService(modelRepo, imageRepo, runRepo)

		h := handlers.New(catalogSvc, statsSvc)

		router := gin.New()
		router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

		api := router.Group("/api/v1")
		h.RegisterRoutes(api)

		router.GET("/healthz", func(c *gin.Context) {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Infof("starting server on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced shutdown: %w", err)
		}

		log.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
