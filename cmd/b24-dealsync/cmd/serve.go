package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pkravchenko/b24-dealsync/api/openapi"
	"github.com/pkravchenko/b24-dealsync/internal/api/handlers"
	"github.com/pkravchenko/b24-dealsync/internal/api/middleware"
	"github.com/pkravchenko/b24-dealsync/internal/engine"
	"github.com/pkravchenko/b24-dealsync/internal/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server and month-end scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	loc, err := cfg.MonthEnd.Location()
	if err != nil {
		return fmt.Errorf("resolving monthend timezone: %w", err)
	}

	var notifier notify.Notifier = notify.NewNoOpNotifier(log)
	if cfg.Notify.DiscordWebhookURL != "" {
		notifier = notify.NewDiscordNotifier(cfg.Notify.DiscordWebhookURL)
	}

	scheduler, err := engine.NewScheduler(eng,
		cfg.MonthEnd.Day, cfg.MonthEnd.Hour, cfg.MonthEnd.Minute,
		loc, log,
		engine.WithNotifier(notifier),
	)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	healthH := handlers.NewHealthHandler(func() bool {
		return len(scheduler.Entries()) > 0
	})
	e.GET("/healthz", healthH.Healthz)
	e.GET("/readyz", healthH.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	webhookH := handlers.NewWebhookHandler(eng, cfg.Webhook.Secret, log)
	e.POST("/hooks/deal-update", webhookH.DealUpdate)

	api := humaecho.New(e, huma.DefaultConfig("b24-dealsync admin API", Version))
	handlers.RegisterAdminRoutes(api,
		handlers.NewRollHandler(eng),
		handlers.NewReconcileHandler(eng),
		handlers.NewJobsHandler(scheduler, eng),
	)
	openapi.RegisterRoutes(e)

	scheduler.Start()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "list_id", cfg.List.ID)

	srv := &http.Server{
		Addr:         addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		log.Warn("scheduler jobs still running at shutdown deadline")
	}

	log.Info("server stopped")
	return nil
}
