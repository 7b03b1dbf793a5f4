package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vearutop/statigz"
	"github.com/vearutop/statigz/zstd"

	"github.com/sweater-ventures/roster/api"
	"github.com/sweater-ventures/roster/app"
	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/middleware"
	"github.com/sweater-ventures/roster/views"
)

//go:embed static/*
var static embed.FS

const sessionSweepInterval = 10 * time.Minute

func main() {
	config.InitLogging()
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Unable to load configuration: ", err)
	}

	application, err := app.NewApp(appConfig)
	if err != nil {
		log.Fatal("Unable to initialize application: ", err)
	}
	defer application.Close()

	slog.Debug("Configuration",
		"DevMode", appConfig.DevMode,
		"LogLevel", appConfig.LogLevel,
		"Store", appConfig.Store,
		"API", appConfig.APIBaseURL(),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if appConfig.SeedCount > 0 {
		n, err := app.SeedUsers(ctx, application, appConfig.SeedCount, appConfig.SeedValue)
		if err != nil {
			log.Fatal("Unable to seed users: ", err)
		}
		if n > 0 {
			slog.Info("Seeded users", "count", n)
		}
	}

	stopInvalidator := app.StartInvalidator(application)
	defer stopInvalidator()
	go sweepSessions(ctx, application)

	router := http.NewServeMux()
	if appConfig.DevMode {
		router.Handle("/static/", http.StripPrefix("/static", http.FileServer(http.Dir("static"))))
	} else {
		router.Handle("/static/", statigz.FileServer(static, zstd.AddEncoding))
	}
	views.AddViews(application, router)
	api.AddApis(application, router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", appConfig.Port),
		Handler: middleware.ConsoleMiddleware(application, router),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Starting Roster", "port", appConfig.Port, "version", config.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-sigChan
	slog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// SSE change streams stay open until their request context ends
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func sweepSessions(ctx context.Context, roster *app.Application) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := roster.Sessions.Sweep(); n > 0 {
				slog.Debug("Swept expired console sessions", "count", n)
			}
		}
	}
}
