package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tendant/somiod/pkg/somiod/api"
	"github.com/tendant/somiod/pkg/somiod/config"
)

type Config struct {
	Port        string `env:"SOMIOD_PORT" env-default:"8080"`
	Environment string `env:"SOMIOD_ENV" env-default:"development"`

	DB DbConfig

	DatabaseType  string `env:"SOMIOD_DB_TYPE" env-default:"memory"`
	RunMigrations bool   `env:"SOMIOD_DB_MIGRATE" env-default:"true"`

	NotificationDir string `env:"SOMIOD_NOTIFICATION_DIR" env-default:"notifications"`
	SendTimeoutSecs int    `env:"SOMIOD_SEND_TIMEOUT_SECS" env-default:"5"`
}

type DbConfig struct {
	Port     uint16 `env:"SOMIOD_PG_PORT" env-default:"5432"`
	Host     string `env:"SOMIOD_PG_HOST" env-default:"localhost"`
	Name     string `env:"SOMIOD_PG_NAME" env-default:"somiod_db"`
	User     string `env:"SOMIOD_PG_USER" env-default:"somiod"`
	Password string `env:"SOMIOD_PG_PASSWORD" env-default:"pwd"`
}

func (c DbConfig) toDatabaseUrl() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}

func main() {
	var envCfg Config
	if err := cleanenv.ReadEnv(&envCfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(
		config.WithPort(envCfg.Port),
		config.WithEnvironment(envCfg.Environment),
		config.WithDatabase(envCfg.DatabaseType, envCfg.DB.toDatabaseUrl()),
		config.WithMigrations(envCfg.RunMigrations),
		config.WithNotificationDir(envCfg.NotificationDir),
		config.WithHTTPSendTimeout(time.Duration(envCfg.SendTimeoutSecs)*time.Second),
	)
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	handler := api.NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "environment": "%s"}`, serverConfig.Environment)
	})

	r.Mount("/", handler.Routes())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: r,
	}

	go func() {
		slog.Info("somiod server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	// Drains in-flight notification dispatches before exit.
	if err := svc.Close(); err != nil {
		slog.Error("Service close failed", "err", err)
	}

	slog.Info("Server exiting")
}
