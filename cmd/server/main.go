// Command server runs the SAT/AVT workflow API: request intake, lab routing,
// investigation lifecycle, and the email notification dispatcher.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/config"
	"github.com/JoaoPizoli/SatMaza/internal/domain"
	httpapi "github.com/JoaoPizoli/SatMaza/internal/http"
	"github.com/JoaoPizoli/SatMaza/internal/mail"
	"github.com/JoaoPizoli/SatMaza/internal/notify"
	"github.com/JoaoPizoli/SatMaza/internal/pdf"
	"github.com/JoaoPizoli/SatMaza/internal/repo"
	"github.com/JoaoPizoli/SatMaza/internal/sysutil"
)

// requestSource adapts the repository to the dispatcher's snapshot loader.
type requestSource struct {
	db *gorm.DB
}

func (s requestSource) RequestByID(ctx context.Context, id string) (*domain.Request, error) {
	return repo.GetRequest(ctx, s.db, id)
}

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty && !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	// Bootstrap the admin account before serving traffic.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := httpapi.NewUserService(db).EnsureAdmin(ctx, cfg.Admin, cfg.IsProduction()); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("admin bootstrap")
	}
	cancel()

	dispatcher := notify.NewDispatcher(
		requestSource{db: db},
		mail.NewSMTPMailer(cfg.SMTP),
		&pdf.ReportRenderer{},
		notify.Options{
			UpheldTo:    cfg.Notify.UpheldTo,
			UpheldCC:    cfg.Notify.UpheldCC,
			DismissedTo: cfg.Notify.DismissedTo,
			DismissedCC: cfg.Notify.DismissedCC,
			RedirectTo:  cfg.Notify.RedirectTo,
			RedirectCC:  cfg.Notify.RedirectCC,
			MaxAttempts: cfg.Notify.MaxAttempts,
			BaseDelay:   cfg.Notify.BaseDelay,
		},
	)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, dispatcher, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
