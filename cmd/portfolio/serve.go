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

	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/auth"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/mail"
	"github.com/Zachkp/portfolio/internal/scheduler"
	"github.com/Zachkp/portfolio/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Applies migrations, seeds an empty database, starts the background jobs
and serves HTTP until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.repo.Seed(ctx, log); err != nil {
		return err
	}
	if cfg.AdminPassword == config.DefaultAdminPassword {
		log.Warn().Msg("Using the default admin password. Set ADMIN_PASSWORD.")
	}

	authSvc, err := auth.New(auth.Config{
		Username:  cfg.AdminUsername,
		Password:  cfg.AdminPassword,
		Email:     cfg.AdminEmail,
		Secret:    cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		TwoFactor: cfg.TwoFactorEnabled,
		DemoCodes: cfg.DemoCodes,
	})
	if err != nil {
		return err
	}

	var mailer mail.Mailer = mail.NopMailer{Log: log}
	if cfg.SMTPConfigured() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			To:   cfg.ToEmail,
		}, log)
	} else {
		log.Warn().Msg("SMTP not configured, contact emails are disabled")
	}

	tracker := analytics.NewTracker(a.repo, cfg.HashSalt, cfg.SessionWindow, log)
	syncer := a.syncer()

	srv, err := server.New(server.Deps{
		Config:   cfg,
		Store:    a.repo,
		Auth:     authSvc,
		Tracker:  tracker,
		Reporter: analytics.NewReporter(a.repo),
		Syncer:   syncer,
		Mailer:   mailer,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	sched := scheduler.New(log)
	cleanup := scheduler.NewRetentionCleanupJob(a.repo, cfg.RetentionMonths, log)
	if err := sched.AddJob(cfg.BountySyncSchedule, scheduler.NewBountySyncJob(syncer, log)); err != nil {
		return fmt.Errorf("scheduling bounty sync: %w", err)
	}
	if err := sched.AddJob(cfg.CleanupSchedule, cleanup); err != nil {
		return fmt.Errorf("scheduling retention cleanup: %w", err)
	}
	if err := sched.RunNow(cleanup); err != nil {
		log.Error().Err(err).Msg("Initial retention cleanup failed")
	}
	sched.Start()

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Str("env", cfg.Env).Msg("Starting HTTP server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		sched.Stop()
		return fmt.Errorf("http server: %w", err)
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	sched.Stop()
	tracker.Wait()
	srv.Wait()
	log.Info().Msg("Server stopped")
	return nil
}
