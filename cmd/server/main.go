package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/api"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/app"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/auth"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/database"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/handlers"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/maintenance"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/otp"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/realtime"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/surveycheck"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/mail"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(configPath string) error {
	cfg, err := app.Load(configPath)
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg); err != nil {
		return err
	}
	if err := app.ApplyRuntimeDefaults(cfg); err != nil {
		return err
	}

	db, err := database.Open(database.Config{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Name:     cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return err
	}
	if err := database.AutoMigrateAndSeed(db); err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Auth.JWTSecret,
		Issuer:         cfg.Auth.JWTIssuer,
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
	})
	if err != nil {
		return err
	}

	var mailer mail.Mailer
	if cfg.SMTP.Enabled {
		mailer, err = mail.NewSMTPMailer(mail.SMTPSettings{
			Enabled:  true,
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			UseTLS:   cfg.SMTP.UseTLS,
			Timeout:  cfg.SMTP.Timeout,
		})
		if err != nil {
			return err
		}
	}

	var checker surveycheck.Checker
	if cfg.Verification.Survey.BaseURL != "" {
		checker, err = surveycheck.NewClient(surveycheck.Config{
			BaseURL: cfg.Verification.Survey.BaseURL,
			APIKey:  cfg.Verification.Survey.APIKey,
			Timeout: cfg.Verification.Survey.Timeout,
		})
		if err != nil {
			return err
		}
	}

	hub := realtime.NewHub()

	store, err := otp.NewStore(db,
		otp.WithTTL(cfg.Verification.OTPTTL),
		otp.WithMaxAttempts(cfg.Verification.MaxAttempts),
	)
	if err != nil {
		return err
	}

	users, err := services.NewUserService(db)
	if err != nil {
		return err
	}
	activity, err := services.NewActivityService(db)
	if err != nil {
		return err
	}
	notifications, err := services.NewNotificationService(db, hub)
	if err != nil {
		return err
	}
	policies, err := services.NewPolicyService(db)
	if err != nil {
		return err
	}
	verification, err := services.NewVerificationService(db, policies, checker, notifications, activity,
		services.WithSurveyCheckTimeout(cfg.Verification.Survey.Timeout),
	)
	if err != nil {
		return err
	}
	listings, err := services.NewListingService(db, verification, activity)
	if err != nil {
		return err
	}
	disclosure, err := services.NewDisclosureService(store, listings, mailer, notifications, activity,
		services.WithCodeEcho(cfg.Verification.EchoCodes),
	)
	if err != nil {
		return err
	}

	cleaner, err := maintenance.NewCleaner(store, activity,
		maintenance.WithSchedule(cfg.Maintenance.Schedule),
		maintenance.WithActivityRetention(cfg.Maintenance.ActivityRetention),
	)
	if err != nil {
		return err
	}
	if err := cleaner.Start(); err != nil {
		return err
	}
	defer cleaner.Stop()

	router := api.NewRouter(api.Handlers{
		Health:        handlers.NewHealthHandler(db),
		Auth:          handlers.NewAuthHandler(users, activity, jwtService),
		Listings:      handlers.NewListingHandler(listings, cfg.Server.PublicBaseURL),
		Verification:  handlers.NewVerificationHandler(verification, policies, activity),
		Disclosure:    handlers.NewDisclosureHandler(disclosure),
		Notifications: handlers.NewNotificationHandler(notifications, hub),
		Activity:      handlers.NewActivityHandler(activity),
	}, api.Options{
		JWT:              jwtService,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		OTPRequestLimit:  cfg.Verification.OTPRequestLimit,
		OTPRequestWindow: cfg.Verification.OTPRequestWindow,
	})

	server := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
