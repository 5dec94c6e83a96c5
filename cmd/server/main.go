package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/config"
	"campus_cruiser/internal/controllers"
	"campus_cruiser/internal/geocoding"
	"campus_cruiser/internal/hub"
	"campus_cruiser/internal/logger"
	"campus_cruiser/internal/mail"
	"campus_cruiser/internal/middleware"
	"campus_cruiser/internal/repository"
	"campus_cruiser/internal/routes"
	"campus_cruiser/internal/services"
)

func main() {
	cfg := config.Load()

	// Initialize structured logging to file
	logger.Setup(cfg.LogLevel)

	// Connect to the database
	db := config.InitDB(cfg)
	if err := config.SeedAdmin(db, cfg); err != nil {
		logrus.WithError(err).Fatal("failed to seed admin account")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var geocoder geocoding.Geocoder = geocoding.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent, nil)
	if rdb := config.ConnectRedis(cfg); rdb != nil {
		defer rdb.Close()
		geocoder = geocoding.NewCached(geocoder, rdb, cfg.GeocodeCacheTTL)
	}

	var composer mail.Composer = mail.TemplateComposer{}
	if cfg.GeminiAPIKey != "" {
		gc, err := mail.NewGeminiComposer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logrus.WithError(err).Warn("Gemini unavailable, welcome emails use the built-in template")
		} else {
			composer = gc
		}
	}
	mailer := mail.NewSMTPMailer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass)
	welcomer := mail.NewWelcomer(composer, mailer)

	routeRepo := repository.NewRouteRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationHub := hub.NewNotificationHub()
	defer notificationHub.Close()

	reconciler := services.NewReconciler(routeRepo, userRepo, geocoder)
	directory := services.NewDirectory(userRepo, routeRepo, welcomer)
	notifications := services.NewNotificationService(notificationRepo, notificationHub)

	auth := middleware.NewAuth(cfg.JWTSecret, cfg.JWTTTL)
	r := routes.SetupRouter(routes.Handlers{
		Auth:          auth,
		Login:         controllers.NewAuthController(directory, auth),
		Routes:        controllers.NewRouteController(reconciler),
		Students:      controllers.NewStudentController(directory),
		Notifications: controllers.NewNotificationController(notifications),
		WebSocket:     controllers.NewWebSocketController(notificationHub, auth),
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: r,
	}
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
