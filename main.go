package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"room-booking/config"
	"room-booking/controllers"
	"room-booking/logger"
	"room-booking/repository"
	"room-booking/routes"
	"room-booking/schedule"
	"room-booking/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger.SetupLogger(cfg.LogLevel)

	policy, err := cfg.Policy()
	if err != nil {
		logrus.Fatalf("booking policy: %v", err)
	}

	// Storage handle is opened once here and closed on shutdown
	var (
		store services.BookingStore
		db    *gorm.DB
	)
	if cfg.DBDriver == config.DriverMemory {
		logrus.Warn("DB_DRIVER=memory: bookings are kept in process memory and lost on restart")
		store = repository.NewMemoryRepo()
	} else {
		db, err = config.ConnectDatabase(cfg, policy.Loc())
		if err != nil {
			logrus.Fatalf("database connect failed: %v", err)
		}
		store = repository.NewBookingRepo(db, cfg.DBTimeout, policy.Loc())
		logrus.WithField("driver", cfg.DBDriver).Info("database connection established and bookings table migrated")
	}

	clock := schedule.RealClock{}
	bookingService := services.NewBookingService(store, policy, clock)
	queryService := services.NewQueryService(store, policy, clock)

	bookingController := controllers.NewBookingController(bookingService, queryService, policy)
	settingsController := controllers.NewSettingsController(policy)

	router := routes.SetupRouter(bookingController, settingsController, cfg.CorsOrigins)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.Infof("server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logrus.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server forced to shutdown: %v", err)
	}
	if db != nil {
		if err := config.CloseDatabase(db); err != nil {
			logrus.Errorf("closing database: %v", err)
		}
	}

	logrus.Info("server stopped gracefully")
}
