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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hotel-pms/config"
	"hotel-pms/controllers"
	"hotel-pms/metrics"
	"hotel-pms/routes"
	"hotel-pms/services"
)

func main() {
	cfg, dotenv := config.Load()

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if !dotenv {
		logger.Warn(".env not found or couldn't load it; continuing with environment variables")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}

	var locker services.Locker
	if rdb := config.NewRedisClient(logger); rdb != nil {
		defer rdb.Close()
		locker = services.NewRedisLocker(rdb, cfg.LockTTL)
		logger.Info("reservation locks backed by redis")
	} else {
		locker = services.NewMemoryLocker()
		logger.Info("reservation locks held in process")
	}

	var commission services.CommissionPolicy = services.ManualSettlement{}
	if cfg.CommissionAuto {
		commission = services.AccrueToBalance{}
	}

	m := metrics.Hotel()

	// Initialize services
	adminService := services.NewAdminService(db, logger)
	roomService := services.NewRoomService(db, logger)
	guestService := services.NewGuestService(db, logger)
	agentService := services.NewTravelAgentService(db, logger)
	invoiceService := services.NewInvoiceService(db, logger, locker, m, commission)
	reservationService := services.NewReservationService(db, logger, locker, m, invoiceService)
	expenseService := services.NewExpenseService(db, logger, locker, m)

	router := routes.SetupRouter(routes.Controllers{
		Auth:         controllers.NewAuthController(adminService, cfg.JWTSecret, cfg.JWTTTL),
		Rooms:        controllers.NewRoomController(roomService),
		Guests:       controllers.NewGuestController(guestService),
		Agents:       controllers.NewTravelAgentController(agentService),
		Reservations: controllers.NewReservationController(reservationService),
		Expenses:     controllers.NewExpenseController(expenseService),
		Invoices:     controllers.NewInvoiceController(invoiceService),
	}, routes.Options{
		CORSOrigins: cfg.CORSOrigins,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logger,
	})

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
		logger.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received, shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped gracefully")
}
