package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/angeli-sliit/AirSense/internal/airquality"
	"github.com/angeli-sliit/AirSense/internal/airquality/providers"
	httpapi "github.com/angeli-sliit/AirSense/internal/api/http"
	"github.com/angeli-sliit/AirSense/internal/config"
	"github.com/angeli-sliit/AirSense/internal/geocode"
	"github.com/angeli-sliit/AirSense/internal/scheduler"
	"github.com/angeli-sliit/AirSense/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Relational store.
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	st := store.NewGormStore(db)
	if err := st.AutoMigrate(); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Geocoding backend: Google when an API key is configured,
	// Open-Meteo search otherwise.
	var backend geocode.Geocoder
	if cfg.GeocoderAPIKey != "" {
		backend = geocode.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	} else {
		backend = geocode.NewOpenMeteoGeocoder(httpClient, "")
	}
	resolver := geocode.NewResolver(st, backend)

	// Upstream air-quality client.
	upstream := providers.NewOpenMeteoClient(httpClient, "")

	// Core service orchestrating resolve, fetch, normalize and merge.
	service := airquality.NewService(st, resolver, upstream)

	// Optional background refresh of tracked cities.
	sched := scheduler.New(cfg.RefreshCities, cfg.RefreshDays, cfg.RefreshInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "airsense",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(httpapi.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowHeaders: "Content-Type,X-API-KEY,X-PLAN",
	}))

	// Unauthenticated health probe.
	httpapi.RegisterHealth(app, st, upstream)

	// Data endpoints behind the API key.
	api := app.Group("/",
		httpapi.RequireAPIKey(cfg.APIKey),
		httpapi.PlanFromHeader(cfg.DefaultPlan),
	)
	httpapi.RegisterRoutes(api, service, cfg.Tiers)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
