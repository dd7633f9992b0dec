// Command api runs the meeting-point search engine's HTTP server: /v1/meet,
// /v1/heatmap, and /health.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/passbi/meetpoint/internal/gtfsfeed"
	"github.com/passbi/meetpoint/internal/httpapi"
	"github.com/passbi/meetpoint/internal/httpmw"
	"github.com/passbi/meetpoint/internal/meetcache"
	"github.com/passbi/meetpoint/internal/schedule"
)

func main() {
	gtfsDir := flag.String("gtfs", "", "Path to a directory of GTFS text files (required)")
	flag.Parse()

	if *gtfsDir == "" {
		fmt.Println("Usage: api --gtfs=<dir>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Println("Starting meeting-point API server...")

	feed, err := gtfsfeed.LoadDir(*gtfsDir)
	if err != nil {
		log.Fatalf("Failed to load GTFS directory: %v", err)
	}

	idx := schedule.New()
	idx.Build(feed)
	stats := idx.Stats()
	log.Printf("✓ Schedule index built: %d stops, %d stations, %d trips, %d routes",
		stats.Stops, stats.Stations, stats.Trips, stats.Routes)

	if _, err := meetcache.GetClient(); err != nil {
		log.Printf("Redis unavailable, result caching and rate limiting disabled: %v", err)
	} else {
		defer meetcache.Close()
		log.Println("✓ Redis connection established")
	}

	server := httpapi.NewServer(idx)
	keys := httpmw.NewKeySet(apiKeysFromEnv())

	app := fiber.New(fiber.Config{
		AppName:      "meetpoint API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Authorization",
	}))

	app.Get("/health", server.Health)

	authed := app.Group("/v1")
	authed.Use(httpmw.AuthMiddleware(keys))
	log.Println("✓ Authentication middleware enabled")
	if rdb, err := meetcache.GetClient(); err == nil {
		authed.Use(httpmw.RateLimitMiddleware(rdb, httpmw.Limits{PerSecond: 5, PerDay: 5000}))
		log.Println("✓ Rate limiting middleware enabled")
	}
	authed.Post("/meet", server.Meet)
	authed.Post("/heatmap", server.Heatmap)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{"error": "endpoint not found"})
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	port := getEnv("API_PORT", "8080")
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Server listening on http://localhost%s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// apiKeysFromEnv reads a comma-separated API key list from API_KEYS.
func apiKeysFromEnv() []string {
	raw := getEnv("API_KEYS", "")
	if raw == "" {
		return nil
	}
	keys := strings.Split(raw, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
