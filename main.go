package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"netdash/config"
	"netdash/handlers"
	"netdash/metrics"
	"netdash/middleware"
	"netdash/services"
	"netdash/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Backend: %s", cfg.Backend.BaseURL)
	log.Printf("Refresh interval: %ds (devices: %v, auto: %v)", cfg.Polling.RefreshInterval, cfg.Polling.RefreshDevices, cfg.Polling.AutoRefresh)
	log.Printf("Chart: %s, capacity %d", cfg.Chart.Mode, cfg.Chart.Capacity)

	// 2. Supporting services
	geo := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	defer geo.Close()

	store, err := services.NewExportStore(cfg)
	if err != nil {
		log.Printf("⚠️  MongoDB connection failed: %v", err)
		log.Println("Export audit log will be disabled")
		store = &services.ExportStore{}
	}
	defer store.Close()

	var forwarder services.Forwarder
	discord, err := services.NewDiscordNotifier(cfg.Discord.Token, cfg.Discord.ChannelID)
	if err != nil {
		log.Printf("⚠️  Discord bot initialization failed: %v", err)
		log.Println("Discord notifications will be disabled")
		discord = nil
	} else if discord.Enabled() {
		defer discord.Close()
		forwarder = discord
	}

	// 3. Dashboard services
	notifier := services.NewNotifier(cfg.NotificationTTLDuration(), forwarder)
	client := services.NewAPIClient(cfg)
	cache := services.NewSnapshotCache(cfg)
	scheduler := services.NewScheduler(cfg, client, cache, notifier, geo)
	dispatcher := services.NewDispatcher(client, notifier, scheduler, store)
	exporter := services.NewExporter(scheduler, client, cache, store, notifier)

	if discord != nil {
		discord.SetStatusSource(scheduler.StatusSummary)
	}

	log.Println("=== Starting Services ===")

	cache.Start()
	log.Printf("✓ Snapshot cache started (mode: %s)", cache.GetCacheMode())

	scheduler.Start()
	log.Println("✓ Refresh scheduler started")

	// 4. Web Server Setup
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(middleware.RecoverMiddleware())
	e.Use(metrics.MetricsMiddleware())

	// 5. Handlers and routes
	h := handlers.NewHandler(cfg, scheduler, dispatcher, notifier)
	exportHandlers := handlers.NewExportHandlers(exporter)
	cacheHandlers := handlers.NewCacheHandlers(cache)
	historyHandlers := handlers.NewHistoryHandlers(store)

	handlers.RegisterRoutes(e, h, exportHandlers, cacheHandlers, historyHandlers)

	// 6. Start HTTP Server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("🚀 Server running on http://%s", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Stopping services...")
	scheduler.Stop()
	cache.Stop()
	log.Println("✓ All services stopped")

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("✓ Server exited cleanly")
}
