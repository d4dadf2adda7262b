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

	"github.com/blackstuend/Daily-Lesson-Review/internal/config"
	"github.com/blackstuend/Daily-Lesson-Review/internal/database"
	"github.com/blackstuend/Daily-Lesson-Review/internal/events"
	"github.com/blackstuend/Daily-Lesson-Review/internal/handlers"
	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/middleware"
	"github.com/blackstuend/Daily-Lesson-Review/internal/repository"
	"github.com/blackstuend/Daily-Lesson-Review/internal/router"
	"github.com/blackstuend/Daily-Lesson-Review/internal/services"
	"github.com/blackstuend/Daily-Lesson-Review/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Daily Lesson Review...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Printf("✓ Environment variables loaded (timezone %s)", cfg.Location)

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	applied, err := database.RunMigrations(context.Background(), pool, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Printf("✓ Database migrations applied (%d new)", applied)

	// ──── Initialize Repositories ────
	lessonRepo := repository.NewLessonRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	waitingRepo := repository.NewWaitingLessonRepo(pool)

	// ──── Initialize Services ────
	m := metrics.NewMetrics()
	bus := events.NewBus(redisClients.Commands, m)
	clock := services.NewClock(cfg.Location)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	lessonService := services.NewLessonService(lessonRepo, reviewRepo, bus, m, clock)
	reviewService := services.NewReviewService(reviewRepo, bus, m, clock)
	waitingService := services.NewWaitingService(waitingRepo, bus, m, clock)
	dashboardService := services.NewDashboardService(lessonRepo, reviewService, reviewRepo, clock)

	// ──── Initialize Handlers ────
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": pool,
		"redis":    redisClients,
	})
	lessonHandler := handlers.NewLessonHandler(lessonService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	waitingHandler := handlers.NewWaitingHandler(waitingService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// ──── Step 5: Start Reminder Scheduler ────
	reminders := services.NewReminderScheduler(reviewRepo, bus, m, clock, cfg.ReminderHour)
	if err := reminders.Start(); err != nil {
		log.Fatalf("✗ Reminder scheduler failed: %v", err)
	}
	log.Println("✓ Reminder scheduler started")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(events.NewBus(redisClients.PubSub, m), jwtAuth, cfg.FrontendURL)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	limiter := middleware.NewRateLimiter(cfg.MutationRateLimit, time.Minute, redisClients.Commands, "mutations")
	r := router.New(
		jwtAuth,
		limiter,
		m,
		healthHandler,
		lessonHandler,
		reviewHandler,
		waitingHandler,
		dashboardHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		reminders.Stop()
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Daily Lesson Review ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
