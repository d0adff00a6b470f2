package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ngmaloney/flightmap/internal/api"
	"github.com/ngmaloney/flightmap/internal/cache"
	"github.com/ngmaloney/flightmap/internal/config"
	"github.com/ngmaloney/flightmap/internal/database"
	"github.com/ngmaloney/flightmap/internal/provision"
	"github.com/ngmaloney/flightmap/internal/ratelimit"
	"github.com/ngmaloney/flightmap/internal/scheduler"
	"github.com/ngmaloney/flightmap/internal/store"
)

func main() {
	cfg := config.LoadServer()
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	flag.BoolVar(&cfg.Provision, "provision", cfg.Provision, "download reference airports when the table is empty")
	flag.Parse()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	s := store.New(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Provision {
		go func() {
			if err := provision.Provision(ctx, s, cfg.DataDir, nil); err != nil {
				log.Printf("[provision] airports not loaded: %v", err)
			}
		}()
	}

	var responseCache cache.Cache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{URL: cfg.RedisURL, TTL: cfg.RedisTTL})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		responseCache = redisCache
		log.Printf("Redis cache enabled (TTL: %v)", cfg.RedisTTL)
	} else {
		responseCache = cache.NewNoOpCache()
		log.Println("Cache disabled")
	}
	defer responseCache.Close()

	if cfg.ImportPath != "" {
		sched := scheduler.New(s, responseCache, cfg.ImportPath, cfg.ImportSpec)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start import scheduler: %v", err)
		}
		defer sched.Stop()
		log.Printf("Reloading %s on %q", cfg.ImportPath, cfg.ImportSpec)
	}

	limiter := ratelimit.NewClientLimiter(ratelimit.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	})

	if cfg.AdminToken == "" {
		log.Println("ADMIN_TOKEN not set, admin routes disabled")
	}
	e := api.NewServer(api.NewHandler(s, responseCache), api.Options{
		AdminToken: cfg.AdminToken,
		Limiter:    limiter,
	})

	go func() {
		log.Printf("Starting query service on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
