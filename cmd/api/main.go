package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"llaveo.org/internal/config"
	"llaveo.org/internal/httpapi"
	"llaveo.org/internal/listing"
	"llaveo.org/internal/obs"
	"llaveo.org/internal/platform"
	"llaveo.org/internal/security"
	"llaveo.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	config.Init(*configFile)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Catalog storage: Postgres when configured, in-memory for local dev.
	var (
		svc listing.Service
		db  *sql.DB
	)
	if cfg.Postgres.DSN != "" {
		store, err := pg.Open(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		svc = store
		db = store.DB()
	} else {
		log.Println("no postgres DSN configured, using in-memory store")
		svc = listing.NewInMemory()
	}

	// Rate limiting: the in-memory window table is per-process; Redis makes
	// the budgets hold across instances.
	var limiter security.Limiter = security.NewMemoryLimiter()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = security.NewRedisLimiter(rdb)
	}

	var platformOpts []platform.ClientOption
	if cfg.Platform.JWTSecret != "" {
		platformOpts = append(platformOpts, platform.WithJWTSecret(cfg.Platform.JWTSecret))
	}
	pc := platform.NewClient(cfg.Platform.URL, cfg.Platform.AnonKey, platformOpts...)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, svc, pc, limiter,
		httpapi.WithSecurityOptions(security.Options{
			ForceHTTPS:        cfg.Security.ForceHTTPS,
			TrustProxyHeaders: cfg.Security.TrustProxyHeaders,
			EdgeIPHeader:      cfg.Security.EdgeIPHeader,
		}),
		httpapi.WithCookiePolicy(cfg.IsProduction(), cfg.Session.CookieMaxAge),
		httpapi.WithGlobalRate(cfg.Server.RateBurst, cfg.Server.RatePerSec),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting llaveo-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
