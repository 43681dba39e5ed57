package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"haulcore/config"
	"haulcore/engine"
	"haulcore/messaging"
	"haulcore/mission"
	"haulcore/occupancy"
	"haulcore/points"
	"haulcore/store"
	"haulcore/workflow"
	"haulcore/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "haulcore.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("haulcore", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("haulcore: database open (%s)", cfg.Database.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	redisOK := redisClient.Ping(ctx).Err() == nil
	cancel()
	var redisStore *occupancy.RedisStore
	if redisOK {
		log.Printf("haulcore: redis connected (%s)", cfg.Redis.Address)
		redisStore = occupancy.NewRedisStore(redisClient)
	} else {
		log.Printf("haulcore: redis not available, running without cache")
	}
	defer redisClient.Close()

	// Occupancy tracker
	tracker := occupancy.NewTracker(db, redisStore, nil)
	if err := tracker.SyncRedisFromSQL(); err != nil {
		log.Printf("haulcore: redis sync from SQL: %v", err)
	}

	// Point registry
	pts, err := db.ListPoints()
	if err != nil {
		log.Fatalf("load points: %v", err)
	}
	registry := points.NewRegistry(pts)
	log.Printf("haulcore: loaded %d points on %d floor(s)", len(pts), len(registry.Floors()))
	for _, verr := range registry.Validate() {
		log.Printf("haulcore: point map warning: %v", verr)
	}

	catalog := workflow.NewCatalog(registry)

	// Robot client pool from the fleet table
	pool := mission.NewPool(cfg.Robot.Secret, cfg.Robot.Timeout)
	robots, err := db.ListEnabledRobots()
	if err != nil {
		log.Fatalf("load robots: %v", err)
	}
	for _, r := range robots {
		pool.Register(r.SN, r.BaseURL)
		log.Printf("haulcore: robot %s at %s", r.SN, r.BaseURL)
	}

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("haulcore: messaging connect failed (%v)", err)
	} else {
		log.Printf("haulcore: messaging connected (%s)", cfg.Messaging.Backend)
	}
	defer msgClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Registry:   registry,
		Catalog:    catalog,
		Pool:       pool,
		Tracker:    tracker,
		MsgClient:  msgClient,
	})
	eng.Start()
	defer eng.Stop()

	// Inbound commands from upstream systems
	consumer := messaging.NewConsumer(msgClient, db, cfg.Messaging.CommandsTopic, cfg.Messaging.EventsTopic, cfg.Messaging.SiteID, eng.Missions(), tracker)
	if err := consumer.Start(); err != nil {
		log.Printf("haulcore: command consumer subscribe failed: %v", err)
	} else {
		log.Printf("haulcore: command consumer listening on %s", cfg.Messaging.CommandsTopic)
	}

	// Outbox drainer (outbound events)
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: www.NewRouter(eng),
	}

	go func() {
		log.Printf("haulcore: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("haulcore: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("haulcore: shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("haulcore: stopped")
}
