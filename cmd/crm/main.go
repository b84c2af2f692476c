package main

import (
	"log"

	v1 "go_crm/api/v1"
	"go_crm/internal/auth"
	"go_crm/internal/cache"
	"go_crm/internal/config"
	"go_crm/internal/db"
	"go_crm/internal/worker/overdue"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logEntry := logrus.NewEntry(logger)

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("✓ Migrations applied")
	}

	// 3. Initialize Redis
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	// 4. Initialize JWT and token revocation
	auth.InitJWT(cfg.JWT.Secret)
	revoker := auth.NewRevocationStore(cache.GetClient())

	// 5. Websocket hub
	hub := ws.NewHub(logEntry, cfg.Realtime.SendBufferSize)
	ws.SetReplayLimit(cfg.Realtime.ReplayLimit)

	// 6. Overdue invoice scanner
	if cfg.OverdueWorker.Enabled {
		worker := overdue.NewWorker(&overdue.Config{
			DB:          db.GetDB(),
			Hub:         hub,
			Logger:      logEntry,
			IntervalSec: cfg.OverdueWorker.IntervalSec,
			BatchSize:   cfg.OverdueWorker.BatchSize,
		})
		worker.Start()
		defer worker.Stop()
	}

	// 7. Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	v1.SetupRouter(r, cfg, v1.Deps{
		DB:      db.GetDB(),
		Hub:     hub,
		Revoker: revoker,
		Logger:  logEntry,
	})
	r.GET("/ws", ws.Handler(hub, db.GetDB()))

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
