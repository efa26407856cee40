package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"

	"polykitchen/internal/config"
	"polykitchen/internal/db"
	"polykitchen/internal/logger"
	"polykitchen/internal/migrate"
)

func main() {
	var down int
	flag.IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New("migrate", logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.DBConnString == "" {
		log.Fatal("DB_DSN is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if down > 0 {
		if err := migrate.Rollback(ctx, pool, down); err != nil {
			log.Fatalf("rollback migrations: %v", err)
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatalf("read schema version: %v", err)
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("migrations done")
}
