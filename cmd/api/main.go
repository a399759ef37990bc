package main

import (
	"context"
	"os"

	"lcfs-backend/internal/application/balancecache"
	ledgersvc "lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/config"
	"lcfs-backend/internal/infrastructure/database"
	"lcfs-backend/internal/interfaces/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create failed")
	}

	ctx := context.Background()

	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal().Err(err).Msg("database handle unavailable")
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		if err := database.Seed(db, cfg.Env); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
		log.Info().Msg("database connected")
	}

	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		log.Info().Msg("redis connected")
	}

	if cfg.PrimeBalanceCache && db != nil && rdb != nil {
		cache := &balancecache.Cache{Rdb: rdb}
		ledger := &ledgersvc.Service{DB: db}
		if err := cache.Prime(ctx, db, ledger); err != nil {
			log.Warn().Err(err).Msg("balance cache prime failed")
		} else {
			log.Info().Msg("balance cache primed")
		}
	}

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
