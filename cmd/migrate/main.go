package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/shared/config"
	"github.com/radieske/sports-hub-poc/internal/shared/db"
	"github.com/radieske/sports-hub-poc/internal/shared/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: migrate <up|down>")
		fmt.Println("  up   - aplica todas as migrações pendentes")
		fmt.Println("  down - desfaz a última migração")
		fmt.Println()
		fmt.Println("Environment:")
		fmt.Println("  POSTGRES_DSN    - string de conexão Postgres")
		fmt.Println("  MIGRATIONS_DIR  - diretório das migrações (default: migrations)")
		os.Exit(1)
	}

	cfg := config.Load()
	log, err := logger.New("migrate", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	ctx := context.Background()
	migrator := db.NewMigrator(pg, dir, log)

	switch os.Args[1] {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}
		log.Info("all migrations applied")

	case "down":
		if err := migrator.Down(ctx); err != nil {
			log.Fatal("migrate down", zap.Error(err))
		}
		log.Info("last migration rolled back")

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (use 'up' or 'down')\n", os.Args[1])
		os.Exit(1)
	}
}
