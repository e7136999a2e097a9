// Command seed загружает демонстрационные туры, пользователей и отзывы
// из dev-data или очищает таблицы.
//
//	go run ./cmd/seed -import
//	go run ./cmd/seed -delete
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"natours_backend/database"
	"natours_backend/internal/config"
	"natours_backend/internal/logger"
	"natours_backend/internal/services"
	"natours_backend/internal/seed"
)

func main() {
	doImport := flag.Bool("import", false, "import fixtures from -dir")
	doDelete := flag.Bool("delete", false, "truncate bookings, reviews, tours and users")
	dir := flag.String("dir", "dev-data", "fixtures directory")
	flag.Parse()

	if *doImport == *doDelete {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if *doDelete {
		if err := seed.Delete(db); err != nil {
			logger.Fatal("Delete failed", "error", err)
		}
		return
	}

	fx, err := seed.Load(*dir, 0)
	if err != nil {
		logger.Fatal("Failed to load fixtures", "dir", *dir, "error", err)
	}
	repos := services.NewRepositories()
	ratings := services.NewRatingCalculator(repos.Tours, repos.Reviews)
	if err := seed.Import(ctx, db.WithContext(ctx), fx, ratings); err != nil {
		logger.Fatal("Import failed", "error", err)
	}
}
