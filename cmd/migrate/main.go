package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verbamind/verbamind/internal/models"
	"github.com/verbamind/verbamind/pkg/config"
	"github.com/verbamind/verbamind/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment(), database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	// Enable UUID extension for PostgreSQL
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Auto migrate all models
	if err := db.AutoMigrate(
		&models.WordEmbeddingRow{},
		&models.GameSession{},
		&models.LeaderboardEntry{},
		&models.DailyLeaderboardEntry{},
		&models.Friendship{},
		&models.UserBrainprint{},
		&models.Season{},
		&models.UserSeasonProgress{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	return nil
}

func dropTables(db *database.DB) error {
	return db.Migrator().DropTable(
		&models.UserSeasonProgress{},
		&models.Season{},
		&models.UserBrainprint{},
		&models.Friendship{},
		&models.DailyLeaderboardEntry{},
		&models.LeaderboardEntry{},
		&models.GameSession{},
		&models.WordEmbeddingRow{},
	)
}

func seedData(db *database.DB) error {
	now := time.Now().UTC()
	season := models.Season{
		Number:    1,
		Name:      "Season 1: First Light",
		StartDate: now.AddDate(0, 0, -7),
		EndDate:   now.AddDate(0, 1, 0),
		Status:    models.SeasonStatusActive,
		Config: models.SeasonConfig{
			Games: []string{"echo", "bridge", "storm", "chain"},
			Milestones: []models.Milestone{
				{ID: "first_steps", Name: "First Steps", Requirement: 100, Reward: "badge_first_steps"},
				{ID: "wordsmith", Name: "Wordsmith", Requirement: 1000, Reward: "badge_wordsmith"},
				{ID: "polymath", Name: "Polymath", Requirement: 5000, Reward: "badge_polymath"},
			},
			TierThresholds: map[string]int{
				models.TierBronze:   100,
				models.TierSilver:   500,
				models.TierGold:     1500,
				models.TierPlatinum: 4000,
				models.TierDiamond:  10000,
			},
		},
	}

	var existing models.Season
	err := db.Where("number = ?", season.Number).First(&existing).Error
	if err == nil {
		logrus.Info("Seed season already present, skipping")
		return nil
	}
	if err := db.Create(&season).Error; err != nil {
		return fmt.Errorf("failed to seed season: %w", err)
	}

	logrus.Infof("Seeded season %q", season.Name)
	return nil
}
