package main

import (
	"context"
	"os"

	"churchadmin/internal/config"
	"churchadmin/internal/db"
	"churchadmin/internal/logger"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)
	log.Info("starting seed script")

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(model.AllModels()...); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	seeder := service.NewSeedService(
		repository.NewRoleRepository(gormDB),
		repository.NewUserRepository(gormDB),
		cfg.BcryptCost,
		log,
	)

	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminEmail != "" && len(adminPassword) < 8 {
		log.Fatal("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}

	res, err := seeder.Run(context.Background(), adminEmail, adminPassword)
	if err != nil {
		log.WithError(err).Fatal("seed failed")
	}
	log.WithField("permissions", res.Permissions).
		WithField("roles", res.Roles).
		WithField("admin_created", res.AdminCreated).
		Info("seed completed")
}
