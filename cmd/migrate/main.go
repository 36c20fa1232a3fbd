// cmd/migrate/main.go
package main

import (
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coursechain-backend/internal/config"
	"github.com/javajoker/coursechain-backend/internal/database"
	"github.com/javajoker/coursechain-backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.Log)

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	logrus.Info("Database schema is up to date")
}
