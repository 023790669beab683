package db

import (
	"database/sql"
	"fmt"
	"vidtube-api/config"
	"vidtube-api/logger"

	_ "github.com/lib/pq"
)

// ConnString builds the lib/pq connection string for cfg.
func ConnString(cfg config.Config) string {
	d := cfg.Database
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func Connect(cfg config.Config) (*sql.DB, error) {
	d := cfg.Database
	safeConnStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)

	logger.Log.WithField("connection", safeConnStr).Info("Attempting to connect to the database")

	db, err := sql.Open("postgres", ConnString(cfg))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = db.Ping(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping database")
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("Database connection established successfully")
	return db, nil
}
