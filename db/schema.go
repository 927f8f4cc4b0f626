package db

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the tables if they don't exist.
func InitSchema(db *sql.DB) error {
	log.Info("Initializing wastemap database schema...")

	usersTableSQL := `
	CREATE TABLE IF NOT EXISTS users(
		id VARCHAR(255) NOT NULL,
		avatar VARCHAR(255) NOT NULL,
		kitns_daily INT NOT NULL DEFAULT 0,
		kitns_disbursed INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX avatar_index (avatar)
	)`

	if _, err := db.Exec(usersTableSQL); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Info("Users table created/verified")

	// status transitions to verified/rejected happen through moderation
	// tooling, not this service.
	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS reports(
		seq BIGINT NOT NULL AUTO_INCREMENT,
		report_id CHAR(36) NOT NULL,
		id VARCHAR(255) NOT NULL,
		ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		latitude DOUBLE,
		longitude DOUBLE,
		image LONGBLOB NOT NULL,
		mime_type VARCHAR(64) NOT NULL DEFAULT 'image/jpeg',
		severity ENUM('LOW', 'MEDIUM', 'HIGH') NOT NULL,
		confidence FLOAT NOT NULL DEFAULT 0,
		waste_types VARCHAR(512) NOT NULL DEFAULT '["mixed"]',
		reason VARCHAR(1024) NOT NULL DEFAULT '',
		annotation VARCHAR(1024) NOT NULL DEFAULT '',
		status ENUM('pending', 'verified', 'rejected') NOT NULL DEFAULT 'pending',
		PRIMARY KEY (seq),
		UNIQUE INDEX report_id_index (report_id),
		INDEX reporter_index (id),
		INDEX ts_index (ts),
		INDEX geo_index (latitude, longitude)
	)`

	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	log.Info("Reports table created/verified")

	log.Info("Database schema initialization completed")
	return nil
}
