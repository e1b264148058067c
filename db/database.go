package db

import (
	"database/sql"
	"fmt"
	"log"

	"ThqRel/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createReleaseSeqTable(); err != nil {
		return err
	}
	if err := createReleasesTable(); err != nil {
		return err
	}
	if err := createModerationHistoryTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'artist',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

// createReleaseSeqTable creates the auto-increment sequence backing the
// human-readable release codes (thqrel-0001, thqrel-0002, ...).
func createReleaseSeqTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS release_seq (
		id INT AUTO_INCREMENT PRIMARY KEY
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create release_seq table: %w", err)
	}
	return nil
}

func createReleasesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS releases (
		id CHAR(36) PRIMARY KEY,
		custom_id VARCHAR(20) NOT NULL UNIQUE,
		owner_id INT NOT NULL,
		kind VARCHAR(10) NOT NULL,
		tier VARCHAR(10) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		title VARCHAR(255) NOT NULL DEFAULT '',
		artists JSON,
		genre VARCHAR(100) NOT NULL DEFAULT '',
		subgenres JSON,
		cover_url VARCHAR(767) NOT NULL DEFAULT '',
		release_date VARCHAR(10) NOT NULL DEFAULT '',
		upc VARCHAR(20) NOT NULL DEFAULT '',
		tracks JSON,
		territories JSON,
		platforms JSON,
		contract_accepted BOOLEAN NOT NULL DEFAULT FALSE,
		contract_accepted_at TIMESTAMP NULL,
		promo_state VARCHAR(20) NOT NULL DEFAULT 'not_started',
		focus_track VARCHAR(255) NOT NULL DEFAULT '',
		focus_track_promo TEXT,
		promo_photos JSON,
		payment_status VARCHAR(20) NOT NULL DEFAULT '',
		payment_receipt_url VARCHAR(767) NOT NULL DEFAULT '',
		payment_comment TEXT,
		payment_amount INT NOT NULL DEFAULT 0,
		rejection_reason TEXT,
		approved_at TIMESTAMP NULL,
		approved_by INT NOT NULL DEFAULT 0,
		published_at TIMESTAMP NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_release_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
		INDEX idx_releases_owner (owner_id),
		INDEX idx_releases_status (status)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create releases table: %w", err)
	}
	log.Println("Releases table initialized successfully (or already exists).")
	return nil
}

func createModerationHistoryTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS moderation_history (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		release_id CHAR(36) NOT NULL,
		actor_id INT NOT NULL,
		action VARCHAR(30) NOT NULL,
		reason TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_history_release FOREIGN KEY (release_id) REFERENCES releases(id) ON DELETE CASCADE,
		INDEX idx_history_release (release_id)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create moderation_history table: %w", err)
	}
	log.Println("Moderation history table initialized successfully (or already exists).")
	return nil
}
