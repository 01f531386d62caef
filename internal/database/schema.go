package database

import (
	"context"
	"database/sql"
)

// schema holds the idempotent DDL executed at startup. Statements use
// CREATE TABLE IF NOT EXISTS so restarting the server against an
// existing database is a no-op.
//
// registrations carries a stored generated column confirmed_flag that
// is 1 for confirmed rows and NULL for cancelled ones. MySQL unique
// indexes skip NULLs, so the key over (user_id, event_id,
// confirmed_flag) only bites for confirmed rows. That emulates a
// partial unique index: one confirmed registration per user per event,
// any number of cancelled ones.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100)    NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(100)    NOT NULL,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uniq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uniq_refresh_token_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS events (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(100)    NOT NULL,
		organizer   VARCHAR(255)    NOT NULL,
		location    VARCHAR(255)    NOT NULL,
		date        DATETIME        NOT NULL,
		description VARCHAR(500)    NOT NULL,
		capacity    INT UNSIGNED    NOT NULL,
		category    ENUM('Conference','Workshop','Meetup','Concert','Sports','Other') NOT NULL,
		image_url   VARCHAR(512)    NOT NULL,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_events_date (date),
		KEY idx_events_category (category)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS registrations (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id        BIGINT UNSIGNED NOT NULL,
		event_id       BIGINT UNSIGNED NOT NULL,
		status         ENUM('confirmed','cancelled') NOT NULL DEFAULT 'confirmed',
		registered_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		confirmed_flag TINYINT AS (IF(status = 'confirmed', 1, NULL)) STORED,
		UNIQUE KEY uniq_confirmed_registration (user_id, event_id, confirmed_flag),
		KEY idx_registrations_event_status (event_id, status),
		KEY idx_registrations_user_status (user_id, status),
		CONSTRAINT fk_registrations_user  FOREIGN KEY (user_id)  REFERENCES users(id),
		CONSTRAINT fk_registrations_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates all tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
