package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(120)    NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          VARCHAR(16)     NOT NULL,
		coins         BIGINT          NOT NULL DEFAULT 0,
		co2_saved     DOUBLE          NOT NULL DEFAULT 0,
		xp            BIGINT          NOT NULL DEFAULT 0,
		created_at    DATETIME        NOT NULL,
		UNIQUE KEY uq_users_email (email),
		KEY idx_users_xp (xp)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS stations (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		owner_id   BIGINT UNSIGNED NULL,
		name       VARCHAR(160)    NOT NULL,
		price      DECIMAL(10,2)   NOT NULL,
		lat        DOUBLE          NOT NULL,
		lng        DOUBLE          NOT NULL,
		address    VARCHAR(255)    NULL,
		created_at DATETIME        NOT NULL,
		KEY idx_stations_owner (owner_id),
		CONSTRAINT fk_stations_owner FOREIGN KEY (owner_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS badges (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(80)     NOT NULL,
		icon        VARCHAR(32)     NOT NULL DEFAULT '',
		description VARCHAR(255)    NOT NULL DEFAULT '',
		UNIQUE KEY uq_badges_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_badges (
		user_id    BIGINT UNSIGNED NOT NULL,
		badge_id   BIGINT UNSIGNED NOT NULL,
		granted_at DATETIME        NOT NULL,
		PRIMARY KEY (user_id, badge_id),
		CONSTRAINT fk_user_badges_user FOREIGN KEY (user_id) REFERENCES users(id),
		CONSTRAINT fk_user_badges_badge FOREIGN KEY (badge_id) REFERENCES badges(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		owner_id    BIGINT UNSIGNED NOT NULL,
		station_id  BIGINT UNSIGNED NULL,
		title       VARCHAR(160)    NOT NULL,
		description TEXT            NOT NULL,
		status      VARCHAR(16)     NOT NULL DEFAULT 'DRAFT',
		target      VARCHAR(255)    NOT NULL DEFAULT '',
		discount    VARCHAR(64)     NOT NULL DEFAULT '',
		end_date    DATETIME        NULL,
		coin_reward BIGINT          NOT NULL DEFAULT 0,
		created_at  DATETIME        NOT NULL,
		KEY idx_campaigns_active (status, station_id, end_date),
		KEY idx_campaigns_owner (owner_id),
		CONSTRAINT fk_campaigns_owner FOREIGN KEY (owner_id) REFERENCES users(id),
		CONSTRAINT fk_campaigns_station FOREIGN KEY (station_id) REFERENCES stations(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS campaign_target_badges (
		campaign_id BIGINT UNSIGNED NOT NULL,
		badge_id    BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (campaign_id, badge_id),
		CONSTRAINT fk_ctb_campaign FOREIGN KEY (campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE,
		CONSTRAINT fk_ctb_badge FOREIGN KEY (badge_id) REFERENCES badges(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id      BIGINT UNSIGNED NOT NULL,
		station_id   BIGINT UNSIGNED NOT NULL,
		slot_date    DATETIME        NOT NULL,
		slot_hour    VARCHAR(16)     NOT NULL,
		is_green     BOOLEAN         NOT NULL,
		earned_coins BIGINT          NOT NULL,
		status       VARCHAR(16)     NOT NULL DEFAULT 'PENDING',
		created_at   DATETIME        NOT NULL,
		completed_at DATETIME        NULL,
		KEY idx_reservations_user (user_id, created_at),
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users(id),
		CONSTRAINT fk_reservations_station FOREIGN KEY (station_id) REFERENCES stations(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// SQLite keeps foreign keys off (the default) and declares the same columns
// with its own type affinities.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT     NOT NULL,
		email         TEXT     NOT NULL UNIQUE,
		password_hash TEXT     NOT NULL,
		role          TEXT     NOT NULL,
		coins         INTEGER  NOT NULL DEFAULT 0,
		co2_saved     REAL     NOT NULL DEFAULT 0,
		xp            INTEGER  NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER  NOT NULL,
		token_hash TEXT     NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id   INTEGER  NULL,
		name       TEXT     NOT NULL,
		price      REAL     NOT NULL,
		lat        REAL     NOT NULL,
		lng        REAL     NOT NULL,
		address    TEXT     NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		icon        TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS user_badges (
		user_id    INTEGER  NOT NULL,
		badge_id   INTEGER  NOT NULL,
		granted_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id    INTEGER  NOT NULL,
		station_id  INTEGER  NULL,
		title       TEXT     NOT NULL,
		description TEXT     NOT NULL,
		status      TEXT     NOT NULL DEFAULT 'DRAFT',
		target      TEXT     NOT NULL DEFAULT '',
		discount    TEXT     NOT NULL DEFAULT '',
		end_date    DATETIME NULL,
		coin_reward INTEGER  NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS campaign_target_badges (
		campaign_id INTEGER NOT NULL,
		badge_id    INTEGER NOT NULL,
		PRIMARY KEY (campaign_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER  NOT NULL,
		station_id   INTEGER  NOT NULL,
		slot_date    DATETIME NOT NULL,
		slot_hour    TEXT     NOT NULL,
		is_green     BOOLEAN  NOT NULL,
		earned_coins INTEGER  NOT NULL,
		status       TEXT     NOT NULL DEFAULT 'PENDING',
		created_at   DATETIME NOT NULL,
		completed_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_active ON campaigns (status, station_id, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_users_xp ON users (xp)`,
}

// Migrate creates any missing tables for the given driver. Every statement is
// idempotent so Migrate is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case config.DriverMySQL, "":
		stmts = mysqlSchema
	case config.DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported db driver %q", driver)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
