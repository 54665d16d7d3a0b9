package db

import (
	"database/sql"
	"fmt"

	"maestro/config"
	"maestro/logger"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the shared connection used by the server wiring. Repositories take
// a *sql.DB explicitly so tests can hand them their own connection.
var DB *sql.DB

// Driver is the SQL driver DB was opened with.
var Driver string

// ConnectDB establishes the database connection described by cfg.
func ConnectDB(cfg *config.Config) error {
	var dsn string
	switch cfg.DBDriver {
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	case "sqlite3":
		// _foreign_keys is required: sqlite ships with FK enforcement off.
		dsn = cfg.DBPath + "?_foreign_keys=on&_loc=auto"
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	var err error
	DB, err = sql.Open(cfg.DBDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	Driver = cfg.DBDriver
	logger.Info("Connected to database",
		logger.String("driver", cfg.DBDriver),
		logger.String("name", cfg.DBName))
	return nil
}

// CloseDB closes the shared connection.
func CloseDB() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

// InitSchema creates the tables if they don't exist. The DDL differs per
// driver only in the auto-increment spelling; constraints are identical so
// both backends enforce the same invariants.
func InitSchema(d *sql.DB, driver string) error {
	autoInc := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "mysql" {
		autoInc = "BIGINT AUTO_INCREMENT PRIMARY KEY"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username VARCHAR(100) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, autoInc),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS songs (
			id %s,
			track_id VARCHAR(64) NOT NULL UNIQUE,
			track_name VARCHAR(255) NOT NULL,
			track_uri VARCHAR(255) NOT NULL UNIQUE,
			artist_name VARCHAR(255) NOT NULL,
			artist_id VARCHAR(64) NOT NULL,
			album VARCHAR(255) NOT NULL,
			album_art VARCHAR(767) NOT NULL,
			tempo DOUBLE NOT NULL,
			tempo_confidence INT NOT NULL,
			time_signature INT NOT NULL,
			time_signature_confidence INT NOT NULL,
			key_name VARCHAR(16) NOT NULL,
			key_confidence INT NOT NULL,
			mode VARCHAR(8) NOT NULL,
			mode_confidence INT NOT NULL,
			duration DOUBLE NOT NULL,
			loudness DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, autoInc),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS playlists (
			id %s,
			name VARCHAR(255) NOT NULL,
			description VARCHAR(140),
			user_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			CONSTRAINT fk_playlist_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`, autoInc),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS playlist_songs (
			id %s,
			playlist_id BIGINT NOT NULL,
			song_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			CONSTRAINT fk_ps_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
			CONSTRAINT fk_ps_song FOREIGN KEY (song_id) REFERENCES songs(id),
			CONSTRAINT fk_ps_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`, autoInc),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS likes (
			id %s,
			user_id BIGINT NOT NULL,
			track_id VARCHAR(64) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			CONSTRAINT fk_like_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT fk_like_track FOREIGN KEY (track_id) REFERENCES songs(track_id) ON DELETE CASCADE,
			CONSTRAINT uq_user_track UNIQUE (user_id, track_id)
		)`, autoInc),
	}

	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	logger.Info("Database schema initialized")
	return nil
}

// InitDB initializes the schema on the shared connection.
func InitDB() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	return InitSchema(DB, Driver)
}
