package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ikoiii/booking-futsal/internal/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the relational store shared by all repositories.
type DB struct {
	*sql.DB
	dialect dialect
	logger  *zerolog.Logger
}

type dialect struct {
	name   string
	schema []string
	// forUpdate is appended to the lapangan lookup inside booking transactions.
	forUpdate string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nama VARCHAR(100) NOT NULL,
			email VARCHAR(150) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			no_telp VARCHAR(20) NOT NULL DEFAULT '',
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lapangans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nama VARCHAR(100) NOT NULL,
			lokasi VARCHAR(255) NOT NULL DEFAULT '',
			harga_per_jam INTEGER NOT NULL,
			fasilitas TEXT NOT NULL DEFAULT '',
			deskripsi TEXT NOT NULL DEFAULT '',
			gambar VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(10) NOT NULL DEFAULT 'aktif',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			lapangan_id INTEGER NOT NULL REFERENCES lapangans(id),
			tanggal VARCHAR(10) NOT NULL,
			jam_mulai INTEGER NOT NULL,
			jam_selesai INTEGER NOT NULL,
			harga_per_jam INTEGER NOT NULL,
			total_harga INTEGER NOT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'pending',
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CHECK (jam_selesai > jam_mulai)
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			lapangan_id INTEGER NOT NULL REFERENCES lapangans(id),
			booking_id INTEGER NOT NULL UNIQUE REFERENCES bookings(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			komentar TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type VARCHAR(50) NOT NULL,
			booking_id INTEGER NOT NULL,
			payload TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at DATETIME NOT NULL,
			processed_at DATETIME,
			next_retry_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_slot ON bookings(lapangan_id, tanggal, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_lapangan ON reviews(lapangan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lapangans_status ON lapangans(status)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, next_retry_at)`,
	},
}

var mysqlDialect = dialect{
	name:      "mysql",
	forUpdate: " FOR UPDATE",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			nama VARCHAR(100) NOT NULL,
			email VARCHAR(150) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			no_telp VARCHAR(20) NOT NULL DEFAULT '',
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS lapangans (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			nama VARCHAR(100) NOT NULL,
			lokasi VARCHAR(255) NOT NULL DEFAULT '',
			harga_per_jam BIGINT NOT NULL,
			fasilitas TEXT NOT NULL,
			deskripsi TEXT NOT NULL,
			gambar VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(10) NOT NULL DEFAULT 'aktif',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			INDEX idx_lapangans_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			lapangan_id BIGINT NOT NULL,
			tanggal VARCHAR(10) NOT NULL,
			jam_mulai INT NOT NULL,
			jam_selesai INT NOT NULL,
			harga_per_jam BIGINT NOT NULL,
			total_harga BIGINT NOT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'pending',
			version BIGINT NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			INDEX idx_bookings_slot (lapangan_id, tanggal, status),
			INDEX idx_bookings_user (user_id),
			CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users(id),
			CONSTRAINT fk_bookings_lapangan FOREIGN KEY (lapangan_id) REFERENCES lapangans(id),
			CONSTRAINT chk_bookings_hours CHECK (jam_selesai > jam_mulai)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			lapangan_id BIGINT NOT NULL,
			booking_id BIGINT NOT NULL UNIQUE,
			rating INT NOT NULL,
			komentar TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_reviews_lapangan (lapangan_id),
			CONSTRAINT fk_reviews_booking FOREIGN KEY (booking_id) REFERENCES bookings(id),
			CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 5)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			event_type VARCHAR(50) NOT NULL,
			booking_id BIGINT NOT NULL,
			payload TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			retry_count INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at DATETIME NOT NULL,
			processed_at DATETIME NULL,
			next_retry_at DATETIME NULL,
			INDEX idx_outbox_status (status, next_retry_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

// Open connects to the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(ctx, cfg.MySQL, logger)
	case "sqlite", "":
		return NewDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDB opens (and creates, if needed) a SQLite database at path.
// Writers take the database lock at BEGIN, which serialises booking transactions.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	const params = "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"

	var dsn string
	memory := path == ":memory:"
	if memory {
		dsn = "file::memory:?" + params
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path + "?" + params + "&_journal_mode=WAL"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// every pooled connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{DB: sqlDB, dialect: sqliteDialect, logger: logger}
	if err := db.init(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("driver", "sqlite").Str("path", path).Msg("database initialized")
	return db, nil
}

// NewMySQL connects to MySQL and applies the schema.
func NewMySQL(ctx context.Context, cfg config.MySQLConfig, logger *zerolog.Logger) (*DB, error) {
	sqlDB, err := sql.Open("mysql", mysqlDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{DB: sqlDB, dialect: mysqlDialect, logger: logger}
	if err := db.init(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("driver", "mysql").Str("host", cfg.Host).Str("db", cfg.DBName).Msg("database initialized")
	return db, nil
}

func mysqlDSN(cfg config.MySQLConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func (db *DB) init(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, stmt := range db.dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// Driver names the SQL dialect in use.
func (db *DB) Driver() string {
	return db.dialect.name
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
