package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the SQLite file at url and brings its schema up to date.
func Open(url string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", dsn(url))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// foreign_keys is a per-connection pragma, so it goes in the DSN to reach
// every connection of the pool.
func dsn(url string) string {
	params := "_foreign_keys=on&_busy_timeout=5000"
	if strings.Contains(url, "?") {
		return url + "&" + params
	}
	return "file:" + strings.TrimPrefix(url, "file:") + "?" + params
}
