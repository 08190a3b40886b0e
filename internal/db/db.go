// Package db opens and migrates the run history database.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// HomeEnv overrides the directory holding the database.
const HomeEnv = "GOAPGIT_HOME"

const dbFileName = "goapgit.db"

var (
	db     *sql.DB
	dbErr  error
	dbOnce sync.Once
)

// GetDB returns the shared database connection, opening and migrating it on first use.
func GetDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		path, err := GetDBPath()
		if err != nil {
			dbErr = err
			return
		}
		db, dbErr = Open(path)
	})
	return db, dbErr
}

// Open opens the database at path, creating its directory, and applies migrations.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each new connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Close closes the shared database connection
func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// GetDBPath returns the path to the database file
func GetDBPath() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Join(dir, dbFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".goapgit", dbFileName), nil
}
