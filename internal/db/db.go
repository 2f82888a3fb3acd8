// Package db opens the finboard database and applies its migrations.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// ErrForeignKeysDisabled means the connection would not enforce the user
// ownership cascades declared in the migrations.
var ErrForeignKeysDisabled = errors.New("sqlite foreign key enforcement is off")

// sqlitePragmas run on every pooled sqlite connection unless the DSN already
// sets them.
var sqlitePragmas = []struct {
	name  string
	value string
}{
	{"foreign_keys", "1"},
	{"busy_timeout", "5000"},
	{"journal_mode", "WAL"},
}

// SQLiteDSN adds the finboard pragmas and the sqlite time format to a path or
// DSN that does not set them.
func SQLiteDSN(connection string) string {
	path, query, _ := strings.Cut(connection, "?")

	var params []string
	if query != "" {
		params = strings.Split(query, "&")
	}
	for _, p := range sqlitePragmas {
		if !strings.Contains(query, "_pragma="+p.name+"(") {
			params = append(params, "_pragma="+p.name+"("+p.value+")")
		}
	}
	if !strings.Contains(query, "_time_format=") {
		params = append(params, "_time_format=sqlite")
	}

	return path + "?" + strings.Join(params, "&")
}

func Init(driver, connection string) (*sqlx.DB, error) {
	if driver == DriverSQLite {
		path, _, _ := strings.Cut(connection, "?")
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		connection = SQLiteDSN(connection)
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if driver == DriverSQLite {
		var enabled int
		err = db.Get(&enabled, `PRAGMA foreign_keys`)
		if err == nil && enabled != 1 {
			err = ErrForeignKeysDisabled
		}
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to check sqlite pragmas: %w", err)
		}
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
