package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres
	_ "github.com/mattn/go-sqlite3" // sqlite3
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core"
)

var drivers = map[string]string{
	"sqlite":   "sqlite3",
	"postgres": "postgres",
}

// Open connects to the SQL database configured by conf.Storage and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	driver, ok := drivers[conf.Storage.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL driver %q", conf.Storage.Driver)
	}
	dsn := conf.Storage.DSN
	if dsn == "" {
		if driver != "sqlite3" {
			return nil, errors.New("storage DSN is required")
		}
		dsn = "file:edupoints.db?cache=shared"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if driver == "sqlite3" {
		// sqlite serializes writers anyway; one connection also keeps ":memory:" databases alive
		db.SetMaxOpenConns(1)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate creates the tables the application needs if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	blobType := "BLOB"
	if db.DriverName() == "postgres" {
		blobType = "BYTEA"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      %s NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`, blobType),
		`CREATE TABLE IF NOT EXISTS reward (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	points_cost INTEGER NOT NULL,
	limited     BOOLEAN NOT NULL,
	quantity    INTEGER,
	image_url   TEXT NOT NULL,
	position    INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS redemption (
	id            TEXT PRIMARY KEY,
	student_id    TEXT NOT NULL,
	reward_id     TEXT NOT NULL,
	redeemed_at   TIMESTAMP NOT NULL,
	status        TEXT NOT NULL,
	teacher_id    TEXT NOT NULL,
	resolved_at   TIMESTAMP,
	student_name  TEXT NOT NULL,
	student_email TEXT NOT NULL,
	position      INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS redemption_student_id_idx ON redemption (student_id)`,
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning migration")
	}
	for _, stmt := range stmts {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "migrating database")
		}
	}
	return errors.Wrap(tx.Commit(), "committing migration")
}
