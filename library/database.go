package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with ulower(text) registered on every connection.
// SQLite's built-in LOWER only folds ASCII.
const driverName = "sqlite3_library"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

const (
	tableBooks         = "books"
	tableMembers       = "members"
	tableTransactions  = "borrowing_transactions"
	tableNotifications = "notifications"
	tableFines         = "fines"
)

// dialect builds the read queries; writes stay as plain SQL.
var dialect = goqu.Dialect("sqlite3")

// Database provides high-level helpers around a SQLite connection.
type Database struct {
	db *sqlx.DB

	insertTransactionStmt  *sqlx.Stmt
	insertNotificationStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// _txlock=immediate makes every BEGIN take the write lock up front, so a
	// unit of work never reads state another writer is about to change.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate&_loc=UTC", dbPath)
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db := sqlx.NewDb(sqlDB, "sqlite3")

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.insertTransactionStmt != nil {
		d.insertTransactionStmt.Close()
	}
	if d.insertNotificationStmt != nil {
		d.insertNotificationStmt.Close()
	}
	return d.db.Close()
}

// Ping verifies the connection is usable.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            genre TEXT NOT NULL DEFAULT '',
            isbn TEXT UNIQUE,
            year_published INTEGER NOT NULL DEFAULT 0,
            available_copies INTEGER NOT NULL CHECK (available_copies >= 0),
            total_copies INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            membership_status TEXT NOT NULL DEFAULT 'ACTIVE',
            registration_date DATETIME NOT NULL,
            password_hash TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS borrowing_transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(id),
            member_id INTEGER NOT NULL REFERENCES members(id),
            borrow_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME,
            status TEXT NOT NULL DEFAULT 'BORROWED'
        );`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_member_status
            ON borrowing_transactions(member_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status_due
            ON borrowing_transactions(status, due_date);`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(id),
            message TEXT NOT NULL,
            date_sent DATETIME NOT NULL,
            type TEXT NOT NULL,
            is_read BOOLEAN NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_member
            ON notifications(member_id, date_sent);`,
		`CREATE TABLE IF NOT EXISTS fines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(id),
            transaction_id INTEGER REFERENCES borrowing_transactions(id),
            amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
            status TEXT NOT NULL DEFAULT 'PENDING',
            recorded_at DATETIME NOT NULL,
            reason TEXT NOT NULL DEFAULT ''
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertTransactionStmt, err = d.db.Preparex(
		`INSERT INTO borrowing_transactions(book_id,member_id,borrow_date,due_date,status) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertNotificationStmt, err = d.db.Preparex(
		`INSERT INTO notifications(member_id,message,date_sent,type,is_read) VALUES(?,?,?,?,0)`); err != nil {
		return err
	}
	return nil
}

// stmt binds a prepared statement to q when q is a transaction.
func (d *Database) stmt(ctx context.Context, q sqlx.ExtContext, s *sqlx.Stmt) *sqlx.Stmt {
	if tx, ok := q.(*sqlx.Tx); ok {
		return tx.StmtxContext(ctx, s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Units of work
// ---------------------------------------------------------------------------

// withTx runs fn inside one transaction and commits only if fn succeeds.
func (d *Database) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", translateErr(err))
	}
	return nil
}

// selectAll runs a goqu select and scans every row into dest.
func selectAll(ctx context.Context, q sqlx.QueryerContext, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

// selectOne runs a goqu select expected to match at most one row. A missing
// row yields ErrNotFound.
func selectOne(ctx context.Context, q sqlx.QueryerContext, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := sqlx.GetContext(ctx, q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// count runs a goqu COUNT/SUM style query returning a single integer.
func count(ctx context.Context, q sqlx.QueryerContext, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}
