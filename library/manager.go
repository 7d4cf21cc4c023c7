package library

import (
	"context"
	"fmt"
	"time"
)

// LibraryManager is a thin façade wiring the stores and the engine over one
// Database, keeping CLI and HTTP code simple.
type LibraryManager struct {
	db    *Database
	clock Clock
	log   Logger

	Catalog       *Catalog
	Members       *Members
	Notifications *Notifications
	Borrowing     *Engine
	Overdue       *OverdueScanner
	Fines         *Fines
}

// Option configures a LibraryManager.
type Option func(*managerOptions)

type managerOptions struct {
	clock Clock
	log   Logger
}

// WithClock replaces the wall clock used for every timestamp.
func WithClock(c Clock) Option {
	return func(o *managerOptions) { o.clock = c }
}

// WithLogger sends engine and scanner log lines to l.
func WithLogger(l Logger) Option {
	return func(o *managerOptions) { o.log = l }
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string, opts ...Option) (*LibraryManager, error) {
	o := managerOptions{clock: SystemClock, log: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	lm := &LibraryManager{db: db, clock: o.clock, log: o.log}
	lm.Catalog = NewCatalog(db)
	lm.Members = NewMembers(db, o.clock)
	lm.Notifications = NewNotifications(db, lm.Members, o.clock)
	lm.Borrowing = NewEngine(db, lm.Catalog, lm.Members, lm.Notifications, o.clock, o.log)
	lm.Overdue = NewOverdueScanner(db, lm.Catalog, lm.Notifications, o.log)
	lm.Fines = NewFines(db, lm.Members, lm.Borrowing, lm.Notifications, o.clock)
	return lm, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Ping checks the database connection.
func (lm *LibraryManager) Ping(ctx context.Context) error { return lm.db.Ping(ctx) }

// Now is the manager's clock reading.
func (lm *LibraryManager) Now() time.Time { return lm.clock.Now() }

// ListOverdueNow lists transactions overdue as of the manager's clock.
func (lm *LibraryManager) ListOverdueNow(ctx context.Context) ([]*Transaction, error) {
	return lm.Overdue.ListOverdue(ctx, lm.Now())
}

// NotifyOverdueNow records overdue notices as of the manager's clock.
func (lm *LibraryManager) NotifyOverdueNow(ctx context.Context) (int, error) {
	return lm.Overdue.NotifyOverdue(ctx, lm.Now())
}

// NewOverdueSweeper returns a sweeper recording overdue notices every interval.
func (lm *LibraryManager) NewOverdueSweeper(interval time.Duration) *OverdueSweeper {
	return NewOverdueSweeper(lm.Overdue, lm.clock, interval, lm.log)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-5d %-30s %-25s %-15s %3d/%-3d", b.ID, b.Title, b.Author, b.Genre, b.AvailableCopies, b.TotalCopies)
}

// PrettyMember formats a member for lists.
func PrettyMember(m *Member) string {
	return fmt.Sprintf("%-5d %-25s %-30s %-10s %s", m.ID, m.Name, m.Email, m.Status, m.RegistrationDate.Format("2006-01-02"))
}

// PrettyTransaction formats a transaction for lists.
func PrettyTransaction(t *Transaction) string {
	returned := "-"
	if t.ReturnDate != nil {
		returned = t.ReturnDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%-5d book=%-5d member=%-5d %-10s borrowed=%s due=%s returned=%s",
		t.ID, t.BookID, t.MemberID, t.Status,
		t.BorrowDate.Format("2006-01-02"), t.DueDate.Format("2006-01-02"), returned)
}
