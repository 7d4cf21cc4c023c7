package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

const (
	// MaxActiveBorrowings is how many BORROWED transactions a member may hold.
	MaxActiveBorrowings = 5
	// BorrowingPeriod is the time between borrow date and due date.
	BorrowingPeriod = 14 * 24 * time.Hour
)

// Engine runs the borrow/return state machine. A transaction moves from
// BORROWED to RETURNED exactly once and never leaves RETURNED.
//
// Borrow and Return each execute as a single database transaction covering
// the checks, the inventory change, the transaction row and the notification.
// If any step fails nothing is committed.
type Engine struct {
	db            *Database
	catalog       *Catalog
	members       *Members
	notifications *Notifications
	clock         Clock
	log           Logger
}

func NewEngine(db *Database, catalog *Catalog, members *Members, notifications *Notifications, clock Clock, log Logger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		db:            db,
		catalog:       catalog,
		members:       members,
		notifications: notifications,
		clock:         clock,
		log:           log,
	}
}

var transactionColumns = []interface{}{
	"id", "book_id", "member_id", "borrow_date", "due_date", "return_date", "status",
}

func selectTransactions() *goqu.SelectDataset {
	return dialect.From(tableTransactions).Select(transactionColumns...).Order(goqu.C("id").Asc())
}

// Borrow lends one copy of bookID to memberID.
//
// Checks run in a fixed order so the first violated rule decides the error:
// ErrLimitExceeded when the member already holds MaxActiveBorrowings books,
// then ErrBookUnavailable when the book is missing or has no copies left,
// then ErrNotFound when the member does not exist.
func (e *Engine) Borrow(ctx context.Context, bookID, memberID int64) (*Transaction, error) {
	var out *Transaction
	err := e.db.withTx(ctx, func(tx *sqlx.Tx) error {
		active, err := e.countActive(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if active >= MaxActiveBorrowings {
			return fmt.Errorf("member %d holds %d books: %w", memberID, active, ErrLimitExceeded)
		}

		book, err := e.catalog.get(ctx, tx, bookID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("book %d does not exist: %w", bookID, ErrBookUnavailable)
			}
			return err
		}
		if !book.Available() {
			return fmt.Errorf("book %d has no copies left: %w", bookID, ErrBookUnavailable)
		}

		if _, err := e.members.get(ctx, tx, memberID); err != nil {
			return err
		}

		now := stamp(e.clock.Now())
		t := &Transaction{
			BookID:     bookID,
			MemberID:   memberID,
			BorrowDate: now,
			DueDate:    now.Add(BorrowingPeriod),
			Status:     StatusBorrowed,
		}

		taken, err := e.catalog.decrementAvailable(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if !taken {
			return fmt.Errorf("book %d has no copies left: %w", bookID, ErrBookUnavailable)
		}

		res, err := e.db.stmt(ctx, tx, e.db.insertTransactionStmt).ExecContext(ctx,
			t.BookID, t.MemberID, t.BorrowDate, t.DueDate, string(t.Status))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", translateErr(err))
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		if _, err := e.notifications.record(ctx, tx, memberID, borrowedMessage(book.Title, t.DueDate), NotificationGeneral); err != nil {
			return err
		}

		out = t
		return nil
	})
	if err != nil {
		e.logFailure("borrow failed", err, "book_id", bookID, "member_id", memberID)
		return nil, err
	}

	e.log.Info("book borrowed", "transaction_id", out.ID, "book_id", bookID, "member_id", memberID, "due_date", out.DueDate)
	return out, nil
}

// Return closes a BORROWED transaction and puts the copy back on the shelf.
// It fails with ErrNotFound for an unknown id and ErrAlreadyReturned when
// the transaction is not BORROWED.
func (e *Engine) Return(ctx context.Context, transactionID int64) (*Transaction, error) {
	var out *Transaction
	err := e.db.withTx(ctx, func(tx *sqlx.Tx) error {
		t, err := e.get(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if t.Status != StatusBorrowed {
			return fmt.Errorf("transaction %d is %s: %w", transactionID, t.Status, ErrAlreadyReturned)
		}

		book, err := e.catalog.get(ctx, tx, t.BookID)
		if err != nil {
			return err
		}

		now := stamp(e.clock.Now())
		t.ReturnDate = &now
		t.Status = StatusReturned

		if err := e.catalog.incrementAvailable(ctx, tx, t.BookID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE borrowing_transactions SET return_date=?, status=? WHERE id=? AND status=?`,
			now, string(StatusReturned), t.ID, string(StatusBorrowed))
		if err != nil {
			return fmt.Errorf("update transaction %d: %w", t.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n != 1 {
			return fmt.Errorf("transaction %d: %w", t.ID, ErrAlreadyReturned)
		}

		if _, err := e.notifications.record(ctx, tx, t.MemberID, returnedMessage(book.Title), NotificationGeneral); err != nil {
			return err
		}

		out = t
		return nil
	})
	if err != nil {
		e.logFailure("return failed", err, "transaction_id", transactionID)
		return nil, err
	}

	e.log.Info("book returned", "transaction_id", out.ID, "book_id", out.BookID, "member_id", out.MemberID)
	return out, nil
}

// Get fetches a single transaction.
func (e *Engine) Get(ctx context.Context, id int64) (*Transaction, error) {
	return e.get(ctx, e.db.db, id)
}

func (e *Engine) get(ctx context.Context, q sqlx.QueryerContext, id int64) (*Transaction, error) {
	var t Transaction
	if err := selectOne(ctx, q, &t, selectTransactions().Where(goqu.C("id").Eq(id))); err != nil {
		return nil, fmt.Errorf("transaction %d: %w", id, err)
	}
	return &t, nil
}

// ListAll returns every transaction, borrowed or returned.
func (e *Engine) ListAll(ctx context.Context) ([]*Transaction, error) {
	out := []*Transaction{}
	if err := selectAll(ctx, e.db.db, &out, selectTransactions()); err != nil {
		return nil, err
	}
	return out, nil
}

// MemberBorrowings returns the member's BORROWED transactions. Returned
// history is not included.
func (e *Engine) MemberBorrowings(ctx context.Context, memberID int64) ([]*Transaction, error) {
	out := []*Transaction{}
	ds := selectTransactions().Where(
		goqu.C("member_id").Eq(memberID),
		goqu.C("status").Eq(string(StatusBorrowed)),
	)
	if err := selectAll(ctx, e.db.db, &out, ds); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) countActive(ctx context.Context, q sqlx.QueryerContext, memberID int64) (int64, error) {
	n, err := count(ctx, q, dialect.From(tableTransactions).
		Select(goqu.COUNT("*")).
		Where(goqu.C("member_id").Eq(memberID), goqu.C("status").Eq(string(StatusBorrowed))))
	if err != nil {
		return 0, fmt.Errorf("count active borrowings: %w", err)
	}
	return n, nil
}

func (e *Engine) logFailure(msg string, err error, keysAndValues ...interface{}) {
	keysAndValues = append(keysAndValues, "error", err)
	if IsBorrowingError(err) {
		e.log.Warn(msg, keysAndValues...)
		return
	}
	e.log.Error(msg, keysAndValues...)
}

// IsBorrowingError reports whether err is one of the circulation rule
// failures rather than a storage fault.
func IsBorrowingError(err error) bool {
	return errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyReturned)
}
