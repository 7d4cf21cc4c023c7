package library

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// OverdueScanner reinterprets BORROWED transactions whose due date has passed.
// Stored status is never changed to OVERDUE.
type OverdueScanner struct {
	db            *Database
	catalog       *Catalog
	notifications *Notifications
	log           Logger
}

func NewOverdueScanner(db *Database, catalog *Catalog, notifications *Notifications, log Logger) *OverdueScanner {
	if log == nil {
		log = nopLogger{}
	}
	return &OverdueScanner{db: db, catalog: catalog, notifications: notifications, log: log}
}

func overdueQuery(now time.Time) *goqu.SelectDataset {
	return selectTransactions().Where(
		goqu.C("status").Eq(string(StatusBorrowed)),
		goqu.L("julianday(due_date) < julianday(?)", sqlTime(now)),
	)
}

// ListOverdue returns the BORROWED transactions with a due date strictly
// before now, oldest first. It does not write anything.
func (s *OverdueScanner) ListOverdue(ctx context.Context, now time.Time) ([]*Transaction, error) {
	return s.listOverdue(ctx, s.db.db, now)
}

func (s *OverdueScanner) listOverdue(ctx context.Context, q sqlx.QueryerContext, now time.Time) ([]*Transaction, error) {
	out := []*Transaction{}
	if err := selectAll(ctx, q, &out, overdueQuery(now)); err != nil {
		return nil, fmt.Errorf("list overdue: %w", err)
	}
	return out, nil
}

// DaysOverdue is the number of whole days between due and now, at least one.
func DaysOverdue(due, now time.Time) int {
	days := int(now.Sub(due) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// NotifyOverdue records an OVERDUE_NOTICE for each overdue transaction and
// returns how many notices were written. A member never receives the same
// notice text twice, so running it again on the same day is a no-op.
func (s *OverdueScanner) NotifyOverdue(ctx context.Context, now time.Time) (int, error) {
	sent := 0
	err := s.db.withTx(ctx, func(tx *sqlx.Tx) error {
		sent = 0
		overdue, err := s.listOverdue(ctx, tx, now)
		if err != nil {
			return err
		}
		for _, t := range overdue {
			title := fmt.Sprintf("book #%d", t.BookID)
			if book, err := s.catalog.get(ctx, tx, t.BookID); err == nil {
				title = book.Title
			} else if !isNotFound(err) {
				return err
			}

			msg := overdueMessage(title, DaysOverdue(t.DueDate, now))
			ok, err := s.notifications.recordOnce(ctx, tx, t.MemberID, msg, NotificationOverdueNotice)
			if err != nil {
				return fmt.Errorf("notify transaction %d: %w", t.ID, err)
			}
			if ok {
				sent++
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("overdue notification sweep failed", "error", err)
		return 0, err
	}
	if sent > 0 {
		s.log.Info("overdue notices recorded", "count", sent)
	}
	return sent, nil
}
