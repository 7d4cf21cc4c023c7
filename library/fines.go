package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// Fines is a record-only ledger. Amounts are stored as given; nothing here
// computes, collects or enforces a fine.
type Fines struct {
	db            *Database
	members       *Members
	engine        *Engine
	notifications *Notifications
	clock         Clock
}

func NewFines(db *Database, members *Members, engine *Engine, notifications *Notifications, clock Clock) *Fines {
	return &Fines{db: db, members: members, engine: engine, notifications: notifications, clock: clock}
}

var fineColumns = []interface{}{
	"id", "member_id", "transaction_id", "amount_cents", "status", "recorded_at", "reason",
}

// Record stores f and appends a FINE_NOTICE for the member in the same
// transaction. Status defaults to PENDING.
func (f *Fines) Record(ctx context.Context, fine *Fine) (*Fine, error) {
	if fine == nil {
		return nil, fmt.Errorf("fine is nil: %w", ErrInvalidInput)
	}
	if fine.AmountCents <= 0 {
		return nil, fmt.Errorf("fine amount must be positive: %w", ErrInvalidInput)
	}
	if fine.Status == "" {
		fine.Status = FinePending
	}
	if !fine.Status.Valid() {
		return nil, fmt.Errorf("fine status %q: %w", fine.Status, ErrInvalidInput)
	}
	fine.Reason = strings.TrimSpace(fine.Reason)

	err := f.db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := f.members.get(ctx, tx, fine.MemberID); err != nil {
			return err
		}
		if fine.TransactionID != nil {
			t, err := f.engine.get(ctx, tx, *fine.TransactionID)
			if err != nil {
				return err
			}
			if t.MemberID != fine.MemberID {
				return fmt.Errorf("transaction %d belongs to member %d: %w", t.ID, t.MemberID, ErrInvalidInput)
			}
		}

		fine.RecordedAt = stamp(f.clock.Now())
		res, err := tx.ExecContext(ctx,
			`INSERT INTO fines(member_id,transaction_id,amount_cents,status,recorded_at,reason) VALUES(?,?,?,?,?,?)`,
			fine.MemberID, fine.TransactionID, fine.AmountCents, string(fine.Status), fine.RecordedAt, fine.Reason)
		if err != nil {
			return fmt.Errorf("insert fine: %w", translateErr(err))
		}
		if fine.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		_, err = f.notifications.record(ctx, tx, fine.MemberID, fineMessage(fine.AmountCents, fine.Reason), NotificationFineNotice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fine, nil
}

// ListForMember returns the member's fines, oldest first. An empty status
// returns every fine.
func (f *Fines) ListForMember(ctx context.Context, memberID int64, status FineStatus) ([]*Fine, error) {
	ds := dialect.From(tableFines).Select(fineColumns...).
		Where(goqu.C("member_id").Eq(memberID)).
		Order(goqu.C("id").Asc())
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("fine status %q: %w", status, ErrInvalidInput)
		}
		ds = ds.Where(goqu.C("status").Eq(string(status)))
	}

	fines := []*Fine{}
	if err := selectAll(ctx, f.db.db, &fines, ds); err != nil {
		return nil, err
	}
	return fines, nil
}

// PendingTotal sums the member's PENDING fines in cents.
func (f *Fines) PendingTotal(ctx context.Context, memberID int64) (int64, error) {
	return count(ctx, f.db.db, dialect.From(tableFines).
		Select(goqu.COALESCE(goqu.SUM("amount_cents"), 0)).
		Where(goqu.C("member_id").Eq(memberID), goqu.C("status").Eq(string(FinePending))))
}
