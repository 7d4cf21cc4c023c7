package library

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// Notifications appends member notifications. Recording is a row write;
// nothing is delivered.
type Notifications struct {
	db      *Database
	members *Members
	clock   Clock
}

func NewNotifications(db *Database, members *Members, clock Clock) *Notifications {
	return &Notifications{db: db, members: members, clock: clock}
}

func borrowedMessage(title string, due time.Time) string {
	return fmt.Sprintf("You have successfully borrowed '%s'. Due date: %s", title, due.Format("2006-01-02"))
}

func returnedMessage(title string) string {
	return fmt.Sprintf("You have successfully returned '%s'. Thank you!", title)
}

func overdueMessage(title string, daysOverdue int) string {
	return fmt.Sprintf("Your book '%s' is %d days overdue. Please return it immediately to avoid additional fines.", title, daysOverdue)
}

func fineMessage(amountCents int64, reason string) string {
	msg := fmt.Sprintf("A fine of %s has been recorded on your account.", formatCents(amountCents))
	if reason != "" {
		msg += " Reason: " + reason
	}
	return msg
}

func formatCents(c int64) string {
	return fmt.Sprintf("$%d.%02d", c/100, c%100)
}

var notificationColumns = []interface{}{"id", "member_id", "message", "date_sent", "type", "is_read"}

func (n *Notifications) selectNotifications(memberID int64) *goqu.SelectDataset {
	return dialect.From(tableNotifications).
		Select(notificationColumns...).
		Where(goqu.C("member_id").Eq(memberID)).
		Order(goqu.C("date_sent").Desc(), goqu.C("id").Desc())
}

// Record appends a notification for the member, timestamped now and unread.
func (n *Notifications) Record(ctx context.Context, memberID int64, message string, typ NotificationType) (*Notification, error) {
	var out *Notification
	err := n.db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := n.members.get(ctx, tx, memberID); err != nil {
			return err
		}
		var err error
		out, err = n.record(ctx, tx, memberID, message, typ)
		return err
	})
	return out, err
}

func (n *Notifications) record(ctx context.Context, q sqlx.ExtContext, memberID int64, message string, typ NotificationType) (*Notification, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("notification type %q: %w", typ, ErrInvalidInput)
	}
	note := &Notification{
		MemberID: memberID,
		Message:  message,
		SentAt:   stamp(n.clock.Now()),
		Type:     typ,
	}
	res, err := n.db.stmt(ctx, q, n.db.insertNotificationStmt).ExecContext(ctx,
		note.MemberID, note.Message, note.SentAt, string(note.Type))
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", translateErr(err))
	}
	if note.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return note, nil
}

// recordOnce records the notification unless the member already has one of
// the same type with the same message.
func (n *Notifications) recordOnce(ctx context.Context, q sqlx.ExtContext, memberID int64, message string, typ NotificationType) (bool, error) {
	existing, err := count(ctx, q, dialect.From(tableNotifications).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("member_id").Eq(memberID),
			goqu.C("type").Eq(string(typ)),
			goqu.C("message").Eq(message),
		))
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}
	if _, err := n.record(ctx, q, memberID, message, typ); err != nil {
		return false, err
	}
	return true, nil
}

// ListForMember returns the member's notifications, newest first.
func (n *Notifications) ListForMember(ctx context.Context, memberID int64) ([]*Notification, error) {
	notes := []*Notification{}
	if err := selectAll(ctx, n.db.db, &notes, n.selectNotifications(memberID)); err != nil {
		return nil, err
	}
	return notes, nil
}

// ListUnread returns the member's unread notifications, newest first.
func (n *Notifications) ListUnread(ctx context.Context, memberID int64) ([]*Notification, error) {
	notes := []*Notification{}
	if err := selectAll(ctx, n.db.db, &notes, n.selectNotifications(memberID).Where(goqu.C("is_read").Eq(0))); err != nil {
		return nil, err
	}
	return notes, nil
}

// CountUnread returns how many unread notifications the member has.
func (n *Notifications) CountUnread(ctx context.Context, memberID int64) (int64, error) {
	return count(ctx, n.db.db, dialect.From(tableNotifications).
		Select(goqu.COUNT("*")).
		Where(goqu.C("member_id").Eq(memberID), goqu.C("is_read").Eq(0)))
}

// MarkRead flags a notification as read.
func (n *Notifications) MarkRead(ctx context.Context, id int64) error {
	res, err := n.db.db.ExecContext(ctx, `UPDATE notifications SET is_read=1 WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "notification", id)
}
