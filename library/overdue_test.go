package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day24 = 24 * time.Hour

func TestOverdueThenReturn(t *testing.T) {
	lm, clock := tempManager(t)
	ctx := context.Background()
	b := addBook(t, lm, "Dune", "Frank Herbert", "", 1)
	m := addMember(t, lm, "Alice", "alice@example.com")

	tx, err := lm.Borrowing.Borrow(ctx, b.ID, m.ID)
	require.NoError(t, err)

	overdue, err := lm.Overdue.ListOverdue(ctx, clock.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)

	clock.Advance(15 * day24)
	overdue, err = lm.Overdue.ListOverdue(ctx, clock.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, tx.ID, overdue[0].ID)
	// Overdue is a view; the stored status is untouched.
	assert.Equal(t, StatusBorrowed, overdue[0].Status)

	_, err = lm.Borrowing.Return(ctx, tx.ID)
	require.NoError(t, err)

	overdue, err = lm.Overdue.ListOverdue(ctx, clock.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestOverdueBoundaryIsStrict(t *testing.T) {
	lm, _ := tempManager(t)
	ctx := context.Background()
	b := addBook(t, lm, "Dune", "Frank Herbert", "", 1)
	m := addMember(t, lm, "Alice", "alice@example.com")

	tx, err := lm.Borrowing.Borrow(ctx, b.ID, m.ID)
	require.NoError(t, err)

	overdue, err := lm.Overdue.ListOverdue(ctx, tx.DueDate)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	overdue, err = lm.Overdue.ListOverdue(ctx, tx.DueDate.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	// Callers in other zones see the same instant.
	local := time.FixedZone("UTC+5", 5*60*60)
	overdue, err = lm.Overdue.ListOverdue(ctx, tx.DueDate.Add(time.Second).In(local))
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
}

func TestDaysOverdue(t *testing.T) {
	due := epoch
	assert.Equal(t, 1, DaysOverdue(due, due.Add(time.Hour)))
	assert.Equal(t, 1, DaysOverdue(due, due.Add(day24+time.Hour)))
	assert.Equal(t, 3, DaysOverdue(due, due.Add(3*day24)))
}

func TestNotifyOverdue(t *testing.T) {
	lm, clock := tempManager(t)
	ctx := context.Background()
	dune := addBook(t, lm, "Dune", "Frank Herbert", "", 1)
	emma := addBook(t, lm, "Emma", "Jane Austen", "", 1)
	alice := addMember(t, lm, "Alice", "alice@example.com")
	bob := addMember(t, lm, "Bob", "bob@example.com")

	_, err := lm.Borrowing.Borrow(ctx, dune.ID, alice.ID)
	require.NoError(t, err)
	clock.Advance(10 * day24)
	_, err = lm.Borrowing.Borrow(ctx, emma.ID, bob.ID)
	require.NoError(t, err)

	// Only Alice's loan has lapsed.
	clock.Advance(6 * day24)
	sent, err := lm.NotifyOverdueNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	notes, err := lm.Notifications.ListForMember(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, NotificationOverdueNotice, notes[0].Type)
	assert.Equal(t,
		"Your book 'Dune' is 2 days overdue. Please return it immediately to avoid additional fines.",
		notes[0].Message)

	// Same day: nothing new.
	sent, err = lm.NotifyOverdueNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	// Once Bob's loan lapses too, Alice's notice carries a new day count.
	clock.Advance(9 * day24)
	sent, err = lm.NotifyOverdueNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	overdue, err := lm.ListOverdueNow(ctx)
	require.NoError(t, err)
	assert.Len(t, overdue, 2)
	for _, tx := range overdue {
		assert.Equal(t, StatusBorrowed, tx.Status)
	}
}

func TestOverdueSweeperRecordsNotices(t *testing.T) {
	lm, clock := tempManager(t)
	ctx := context.Background()
	b := addBook(t, lm, "Dune", "Frank Herbert", "", 1)
	m := addMember(t, lm, "Alice", "alice@example.com")
	_, err := lm.Borrowing.Borrow(ctx, b.ID, m.ID)
	require.NoError(t, err)
	clock.Advance(20 * day24)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- lm.NewOverdueSweeper(10 * time.Millisecond).Run(runCtx) }()

	require.Eventually(t, func() bool {
		n, err := lm.Notifications.CountUnread(ctx, m.ID)
		return err == nil && n == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// Repeated sweeps on the same day do not pile up notices.
	notes, err := lm.Notifications.ListForMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}
