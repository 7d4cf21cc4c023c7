package library

import "time"

// MembershipStatus is the standing of a member account.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipSuspended MembershipStatus = "SUSPENDED"
	MembershipExpired   MembershipStatus = "EXPIRED"
)

func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipActive, MembershipSuspended, MembershipExpired:
		return true
	}
	return false
}

// TransactionStatus is the stored state of a borrowing transaction.
// StatusOverdue is part of the vocabulary but is never written: overdue
// membership is computed at query time by the OverdueScanner.
type TransactionStatus string

const (
	StatusBorrowed TransactionStatus = "BORROWED"
	StatusReturned TransactionStatus = "RETURNED"
	StatusOverdue  TransactionStatus = "OVERDUE"
)

// NotificationType classifies a notification record.
type NotificationType string

const (
	NotificationDueDateReminder NotificationType = "DUE_DATE_REMINDER"
	NotificationOverdueNotice   NotificationType = "OVERDUE_NOTICE"
	NotificationFineNotice      NotificationType = "FINE_NOTICE"
	NotificationGeneral         NotificationType = "GENERAL"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationDueDateReminder, NotificationOverdueNotice, NotificationFineNotice, NotificationGeneral:
		return true
	}
	return false
}

// FineStatus is the settlement state of a fine. Settlement itself happens
// elsewhere; this package only records the value it is given.
type FineStatus string

const (
	FinePending FineStatus = "PENDING"
	FinePaid    FineStatus = "PAID"
	FineWaived  FineStatus = "WAIVED"
)

func (s FineStatus) Valid() bool {
	switch s {
	case FinePending, FinePaid, FineWaived:
		return true
	}
	return false
}

// Book is a catalog title together with its copy inventory.
// AvailableCopies never drops below zero. TotalCopies is only checked
// against AvailableCopies when the book is saved.
type Book struct {
	ID              int64  `db:"id" json:"id"`
	Title           string `db:"title" json:"title"`
	Author          string `db:"author" json:"author"`
	Genre           string `db:"genre" json:"genre"`
	ISBN            string `db:"isbn" json:"isbn,omitempty"`
	YearPublished   int    `db:"year_published" json:"year_published,omitempty"`
	AvailableCopies int    `db:"available_copies" json:"available_copies"`
	TotalCopies     int    `db:"total_copies" json:"total_copies"`
}

// Available reports whether at least one copy can be lent.
func (b *Book) Available() bool { return b != nil && b.AvailableCopies > 0 }

// Member represents a registered library member.
type Member struct {
	ID               int64            `db:"id" json:"id"`
	Name             string           `db:"name" json:"name"`
	Email            string           `db:"email" json:"email"`
	Phone            string           `db:"phone" json:"phone,omitempty"`
	Address          string           `db:"address" json:"address,omitempty"`
	Status           MembershipStatus `db:"membership_status" json:"membership_status"`
	RegistrationDate time.Time        `db:"registration_date" json:"registration_date"`
	PasswordHash     string           `db:"password_hash" json:"-"` // Don't serialize password hash
}

// HasPassword reports whether the member has credentials set.
func (m *Member) HasPassword() bool { return m != nil && m.PasswordHash != "" }

// Transaction is a single borrow of one copy of a book by one member.
type Transaction struct {
	ID         int64             `db:"id" json:"id"`
	BookID     int64             `db:"book_id" json:"book_id"`
	MemberID   int64             `db:"member_id" json:"member_id"`
	BorrowDate time.Time         `db:"borrow_date" json:"borrow_date"`
	DueDate    time.Time         `db:"due_date" json:"due_date"`
	ReturnDate *time.Time        `db:"return_date" json:"return_date,omitempty"`
	Status     TransactionStatus `db:"status" json:"status"`
}

// Notification is an append-only message addressed to a member.
type Notification struct {
	ID       int64            `db:"id" json:"id"`
	MemberID int64            `db:"member_id" json:"member_id"`
	Message  string           `db:"message" json:"message"`
	SentAt   time.Time        `db:"date_sent" json:"date_sent"`
	Type     NotificationType `db:"type" json:"type"`
	Read     bool             `db:"is_read" json:"is_read"`
}

// Fine is a recorded charge against a member. Amounts are in cents.
type Fine struct {
	ID            int64      `db:"id" json:"id"`
	MemberID      int64      `db:"member_id" json:"member_id"`
	TransactionID *int64     `db:"transaction_id" json:"transaction_id,omitempty"`
	AmountCents   int64      `db:"amount_cents" json:"amount_cents"`
	Status        FineStatus `db:"status" json:"status"`
	RecordedAt    time.Time  `db:"recorded_at" json:"recorded_at"`
	Reason        string     `db:"reason" json:"reason,omitempty"`
}
