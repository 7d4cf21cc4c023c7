package httpapi

import (
	"context"
	"time"

	"library-circulation/library"
)

// The handlers depend on these narrow views of the library components so
// tests can swap in stubs for failure paths.

type CatalogService interface {
	Get(ctx context.Context, id int64) (*library.Book, error)
	List(ctx context.Context) ([]*library.Book, error)
	ListAvailable(ctx context.Context) ([]*library.Book, error)
	Search(ctx context.Context, keyword string) ([]*library.Book, error)
	Save(ctx context.Context, b *library.Book) (*library.Book, error)
	Delete(ctx context.Context, id int64) error
}

type MemberService interface {
	Get(ctx context.Context, id int64) (*library.Member, error)
	List(ctx context.Context) ([]*library.Member, error)
	FindByEmail(ctx context.Context, email string) (*library.Member, error)
	Search(ctx context.Context, name string) ([]*library.Member, error)
	ListByStatus(ctx context.Context, status library.MembershipStatus) ([]*library.Member, error)
	ListActive(ctx context.Context) ([]*library.Member, error)
	Save(ctx context.Context, m *library.Member) (*library.Member, error)
	Delete(ctx context.Context, id int64) error
}

type BorrowingService interface {
	Borrow(ctx context.Context, bookID, memberID int64) (*library.Transaction, error)
	Return(ctx context.Context, transactionID int64) (*library.Transaction, error)
	ListAll(ctx context.Context) ([]*library.Transaction, error)
	MemberBorrowings(ctx context.Context, memberID int64) ([]*library.Transaction, error)
}

type OverdueService interface {
	ListOverdue(ctx context.Context, now time.Time) ([]*library.Transaction, error)
}

type NotificationService interface {
	ListForMember(ctx context.Context, memberID int64) ([]*library.Notification, error)
	ListUnread(ctx context.Context, memberID int64) ([]*library.Notification, error)
	CountUnread(ctx context.Context, memberID int64) (int64, error)
	MarkRead(ctx context.Context, id int64) error
}

type FineService interface {
	Record(ctx context.Context, f *library.Fine) (*library.Fine, error)
	ListForMember(ctx context.Context, memberID int64, status library.FineStatus) ([]*library.Fine, error)
	PendingTotal(ctx context.Context, memberID int64) (int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}
