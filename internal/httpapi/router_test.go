package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

var now = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	lm     *library.LibraryManager
	router *gin.Engine
}

func newFixture(t *testing.T, at time.Time) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := library.FixedClock(at)
	lm, err := library.NewLibraryManager(filepath.Join(t.TempDir(), "library.db"), library.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { lm.Close() })

	cfg := NewRouterConfig(logger.Nop(), lm, clock, "test", []string{"http://localhost:3000"})
	return &fixture{t: t, lm: lm, router: NewRouter(cfg)}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[ErrorEnvelope](t, rec).Error.Code
}

func (f *fixture) book(title string, copies int) *library.Book {
	rec := f.do(http.MethodPost, "/api/books", map[string]interface{}{
		"title": title, "author": "Author", "genre": "Fiction", "available_copies": copies,
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decode[library.Book](f.t, rec)
	return &b
}

func (f *fixture) member(name, email string) *library.Member {
	rec := f.do(http.MethodPost, "/api/members", map[string]interface{}{"name": name, "email": email})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decode[library.Member](f.t, rec)
	return &m
}

func TestHealth(t *testing.T) {
	f := newFixture(t, now)

	rec := f.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, "2026-03-02T09:30:00Z", body["timestamp"])

	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	rec = f.do(http.MethodGet, "/api/health/database", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBorrowAndReturnOverHTTP(t *testing.T) {
	f := newFixture(t, now)
	b := f.book("Dune", 1)
	m := f.member("Alice", "alice@example.com")

	rec := f.do(http.MethodPost, fmt.Sprintf("/api/borrowing/borrow?bookId=%d&memberId=%d", b.ID, m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tx := decode[library.Transaction](t, rec)
	assert.Equal(t, library.StatusBorrowed, tx.Status)
	assert.True(t, now.Add(library.BorrowingPeriod).Equal(tx.DueDate))

	// Second borrower finds no copy left.
	other := f.member("Bob", "bob@example.com")
	rec = f.do(http.MethodPost, fmt.Sprintf("/api/borrowing/borrow?bookId=%d&memberId=%d", b.ID, other.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "book_unavailable", errorCode(t, rec))

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/borrowing/member/%d", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Transaction](t, rec), 1)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/borrowing/return/%d", tx.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, library.StatusReturned, decode[library.Transaction](t, rec).Status)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/borrowing/return/%d", tx.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_returned", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/borrowing/return/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/borrowing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Transaction](t, rec), 1)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/notifications/member/%d", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]library.Notification](t, rec)
	require.Len(t, notes, 2)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", notes[0].ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/notifications/member/%d/unread-count", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]int64](t, rec)["unread"])

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/notifications/member/%d?unread=true", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Notification](t, rec), 1)
}

func TestBorrowLimitOverHTTP(t *testing.T) {
	f := newFixture(t, now)
	m := f.member("Alice", "alice@example.com")
	for i := 0; i < library.MaxActiveBorrowings; i++ {
		b := f.book(fmt.Sprintf("Book %d", i), 1)
		rec := f.do(http.MethodPost, fmt.Sprintf("/api/borrowing/borrow?bookId=%d&memberId=%d", b.ID, m.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	b := f.book("One too many", 1)
	rec := f.do(http.MethodPost, fmt.Sprintf("/api/borrowing/borrow?bookId=%d&memberId=%d", b.ID, m.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "limit_exceeded", errorCode(t, rec))
}

func TestBorrowRejectsBadParams(t *testing.T) {
	f := newFixture(t, now)

	for _, path := range []string{
		"/api/borrowing/borrow",
		"/api/borrowing/borrow?bookId=1",
		"/api/borrowing/borrow?bookId=abc&memberId=1",
		"/api/borrowing/borrow?bookId=1&memberId=-3",
	} {
		rec := f.do(http.MethodPost, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "invalid_request", errorCode(t, rec), path)
	}

	b := f.book("Dune", 1)
	rec := f.do(http.MethodPost, fmt.Sprintf("/api/borrowing/borrow?bookId=%d&memberId=77", b.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverdueOverHTTP(t *testing.T) {
	f := newFixture(t, now)
	b := f.book("Dune", 1)
	m := f.member("Alice", "alice@example.com")
	_, err := f.lm.Borrowing.Borrow(context.Background(), b.ID, m.ID)
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/borrowing/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]library.Transaction](t, rec))

	// Same database, clock moved past the due date.
	later := library.FixedClock(now.Add(20 * 24 * time.Hour))
	h := NewBorrowingHandler(logger.Nop(), f.lm.Borrowing, f.lm.Overdue, later)
	router := NewRouter(RouterConfig{Log: logger.Nop(), BorrowingHandler: h})

	req := httptest.NewRequest(http.MethodGet, "/api/borrowing/overdue", nil)
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Len(t, decode[[]library.Transaction](t, out), 1)
}

func TestBookEndpoints(t *testing.T) {
	f := newFixture(t, now)
	dune := f.book("Dune", 2)
	f.book("Emma", 0)

	rec := f.do(http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Book](t, rec), 2)

	rec = f.do(http.MethodGet, "/api/books/available", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Book](t, rec), 1)

	rec = f.do(http.MethodGet, "/api/books/search?keyword=DUN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]library.Book](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, dune.ID, found[0].ID)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/books/%d", dune.ID), map[string]interface{}{
		"title": "Dune Messiah", "author": "Frank Herbert", "available_copies": 2, "total_copies": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Dune Messiah", decode[library.Book](t, rec).Title)

	require.NoError(t, f.lm.Catalog.IncrementAvailable(context.Background(), dune.ID))
	rec = f.do(http.MethodPut, fmt.Sprintf("/api/books/%d", dune.ID), map[string]interface{}{
		"title": "Dune Messiah", "author": "Frank Herbert", "genre": "Classic", "available_copies": 3, "total_copies": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/books", map[string]interface{}{"author": "Nobody"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/books", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/books/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", dune.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/books/%d", dune.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemberEndpoints(t *testing.T) {
	f := newFixture(t, now)
	alice := f.member("Alice Liddell", "alice@example.com")
	f.member("Bob", "bob@example.com")

	rec := f.do(http.MethodPost, "/api/members", map[string]interface{}{"name": "Dup", "email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/members/email/alice@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.ID, decode[library.Member](t, rec).ID)

	rec = f.do(http.MethodGet, "/api/members/search?name=liddell", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Member](t, rec), 1)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/members/%d", alice.ID), map[string]interface{}{
		"name": "Alice Liddell", "email": "alice@example.com", "membership_status": "SUSPENDED",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/members/status/suspended", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Member](t, rec), 1)

	// Omitting the status on update keeps the stored one.
	rec = f.do(http.MethodPut, fmt.Sprintf("/api/members/%d", alice.ID), map[string]interface{}{
		"name": "Alice Hargreaves", "email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, library.MembershipSuspended, decode[library.Member](t, rec).Status)

	rec = f.do(http.MethodGet, "/api/members/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Member](t, rec), 1)

	rec = f.do(http.MethodGet, "/api/members/status/nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/members/%d", alice.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(http.MethodDelete, fmt.Sprintf("/api/members/%d", alice.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/api/members", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Member](t, rec), 1)
}

func TestFineEndpoints(t *testing.T) {
	f := newFixture(t, now)
	m := f.member("Alice", "alice@example.com")

	rec := f.do(http.MethodPost, "/api/fines", map[string]interface{}{
		"member_id": m.ID, "amount_cents": 250, "reason": "late return",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, library.FinePending, decode[library.Fine](t, rec).Status)

	rec = f.do(http.MethodPost, "/api/fines", map[string]interface{}{"member_id": m.ID, "amount_cents": 100, "status": "WAIVED"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/api/fines", map[string]interface{}{"member_id": m.ID, "amount_cents": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/fines/member/%d?status=pending", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Fine](t, rec), 1)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/fines/member/%d", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]library.Fine](t, rec), 2)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/fines/member/%d/pending-total", m.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 250, decode[map[string]int64](t, rec)["pending_cents"])
}

type brokenCatalog struct{ CatalogService }

func (brokenCatalog) List(context.Context) ([]*library.Book, error) {
	return nil, errors.New("disk I/O error: /var/lib/library.db")
}

func TestInternalErrorsAreMasked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{Log: logger.Nop(), BookHandler: NewBookHandler(logger.Nop(), brokenCatalog{})})

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "internal_error", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "/var/lib")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("book 1: %w", library.ErrNotFound), http.StatusNotFound, "not_found"},
		{library.ErrBookUnavailable, http.StatusConflict, "book_unavailable"},
		{library.ErrAlreadyReturned, http.StatusConflict, "already_returned"},
		{library.ErrLimitExceeded, http.StatusUnprocessableEntity, "limit_exceeded"},
		{library.ErrConflict, http.StatusConflict, "conflict"},
		{library.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
		{badRequest("nope"), http.StatusBadRequest, "invalid_request"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	f := newFixture(t, now)

	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsReused(t *testing.T) {
	f := newFixture(t, now)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}
