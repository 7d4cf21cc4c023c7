package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// Catalog owns Book records and is the only writer of available_copies.
type Catalog struct {
	db *Database
}

func NewCatalog(db *Database) *Catalog { return &Catalog{db: db} }

var bookColumns = []interface{}{
	"id", "title", "author", "genre",
	goqu.L("COALESCE(isbn, '')").As("isbn"),
	"year_published", "available_copies", "total_copies",
}

func (c *Catalog) selectBooks() *goqu.SelectDataset {
	return dialect.From(tableBooks).Select(bookColumns...).Order(goqu.C("id").Asc())
}

// Get fetches a single book.
func (c *Catalog) Get(ctx context.Context, id int64) (*Book, error) {
	return c.get(ctx, c.db.db, id)
}

func (c *Catalog) get(ctx context.Context, q sqlx.QueryerContext, id int64) (*Book, error) {
	var b Book
	if err := selectOne(ctx, q, &b, c.selectBooks().Where(goqu.C("id").Eq(id))); err != nil {
		return nil, fmt.Errorf("book %d: %w", id, err)
	}
	return &b, nil
}

// List returns every book ordered by id.
func (c *Catalog) List(ctx context.Context) ([]*Book, error) {
	books := []*Book{}
	if err := selectAll(ctx, c.db.db, &books, c.selectBooks()); err != nil {
		return nil, err
	}
	return books, nil
}

// ListAvailable returns the books with at least one copy on the shelf.
func (c *Catalog) ListAvailable(ctx context.Context) ([]*Book, error) {
	books := []*Book{}
	if err := selectAll(ctx, c.db.db, &books, c.selectBooks().Where(goqu.C("available_copies").Gt(0))); err != nil {
		return nil, err
	}
	return books, nil
}

// Search matches keyword case-insensitively as a substring of title, author
// or genre. An empty keyword matches every book.
func (c *Catalog) Search(ctx context.Context, keyword string) ([]*Book, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	contains := func(col string) goqu.Expression {
		return goqu.Func("instr", goqu.Func("ulower", goqu.C(col)), kw).Gt(0)
	}
	ds := c.selectBooks().Where(goqu.Or(contains("title"), contains("author"), contains("genre")))

	books := []*Book{}
	if err := selectAll(ctx, c.db.db, &books, ds); err != nil {
		return nil, err
	}
	return books, nil
}

// IsAvailable reports whether the book exists and has a copy to lend.
func (c *Catalog) IsAvailable(ctx context.Context, id int64) (bool, error) {
	b, err := c.get(ctx, c.db.db, id)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return b.Available(), nil
}

// Save inserts b when it has no id and updates it otherwise. A zero
// TotalCopies defaults to AvailableCopies. TotalCopies may not be below
// AvailableCopies on insert; updates do not re-check it, since returns are
// not capped.
func (c *Catalog) Save(ctx context.Context, b *Book) (*Book, error) {
	if err := validateBook(b); err != nil {
		return nil, err
	}
	if b.TotalCopies == 0 {
		b.TotalCopies = b.AvailableCopies
	}

	if b.ID == 0 {
		if b.TotalCopies < b.AvailableCopies {
			return nil, fmt.Errorf("total copies %d below available copies %d: %w", b.TotalCopies, b.AvailableCopies, ErrInvalidInput)
		}
		res, err := c.db.db.ExecContext(ctx,
			`INSERT INTO books(title,author,genre,isbn,year_published,available_copies,total_copies) VALUES(?,?,?,?,?,?,?)`,
			b.Title, b.Author, b.Genre, nullable(b.ISBN), b.YearPublished, b.AvailableCopies, b.TotalCopies)
		if err != nil {
			return nil, fmt.Errorf("insert book: %w", translateErr(err))
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		return b, nil
	}

	res, err := c.db.db.ExecContext(ctx,
		`UPDATE books SET title=?, author=?, genre=?, isbn=?, year_published=?, available_copies=?, total_copies=? WHERE id=?`,
		b.Title, b.Author, b.Genre, nullable(b.ISBN), b.YearPublished, b.AvailableCopies, b.TotalCopies, b.ID)
	if err != nil {
		return nil, fmt.Errorf("update book %d: %w", b.ID, translateErr(err))
	}
	if err := expectOneRow(res, "book", b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a book. Books with transaction history cannot be removed.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	res, err := c.db.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, translateErr(err))
	}
	return expectOneRow(res, "book", id)
}

// DecrementAvailable takes one copy off the shelf. It is a no-op when the
// book is missing or already at zero; the result reports whether a copy was
// taken.
func (c *Catalog) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	return c.decrementAvailable(ctx, c.db.db, id)
}

// The guard in the WHERE clause makes the check and the write one statement.
func (c *Catalog) decrementAvailable(ctx context.Context, q sqlx.ExecerContext, id int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies - 1 WHERE id=? AND available_copies > 0`, id)
	if err != nil {
		return false, fmt.Errorf("decrement book %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementAvailable puts one copy back. It is a no-op when the book is
// missing and does not cap the count at TotalCopies.
func (c *Catalog) IncrementAvailable(ctx context.Context, id int64) error {
	return c.incrementAvailable(ctx, c.db.db, id)
}

func (c *Catalog) incrementAvailable(ctx context.Context, q sqlx.ExecerContext, id int64) error {
	if _, err := q.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies + 1 WHERE id=?`, id); err != nil {
		return fmt.Errorf("increment book %d: %w", id, err)
	}
	return nil
}

func validateBook(b *Book) error {
	switch {
	case b == nil:
		return fmt.Errorf("book is nil: %w", ErrInvalidInput)
	case strings.TrimSpace(b.Title) == "":
		return fmt.Errorf("title is required: %w", ErrInvalidInput)
	case strings.TrimSpace(b.Author) == "":
		return fmt.Errorf("author is required: %w", ErrInvalidInput)
	case b.AvailableCopies < 0:
		return fmt.Errorf("available copies must not be negative: %w", ErrInvalidInput)
	}
	return nil
}
