package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Members owns Member records and their membership status.
type Members struct {
	db    *Database
	clock Clock
}

func NewMembers(db *Database, clock Clock) *Members {
	return &Members{db: db, clock: clock}
}

var memberColumns = []interface{}{
	"id", "name", "email", "phone", "address", "membership_status", "registration_date", "password_hash",
}

func (m *Members) selectMembers() *goqu.SelectDataset {
	return dialect.From(tableMembers).Select(memberColumns...).Order(goqu.C("id").Asc())
}

// Get fetches a single member.
func (m *Members) Get(ctx context.Context, id int64) (*Member, error) {
	return m.get(ctx, m.db.db, id)
}

func (m *Members) get(ctx context.Context, q sqlx.QueryerContext, id int64) (*Member, error) {
	var mem Member
	if err := selectOne(ctx, q, &mem, m.selectMembers().Where(goqu.C("id").Eq(id))); err != nil {
		return nil, fmt.Errorf("member %d: %w", id, err)
	}
	return &mem, nil
}

// List returns all members.
func (m *Members) List(ctx context.Context) ([]*Member, error) {
	members := []*Member{}
	if err := selectAll(ctx, m.db.db, &members, m.selectMembers()); err != nil {
		return nil, err
	}
	return members, nil
}

// FindByEmail looks a member up by exact email address.
func (m *Members) FindByEmail(ctx context.Context, email string) (*Member, error) {
	var mem Member
	if err := selectOne(ctx, m.db.db, &mem, m.selectMembers().Where(goqu.C("email").Eq(strings.TrimSpace(email)))); err != nil {
		return nil, fmt.Errorf("member with email %q: %w", email, err)
	}
	return &mem, nil
}

// Search matches name case-insensitively as a substring.
func (m *Members) Search(ctx context.Context, name string) ([]*Member, error) {
	kw := strings.ToLower(strings.TrimSpace(name))
	ds := m.selectMembers().Where(goqu.Func("instr", goqu.Func("ulower", goqu.C("name")), kw).Gt(0))

	members := []*Member{}
	if err := selectAll(ctx, m.db.db, &members, ds); err != nil {
		return nil, err
	}
	return members, nil
}

// ListByStatus returns the members in the given membership status.
func (m *Members) ListByStatus(ctx context.Context, status MembershipStatus) ([]*Member, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("membership status %q: %w", status, ErrInvalidInput)
	}
	members := []*Member{}
	if err := selectAll(ctx, m.db.db, &members, m.selectMembers().Where(goqu.C("membership_status").Eq(string(status)))); err != nil {
		return nil, err
	}
	return members, nil
}

// ListActive is ListByStatus(MembershipActive).
func (m *Members) ListActive(ctx context.Context) ([]*Member, error) {
	return m.ListByStatus(ctx, MembershipActive)
}

// Save inserts mem when it has no id and updates it otherwise. The
// registration date is set on insert and never changed afterwards, and the
// password hash is only written through SetPassword. An empty status means
// ACTIVE on insert and leaves the stored status unchanged on update.
func (m *Members) Save(ctx context.Context, mem *Member) (*Member, error) {
	if err := validateMember(mem); err != nil {
		return nil, err
	}

	if mem.ID == 0 {
		if mem.Status == "" {
			mem.Status = MembershipActive
		}
		mem.RegistrationDate = day(m.clock.Now())
		res, err := m.db.db.ExecContext(ctx,
			`INSERT INTO members(name,email,phone,address,membership_status,registration_date) VALUES(?,?,?,?,?,?)`,
			mem.Name, mem.Email, mem.Phone, mem.Address, string(mem.Status), mem.RegistrationDate)
		if err != nil {
			return nil, fmt.Errorf("insert member: %w", translateErr(err))
		}
		if mem.ID, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		return mem, nil
	}

	res, err := m.db.db.ExecContext(ctx,
		`UPDATE members SET name=?, email=?, phone=?, address=?, membership_status=COALESCE(NULLIF(?, ''), membership_status) WHERE id=?`,
		mem.Name, mem.Email, mem.Phone, mem.Address, string(mem.Status), mem.ID)
	if err != nil {
		return nil, fmt.Errorf("update member %d: %w", mem.ID, translateErr(err))
	}
	if err := expectOneRow(res, "member", mem.ID); err != nil {
		return nil, err
	}
	return m.Get(ctx, mem.ID)
}

// Delete removes a member. Members with history cannot be removed.
func (m *Members) Delete(ctx context.Context, id int64) error {
	res, err := m.db.db.ExecContext(ctx, `DELETE FROM members WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete member %d: %w", id, translateErr(err))
	}
	return expectOneRow(res, "member", id)
}

// SetPassword stores a bcrypt hash of password for the member.
func (m *Members) SetPassword(ctx context.Context, id int64, password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty: %w", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := m.db.db.ExecContext(ctx, `UPDATE members SET password_hash=? WHERE id=?`, string(hash), id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "member", id)
}

// Authenticate checks password against the member's stored hash. Members
// without a password cannot authenticate.
func (m *Members) Authenticate(ctx context.Context, id int64, password string) error {
	mem, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if !mem.HasPassword() {
		return fmt.Errorf("member %d has no password set: %w", id, ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(mem.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("member %d: %w", id, ErrInvalidCredentials)
	}
	return nil
}

func validateMember(mem *Member) error {
	switch {
	case mem == nil:
		return fmt.Errorf("member is nil: %w", ErrInvalidInput)
	case strings.TrimSpace(mem.Name) == "":
		return fmt.Errorf("name is required: %w", ErrInvalidInput)
	case !strings.Contains(mem.Email, "@"):
		return fmt.Errorf("email %q is not valid: %w", mem.Email, ErrInvalidInput)
	case mem.Status != "" && !mem.Status.Valid():
		return fmt.Errorf("membership status %q: %w", mem.Status, ErrInvalidInput)
	}
	return nil
}
