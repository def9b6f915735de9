package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
	"github.com/adminboard/go-admin-backend/internal/auth"
)

var ErrNotFound = errors.New("user not found")

// User is the outward projection of an account. The password hash is
// write-only from the API's perspective and never appears here.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewUser struct {
	Email        string
	PasswordHash string
	Role         string
}

// Patch applies only the provided fields; a nil pointer means "leave as is".
type Patch struct {
	Role         *string
	Status       *string
	PasswordHash *string
}

type Store interface {
	List(ctx context.Context, q httpapi.ListQuery) ([]User, int, error)
	Create(ctx context.Context, u NewUser) (*User, error)
	Update(ctx context.Context, id string, p Patch) (*User, error)
	Delete(ctx context.Context, id string) error
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const userColumns = `id::text, email, role, status, created_at`

func (r *Repo) List(ctx context.Context, q httpapi.ListQuery) ([]User, int, error) {
	where := ""
	args := []any{}
	if q.Q != "" {
		where = "where email ilike '%' || $1 || '%'"
		args = append(args, q.LikeTerm())
	}

	var total int
	if err := r.db.QueryRow(ctx, "select count(*) from users "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	direction := "asc"
	if q.SortDesc {
		direction = "desc"
	}

	// SortField is allow-listed by the handler, never raw client input.
	query := fmt.Sprintf(
		"select %s from users %s order by %s %s limit $%d offset $%d",
		userColumns, where, q.SortField, direction, len(args)+1, len(args)+2,
	)
	args = append(args, q.PageSize, q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]User, 0, q.PageSize)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *Repo) Create(ctx context.Context, u NewUser) (*User, error) {
	const q = `
insert into users (email, password_hash, role, status)
values ($1, $2, $3, 'active')
returning ` + userColumns + `;
`
	var created User
	err := r.db.QueryRow(ctx, q, u.Email, u.PasswordHash, u.Role).
		Scan(&created.ID, &created.Email, &created.Role, &created.Status, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repo) Update(ctx context.Context, id string, p Patch) (*User, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("role", p.Role)
	add("status", p.Status)
	add("password_hash", p.PasswordHash)

	if len(sets) == 0 {
		return r.getByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"update users set %s where id = $%d::uuid returning %s",
		strings.Join(sets, ", "), len(args), userColumns,
	)

	var u User
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Email, &u.Role, &u.Status, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `delete from users where id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) getByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `select `+userColumns+` from users where id = $1::uuid`, id).
		Scan(&u.ID, &u.Email, &u.Role, &u.Status, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ResolveAccount implements auth.AccountResolver for the session middleware.
func (r *Repo) ResolveAccount(ctx context.Context, id string) (*auth.Account, error) {
	var a auth.Account
	err := r.db.QueryRow(ctx,
		`select id::text, email, role, status from users where id = $1::uuid`, id).
		Scan(&a.ID, &a.Email, &a.Role, &a.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNoAccount
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindCredentials implements auth.CredentialStore for login. Lookup is
// case-sensitive on the stored email; only list filtering folds case.
func (r *Repo) FindCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var c auth.Credentials
	err := r.db.QueryRow(ctx,
		`select id::text, email, password_hash, role, status from users where email = $1`, email).
		Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Role, &c.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNoAccount
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
