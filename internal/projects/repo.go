package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
)

var ErrNotFound = errors.New("project not found")

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewProject struct {
	Name string
	Key  string
}

type Patch struct {
	Name   *string
	Status *string
}

type Store interface {
	List(ctx context.Context, q httpapi.ListQuery) ([]Project, int, error)
	Create(ctx context.Context, p NewProject) (*Project, error)
	Update(ctx context.Context, id string, p Patch) (*Project, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const projectColumns = `id::text, name, key, status, created_at, updated_at`

func (r *Repo) List(ctx context.Context, q httpapi.ListQuery) ([]Project, int, error) {
	where := ""
	args := []any{}
	if q.Q != "" {
		where = "where name ilike '%' || $1 || '%' or key ilike '%' || $1 || '%'"
		args = append(args, q.LikeTerm())
	}

	var total int
	if err := r.db.QueryRow(ctx, "select count(*) from projects "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	direction := "asc"
	if q.SortDesc {
		direction = "desc"
	}

	// SortField is allow-listed by the handler, never raw client input.
	query := fmt.Sprintf(
		"select %s from projects %s order by %s %s limit $%d offset $%d",
		projectColumns, where, q.SortField, direction, len(args)+1, len(args)+2,
	)
	args = append(args, q.PageSize, q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Project, 0, q.PageSize)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Key, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repo) Create(ctx context.Context, p NewProject) (*Project, error) {
	const q = `
insert into projects (name, key, status)
values ($1, $2, 'active')
returning ` + projectColumns + `;
`
	var created Project
	err := r.db.QueryRow(ctx, q, p.Name, p.Key).
		Scan(&created.ID, &created.Name, &created.Key, &created.Status, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repo) Update(ctx context.Context, id string, p Patch) (*Project, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("name", p.Name)
	add("status", p.Status)

	if len(sets) == 0 {
		return r.getByID(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		"update projects set %s where id = $%d::uuid returning %s",
		strings.Join(sets, ", "), len(args), projectColumns,
	)

	var proj Project
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&proj.ID, &proj.Name, &proj.Key, &proj.Status, &proj.CreatedAt, &proj.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &proj, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `delete from projects where id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count backs the seed step, which only inserts samples into an empty table.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `select count(*) from projects`).Scan(&n)
	return n, err
}

func (r *Repo) getByID(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.db.QueryRow(ctx, `select `+projectColumns+` from projects where id = $1::uuid`, id).
		Scan(&p.ID, &p.Name, &p.Key, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
