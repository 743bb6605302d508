package tenantscope

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/barberbook/backend/pkg/tenant"
)

// Owned is the capability contract for tenant-owned records. Embed
// Ownership to satisfy it.
type Owned interface {
	GetTenantID() int64
	SetTenantID(id int64)
}

// Ownership carries the owning shop's id. Embed it in any record stored
// through a Repository.
type Ownership struct {
	TenantID int64 `json:"tenant_id" db:"tenant_id"`
}

// GetTenantID returns the owning shop's id.
func (o *Ownership) GetTenantID() int64 { return o.TenantID }

// SetTenantID sets the owning shop's id.
func (o *Ownership) SetTenantID(id int64) { o.TenantID = id }

// DB is the subset of pgxpool.Pool the repository needs.
// pgx.Tx satisfies it as well, so repositories compose with transactions.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Descriptor maps a record type onto its table. Columns must match the
// record's db tags; Values produces the column/value pairs for writes.
// The id and tenant_id columns are managed by the repository itself and
// must not appear in Values.
type Descriptor[T any] struct {
	Table   string
	Columns []string
	Values  func(rec *T) map[string]any
	SetID   func(rec *T, id int64)
}

// Repository is a tenant-scoped guard over one table. Construction requires
// a resolved tenant; all operations are implicitly restricted to it.
type Repository[T any, PT interface {
	*T
	Owned
}] struct {
	db       DB
	desc     Descriptor[T]
	tenantID int64
	sb       sq.StatementBuilderType
}

// New constructs a repository bound to the tenant resolved for ctx.
// Absence of a tenant is a configuration error (the resolution middleware
// did not run), not a per-call condition.
func New[T any, PT interface {
	*T
	Owned
}](ctx context.Context, db DB, desc Descriptor[T]) (*Repository[T, PT], error) {
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoTenantInContext
	}
	if desc.Table == "" || len(desc.Columns) == 0 || desc.Values == nil {
		return nil, fmt.Errorf("tenantscope: incomplete descriptor for table %q", desc.Table)
	}

	return &Repository[T, PT]{
		db:       db,
		desc:     desc,
		tenantID: tenantID,
		sb:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// TenantID returns the shop id this repository is bound to.
func (r *Repository[T, PT]) TenantID() int64 { return r.tenantID }

// Select returns a select builder already restricted to the bound tenant,
// for queries with additional filters or ordering. The tenant predicate is
// applied before the builder is handed out and cannot be removed.
func (r *Repository[T, PT]) Select() sq.SelectBuilder {
	return r.sb.
		Select(r.desc.Columns...).
		From(r.desc.Table).
		Where(sq.Eq{"tenant_id": r.tenantID})
}

// Query runs a tenant-scoped select builder and collects the rows.
func (r *Repository[T, PT]) Query(ctx context.Context, qb sq.SelectBuilder) ([]T, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// All returns every record belonging to the bound tenant.
func (r *Repository[T, PT]) All(ctx context.Context) ([]T, error) {
	return r.Query(ctx, r.Select())
}

// Find returns the record with the given id, or ErrNotFound when it does
// not exist or belongs to another shop.
func (r *Repository[T, PT]) Find(ctx context.Context, id int64) (*T, error) {
	items, err := r.Query(ctx, r.Select().Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// Exists reports whether a record with the given id belongs to the bound
// tenant.
func (r *Repository[T, PT]) Exists(ctx context.Context, id int64) (bool, error) {
	query, args, err := r.sb.
		Select("1").
		From(r.desc.Table).
		Where(sq.Eq{"tenant_id": r.tenantID, "id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create inserts the record for the bound tenant. Whatever tenant id the
// caller put on the record is overwritten before the write.
func (r *Repository[T, PT]) Create(ctx context.Context, rec PT) error {
	rec.SetTenantID(r.tenantID)

	values := r.desc.Values((*T)(rec))
	values["tenant_id"] = r.tenantID

	query, args, err := r.sb.
		Insert(r.desc.Table).
		SetMap(values).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return err
	}
	if r.desc.SetID != nil {
		r.desc.SetID((*T)(rec), id)
	}
	return nil
}

// Update rewrites the record with the given id. The tenant id is forced to
// the bound tenant and the where clause is tenant-scoped, so updates can
// neither move a row across shops nor touch a foreign row.
func (r *Repository[T, PT]) Update(ctx context.Context, id int64, rec PT) error {
	rec.SetTenantID(r.tenantID)

	values := r.desc.Values((*T)(rec))
	values["tenant_id"] = r.tenantID

	query, args, err := r.sb.
		Update(r.desc.Table).
		SetMap(values).
		Where(sq.Eq{"tenant_id": r.tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record with the given id from the bound tenant.
// Foreign rows report ErrNotFound, same as absent ones.
func (r *Repository[T, PT]) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.
		Delete(r.desc.Table).
		Where(sq.Eq{"tenant_id": r.tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
