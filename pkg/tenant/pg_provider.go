package tenant

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// DBTX is the query surface the pg provider needs; *pgxpool.Pool satisfies
// it.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgProvider struct {
	db DBTX
}

// NewPgProvider creates a Provider backed by the barbershops table.
func NewPgProvider(db DBTX) *pgProvider {
	return &pgProvider{db: db}
}

func (p *pgProvider) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, subdomain, name, is_active, created_at
		 FROM barbershops WHERE subdomain = $1`, subdomain)
	if err != nil {
		return nil, err
	}

	t, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Tenant])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// IsActive reports the shop's current active flag by primary key.
func (p *pgProvider) IsActive(ctx context.Context, id int64) (bool, error) {
	rows, err := p.db.Query(ctx,
		`SELECT is_active FROM barbershops WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	active, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTenantNotFound
		}
		return false, err
	}
	return active, nil
}

// ListActive returns every active shop, for the public shop directory.
func (p *pgProvider) ListActive(ctx context.Context) ([]Tenant, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, subdomain, name, is_active, created_at
		 FROM barbershops WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Tenant])
}
