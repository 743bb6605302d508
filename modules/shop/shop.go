// Package shop exposes the current shop's profile: the row behind the
// resolved tenant. Reads and writes are keyed by the tenant id from the
// request context, so a shop can only ever see and edit itself.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/barberbook/backend/pkg/pg"
	"github.com/barberbook/backend/pkg/tenantscope"
)

// ErrShopNotFound is returned when the tenant id has no backing row. With
// the resolver in front this means the shop was deleted mid-request.
var ErrShopNotFound = errors.New("shop not found")

// Profile is the full barbershop record. The tenant resolver reads only a
// projection of this table; the shop module owns the rest of the columns.
type Profile struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	Subdomain       string    `db:"subdomain"`
	BusinessPhone   *string   `db:"business_phone"`
	BusinessAddress *string   `db:"business_address"`
	BusinessHours   *string   `db:"business_hours"`
	LogoURL         *string   `db:"logo_url"`
	ThemeColor      string    `db:"theme_color"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// UpdateParams carries the editable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateParams struct {
	Name            *string
	BusinessPhone   *string
	BusinessAddress *string
	BusinessHours   *string
	LogoURL         *string
	ThemeColor      *string
}

// Storage is the persistence surface of the shop module.
type Storage interface {
	GetProfile(ctx context.Context, tenantID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, tenantID int64, params UpdateParams) (*Profile, error)
}

type pgStorage struct {
	db tenantscope.DB
	sb sq.StatementBuilderType
}

// NewPgStorage creates the PostgreSQL-backed Storage.
func NewPgStorage(db tenantscope.DB) Storage {
	return &pgStorage{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var profileColumns = []string{
	"id", "name", "subdomain", "business_phone", "business_address",
	"business_hours", "logo_url", "theme_color", "is_active",
	"created_at", "updated_at",
}

func (s *pgStorage) GetProfile(ctx context.Context, tenantID int64) (*Profile, error) {
	query, args, err := s.sb.
		Select(profileColumns...).
		From("barbershops").
		Where(sq.Eq{"id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	profile, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Profile])
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (s *pgStorage) UpdateProfile(ctx context.Context, tenantID int64, params UpdateParams) (*Profile, error) {
	builder := s.sb.
		Update("barbershops").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": tenantID})

	if params.Name != nil {
		builder = builder.Set("name", *params.Name)
	}
	if params.BusinessPhone != nil {
		builder = builder.Set("business_phone", *params.BusinessPhone)
	}
	if params.BusinessAddress != nil {
		builder = builder.Set("business_address", *params.BusinessAddress)
	}
	if params.BusinessHours != nil {
		builder = builder.Set("business_hours", *params.BusinessHours)
	}
	if params.LogoURL != nil {
		builder = builder.Set("logo_url", *params.LogoURL)
	}
	if params.ThemeColor != nil {
		builder = builder.Set("theme_color", *params.ThemeColor)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrShopNotFound
	}

	return s.GetProfile(ctx, tenantID)
}
