package auth

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/barberbook/backend/pkg/pg"
	"github.com/barberbook/backend/pkg/tenantscope"
)

// Admin is a shop's administrator account. It belongs to exactly one shop;
// HasCustomPassword distinguishes a shop still on the shared provisioning
// credential from one whose operator has chosen a password.
type Admin struct {
	ID                int64     `db:"id"`
	TenantID          int64     `db:"tenant_id"`
	Username          string    `db:"username"`
	Email             string    `db:"email"`
	Name              string    `db:"name"`
	PasswordHash      string    `db:"password_hash"`
	HasCustomPassword bool      `db:"has_custom_password"`
	IsActive          bool      `db:"is_active"`
	CreatedAt         time.Time `db:"created_at"`
}

// UsedResetToken is one row of the append-only consumption ledger.
type UsedResetToken struct {
	ID        int64     `db:"id"`
	TokenHash string    `db:"token_hash"`
	AdminID   int64     `db:"admin_id"`
	TenantID  int64     `db:"tenant_id"`
	UsedAt    time.Time `db:"used_at"`
}

// ConsumeResetTokenParams carries both writes of a reset consumption; the
// storage layer applies them in one transaction.
type ConsumeResetTokenParams struct {
	TenantID        int64
	AdminID         int64
	NewPasswordHash string
	TokenHash       string
	UsedAt          time.Time
}

// Storage is the persistence surface of the auth module. All lookups are
// tenant-scoped: an admin id or username from another shop behaves as
// nonexistent.
type Storage interface {
	GetAdminByUsername(ctx context.Context, tenantID int64, username string) (*Admin, error)
	GetAdminByEmail(ctx context.Context, tenantID int64, email string) (*Admin, error)
	GetAdminByID(ctx context.Context, tenantID, adminID int64) (*Admin, error)

	UpdatePassword(ctx context.Context, tenantID, adminID int64, passwordHash string) error

	// UsedResetTokenHashes returns the ledger hashes for (admin, tenant).
	UsedResetTokenHashes(ctx context.Context, tenantID, adminID int64) ([]string, error)

	// ConsumeResetToken updates the password and appends the ledger row in
	// one transaction. Returns ErrResetTokenReused when the ledger's
	// unique constraint rejects the token hash.
	ConsumeResetToken(ctx context.Context, params ConsumeResetTokenParams) error
}

// DB is the pool surface the pg storage needs; *pgxpool.Pool satisfies it.
type DB interface {
	tenantscope.DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgStorage struct {
	db DB
	sb sq.StatementBuilderType
}

// NewPgStorage creates the PostgreSQL-backed Storage.
func NewPgStorage(db DB) Storage {
	return &pgStorage{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var adminColumns = []string{
	"id", "tenant_id", "username", "email", "name",
	"password_hash", "has_custom_password", "is_active", "created_at",
}

func (s *pgStorage) getAdmin(ctx context.Context, pred sq.Eq) (*Admin, error) {
	query, args, err := s.sb.
		Select(adminColumns...).
		From("admins").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	admin, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Admin])
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (s *pgStorage) GetAdminByUsername(ctx context.Context, tenantID int64, username string) (*Admin, error) {
	return s.getAdmin(ctx, sq.Eq{"tenant_id": tenantID, "username": username, "is_active": true})
}

func (s *pgStorage) GetAdminByEmail(ctx context.Context, tenantID int64, email string) (*Admin, error) {
	return s.getAdmin(ctx, sq.Eq{"tenant_id": tenantID, "email": email, "is_active": true})
}

func (s *pgStorage) GetAdminByID(ctx context.Context, tenantID, adminID int64) (*Admin, error) {
	return s.getAdmin(ctx, sq.Eq{"tenant_id": tenantID, "id": adminID, "is_active": true})
}

func (s *pgStorage) UpdatePassword(ctx context.Context, tenantID, adminID int64, passwordHash string) error {
	query, args, err := s.sb.
		Update("admins").
		Set("password_hash", passwordHash).
		Set("has_custom_password", true).
		Where(sq.Eq{"tenant_id": tenantID, "id": adminID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (s *pgStorage) UsedResetTokenHashes(ctx context.Context, tenantID, adminID int64) ([]string, error) {
	query, args, err := s.sb.
		Select("token_hash").
		From("used_password_reset_tokens").
		Where(sq.Eq{"tenant_id": tenantID, "admin_id": adminID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *pgStorage) ConsumeResetToken(ctx context.Context, params ConsumeResetTokenParams) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// Rollback is a no-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	updateSQL, updateArgs, err := s.sb.
		Update("admins").
		Set("password_hash", params.NewPasswordHash).
		Set("has_custom_password", true).
		Where(sq.Eq{"tenant_id": params.TenantID, "id": params.AdminID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := tx.Exec(ctx, updateSQL, updateArgs...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}

	insertSQL, insertArgs, err := s.sb.
		Insert("used_password_reset_tokens").
		Columns("token_hash", "admin_id", "tenant_id", "used_at").
		Values(params.TokenHash, params.AdminID, params.TenantID, params.UsedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := tx.Exec(ctx, insertSQL, insertArgs...); err != nil {
		// The unique index on token_hash is the true serialization point
		// for "single use": two concurrent consumptions can both pass the
		// ledger scan, but only one insert survives.
		if pg.IsDuplicateKeyError(err) {
			return ErrResetTokenReused
		}
		return err
	}

	return tx.Commit(ctx)
}
