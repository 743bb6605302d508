package tenantscope_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberbook/backend/pkg/tenant"
	"github.com/barberbook/backend/pkg/tenantscope"
)

type gadget struct {
	tenantscope.Ownership

	ID    int64  `db:"id"`
	Label string `db:"label"`
}

var gadgetDescriptor = tenantscope.Descriptor[gadget]{
	Table:   "gadgets",
	Columns: []string{"id", "tenant_id", "label"},
	Values: func(rec *gadget) map[string]any {
		return map[string]any{"label": rec.Label}
	},
	SetID: func(rec *gadget, id int64) { rec.ID = id },
}

type capturedQuery struct {
	sql  string
	args []any
}

// fakeRows implements pgx.Rows over fixed column names and row values.
type fakeRows struct {
	cols []string
	rows [][]any
	idx  int
}

func (r *fakeRows) Close() {}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	descs := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		descs[i] = pgconn.FieldDescription{Name: c}
	}
	return descs
}
func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		if row[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}
func (r *fakeRows) Values() ([]any, error) { return r.rows[r.idx-1], nil }

func (r *fakeRows) RawValues() [][]byte { return nil }

func (r *fakeRows) Conn() *pgx.Conn { return nil }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

// fakeDB captures every statement and plays back canned results.
type fakeDB struct {
	captured []capturedQuery

	queryCols []string
	queryRows [][]any

	rowValues []any
	rowErr    error

	execTag pgconn.CommandTag
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.captured = append(db.captured, capturedQuery{sql: sql, args: args})
	return &fakeRows{cols: db.queryCols, rows: db.queryRows}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.captured = append(db.captured, capturedQuery{sql: sql, args: args})
	return fakeRow{values: db.rowValues, err: db.rowErr}
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.captured = append(db.captured, capturedQuery{sql: sql, args: args})
	return db.execTag, nil
}

func tenantCtx(id int64) context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{ID: id, Active: true})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires resolved tenant", func(t *testing.T) {
		t.Parallel()
		_, err := tenantscope.New[gadget](context.Background(), &fakeDB{}, gadgetDescriptor)
		require.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("rejects incomplete descriptor", func(t *testing.T) {
		t.Parallel()
		_, err := tenantscope.New[gadget](tenantCtx(1), &fakeDB{}, tenantscope.Descriptor[gadget]{Table: "gadgets"})
		require.Error(t, err)
	})

	t.Run("binds to context tenant", func(t *testing.T) {
		t.Parallel()
		repo, err := tenantscope.New[gadget](tenantCtx(5), &fakeDB{}, gadgetDescriptor)
		require.NoError(t, err)
		assert.Equal(t, int64(5), repo.TenantID())
	})
}

func TestQueryScoping(t *testing.T) {
	t.Parallel()

	t.Run("all is tenant scoped", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{
			queryCols: []string{"id", "tenant_id", "label"},
			queryRows: [][]any{{int64(10), int64(1), "clippers"}},
		}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		items, err := repo.All(tenantCtx(1))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "clippers", items[0].Label)

		require.Len(t, db.captured, 1)
		assert.Contains(t, db.captured[0].sql, "tenant_id = $1")
		assert.Equal(t, []any{int64(1)}, db.captured[0].args)
	})

	t.Run("find absent row", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{queryCols: []string{"id", "tenant_id", "label"}}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		_, err = repo.Find(tenantCtx(1), 42)
		require.ErrorIs(t, err, tenantscope.ErrNotFound)

		assert.Contains(t, db.captured[0].sql, "tenant_id =")
		assert.Contains(t, db.captured[0].args, int64(1))
		assert.Contains(t, db.captured[0].args, int64(42))
	})

	t.Run("extra filters keep the tenant predicate", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{queryCols: []string{"id", "tenant_id", "label"}}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		_, err = repo.Query(tenantCtx(1), repo.Select().Where("label = ?", "clippers"))
		require.NoError(t, err)

		assert.Contains(t, db.captured[0].sql, "tenant_id = $1")
		assert.Contains(t, db.captured[0].args, "clippers")
	})
}

func TestCreateOverwritesForeignTenant(t *testing.T) {
	t.Parallel()

	db := &fakeDB{rowValues: []any{int64(77)}}
	repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
	require.NoError(t, err)

	rec := &gadget{Label: "clippers"}
	rec.SetTenantID(999) // hostile payload claims another shop

	require.NoError(t, repo.Create(tenantCtx(1), rec))

	assert.Equal(t, int64(1), rec.GetTenantID(), "payload tenant must be overwritten")
	assert.Equal(t, int64(77), rec.ID)

	require.Len(t, db.captured, 1)
	assert.Contains(t, db.captured[0].sql, "INSERT INTO gadgets")
	assert.Contains(t, db.captured[0].args, int64(1))
	assert.NotContains(t, db.captured[0].args, int64(999))
}

func TestUpdateScoping(t *testing.T) {
	t.Parallel()

	t.Run("foreign row reports not found", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		err = repo.Update(tenantCtx(1), 42, &gadget{Label: "renamed"})
		require.ErrorIs(t, err, tenantscope.ErrNotFound)

		assert.Contains(t, db.captured[0].sql, "tenant_id =")
		assert.Contains(t, db.captured[0].args, int64(1))
	})

	t.Run("own row updates", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		rec := &gadget{Label: "renamed"}
		rec.SetTenantID(999)
		require.NoError(t, repo.Update(tenantCtx(1), 42, rec))
		assert.Equal(t, int64(1), rec.GetTenantID())
	})
}

func TestDeleteScoping(t *testing.T) {
	t.Parallel()

	t.Run("foreign row reports not found", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 0")}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		require.ErrorIs(t, repo.Delete(tenantCtx(1), 42), tenantscope.ErrNotFound)
	})

	t.Run("own row deletes", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 1")}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		require.NoError(t, repo.Delete(tenantCtx(1), 42))
		assert.Contains(t, db.captured[0].sql, "DELETE FROM gadgets")
		assert.Contains(t, db.captured[0].args, int64(1))
	})
}

func TestExists(t *testing.T) {
	t.Parallel()

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{rowErr: pgx.ErrNoRows}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		ok, err := repo.Exists(tenantCtx(1), 42)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{rowValues: []any{1}}
		repo, err := tenantscope.New[gadget](tenantCtx(1), db, gadgetDescriptor)
		require.NoError(t, err)

		ok, err := repo.Exists(tenantCtx(1), 42)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
