package booking_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberbook/backend/modules/booking"
	"github.com/barberbook/backend/pkg/tenant"
)

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

type capturedQuery struct {
	sql  string
	args []any
}

// fakeDB plays back canned rows and records every statement it sees.
type fakeDB struct {
	captured []capturedQuery

	queryCols []string
	queryRows [][]any
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.captured = append(db.captured, capturedQuery{sql: sql, args: args})
	return &fakeRows{cols: db.queryCols, rows: db.queryRows}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.captured = append(db.captured, capturedQuery{sql: sql, args: args})
	return nil
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.captured = append(db.captured, capturedQuery{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func adminRouter(db *fakeDB) chi.Router {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := booking.NewManager(db, log)
	handler := booking.NewHandler(manager, log)
	passthrough := func(next http.Handler) http.Handler { return next }
	return booking.AdminRouter(handler, passthrough)
}

func adminRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	ctx := tenant.WithTenant(r.Context(), &tenant.Tenant{
		ID: 1, Subdomain: "elite", Name: "Elite Cuts", Active: true,
	})
	return r.WithContext(ctx)
}

func TestGetAppointment(t *testing.T) {
	t.Parallel()

	apptCols := []string{
		"id", "tenant_id", "service_id", "appointment_date",
		"appointment_time", "customer_name", "customer_phone",
		"customer_email", "notes", "status", "created_at", "updated_at",
	}

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		date, err := booking.ParseDate("2026-03-14")
		require.NoError(t, err)
		tod, err := booking.ParseTimeOfDay("10:00")
		require.NoError(t, err)

		db := &fakeDB{
			queryCols: apptCols,
			queryRows: [][]any{{
				int64(42), int64(1), int64(7), date, tod,
				"Tony", "555-0100", nil, nil, booking.StatusConfirmed,
				time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), nil,
			}},
		}

		rec := httptest.NewRecorder()
		adminRouter(db).ServeHTTP(rec, adminRequest(http.MethodGet, "/appointments/42", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			ID              int64  `json:"id"`
			ServiceID       int64  `json:"serviceId"`
			AppointmentDate string `json:"appointmentDate"`
			AppointmentTime string `json:"appointmentTime"`
			CustomerName    string `json:"customerName"`
			Status          string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, int64(42), body.ID)
		assert.Equal(t, int64(7), body.ServiceID)
		assert.Equal(t, "2026-03-14", body.AppointmentDate)
		assert.Equal(t, "10:00:00", body.AppointmentTime)
		assert.Equal(t, "Tony", body.CustomerName)
		assert.Equal(t, booking.StatusConfirmed, body.Status)

		require.Len(t, db.captured, 1)
		assert.Contains(t, db.captured[0].sql, "tenant_id = $1")
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{queryCols: apptCols}

		rec := httptest.NewRecorder()
		adminRouter(db).ServeHTTP(rec, adminRequest(http.MethodGet, "/appointments/42", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{queryCols: apptCols}

		rec := httptest.NewRecorder()
		adminRouter(db).ServeHTTP(rec, adminRequest(http.MethodGet, "/appointments/nope", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, db.captured)
	})
}

func TestCreateServiceValidation(t *testing.T) {
	t.Parallel()

	details := func(t *testing.T, rec *httptest.ResponseRecorder) map[string][]string {
		t.Helper()
		var body struct {
			Details map[string][]string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Details
	}

	t.Run("negative price only", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{}
		payload := `{"name":"Fade","price":-5,"durationMinutes":30}`

		rec := httptest.NewRecorder()
		adminRouter(db).ServeHTTP(rec, adminRequest(http.MethodPost, "/services/", strings.NewReader(payload)))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		fields := details(t, rec)
		assert.Contains(t, fields, "price")
		assert.NotContains(t, fields, "durationMinutes")
		assert.Empty(t, db.captured)
	})

	t.Run("zero duration only", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{}
		payload := `{"name":"Fade","price":25,"durationMinutes":0}`

		rec := httptest.NewRecorder()
		adminRouter(db).ServeHTTP(rec, adminRequest(http.MethodPost, "/services/", strings.NewReader(payload)))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		fields := details(t, rec)
		assert.Contains(t, fields, "durationMinutes")
		assert.NotContains(t, fields, "price")
	})

	t.Run("both invalid", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{}
		payload := `{"name":"Fade","price":-5,"durationMinutes":0}`

		rec := httptest.NewRecorder()
		adminRouter(db).ServeHTTP(rec, adminRequest(http.MethodPost, "/services/", strings.NewReader(payload)))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		fields := details(t, rec)
		assert.Contains(t, fields, "price")
		assert.Contains(t, fields, "durationMinutes")
	})
}
