package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/middleware"
	"server/internal/sqlinline"
)

type adminUserRow struct {
	id          string
	email       string
	suspended   bool
	masterAdmin bool
}

// adminFakeSQL backs the admin handlers with an in-memory user table. Every
// executed statement is recorded for assertions.
type adminFakeSQL struct {
	users map[string]*adminUserRow
	execs []string
}

func (f *adminFakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, query)
	if query == sqlinline.QHardDeleteUser {
		id, _ := args[0].(string)
		if _, ok := f.users[id]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(f.users, id)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, nil
}

func (f *adminFakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if query == sqlinline.QSetUserSuspended {
		id, _ := args[0].(string)
		suspended, _ := args[1].(bool)
		u, ok := f.users[id]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		u.suspended = suspended
		now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
		return fakeRow{vals: []any{
			u.id, u.email, "Test User", u.masterAdmin, u.suspended, "",
			(*time.Time)(nil), "", now, now,
		}}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (f *adminFakeSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func adminApp(sql *adminFakeSQL) (*App, chi.Router) {
	app := &App{SQL: sql, Logger: zerolog.Nop()}
	r := chi.NewRouter()
	r.Post("/v1/admin/users/{id}/suspend", app.AdminSuspendUser)
	r.Post("/v1/admin/users/{id}/unsuspend", app.AdminUnsuspendUser)
	r.Post("/v1/admin/users/bulk-delete", app.AdminBulkDeleteUsers)
	r.Delete("/v1/admin/users/{id}", app.AdminHardDeleteUser)
	return app, r
}

func adminRequest(method, path, body string, masterAdmin bool) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithSession(req.Context(), "admin-1", "", masterAdmin))
}

func TestSuspendIsIdempotent(t *testing.T) {
	sql := &adminFakeSQL{users: map[string]*adminUserRow{
		"u1": {id: "u1", email: "a@b.test", suspended: true},
	}}
	_, r := adminApp(sql)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest("POST", "/v1/admin/users/u1/suspend", "", true))

	if rr.Code != http.StatusOK {
		t.Fatalf("suspending an already-suspended user: status = %d, want 200", rr.Code)
	}
	var got adminUserDTO
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.IsSuspended {
		t.Fatalf("is_suspended = false, want true")
	}
	if !sql.users["u1"].suspended {
		t.Fatalf("store flag flipped off by an idempotent suspend")
	}
}

func TestSuspendRequiresMasterAdmin(t *testing.T) {
	sql := &adminFakeSQL{users: map[string]*adminUserRow{
		"u1": {id: "u1", email: "a@b.test"},
	}}
	_, r := adminApp(sql)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest("POST", "/v1/admin/users/u1/suspend", "", false))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if sql.users["u1"].suspended {
		t.Fatalf("non-admin call must not mutate the target record")
	}
}

func TestBulkDeleteReportsPerIDTally(t *testing.T) {
	sql := &adminFakeSQL{users: map[string]*adminUserRow{
		"u1": {id: "u1"},
		"u3": {id: "u3"},
	}}
	_, r := adminApp(sql)

	body := `{"ids":["u1","u2","u3"],"confirmation":"DELETE PERMANENTLY"}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest("POST", "/v1/admin/users/bulk-delete", body, true))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got bulkDeleteResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.SuccessCount != 2 || got.FailCount != 1 {
		t.Fatalf("tally = {success: %d, fail: %d}, want {2, 1}", got.SuccessCount, got.FailCount)
	}
	if len(got.Failures) != 1 || got.Failures[0].ID != "u2" {
		t.Fatalf("failures = %+v, want the missing id u2", got.Failures)
	}
	if _, ok := sql.users["u1"]; ok {
		t.Fatalf("u1 must be deleted despite u2 failing")
	}
	if _, ok := sql.users["u3"]; ok {
		t.Fatalf("u3 must be deleted despite u2 failing")
	}
}

func TestBulkDeleteRequiresExactConfirmation(t *testing.T) {
	sql := &adminFakeSQL{users: map[string]*adminUserRow{"u1": {id: "u1"}}}
	_, r := adminApp(sql)

	body := `{"ids":["u1"],"confirmation":"delete permanently"}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest("POST", "/v1/admin/users/bulk-delete", body, true))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if _, ok := sql.users["u1"]; !ok {
		t.Fatalf("nothing may be deleted without the exact confirmation phrase")
	}
}

func TestHardDeleteIsSingleCascadingStatement(t *testing.T) {
	sql := &adminFakeSQL{users: map[string]*adminUserRow{"u1": {id: "u1"}}}
	_, r := adminApp(sql)

	body := `{"confirmation":"DELETE PERMANENTLY"}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest("DELETE", "/v1/admin/users/u1", body, true))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if len(sql.execs) != 1 || sql.execs[0] != sqlinline.QHardDeleteUser {
		t.Fatalf("delete must run as one cascading statement, got %d statements", len(sql.execs))
	}
	if _, ok := sql.users["u1"]; ok {
		t.Fatalf("u1 must be gone")
	}
}

func TestHardDeleteUnknownUser(t *testing.T) {
	sql := &adminFakeSQL{users: map[string]*adminUserRow{}}
	_, r := adminApp(sql)

	body := `{"confirmation":"DELETE PERMANENTLY"}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest("DELETE", "/v1/admin/users/ghost", body, true))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
