package wire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/notifier"
	"mentor-booking/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var errNoDB = errors.New("no database in tests")

// stubDB fails every statement; only Ping is configurable.
type stubDB struct{ pingErr error }

func (d stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, errNoDB }
func (d stubDB) QueryRow(context.Context, string, ...any) pgx.Row        { return errRow{} }
func (d stubDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errNoDB
}
func (d stubDB) Begin(context.Context) (pgx.Tx, error) { return nil, errNoDB }
func (d stubDB) Ping(context.Context) error            { return d.pingErr }
func (d stubDB) Close()                                {}

type errRow struct{}

func (errRow) Scan(...any) error { return errNoDB }

type dropNotifier struct{}

func (dropNotifier) Notify(notifier.Message) {}

func newTestApp(db stubDB) *App {
	config := &utils.Config{
		App: utils.AppConfig{URL: "http://localhost:3000", RateLimitPerMinute: 2},
		JWT: utils.JWTConfig{Secret: "secret"},
	}
	repo := repository.NewRepository(db, zap.NewNop())
	return Wiring(repo, db, nil, dropNotifier{}, config, zap.NewNop())
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		db     stubDB
		status int
	}{
		{"database up", stubDB{}, http.StatusOK},
		{"database down", stubDB{pingErr: errNoDB}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestApp(tt.db).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(stubDB{})
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/bookings"},
		{http.MethodPatch, "/api/bookings"},
		{http.MethodGet, "/api/bookings"},
		{http.MethodPost, "/api/payments/checkout"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPatch, "/api/slots/6f1c2b9e-1d2a-4c3b-9f8e-7a6b5c4d3e2f/availability"},
		{http.MethodPost, "/api/meetings/0b8f8a3e-5c1d-4e7a-9b2c-3d4e5f6a7b8c/slots"},
		{http.MethodGet, "/api/admin/reconciliation"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	config := &utils.Config{App: utils.AppConfig{RateLimitPerMinute: 2}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := rateLimit(config, zap.NewNop())(ok)

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// a different client has its own budget
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	req.RemoteAddr = "198.51.100.9:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}
