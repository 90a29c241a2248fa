package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"energisense/internal/models"
	"energisense/internal/service"
)

func TestListUsers(t *testing.T) {
	accs := &mockAccounts{users: []models.Account{
		{ID: "1", Email: "admin@x.io", PasswordHash: "$2a$10$secret", Role: models.RoleAdmin},
		{ID: "2", Email: "user@x.io", PasswordHash: "$2a$10$other", Role: models.RoleUser},
	}}

	t.Run("user is forbidden", func(t *testing.T) {
		r := newTestRouter(&service.Service{Authorization: userAuth(), Accounts: accs})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header = authHeader("u")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status=%d, want 403", w.Code)
		}
	})

	t.Run("admin lists without hashes", func(t *testing.T) {
		r := newTestRouter(&service.Service{Authorization: adminAuth(), Accounts: accs})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header = authHeader("a")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		body := w.Body.String()
		if strings.Contains(body, "$2a$") || strings.Contains(body, "password") {
			t.Fatalf("password hash leaked: %s", body)
		}
		if !strings.Contains(body, `"email":"user@x.io"`) {
			t.Fatalf("missing account in %s", body)
		}
	})
}
