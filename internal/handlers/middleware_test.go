package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"energisense/internal/models"
	"energisense/internal/service"

	"github.com/gin-gonic/gin"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/secure", h.authMiddleware, func(c *gin.Context) {
		id := identity(c)
		c.JSON(http.StatusOK, gin.H{"ok": true, "userId": id.UserID, "role": id.Role})
	})
	r.GET("/admin", h.authMiddleware, h.adminOnly, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthMiddleware_Errors(t *testing.T) {
	type want struct {
		code   int
		errMsg string
	}
	cases := []struct {
		name     string
		header   string
		parseErr error
		want     want
	}{
		{
			name:   "missing header",
			header: "",
			want:   want{code: http.StatusUnauthorized, errMsg: errMissingAuthHeader},
		},
		{
			name:   "invalid scheme",
			header: "Token abc",
			want:   want{code: http.StatusUnauthorized, errMsg: errBadAuthHeader},
		},
		{
			name:   "bearer without token",
			header: "Bearer",
			want:   want{code: http.StatusUnauthorized, errMsg: errBadAuthHeader},
		},
		{
			name:   "bearer with blank token",
			header: "Bearer   ",
			want:   want{code: http.StatusUnauthorized, errMsg: errBadAuthHeader},
		},
		{
			name:     "expired/invalid token",
			header:   "Bearer expired",
			parseErr: service.ErrInvalidToken,
			want:     want{code: http.StatusUnauthorized, errMsg: errBadToken},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := userAuth()
			auth.parseErr = tc.parseErr
			s := &service.Service{Authorization: auth}
			r := newMiddlewareOnlyRouter(s)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tc.want.code {
				t.Fatalf("status: got %d, want %d (body=%s)", w.Code, tc.want.code, w.Body.String())
			}

			var out struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Error != tc.want.errMsg {
				t.Fatalf("error message: got %q, want %q", out.Error, tc.want.errMsg)
			}
		})
	}
}

func TestAuthMiddleware_SuccessSetsIdentityAndProceeds(t *testing.T) {
	auth := userAuth()
	s := &service.Service{Authorization: auth}
	r := newMiddlewareOnlyRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		OK     bool   `json:"ok"`
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.OK || resp.UserID != "u1" || resp.Role != string(models.RoleUser) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if auth.lastParseToken != "good-token" {
		t.Fatalf("ParseToken got %q, want %q", auth.lastParseToken, "good-token")
	}
}

func TestAdminOnly(t *testing.T) {
	cases := []struct {
		name string
		auth *mockAuth
		code int
	}{
		{"user is forbidden", userAuth(), http.StatusForbidden},
		{"admin passes", adminAuth(), http.StatusOK},
		{"bad token never reaches gate", &mockAuth{parseErr: errors.New("bad")}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newMiddlewareOnlyRouter(&service.Service{Authorization: tc.auth})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header = authHeader("tok")
			r.ServeHTTP(w, req)
			if w.Code != tc.code {
				t.Fatalf("status: got %d, want %d (body=%s)", w.Code, tc.code, w.Body.String())
			}
		})
	}
}

func TestIngestRateLimit(t *testing.T) {
	rd := &mockReadings{ingestOut: models.Reading{ID: "r1", Value: 1}}
	s := &service.Service{Authorization: userAuth(), Readings: rd}
	r := newTestRouter(s, WithIngestLimit(0.001, 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/data", jsonBody(`{"value":1}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [201 201 429]", codes)
	}
	if len(rd.ingested) != 2 {
		t.Fatalf("ingested %d readings, want 2", len(rd.ingested))
	}
}

func TestIPLimiter_SeparateBuckets(t *testing.T) {
	l := newIPLimiter(0.001, 1)
	if !l.allow("10.0.0.1") {
		t.Fatal("first request from 10.0.0.1 should pass")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("second request from 10.0.0.1 should be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Fatal("10.0.0.2 has its own bucket")
	}
}

func TestIPLimiter_EvictsIdleClients(t *testing.T) {
	l := newIPLimiter(1, 1)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")
	if n := l.size(); n != 2 {
		t.Fatalf("tracked %d clients, want 2", n)
	}

	// 10.0.0.2 stays active, 10.0.0.1 goes quiet past the idle TTL
	clock = clock.Add(limiterIdleTTL - time.Second)
	l.allow("10.0.0.2")
	clock = clock.Add(2 * limiterSweepEvery)
	l.allow("10.0.0.3")

	if n := l.size(); n != 2 {
		t.Fatalf("tracked %d clients after sweep, want 2", n)
	}
	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Fatal("idle client was not evicted")
	}
}
