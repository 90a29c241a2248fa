package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"energisense/internal/models"
	"energisense/internal/service"
)

func postJSON(path, body string, hdr http.Header) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, jsonBody(body))
	for k, v := range hdr {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthHandlers_RegisterAndLogin(t *testing.T) {
	auth := adminAuth()
	auth.registerAcc = models.Account{ID: "id-42", Email: "op@x.io", Role: models.RoleUser}
	auth.loginRes = service.LoginResult{Token: "tok123", Role: models.RoleAdmin, Email: "admin@x.io"}
	s := &service.Service{Authorization: auth}
	r := newTestRouter(s)

	// register success with an admin token
	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/auth/register", `{"email":"op@x.io","password":"p"}`, authHeader("admin-tok")))
	if w.Code != http.StatusCreated {
		t.Fatalf("register status=%d, body=%s", w.Code, w.Body.String())
	}
	var reg RegisterResponse
	_ = json.Unmarshal(w.Body.Bytes(), &reg)
	if reg.ID != "id-42" || reg.Role != models.RoleUser {
		t.Fatalf("unexpected register body: %+v", reg)
	}
	if auth.lastRegisterRole != models.RoleUser {
		t.Fatalf("empty role should default to user, got %q", auth.lastRegisterRole)
	}

	// login success
	w = httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/auth/login", `{"email":"admin@x.io","password":"p"}`, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d, body=%s", w.Code, w.Body.String())
	}
	var lr LoginResponse
	_ = json.Unmarshal(w.Body.Bytes(), &lr)
	if lr.Token != "tok123" || lr.Role != models.RoleAdmin || lr.Email != "admin@x.io" {
		t.Fatalf("unexpected login body: %+v", lr)
	}

	// login invalid body → 400
	w = httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/auth/login", `{"email":1}`, nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestRegister_RequiresAdminUnlessOpen(t *testing.T) {
	cases := []struct {
		name string
		auth *mockAuth
		hdr  http.Header
		opts []Option
		code int
	}{
		{"no token", userAuth(), nil, nil, http.StatusUnauthorized},
		{"user token", userAuth(), authHeader("u"), nil, http.StatusForbidden},
		{"admin token", adminAuth(), authHeader("a"), nil, http.StatusCreated},
		{"open registration", userAuth(), nil, []Option{WithOpenRegistration(true)}, http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.auth.registerAcc = models.Account{ID: "x", Email: "n@x.io", Role: models.RoleUser}
			r := newTestRouter(&service.Service{Authorization: tc.auth}, tc.opts...)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, postJSON("/api/auth/register", `{"email":"n@x.io","password":"p"}`, tc.hdr))
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.code, w.Body.String())
			}
		})
	}
}

func TestRegister_Errors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		err     error
		code    int
		errMsg  string
		reached bool
	}{
		{"malformed email", `{"email":"nope","password":"p"}`, nil, http.StatusBadRequest, "", false},
		{"missing password", `{"email":"a@x.io"}`, nil, http.StatusBadRequest, "", false},
		{"unknown role", `{"email":"a@x.io","password":"p","role":"root"}`, nil, http.StatusBadRequest, "", false},
		{"duplicate", `{"email":"a@x.io","password":"p"}`, service.ErrEmailTaken, http.StatusBadRequest, errEmailTaken, true},
		{"password too long", `{"email":"a@x.io","password":"p"}`, service.ErrPasswordTooLong, http.StatusBadRequest, service.ErrPasswordTooLong.Error(), true},
		{"store failure", `{"email":"a@x.io","password":"p"}`, errors.New("disk full"), http.StatusInternalServerError, errRegister, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := adminAuth()
			auth.registerErr = tc.err
			r := newTestRouter(&service.Service{Authorization: auth})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, postJSON("/api/auth/register", tc.body, authHeader("a")))
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.code, w.Body.String())
			}
			if tc.errMsg != "" {
				var out map[string]string
				_ = json.Unmarshal(w.Body.Bytes(), &out)
				if out["error"] != tc.errMsg {
					t.Fatalf("error=%q, want %q", out["error"], tc.errMsg)
				}
			}
			if reached := auth.registerCalls > 0; reached != tc.reached {
				t.Fatalf("service reached=%v, want %v", reached, tc.reached)
			}
		})
	}
}

func TestLogin_InvalidCredentialsIsGeneric(t *testing.T) {
	auth := &mockAuth{loginErr: service.ErrInvalidCredentials}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/auth/login", `{"email":"who@x.io","password":"p"}`, nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["error"] != errInvalidCredentials {
		t.Fatalf("error=%q, want %q", out["error"], errInvalidCredentials)
	}

	auth.loginErr = errors.New("connection reset")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/auth/login", `{"email":"who@x.io","password":"p"}`, nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", w.Code)
	}
}
