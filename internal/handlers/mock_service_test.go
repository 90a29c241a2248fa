package handlers

import (
	"context"
	"net/http"
	"strings"

	"energisense/internal/models"
	"energisense/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerAcc models.Account
	registerErr error
	loginRes    service.LoginResult
	loginErr    error
	identity    service.Identity
	parseErr    error

	lastRegisterEmail string
	lastRegisterRole  models.Role
	lastLoginEmail    string
	lastParseToken    string
	registerCalls     int
}

func (m *mockAuth) Register(ctx context.Context, email, password string, role models.Role) (models.Account, error) {
	m.registerCalls++
	m.lastRegisterEmail = email
	m.lastRegisterRole = role
	return m.registerAcc, m.registerErr
}
func (m *mockAuth) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	m.lastLoginEmail = email
	return m.loginRes, m.loginErr
}
func (m *mockAuth) ParseToken(token string) (service.Identity, error) {
	m.lastParseToken = token
	return m.identity, m.parseErr
}

type mockReadings struct {
	ingested  []service.ReadingInput
	ingestOut models.Reading
	ingestErr error
	latest    []models.Reading
	latestErr error
}

func (m *mockReadings) Ingest(ctx context.Context, in service.ReadingInput) (models.Reading, error) {
	m.ingested = append(m.ingested, in)
	return m.ingestOut, m.ingestErr
}
func (m *mockReadings) Latest(ctx context.Context) ([]models.Reading, error) {
	return m.latest, m.latestErr
}

type mockAccounts struct {
	users []models.Account
	err   error
}

func (m *mockAccounts) List(ctx context.Context) ([]models.Account, error) {
	return m.users, m.err
}
func (m *mockAccounts) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	return false, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, nil, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func adminAuth() *mockAuth {
	return &mockAuth{identity: service.Identity{UserID: "a1", Email: "admin@x.io", Role: models.RoleAdmin}}
}

func userAuth() *mockAuth {
	return &mockAuth{identity: service.Identity{UserID: "u1", Email: "user@x.io", Role: models.RoleUser}}
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }
