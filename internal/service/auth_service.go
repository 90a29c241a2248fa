package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"energisense/internal/models"
	"energisense/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL   = 5 * time.Hour
	DefaultBcryptCost = 10

	// bcrypt only reads the first 72 bytes and x/crypto rejects longer input
	MaxPasswordBytes = 72

	// used only when configuration leaves the secret empty
	fallbackSigningKey = "energisense-dev-secret"
)

// Domain errors for auth flows.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRole        = errors.New("invalid role")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
)

type AuthOptions struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Identity is the verified content of a bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

// LoginResult is returned to the client alongside the token for convenience.
type LoginResult struct {
	Token string
	Role  models.Role
	Email string
}

// AuthService handles account registration and token issuance.
type AuthService struct {
	accounts repository.AccountRepo
	key      []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func NewAuthService(repo repository.AccountRepo, opts AuthOptions) *AuthService {
	if opts.Secret == "" {
		opts.Secret = fallbackSigningKey
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	return &AuthService{
		accounts: repo,
		key:      []byte(opts.Secret),
		ttl:      opts.TokenTTL,
		cost:     opts.BcryptCost,
		now:      time.Now,
	}
}

// normalizeEmail lower-cases and trims so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register hashes the password and stores a new account.
func (s *AuthService) Register(ctx context.Context, email, password string, role models.Role) (models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return models.Account{}, ErrMissingCredentials
	}
	if len(password) > MaxPasswordBytes {
		return models.Account{}, ErrPasswordTooLong
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.Account{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return models.Account{}, err
	}
	if existing != nil {
		return models.Account{}, ErrEmailTaken
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return models.Account{}, err
	}

	acc := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		// a concurrent registration can slip past the lookup above
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.Account{}, ErrEmailTaken
		}
		return models.Account{}, err
	}
	return acc, nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Login validates credentials and returns a signed token. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return LoginResult{}, err
	}
	if u == nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(*u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Role: u.Role, Email: u.Email}, nil
}

// ParseToken verifies signature and expiry and returns the embedded identity.
func (s *AuthService) ParseToken(accessToken string) (Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// helper: hash password with the configured cost
func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for an account
func (s *AuthService) issueToken(a models.Account) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: a.ID,
		Email:  a.Email,
		Role:   a.Role,
	})
	return token.SignedString(s.key)
}
