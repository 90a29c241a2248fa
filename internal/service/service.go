package service

import (
	"context"

	"energisense/internal/models"
	"energisense/internal/repository"
)

// Authorization covers registration, login and token verification.
type Authorization interface {
	Register(ctx context.Context, email, password string, role models.Role) (models.Account, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	ParseToken(accessToken string) (Identity, error)
}

// Readings is the ingestion and query path for sensor readings.
type Readings interface {
	Ingest(ctx context.Context, in ReadingInput) (models.Reading, error)
	Latest(ctx context.Context) ([]models.Reading, error)
}

// Accounts exposes admin-facing account operations.
type Accounts interface {
	List(ctx context.Context) ([]models.Account, error)
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Readings
	Accounts
}

// Options carries tuning knobs resolved from configuration.
type Options struct {
	Auth           AuthOptions
	ReadingsWindow int
	OnIngest       func(r models.Reading)
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, opts Options) *Service {
	auth := NewAuthService(repos.Accounts, opts.Auth)
	return &Service{
		Authorization: auth,
		Readings:      NewReadingService(repos.Readings, opts.ReadingsWindow, opts.OnIngest),
		Accounts:      NewAccountService(repos.Accounts, auth),
	}
}
