package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"energisense/internal/models"
	"energisense/internal/repository"
)

type AccountService struct {
	accounts repository.AccountRepo
	auth     *AuthService
}

func NewAccountService(repo repository.AccountRepo, auth *AuthService) *AccountService {
	return &AccountService{accounts: repo, auth: auth}
}

// List returns all accounts, admins first, then by email.
func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	list, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		ai, aj := list[i].Role.IsAdmin(), list[j].Role.IsAdmin()
		if ai != aj {
			return ai
		}
		return list[i].Email < list[j].Email
	})
	return list, nil
}

// EnsureAdmin seeds the bootstrap admin account when no account exists yet.
// It reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.accounts.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.auth.Register(ctx, email, password, models.RoleAdmin); err != nil {
		// another instance won the race
		if errors.Is(err, ErrEmailTaken) {
			return false, nil
		}
		return false, fmt.Errorf("seed admin %q: %w", email, err)
	}
	return true, nil
}
