package service

import (
	"context"
	"sync"

	"energisense/internal/models"
	"energisense/internal/repository"
)

// memAccountRepo is an in-memory repository.AccountRepo with error hooks.
type memAccountRepo struct {
	mu       sync.Mutex
	byEmail  map[string]models.Account
	getErr   error
	createFn func(a models.Account) error
	countErr error
	creates  int
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{byEmail: map[string]models.Account{}}
}

func (m *memAccountRepo) Create(ctx context.Context, a models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createFn != nil {
		if err := m.createFn(a); err != nil {
			return err
		}
	}
	if _, ok := m.byEmail[a.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.byEmail[a.Email] = a
	return nil
}

func (m *memAccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAccountRepo) List(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Account, 0, len(m.byEmail))
	for _, a := range m.byEmail {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAccountRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.byEmail)), nil
}

// memReadingRepo keeps readings in insertion order.
type memReadingRepo struct {
	readings  []models.Reading
	insertErr error
	latestErr error
	lastLimit int
}

func (m *memReadingRepo) Insert(ctx context.Context, r models.Reading) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.readings = append(m.readings, r)
	return nil
}

// LatestDesc mimics the store: sort newest first, then apply limit.
func (m *memReadingRepo) LatestDesc(ctx context.Context, limit int) ([]models.Reading, error) {
	m.lastLimit = limit
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	cp := append([]models.Reading(nil), m.readings...)
	for i := 1; i < len(cp); i++ {
		for j := i; j > 0 && cp[j].Timestamp.After(cp[j-1].Timestamp); j-- {
			cp[j], cp[j-1] = cp[j-1], cp[j]
		}
	}
	if len(cp) > limit {
		cp = cp[:limit]
	}
	return cp, nil
}
