package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"energisense/internal/models"
	"energisense/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultReadingsWindow = 50
	MaxReadingsWindow     = 100
)

// ErrInvalidReading wraps every validation failure on ingestion.
var ErrInvalidReading = errors.New("invalid reading")

// ReadingInput is a reading as submitted by a sensor, before the server
// assigns id and timestamp.
type ReadingInput struct {
	Value    *float64
	Type     string
	SensorID string
}

type ReadingService struct {
	repo     repository.ReadingRepo
	window   int
	onIngest func(models.Reading)
	now      func() time.Time
}

// NewReadingService returns a service serving the latest window readings.
// onIngest, if set, is invoked after each successful insert.
func NewReadingService(repo repository.ReadingRepo, window int, onIngest func(models.Reading)) *ReadingService {
	if window <= 0 {
		window = DefaultReadingsWindow
	}
	if window > MaxReadingsWindow {
		window = MaxReadingsWindow
	}
	return &ReadingService{repo: repo, window: window, onIngest: onIngest, now: time.Now}
}

func validateInput(in ReadingInput) error {
	if in.Value == nil {
		return fmt.Errorf("%w: value is required", ErrInvalidReading)
	}
	v := *in.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: value must be a finite number", ErrInvalidReading)
	}
	if v < 0 {
		return fmt.Errorf("%w: value must be non-negative", ErrInvalidReading)
	}
	return nil
}

// Ingest validates and persists one reading with a server-assigned timestamp.
// The timestamp is cut to milliseconds, the precision of a BSON datetime.
// There is no deduplication: every call inserts.
func (s *ReadingService) Ingest(ctx context.Context, in ReadingInput) (models.Reading, error) {
	if err := validateInput(in); err != nil {
		return models.Reading{}, err
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		typ = models.DefaultReadingType
	}

	rd := models.Reading{
		ID:        newReadingID(),
		SensorID:  strings.TrimSpace(in.SensorID),
		Value:     *in.Value,
		Type:      typ,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Insert(ctx, rd); err != nil {
		return models.Reading{}, err
	}
	if s.onIngest != nil {
		s.onIngest(rd)
	}
	return rd, nil
}

// newReadingID returns a time-ordered UUIDv7 so ids break timestamp ties in
// insertion order.
func newReadingID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Latest returns the most recent window of readings, oldest first. The store
// is read newest-first with a limit and the page is reversed in memory.
func (s *ReadingService) Latest(ctx context.Context) ([]models.Reading, error) {
	rs, err := s.repo.LatestDesc(ctx, s.window)
	if err != nil {
		return nil, err
	}
	if len(rs) > s.window {
		rs = rs[:s.window]
	}
	reverse(rs)
	return rs, nil
}

// Window is the maximum number of readings Latest returns.
func (s *ReadingService) Window() int { return s.window }

func reverse(rs []models.Reading) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}
