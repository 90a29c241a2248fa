// Package injector generates synthetic energy readings and posts them to the
// API on a fixed cadence.
package injector

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"energisense/internal/ingest"
	"energisense/internal/logger"
	"energisense/internal/models"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultSensorID = "Sensor-01 (Industrial)"

	minValue  = 50.0
	valueSpan = 100.0
	sendLimit = 4 * time.Second
)

// Sender delivers one payload. *apiclient.Client satisfies it.
type Sender interface {
	Inject(ctx context.Context, p ingest.Payload) (*models.Reading, error)
}

type Injector struct {
	sender   Sender
	log      *logger.Logger
	sensorID string

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option customizes an Injector.
type Option func(*Injector)

func WithSensorID(id string) Option {
	return func(i *Injector) { i.sensorID = id }
}

// WithSeed fixes the random source, for reproducible runs.
func WithSeed(seed int64) Option {
	return func(i *Injector) { i.rnd = rand.New(rand.NewSource(seed)) }
}

func New(sender Sender, log *logger.Logger, opts ...Option) *Injector {
	if log == nil {
		log = logger.Nop()
	}
	i := &Injector{
		sender:   sender,
		log:      log,
		sensorID: DefaultSensorID,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// nextValue is uniform in [50, 150) with two decimals.
func (i *Injector) nextValue() float64 {
	i.mu.Lock()
	v := minValue + i.rnd.Float64()*valueSpan
	i.mu.Unlock()
	return math.Floor(v*100) / 100
}

// SendOnce posts a single reading using the legacy "valor" and "sensorId" fields.
func (i *Injector) SendOnce(ctx context.Context) (*models.Reading, error) {
	v := i.nextValue()
	ctx, cancel := context.WithTimeout(ctx, sendLimit)
	defer cancel()
	return i.sender.Inject(ctx, ingest.Payload{Valor: &v, LegacySensorID: i.sensorID})
}

// Run sends one reading immediately and then one per interval until ctx is
// done. Failures are logged and retried on the next tick.
func (i *Injector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		i.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (i *Injector) tick(ctx context.Context) {
	rd, err := i.SendOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			i.log.Warnw("inject_failed", "err", err)
		}
		return
	}
	i.log.Infow("inject_sent", "id", rd.ID, "value", rd.Value, "sensor", i.sensorID)
}
