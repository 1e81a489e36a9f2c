// Package allocator mints unique, human-readable member identifiers from a
// shared durable counter. The counter is the only mutable shared resource in
// the system and is only ever touched through a CounterStore's atomic
// read-modify-write.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"membergate/internal/platform/metrics"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/sentinel"
)

// ErrAllocationFailed is returned (wrapped in a coded error) when the counter
// transaction could not be committed within the retry budget. Callers must
// treat it as a hard failure: no member record may be written without an ID.
var ErrAllocationFailed = errors.New("allocation failed")

// CounterStore performs one atomic read-modify-write attempt against the
// shared counter: read the current count (absent row reads as 0), persist
// count+1, return count+1. An aborted attempt leaves no trace and returns an
// error wrapping sentinel.ErrConflict.
type CounterStore interface {
	Increment(ctx context.Context) (int64, error)
}

// Allocator produces member IDs of the form
// D<category letter><6-digit sequence><2-digit year>.
type Allocator struct {
	counter CounterStore
	clock   func() time.Time
	retries int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithClock sets the clock used for the year suffix. Tests pin it.
func WithClock(clock func() time.Time) Option {
	return func(a *Allocator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithRetryBudget sets how many conflicted counter transactions are retried
// before the allocation fails.
func WithRetryBudget(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.retries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// WithMetrics wires allocation counters and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Allocator) {
		a.metrics = m
	}
}

// New constructs an Allocator over the given counter store.
func New(counter CounterStore, opts ...Option) (*Allocator, error) {
	if counter == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	a := &Allocator{
		counter: counter,
		clock:   time.Now,
		retries: 5,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

var tracer = otel.Tracer("membergate/internal/allocator")

// Next mints the next member ID for the given gender category. Safe under
// arbitrary concurrent invocation: whichever counter transaction commits
// first receives the strictly smaller sequence number.
func (a *Allocator) Next(ctx context.Context, gender string) (string, error) {
	ctx, span := tracer.Start(ctx, "allocator.Next")
	defer span.End()

	start := a.clock()
	seq, err := a.increment(ctx)
	if err != nil {
		if a.metrics != nil {
			a.metrics.AllocationFailures.Inc()
		}
		return "", err
	}

	id := Format(CategoryLetter(gender), seq, a.clock())
	span.SetAttributes(attribute.Int64("membergate.sequence", seq))
	if a.metrics != nil {
		a.metrics.Allocations.Inc()
		a.metrics.ObserveAllocation(a.clock().Sub(start))
	}
	return id, nil
}

// increment drives the retry loop. Only conflict aborts are retried; any
// other store error fails the allocation immediately since the counter state
// is unknown only in the sense of "unchanged".
func (a *Allocator) increment(ctx context.Context) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= a.retries; attempt++ {
		seq, err := a.counter.Increment(ctx)
		if err == nil {
			return seq, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return 0, dErrors.Wrap(
				fmt.Errorf("increment counter: %w: %w", ErrAllocationFailed, err),
				dErrors.CodeUnavailable, "could not allocate member id")
		}
		lastErr = err
		if a.metrics != nil {
			a.metrics.AllocationRetries.Inc()
		}
		a.logger.DebugContext(ctx, "counter transaction conflicted, retrying",
			"attempt", attempt,
		)
	}
	return 0, dErrors.Wrap(
		fmt.Errorf("retry budget exhausted: %w: %w", ErrAllocationFailed, lastErr),
		dErrors.CodeUnavailable, "could not allocate member id")
}

// CategoryLetter maps a declared gender to its ID letter. Unrecognized values
// fall back to 'O' rather than failing the allocation.
func CategoryLetter(gender string) byte {
	switch {
	case strings.EqualFold(gender, "Male"):
		return 'M'
	case strings.EqualFold(gender, "Female"):
		return 'F'
	default:
		return 'O'
	}
}

// Format renders a member ID from its parts. Uniqueness comes from the
// sequence number alone; the letter and year are decoration.
func Format(letter byte, seq int64, now time.Time) string {
	return fmt.Sprintf("D%c%06d%02d", letter, seq, now.Year()%100)
}
