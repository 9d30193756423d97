package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abgdnv/catalog/internal/objectstore"
	"github.com/abgdnv/catalog/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var transientKeywords = []string{"reset", "timeout", "terminated"}

// IsTransient reports whether the error message names a connection reset, a timeout or a terminated connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range transientKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retrier performs an object write with bounded, linearly backed-off retries on transient failures.
type Retrier struct {
	store       objectstore.Store
	maxAttempts int
	backoff     time.Duration
	sleep       Sleeper
	logger      *slog.Logger
	attempts    metric.Int64Counter
}

// NewRetrier creates a Retrier. cfg is expected to be validated.
func NewRetrier(store objectstore.Store, cfg config.RetryConfig, logger *slog.Logger) *Retrier {
	meter := otel.Meter("catalog")
	attempts, err := meter.Int64Counter("catalog_upload_attempts_total", metric.WithDescription("Object upload attempts by outcome"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_upload_attempts_total counter: %v", err))
	}
	return &Retrier{
		store:       store,
		maxAttempts: int(cfg.MaxAttempts),
		backoff:     cfg.InitialBackoff,
		sleep:       sleepContext,
		logger:      logger.With("component", "retrier"),
		attempts:    attempts,
	}
}

// Upload writes in, retrying transient failures. The wait before attempt n+1 is backoff × n.
// The same path is used for every attempt.
func (r *Retrier) Upload(ctx context.Context, in objectstore.UploadInput) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		stored, err := r.store.Upload(ctx, in)
		if err == nil {
			r.record(ctx, "success")
			r.logger.DebugContext(ctx, "Upload succeeded", "path", in.Path, "attempt", attempt)
			if stored == "" {
				stored = in.Path
			}
			return stored, nil
		}
		lastErr = err

		if !IsTransient(err) {
			r.record(ctx, "permanent")
			r.logger.WarnContext(ctx, "Upload failed permanently", "path", in.Path, "attempt", attempt, "error", err)
			return "", &UploadError{Attempts: attempt, Err: err}
		}
		r.record(ctx, "transient")
		r.logger.WarnContext(ctx, "Upload failed with a transient error", "path", in.Path, "attempt", attempt, "max_attempts", r.maxAttempts, "error", err)

		if attempt == r.maxAttempts {
			break
		}
		if waitErr := r.sleep(ctx, r.backoff*time.Duration(attempt)); waitErr != nil {
			return "", &UploadError{Attempts: attempt, Transient: true, Err: errors.Join(lastErr, waitErr)}
		}
	}
	return "", &UploadError{Attempts: r.maxAttempts, Transient: true, Err: lastErr}
}

func (r *Retrier) record(ctx context.Context, outcome string) {
	r.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
