package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/url"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/venturelink/venturelink/internal/config"
)

// ExponentialBackoffRetryer implements retry logic with exponential backoff
// for the initial database connection.
type ExponentialBackoffRetryer struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
	jitter     bool
}

// NewExponentialBackoffRetryer creates a new retryer with sensible defaults.
func NewExponentialBackoffRetryer() *ExponentialBackoffRetryer {
	return &ExponentialBackoffRetryer{
		maxRetries: 5,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   30 * time.Second,
		multiplier: 2.0,
		jitter:     true,
	}
}

// Retry executes a function with exponential backoff retry logic.
func (r *ExponentialBackoffRetryer) Retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == r.maxRetries {
			break
		}

		delay := r.calculateDelay(attempt)
		slog.DebugContext(ctx, "Retry attempt failed, waiting before next attempt",
			"attempt", attempt+1, "max_attempts", r.maxRetries+1,
			"delay_ms", delay.Milliseconds(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", r.maxRetries+1, lastErr)
}

func (r *ExponentialBackoffRetryer) calculateDelay(attempt int) time.Duration {
	delay := float64(r.baseDelay) * math.Pow(r.multiplier, float64(attempt))
	if delay > float64(r.maxDelay) {
		delay = float64(r.maxDelay)
	}
	if r.jitter {
		delay = delay/2 + rand.Float64()*delay/2
	}
	return time.Duration(delay)
}

// NewDB establishes a connection to SurrealDB, signs in as the configured
// user and selects the configured namespace and database. The initial
// connection is retried with exponential backoff, since the database may
// come up after the application in containerized deployments.
func NewDB(ctx context.Context, cfg *config.Config) (*surrealdb.DB, error) {
	var db *surrealdb.DB
	retryer := NewExponentialBackoffRetryer()

	err := retryer.Retry(ctx, func() error {
		conn, err := surrealdb.FromEndpointURLString(ctx, cfg.DBUrl)
		if err != nil {
			slog.WarnContext(ctx, "Failed to connect to database",
				"db_url", redactDBURL(cfg.DBUrl), "error", err)
			return err
		}

		if cfg.DBUser != "" {
			authData := &surrealdb.Auth{
				Username: cfg.DBUser,
				Password: cfg.DBPass,
			}
			if _, err = conn.SignIn(ctx, authData); err != nil {
				conn.Close(ctx)
				return fmt.Errorf("failed to sign in: %w", err)
			}
		}

		if err = conn.Use(ctx, cfg.DBNs, cfg.DBDb); err != nil {
			conn.Close(ctx)
			return fmt.Errorf("failed to use namespace/db: %w", err)
		}

		db = conn
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Database connection established",
		"db_url", redactDBURL(cfg.DBUrl), "namespace", cfg.DBNs, "database", cfg.DBDb)
	return db, nil
}

// redactDBURL strips credentials from a database URL before logging.
func redactDBURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}
	return u.String()
}
