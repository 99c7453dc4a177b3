package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/LACSistemas/EscriturasNew/internal/logging"
	"github.com/LACSistemas/EscriturasNew/pkg/ports"
)

// RetryPolicy bounds the retries around one Extraction Gateway call.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// InitialBackoff is the wait before the first retry; it doubles on each
	// subsequent retry up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy matches the deployment default: three calls, starting
// at half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Gateway wraps an Extractor with the retry policy owned by the file-upload
// handler. The Extractor itself never retries, so the policy stays
// configurable per deployment.
type Gateway struct {
	extractor ports.Extractor
	retry     RetryPolicy
	logger    *slog.Logger
	sleep     func(context.Context, time.Duration) error
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets a structured logger for retry events.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) GatewayOption {
	return func(g *Gateway) { g.retry = p }
}

// NewGateway creates a retrying gateway around an extractor.
func NewGateway(extractor ports.Extractor, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		extractor: extractor,
		retry:     DefaultRetryPolicy(),
		logger:    logging.NewNop(),
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.retry.Attempts < 1 {
		g.retry.Attempts = 1
	}
	return g
}

// Extract calls the gateway with bounded retries and increasing backoff.
// It returns the fields plus the number of attempts actually made.
func (g *Gateway) Extract(ctx context.Context, raw []byte, filename string, hint ports.ExtractionHint) (map[string]string, int, error) {
	backoff := g.retry.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= g.retry.Attempts; attempt++ {
		fields, err := g.extractor.Extract(ctx, raw, filename, hint)
		if err == nil {
			return fields, attempt, nil
		}
		lastErr = err

		if attempt == g.retry.Attempts {
			return nil, attempt, lastErr
		}
		g.logger.Warn("extraction attempt failed, retrying",
			"hint", string(hint),
			"attempt", attempt,
			"backoff", backoff,
			"err", err,
		)
		if err := g.sleep(ctx, backoff); err != nil {
			return nil, attempt, err
		}
		backoff *= 2
		if g.retry.MaxBackoff > 0 && backoff > g.retry.MaxBackoff {
			backoff = g.retry.MaxBackoff
		}
	}
	return nil, g.retry.Attempts, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
