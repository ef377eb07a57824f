package smoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/shopsmoke/pkg/httpclient"
)

// ErrServiceUnavailable is returned when a service never becomes healthy
// within the probe deadline.
var ErrServiceUnavailable = errors.New("service did not become healthy before the deadline")

// Prober polls GET /health on service base URLs until they respond 2xx or a
// deadline expires.
type Prober struct {
	client   *httpclient.Client
	interval time.Duration
	deadline time.Duration
	logger   *slog.Logger
}

// NewProber creates a prober polling every interval for up to deadline.
func NewProber(client *httpclient.Client, interval, deadline time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		client:   client,
		interval: interval,
		deadline: deadline,
		logger:   logger,
	}
}

// Wait blocks until baseURL answers GET /health with a 2xx, polling at the
// configured interval. It returns ErrServiceUnavailable when the deadline
// passes first.
func (p *Prober) Wait(ctx context.Context, name, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	attempt := 0
	for {
		attempt++
		if p.probe(ctx, baseURL) {
			p.logger.Info("service healthy",
				slog.String("service", name),
				slog.Int("attempts", attempt),
			)
			return nil
		}

		p.logger.Debug("service not ready yet",
			slog.String("service", name),
			slog.Int("attempt", attempt),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s at %s: %w", name, baseURL, ErrServiceUnavailable)
		case <-ticker.C:
		}
	}
}

// WaitAll probes every service in turn. The scenario is strictly sequential,
// so there is no point probing concurrently; the first unhealthy service
// aborts the run anyway.
func (p *Prober) WaitAll(ctx context.Context, services map[string]string) error {
	// Deterministic order for log output.
	for _, name := range []string{"user", "product", "order"} {
		baseURL, ok := services[name]
		if !ok {
			continue
		}
		if err := p.Wait(ctx, name, baseURL); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prober) probe(ctx context.Context, baseURL string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(probeCtx, req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
