package smoke

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(env *stubEnv) *Config {
	return &Config{
		UserServiceURL:    env.userServer.URL,
		ProductServiceURL: env.productServer.URL,
		OrderServiceURL:   env.orderServer.URL,
		ProbeInterval:     50 * time.Millisecond,
		ProbeDeadline:     2 * time.Second,
		HTTPTimeout:       2 * time.Second,
	}
}

func TestRun_HealthySystemPasses(t *testing.T) {
	env := newStubEnv(t)
	runner := NewRunner(testConfig(env), slog.New(slog.DiscardHandler))

	report := runner.Run(context.Background())

	var buf bytes.Buffer
	report.Summary(&buf)
	assert.Equal(t, ExitOK, report.ExitCode(), "summary:\n%s", buf.String())
	assert.Zero(t, report.Failed())
	require.NoError(t, report.FatalErr())
	assert.Contains(t, buf.String(), "PASSED")
	assert.Contains(t, buf.String(), "repeated widget read is identical")
	assert.Contains(t, buf.String(), "wrong password rejected")
}

func TestRun_StockNotRestoredOnCancelFails(t *testing.T) {
	env := newStubEnv(t)
	env.flaws.skipRestoreOnCancel = true
	runner := NewRunner(testConfig(env), slog.New(slog.DiscardHandler))

	report := runner.Run(context.Background())

	assert.Equal(t, ExitFail, report.ExitCode())
	assert.Greater(t, report.Failed(), 0)

	var buf bytes.Buffer
	report.Summary(&buf)
	assert.Contains(t, buf.String(), "widget stock restored by cancellation")
}

func TestRun_MissingStateMachineFails(t *testing.T) {
	env := newStubEnv(t)
	env.flaws.allowTerminalTransitions = true
	runner := NewRunner(testConfig(env), slog.New(slog.DiscardHandler))

	report := runner.Run(context.Background())

	// A service that accepts transitions out of terminal states must be
	// reported, not tolerated.
	assert.Equal(t, ExitFail, report.ExitCode())

	var buf bytes.Buffer
	report.Summary(&buf)
	assert.Contains(t, buf.String(), "transition out of shipped rejected")
}

func TestRun_UnreachableServiceIsFatal(t *testing.T) {
	env := newStubEnv(t)
	cfg := testConfig(env)
	cfg.OrderServiceURL = "http://127.0.0.1:1" // nothing listens here
	cfg.ProbeDeadline = 300 * time.Millisecond
	runner := NewRunner(cfg, slog.New(slog.DiscardHandler))

	report := runner.Run(context.Background())

	assert.Equal(t, ExitFatal, report.ExitCode())
	require.Error(t, report.FatalErr())
	assert.ErrorIs(t, report.FatalErr(), ErrServiceUnavailable)
}

func TestRun_FixtureFailureIsFatal(t *testing.T) {
	env := newStubEnv(t)
	cfg := testConfig(env)
	// Point user creation at the product service: POST /users 404s there,
	// so fixtures cannot be built even though /health answers.
	cfg.UserServiceURL = env.productServer.URL
	runner := NewRunner(cfg, slog.New(slog.DiscardHandler))

	report := runner.Run(context.Background())

	assert.Equal(t, ExitFatal, report.ExitCode())
	require.Error(t, report.FatalErr())
	assert.ErrorIs(t, report.FatalErr(), ErrFixtureCreation)
}
