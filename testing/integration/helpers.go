package integration

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zoobzio/crumbz"
)

// MockCollector wraps a real collector with test utilities.
// Provides synchronous collection and verification helpers.
//
//nolint:govet // Field alignment optimized for test helper readability
type MockCollector struct {
	exported []crumbz.Failure
	*crumbz.Collector
	t  *testing.T
	mu sync.Mutex
}

// NewMockCollector creates a collector for testing.
func NewMockCollector(t *testing.T, name string, bufferSize int) *MockCollector {
	collector := crumbz.NewCollector(name, bufferSize)
	collector.SetSyncMode(true) // Enable synchronous collection for testing.
	t.Cleanup(collector.Close)
	return &MockCollector{
		Collector: collector,
		t:         t,
		exported:  make([]crumbz.Failure, 0),
	}
}

// GetAll returns every failure exported so far without losing any.
func (m *MockCollector) GetAll() []crumbz.Failure {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exported = append(m.exported, m.Collector.Export()...)

	all := make([]crumbz.Failure, len(m.exported))
	copy(all, m.exported)
	return all
}

// WaitForFailures waits for expected number of failures with timeout.
func (m *MockCollector) WaitForFailures(expected int, timeout time.Duration) []crumbz.Failure {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		if all := m.GetAll(); len(all) >= expected {
			return all
		}
		<-ticker.C
	}

	all := m.GetAll()
	m.t.Errorf("Timeout waiting for failures: expected %d, got %d", expected, len(all))
	return all
}

// NewTestPool creates a decorated pool closed at test cleanup.
func NewTestPool(t *testing.T, workers, queueSize int) (*crumbz.Pool, *crumbz.ContextExecutor) {
	t.Helper()
	pool, err := crumbz.NewPool(workers, queueSize)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool, crumbz.Decorate(pool)
}

// ContextWith starts a stack holding the given breadcrumbs.
func ContextWith(crumbs ...string) context.Context {
	ctx, s := crumbz.Start(context.Background())
	for _, c := range crumbs {
		s.Push(crumbz.Text(c))
	}
	return ctx
}

// Rendered renders err with a visible separator.
func Rendered(t *testing.T, err *crumbz.Error) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, err.Render(&sb, " | "))
	return sb.String()
}

// RequireContext asserts the breadcrumbs carried by err.
func RequireContext(t *testing.T, err error, want ...string) {
	t.Helper()
	snap, ok := crumbz.ContextOf(err)
	require.True(t, ok, "expected a context-capturing error, got %v", err)
	require.Equal(t, want, snap.Strings())
}

// RequireStack asserts the breadcrumbs bound to ctx.
func RequireStack(t *testing.T, ctx context.Context, want ...string) {
	t.Helper()
	got := crumbz.Current(ctx).Strings()
	if len(want) == 0 {
		require.Empty(t, got)
		return
	}
	require.Equal(t, want, got)
}
