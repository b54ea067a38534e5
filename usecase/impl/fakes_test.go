package impl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
)

// testLogger records messages so tests can assert on warnings
type testLogger struct {
	mu      *sync.Mutex
	entries *[]string
}

func newTestLogger() *testLogger {
	return &testLogger{mu: &sync.Mutex{}, entries: &[]string{}}
}

func (l *testLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, level+" "+msg)
}

func (l *testLogger) Debug(ctx context.Context, msg string, fields ...domain.Field) {
	l.log("DEBUG", msg)
}
func (l *testLogger) Info(ctx context.Context, msg string, fields ...domain.Field) {
	l.log("INFO", msg)
}
func (l *testLogger) Warn(ctx context.Context, msg string, fields ...domain.Field) {
	l.log("WARN", msg)
}
func (l *testLogger) Error(ctx context.Context, msg string, fields ...domain.Field) {
	l.log("ERROR", msg)
}
func (l *testLogger) WithFields(fields ...domain.Field) domain.Logger { return l }

func (l *testLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range *l.entries {
		if e == level+" "+msg {
			return true
		}
	}
	return false
}

// fakeAdmin scripts admin tool responses and records every call in order
type fakeAdmin struct {
	clients   []int
	clientErr error
	open      []int
	openErr   error
	closeOut  string
	closeErr  error
	stepErrs  map[string]error
	calls     []string
}

func (f *fakeAdmin) ListClients(ctx context.Context) ([]entity.ClientSession, error) {
	f.calls = append(f.calls, "list clients")
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	n := 0
	if len(f.clients) > 0 {
		n = f.clients[0]
		if len(f.clients) > 1 {
			f.clients = f.clients[1:]
		}
	}
	rows := []entity.ClientSession{{Raw: "Client ID User Name"}}
	for i := 0; i < n; i++ {
		rows = append(rows, entity.ClientSession{Raw: fmt.Sprintf("%d user%d", i+10, i)})
	}
	return rows, nil
}

func (f *fakeAdmin) ListOpenResources(ctx context.Context) ([]entity.OpenResource, error) {
	f.calls = append(f.calls, "list files")
	if f.openErr != nil {
		return nil, f.openErr
	}
	n := 0
	if len(f.open) > 0 {
		n = f.open[0]
		if len(f.open) > 1 {
			f.open = f.open[1:]
		}
	}
	resources := make([]entity.OpenResource, 0, n)
	for i := 0; i < n; i++ {
		resources = append(resources, entity.OpenResource{Identifier: fmt.Sprintf("db%d.fmp12", i), IsOpen: true})
	}
	return resources, nil
}

func (f *fakeAdmin) CloseAll(ctx context.Context, force bool) (*entity.CloseLog, error) {
	f.calls = append(f.calls, fmt.Sprintf("close force=%t", force))
	if f.closeErr != nil {
		return nil, f.closeErr
	}
	return entity.NewCloseLog(f.closeOut), nil
}

func (f *fakeAdmin) StopSubsystem(ctx context.Context, subsystem entity.Subsystem) error {
	return f.step("stop " + string(subsystem))
}

func (f *fakeAdmin) StartSubsystem(ctx context.Context, subsystem entity.Subsystem) error {
	return f.step("start " + string(subsystem))
}

func (f *fakeAdmin) step(name string) error {
	f.calls = append(f.calls, name)
	return f.stepErrs[name]
}

func (f *fakeAdmin) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeAdmin) mutatingCalls() []string {
	var out []string
	for _, c := range f.calls {
		if !strings.HasPrefix(c, "list ") {
			out = append(out, c)
		}
	}
	return out
}

// fakeNamer maps subsystems to admin tool names
type fakeNamer map[entity.Subsystem]string

func (n fakeNamer) SubsystemName(s entity.Subsystem) string {
	return n[s]
}

// fakeFlagRepo is an in-memory restart flag
type fakeFlagRepo struct {
	request    *entity.RestartRequest
	isPendErr  error
	setErr     error
	getErr     error
	clearErr   error
	clearCalls int
	setReasons []string
}

func (f *fakeFlagRepo) SetPending(ctx context.Context, reason string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setReasons = append(f.setReasons, reason)
	if f.request == nil {
		f.request = entity.NewRestartRequest(time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC), reason)
	}
	return nil
}

func (f *fakeFlagRepo) IsPending(ctx context.Context) (bool, error) {
	if f.isPendErr != nil {
		return false, f.isPendErr
	}
	return f.request != nil, nil
}

func (f *fakeFlagRepo) Get(ctx context.Context) (*entity.RestartRequest, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.request == nil {
		return &entity.RestartRequest{}, nil
	}
	return f.request, nil
}

func (f *fakeFlagRepo) Clear(ctx context.Context) error {
	f.clearCalls++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.request = nil
	return nil
}

func (f *fakeFlagRepo) Location() string { return "/var/tmp/saferestart/restart.pending" }

// fakeHistory stores records in memory
type fakeHistory struct {
	records   []*entity.RunRecord
	recordErr error
	recentErr error
}

func (f *fakeHistory) Record(ctx context.Context, record *entity.RunRecord) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]*entity.RunRecord, 0, limit)
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.records[i])
	}
	return out, nil
}

func (f *fakeHistory) Close() error { return nil }

// fakeMetrics records pushed run metrics
type fakeMetrics struct {
	sent []*entity.RunRecord
	err  error
}

func (f *fakeMetrics) SendRunMetrics(ctx context.Context, record *entity.RunRecord) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, record)
	return nil
}

func (f *fakeMetrics) Close() error { return nil }

// stepClock advances instantly on every wait and records the requested durations.
// Only Now and After are used by the code under test.
type stepClock struct {
	clock.Clock
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}
