package worker

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

// fakeEmails hands out a fixed backlog in batches
type fakeEmails struct {
	email.Service

	mu      sync.Mutex
	backlog int
	calls   int
	err     error
}

func (f *fakeEmails) DispatchPending(ctx context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n := limit
	if f.backlog < n {
		n = f.backlog
	}
	f.backlog -= n
	return n, nil
}

type fakeExpirer struct {
	runs int32
	n    int
	err  error
}

func (f *fakeExpirer) ExpireDue(ctx context.Context) (int, error) {
	atomic.AddInt32(&f.runs, 1)
	return f.n, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestEmailDispatcher_RunOnce(t *testing.T) {
	tests := []struct {
		name      string
		backlog   int
		err       error
		wantSent  int
		wantCalls int
	}{
		{name: "empty queue", backlog: 0, wantSent: 0, wantCalls: 1},
		{name: "short batch", backlog: 3, wantSent: 3, wantCalls: 1},
		{name: "drains several batches", backlog: 12, wantSent: 12, wantCalls: 3},
		{name: "exact multiple", backlog: 10, wantSent: 10, wantCalls: 3},
		{name: "store failure", backlog: 10, err: stderrors.New("db down"), wantSent: 0, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emails := &fakeEmails{backlog: tt.backlog, err: tt.err}
			d := NewEmailDispatcher(emails, time.Minute, 5, testLogger())

			if got := d.RunOnce(context.Background()); got != tt.wantSent {
				t.Errorf("RunOnce() = %d, want %d", got, tt.wantSent)
			}
			if emails.calls != tt.wantCalls {
				t.Errorf("DispatchPending called %d times, want %d", emails.calls, tt.wantCalls)
			}
		})
	}
}

func TestEmailDispatcher_StartStops(t *testing.T) {
	emails := &fakeEmails{backlog: 2}
	d := NewEmailDispatcher(emails, 10*time.Millisecond, 5, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	emails.mu.Lock()
	defer emails.mu.Unlock()
	if emails.backlog != 0 {
		t.Errorf("backlog = %d, want 0", emails.backlog)
	}
	if emails.calls < 2 {
		t.Errorf("DispatchPending called %d times, want ticks after the first run", emails.calls)
	}
}

func TestNewSubscriptionSweeper_Schedule(t *testing.T) {
	tests := []struct {
		schedule string
		wantErr  bool
	}{
		{schedule: "", wantErr: false},
		{schedule: "@hourly", wantErr: false},
		{schedule: "*/5 * * * *", wantErr: false},
		{schedule: "every hour", wantErr: true},
	}
	for _, tt := range tests {
		s, err := NewSubscriptionSweeper(&fakeExpirer{}, tt.schedule, testLogger())
		if (err != nil) != tt.wantErr {
			t.Errorf("NewSubscriptionSweeper(%q) error = %v, wantErr %v", tt.schedule, err, tt.wantErr)
		}
		if tt.schedule == "" && s.schedule != "@hourly" {
			t.Errorf("default schedule = %q, want @hourly", s.schedule)
		}
	}
}

func TestSubscriptionSweeper_Sweep(t *testing.T) {
	exp := &fakeExpirer{n: 3}
	s, _ := NewSubscriptionSweeper(exp, "@hourly", testLogger())

	if got := s.Sweep(context.Background()); got != 3 {
		t.Errorf("Sweep() = %d, want 3", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := s.Sweep(ctx); got != 0 || atomic.LoadInt32(&exp.runs) != 1 {
		t.Errorf("Sweep() after cancel = %d with %d runs", got, exp.runs)
	}
}

func TestSubscriptionSweeper_StartRunsImmediately(t *testing.T) {
	exp := &fakeExpirer{err: stderrors.New("db down")}
	s, _ := NewSubscriptionSweeper(exp, "@hourly", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&exp.runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
	if atomic.LoadInt32(&exp.runs) != 1 {
		t.Errorf("runs = %d, want 1", exp.runs)
	}
}
