package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
)

type fakeRoller struct {
	calls int32
	err   error
}

func (f *fakeRoller) RolloverIfDue(context.Context) (bool, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsStartupCheck(t *testing.T) {
	roller := &fakeRoller{}
	s := NewRolloverScheduler(roller, discard())

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if got := atomic.LoadInt32(&roller.calls); got != 1 {
		t.Errorf("startup checks = %d, want 1", got)
	}
}

func TestSchedulerSurvivesCheckFailure(t *testing.T) {
	roller := &fakeRoller{err: errors.New("store down")}
	s := NewRolloverScheduler(roller, discard())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("a failed check must not fail Start: %v", err)
	}
	s.Stop()
}
