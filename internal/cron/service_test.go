package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/tabsplit/tabsplit-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func cronTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	registry := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	service, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: registry,
		Lock:     &fakeLock{},
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	for _, job := range registry.Jobs() {
		if job.(*testJob).runs != 1 {
			t.Fatalf("job %s ran %d times", job.Name(), job.(*testJob).runs)
		}
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "noop"}
	lock := &fakeLock{acquired: true}
	service, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran %d times while lock was held", job.runs)
	}
}
