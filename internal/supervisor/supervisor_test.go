package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingService struct {
	name   string
	starts atomic.Int32
	fail   atomic.Bool
}

func (s *countingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	if s.fail.CompareAndSwap(true, false) {
		return errors.New("boom")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func TestTree_RunsAndStopsServices(t *testing.T) {
	tree := New(nil, Config{FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second})
	core := &countingService{name: "core"}
	api := &countingService{name: "api"}
	tree.AddCore(core)
	tree.AddAPI(api)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for core.starts.Load() == 0 || api.starts.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("services did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestTree_RestartsFailedService(t *testing.T) {
	tree := New(nil, Config{FailureBackoff: 10 * time.Millisecond})
	svc := &countingService{name: "flaky"}
	svc.fail.Store(true)
	tree.AddCore(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for svc.starts.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("service restarted %d times", svc.starts.Load()-1)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}
