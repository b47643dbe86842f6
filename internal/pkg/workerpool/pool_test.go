package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angrychow/train-ticket/internal/pkg/workerpool"
)

func TestGo_ReturnsValue(t *testing.T) {
	p := workerpool.New(2, 4)
	defer p.Close()

	f := workerpool.Go(context.Background(), p, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	v, err := f.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestGo_BoundsConcurrency(t *testing.T) {
	const size = 3
	p := workerpool.New(size, 100)
	defer p.Close()

	var running, peak int32
	futures := make([]*workerpool.Future[struct{}], 20)
	for i := range futures {
		futures[i] = workerpool.Go(context.Background(), p, func(ctx context.Context) (struct{}, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}, nil
		})
	}
	for _, f := range futures {
		if _, err := f.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if peak > size {
		t.Errorf("expected at most %d concurrent tasks, saw %d", size, peak)
	}
}

func TestGo_RecoversPanic(t *testing.T) {
	p := workerpool.New(1, 1)
	defer p.Close()

	f := workerpool.Go(context.Background(), p, func(ctx context.Context) (string, error) {
		panic("boom")
	})
	if _, err := f.Wait(context.Background()); err == nil {
		t.Fatal("expected error from panicking task")
	}

	// The worker must survive the panic.
	g := workerpool.Go(context.Background(), p, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if v, err := g.Wait(context.Background()); err != nil || v != "ok" {
		t.Fatalf("expected ok, got %q, %v", v, err)
	}
}

func TestGo_SkipsCancelledTask(t *testing.T) {
	p := workerpool.New(1, 4)
	defer p.Close()

	release := make(chan struct{})
	blocker := workerpool.Go(context.Background(), p, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	var ran int32
	queued := workerpool.Go(ctx, p, func(ctx context.Context) (int, error) {
		atomic.StoreInt32(&ran, 1)
		return 2, nil
	})
	cancel()
	close(release)

	if _, err := blocker.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := queued.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt32(&ran) != 0 {
		t.Error("cancelled task must not run")
	}
}

func TestWait_AbandonedByCaller(t *testing.T) {
	p := workerpool.New(1, 1)
	defer p.Close()

	release := make(chan struct{})
	f := workerpool.Go(context.Background(), p, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	close(release)
}

func TestSubmit_AfterClose(t *testing.T) {
	p := workerpool.New(1, 1)
	p.Close()

	err := p.Submit(context.Background(), func(ctx context.Context) {})
	if !errors.Is(err, workerpool.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	f := workerpool.Go(context.Background(), p, func(ctx context.Context) (int, error) { return 1, nil })
	if _, err := f.Wait(context.Background()); !errors.Is(err, workerpool.ErrClosed) {
		t.Errorf("expected ErrClosed from future, got %v", err)
	}
}

func TestNew_DefaultSize(t *testing.T) {
	p := workerpool.New(0, 0)
	defer p.Close()
	if p.Size() != workerpool.DefaultSize {
		t.Errorf("expected %d workers, got %d", workerpool.DefaultSize, p.Size())
	}
}
