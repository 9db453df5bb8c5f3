package sendloop_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/aisloadgen/block"
	"github.com/NVIDIA/aisloadgen/cmn/cos"
	"github.com/NVIDIA/aisloadgen/genmetrics"
	"github.com/NVIDIA/aisloadgen/sendloop"
	"github.com/NVIDIA/aisloadgen/throttle"
)

// fakeSource is an in-memory BlockSource cycling over a fixed slice,
// exercising the peek-then-commit contract sendloop.BlockSource requires.
type fakeSource struct {
	mu      sync.Mutex
	blocks  []block.Block
	idx     int
	peeked  bool
	peekVal block.Block
}

func newFakeSource(sizes ...int) *fakeSource {
	var blocks []block.Block
	for _, s := range sizes {
		b, _ := block.From(make([]byte, s))
		blocks = append(blocks, b)
	}
	return &fakeSource{blocks: blocks}
}

func (f *fakeSource) Peek(context.Context) (block.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.peeked {
		f.peekVal = f.blocks[f.idx]
		f.peeked = true
	}
	return f.peekVal, nil
}

func (f *fakeSource) Advance(context.Context) (block.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.peekVal
	f.peeked = false
	f.idx = (f.idx + 1) % len(f.blocks)
	return v, nil
}

// fakeTransport counts writes and can be configured to fail the Nth write.
type fakeTransport struct {
	datagram    bool
	failAt      int32
	failSize    int
	failErr     error // defaults to a non-retriable error if nil
	writes      int32
	connectErrs int32
	connected   int32
}

func (f *fakeTransport) Connect(context.Context) error {
	atomic.AddInt32(&connectCalls, 1)
	if atomic.LoadInt32(&f.connectErrs) > 0 {
		atomic.AddInt32(&f.connectErrs, -1)
		return errors.New("connect refused")
	}
	atomic.AddInt32(&f.connected, 1)
	return nil
}

var connectCalls int32

func (f *fakeTransport) Write(_ context.Context, p []byte) (int, error) {
	n := atomic.AddInt32(&f.writes, 1)
	if f.failAt != 0 && n == f.failAt {
		err := f.failErr
		if err == nil {
			err = errors.New("message too long")
		}
		if f.failSize > 0 {
			return f.failSize, err
		}
		return 0, err
	}
	return len(p), nil
}

func (f *fakeTransport) Close() error      { return nil }
func (f *fakeTransport) IsDatagram() bool  { return f.datagram }
func (f *fakeTransport) Name() string      { return "fake" }

func newTestLoop(t *testing.T) (*genmetrics.Registry, *cos.StopCh) {
	t.Helper()
	reg := genmetrics.New(prometheus.NewRegistry())
	sc := &cos.StopCh{}
	sc.Init()
	return reg, sc
}

func TestLoopWritesUntilShutdown(t *testing.T) {
	reg, sc := newTestLoop(t)
	src := newFakeSource(16, 32, 64)
	th, err := throttle.New(throttle.Config{BytesPerSecond: 1 << 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := &fakeTransport{}

	done := make(chan error, 1)
	go func() {
		done <- sendloop.Loop(context.Background(), sendloop.Config{
			Source:    src,
			Throttle:  th,
			Transport: tr,
			Shutdown:  sc,
			Metrics:   reg,
			Labels:    genmetrics.Labels{Component: "generator", ComponentName: "fake", ID: "t0"},
		})
	}()

	time.Sleep(50 * time.Millisecond)
	sc.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after shutdown")
	}

	if atomic.LoadInt32(&tr.writes) == 0 {
		t.Fatal("expected at least one write before shutdown")
	}
}

func TestLoopLearnsDatagramCeilingAndSkipsOversized(t *testing.T) {
	reg, sc := newTestLoop(t)
	src := newFakeSource(100, 100, 100, 100)
	th, _ := throttle.New(throttle.Config{BytesPerSecond: 1 << 30})
	tr := &fakeTransport{datagram: true, failAt: 1, failSize: 50}

	done := make(chan error, 1)
	go func() {
		done <- sendloop.Loop(context.Background(), sendloop.Config{
			Source:    src,
			Throttle:  th,
			Transport: tr,
			Shutdown:  sc,
			Metrics:   reg,
			Labels:    genmetrics.Labels{Component: "generator", ComponentName: "fake", ID: "t1"},
		})
	}()

	time.Sleep(50 * time.Millisecond)
	sc.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after shutdown")
	}

	// After the first write fails at size 100 reporting 50 bytes written,
	// max_detected_bytes should drop to 49 and every subsequent 100-byte
	// block should be skipped rather than attempted again.
	if atomic.LoadInt32(&tr.writes) != 1 {
		t.Fatalf("expected exactly 1 write attempt (all others skipped as oversized), got %d", tr.writes)
	}
}

func TestLoopReconnectsOnStreamWriteError(t *testing.T) {
	reg, sc := newTestLoop(t)
	src := newFakeSource(16, 16, 16, 16)
	th, _ := throttle.New(throttle.Config{BytesPerSecond: 1 << 30})
	tr := &fakeTransport{failAt: 1, failErr: syscall.ECONNRESET}

	done := make(chan error, 1)
	go func() {
		done <- sendloop.Loop(context.Background(), sendloop.Config{
			Source:         src,
			Throttle:       th,
			Transport:      tr,
			Shutdown:       sc,
			Metrics:        reg,
			Labels:         genmetrics.Labels{Component: "generator", ComponentName: "fake", ID: "t2"},
			ReconnectDelay: time.Millisecond,
		})
	}()

	time.Sleep(50 * time.Millisecond)
	sc.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after shutdown")
	}

	if got := atomic.LoadInt32(&tr.connected); got < 2 {
		t.Fatalf("expected at least 2 connect attempts (initial + reconnect), got %d", got)
	}
}

func TestLoopReturnsFatalOnNonRetriableWriteError(t *testing.T) {
	reg, sc := newTestLoop(t)
	defer sc.Close()
	src := newFakeSource(16, 16, 16, 16)
	th, _ := throttle.New(throttle.Config{BytesPerSecond: 1 << 30})
	tr := &fakeTransport{failAt: 1, failErr: errors.New("message too long")}

	err := sendloop.Loop(context.Background(), sendloop.Config{
		Source:         src,
		Throttle:       th,
		Transport:      tr,
		Shutdown:       sc,
		Metrics:        reg,
		Labels:         genmetrics.Labels{Component: "generator", ComponentName: "fake", ID: "t3"},
		ReconnectDelay: time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected a non-retriable write error to end the loop")
	}
	if atomic.LoadInt32(&tr.writes) != 1 {
		t.Fatalf("expected exactly 1 write attempt (no reconnect for a non-retriable error), got %d", tr.writes)
	}
}
