package throttle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NVIDIA/aisloadgen/cmn/cos"
	"github.com/NVIDIA/aisloadgen/throttle"
)

func TestWaitForAdmitsWithinRate(t *testing.T) {
	th, err := throttle.New(throttle.Config{BytesPerSecond: 1 << 20, Burst: 1 << 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := th.WaitFor(ctx, 1024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForWidensBurstForOversizedRequest(t *testing.T) {
	th, err := throttle.New(throttle.Config{BytesPerSecond: 100, Burst: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The bucket starts with 10 tokens, so 490 more must refill at 100/s:
	// about 4.9s, which the deadline has to leave room for.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// A request far larger than the configured burst must still eventually
	// be admitted, never permanently denied.
	if err := th.WaitFor(ctx, 500); err != nil {
		t.Fatalf("expected oversized request to be admitted, got: %v", err)
	}
}

func TestWaitForCancellationDoesNotConsumeTokens(t *testing.T) {
	th, err := throttle.New(throttle.Config{BytesPerSecond: 10, Burst: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Drain most of the bucket first.
	if err := th.WaitFor(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	// This request needs more capacity than is currently available at a
	// 10/s refill rate within 10ms, so it must be canceled, not admitted.
	if err := th.WaitFor(ctx, 100); err == nil {
		t.Fatal("expected context deadline error, got nil")
	}

	// The canceled request took nothing: the token left over from the
	// first request still admits a 1-byte request at once.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if err := th.WaitFor(ctx2, 1); err != nil {
		t.Fatalf("canceled request consumed tokens: %v", err)
	}
}

func TestZeroRateIsFatalAtConstruction(t *testing.T) {
	_, err := throttle.New(throttle.Config{})
	if !errors.Is(err, cos.ErrZeroQuantity) {
		t.Fatalf("expected ErrZeroQuantity, got: %v", err)
	}
}
