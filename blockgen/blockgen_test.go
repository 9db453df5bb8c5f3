package blockgen_test

import (
	"math/rand"
	"testing"

	"github.com/NVIDIA/aisloadgen/blockgen"
	"github.com/NVIDIA/aisloadgen/payload"
)

func TestBuildEmptyBlockSet(t *testing.T) {
	cfg := blockgen.Config{
		Sizes:     []uint32{1000},
		Payload:   payload.ConstFill{Byte: 'A'},
		TotalSize: 10,
	}
	_, err := blockgen.Build(rand.New(rand.NewSource(1)), cfg)
	if err != blockgen.ErrEmptyBlockSet {
		t.Fatalf("expected ErrEmptyBlockSet, got %v", err)
	}
}

func TestBuildRespectsBudget(t *testing.T) {
	cfg := blockgen.Config{
		Sizes:     []uint32{16, 32, 64},
		Payload:   payload.ConstFill{Byte: 'A'},
		TotalSize: 1000,
	}
	blocks, err := blockgen.Build(rand.New(rand.NewSource(42)), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("expected at least one block")
	}
	var total uint32
	for _, b := range blocks {
		total += b.TotalBytes()
	}
	if total > cfg.TotalSize {
		t.Fatalf("total bytes %d exceeds budget %d", total, cfg.TotalSize)
	}
	if total <= cfg.TotalSize-64 {
		t.Fatalf("total bytes %d leaves more than one block-size's worth of budget unused", total)
	}
}

func TestBuildDeterministic(t *testing.T) {
	cfg := blockgen.Config{
		Sizes:     []uint32{8, 24, 40},
		Payload:   payload.ConstFill{Byte: 'Z'},
		TotalSize: 500,
	}
	a, err := blockgen.Build(rand.New(rand.NewSource(7)), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := blockgen.Build(rand.New(rand.NewSource(7)), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("block count diverged: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if string(a[i].Bytes()) != string(b[i].Bytes()) {
			t.Fatalf("block %d diverged", i)
		}
	}
}
