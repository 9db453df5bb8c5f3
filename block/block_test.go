package block_test

import (
	"testing"

	"github.com/NVIDIA/aisloadgen/block"
)

func TestFromEmpty(t *testing.T) {
	if _, err := block.From(nil); err != block.ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := block.From([]byte{}); err != block.ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestFrom(t *testing.T) {
	b, err := block.From([]byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.TotalBytes() != 5 {
		t.Fatalf("expected total bytes 5, got %d", b.TotalBytes())
	}
	if string(b.Bytes()) != "hello" {
		t.Fatalf("unexpected bytes: %q", b.Bytes())
	}
}
