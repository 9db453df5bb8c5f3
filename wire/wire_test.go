package wire_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NVIDIA/aisloadgen/sendloop"
	"github.com/NVIDIA/aisloadgen/wire"
)

func TestTCPSatisfiesTransportAndRoundTrips(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		received <- buf[:n]
	}()

	var tr sendloop.Transport = &wire.TCP{Addr: ln.Addr().String()}
	ctx := context.Background()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tr.Close()

	n, err := tr.Write(ctx, []byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}
	if tr.IsDatagram() {
		t.Fatal("TCP must not report IsDatagram")
	}

	select {
	case got := <-received:
		if string(got) != "hello" {
			t.Fatalf("expected %q, got %q", "hello", got)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received data")
	}
}

func TestUnixDatagramSatisfiesTransportAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "bh.sock")

	laddr, err := net.ResolveUnixAddr("unixgram", sockPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	srv, err := net.ListenUnixgram("unixgram", laddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer srv.Close()
	defer os.Remove(sockPath)

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 1024)
		n, _ := srv.Read(buf)
		received <- buf[:n]
	}()

	var tr sendloop.Transport = &wire.UnixDatagram{Addr: sockPath}
	ctx := context.Background()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tr.Close()

	if !tr.IsDatagram() {
		t.Fatal("UnixDatagram must report IsDatagram")
	}

	n, err := tr.Write(ctx, []byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}

	select {
	case got := <-received:
		if string(got) != "hello" {
			t.Fatalf("expected %q, got %q", "hello", got)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received data")
	}
}
