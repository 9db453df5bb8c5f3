package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NVIDIA/aisloadgen/config"
)

const sampleYAML = `
target_executable: /bin/echo
target_args: ["hello"]
metrics_addr: "127.0.0.1:9090"
generators:
  - name: dogstatsd-udp
    seed: "2a00000000000000000000000000000000000000000000000000000000000000"
    bytes_per_second: "10MiB"
    block_sizes: ["1KiB", "8KiB"]
    maximum_prebuild_cache_size_bytes: "64MiB"
    block_cache_method: fixed
    parallel_connections: 4
    variant: dogstatsd
    transport: udsdgram
    target_addr: /tmp/target.sock
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestLoadParsesQuantitiesAndDefaults(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TargetExecutable != "/bin/echo" {
		t.Fatalf("unexpected target executable: %q", cfg.TargetExecutable)
	}
	if len(cfg.Generators) != 1 {
		t.Fatalf("expected 1 generator, got %d", len(cfg.Generators))
	}
	g := cfg.Generators[0]
	if g.BytesPerSecond.Bytes != 10*1024*1024 {
		t.Fatalf("expected 10MiB in bytes, got %d", g.BytesPerSecond.Bytes)
	}
	if len(g.BlockSizes) != 2 || g.BlockSizes[0].Bytes != 1024 || g.BlockSizes[1].Bytes != 8192 {
		t.Fatalf("unexpected block sizes: %+v", g.BlockSizes)
	}
	if g.BlockCacheMethod != config.CacheFixed {
		t.Fatalf("expected fixed cache method, got %q", g.BlockCacheMethod)
	}
}

func TestLoadRejectsMissingTargetExecutable(t *testing.T) {
	path := writeTempConfig(t, `
generators:
  - name: g0
    maximum_prebuild_cache_size_bytes: "1MiB"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected an error for a missing target_executable")
	}
}

func TestBlockSizesOrDefault(t *testing.T) {
	g := config.GeneratorConfig{}
	sizes := g.BlockSizesOrDefault()
	if len(sizes) != 8 {
		t.Fatalf("expected the 8-entry default block-size set, got %d entries", len(sizes))
	}
	if sizes[0] != 1 || sizes[len(sizes)-1] != 64*1024 {
		t.Fatalf("unexpected default block sizes: %+v", sizes)
	}
}
