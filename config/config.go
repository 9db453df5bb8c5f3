// Package config loads the YAML generator configuration document: per-
// generator seed, rate, block sizes, cache method, connection count,
// throttle shape, payload variant, and transport address. Parsed with
// gopkg.in/yaml.v3, with byte-quantity fields going through
// cmn/cos's human-size parsing.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/aisloadgen/cmn/cos"
)

// Quantity is a byte count parsed from a human string like "100 MB" or
// "64KiB" (cos.ParseSize), so config files never need raw integers for
// rate or budget fields.
type Quantity struct {
	Bytes int64
}

func (q *Quantity) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	n, err := cos.ParseSize(s)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	q.Bytes = n
	return nil
}

func (q Quantity) MarshalYAML() (any, error) {
	return cos.ToSizeIEC(q.Bytes), nil
}

// Seed is the raw 32-byte rng key, configured as a 64-character hex string
// and expanded by package cache into xoshiro256 state at construction time.
type Seed [32]byte

func (s *Seed) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("config: seed: %w", err)
	}
	if len(b) != len(s) {
		return fmt.Errorf("config: seed: want %d bytes (64 hex chars), got %d", len(s), len(b))
	}
	copy(s[:], b)
	return nil
}

func (s Seed) MarshalYAML() (any, error) {
	return hex.EncodeToString(s[:]), nil
}

// ThrottleConfig is the implementation-defined throttle shape: burst size
// on top of the configured bytes_per_second rate.
type ThrottleConfig struct {
	Burst int `yaml:"burst"`
}

// CacheMethod selects the Block Cache variant.
type CacheMethod string

const (
	CacheFixed  CacheMethod = "fixed"
	CacheStream CacheMethod = "streaming"
)

// GeneratorConfig is one generator instance's full configuration.
type GeneratorConfig struct {
	Name                          string         `yaml:"name"`
	Seed                          Seed           `yaml:"seed"`
	BytesPerSecond                Quantity       `yaml:"bytes_per_second"`
	BlockSizes                    []Quantity     `yaml:"block_sizes"`
	MaximumPrebuildCacheSizeBytes Quantity       `yaml:"maximum_prebuild_cache_size_bytes"`
	BlockCacheMethod              CacheMethod    `yaml:"block_cache_method"`
	ParallelConnections           int            `yaml:"parallel_connections"`
	Throttle                      ThrottleConfig `yaml:"throttle"`
	Variant                       string         `yaml:"variant"` // payload shape: "dogstatsd", "trace_span", "const_fill"
	Transport                     string         `yaml:"transport"`
	TargetAddr                    string         `yaml:"target_addr"`
}

// Config is the top-level document: a target to spawn, zero or more
// generators driving it, and a metrics endpoint address.
type Config struct {
	TargetExecutable string            `yaml:"target_executable"`
	TargetArgs       []string          `yaml:"target_args"`
	MetricsAddr      string            `yaml:"metrics_addr"`
	Generators       []GeneratorConfig `yaml:"generators"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaultBlockSizes is the fallback block-size set:
// {1B, 16B, 128B, 512B, 1KiB, 8KiB, 16KiB, 64KiB}.
func defaultBlockSizes() []uint32 {
	return []uint32{1, 16, 128, 512, cos.KiB, 8 * cos.KiB, 16 * cos.KiB, 64 * cos.KiB}
}

// BlockSizesOrDefault returns g.BlockSizes as uint32s, or the
// default set if none were configured.
func (g GeneratorConfig) BlockSizesOrDefault() []uint32 {
	if len(g.BlockSizes) == 0 {
		return defaultBlockSizes()
	}
	sizes := make([]uint32, len(g.BlockSizes))
	for i, q := range g.BlockSizes {
		sizes[i] = uint32(q.Bytes)
	}
	return sizes
}

// Validate checks the handful of invariants a malformed config could
// violate before the driver gets far enough to fail confusingly later.
func (c *Config) Validate() error {
	if c.TargetExecutable == "" {
		return fmt.Errorf("config: target_executable is required")
	}
	for i := range c.Generators {
		g := &c.Generators[i]
		if g.Name == "" {
			return fmt.Errorf("config: generators[%d]: name is required", i)
		}
		if g.ParallelConnections <= 0 {
			g.ParallelConnections = 1
		}
		switch g.BlockCacheMethod {
		case "":
			// spec default is "streaming".
			g.BlockCacheMethod = CacheStream
		case CacheFixed, CacheStream:
		default:
			return fmt.Errorf("config: generators[%d]: unknown block_cache_method %q", i, g.BlockCacheMethod)
		}
		if g.MaximumPrebuildCacheSizeBytes.Bytes == 0 {
			return fmt.Errorf("config: generators[%d]: maximum_prebuild_cache_size_bytes must be nonzero", i)
		}
		if g.BytesPerSecond.Bytes == 0 {
			return fmt.Errorf("config: generators[%d]: bytes_per_second: %w", i, cos.ErrZeroQuantity)
		}
	}
	return nil
}
