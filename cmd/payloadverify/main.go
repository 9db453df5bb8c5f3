// Command payloadverify is the payload-verification utility: it loads a
// generator config, builds each generator's Fixed Block Cache (Stream
// caches are process-lifetime and not "verifiable" by construction — they
// are skipped with a note), sums the bytes each cache actually holds, and
// reports whether that total falls within the expected budget window:
// `total_bytes_budget − max(block_sizes) ≤ sum ≤ total_bytes_budget`.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/NVIDIA/aisloadgen/cache"
	"github.com/NVIDIA/aisloadgen/config"
	"github.com/NVIDIA/aisloadgen/payload"
)

func main() {
	configPath := flag.String("config", "", "path to generator config YAML")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "payloadverify: missing required -config flag")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "payloadverify: %v\n", err)
		os.Exit(2)
	}

	ok := true
	for _, g := range cfg.Generators {
		if g.BlockCacheMethod == config.CacheStream {
			fmt.Printf("%-24s SKIPPED (streaming caches are not verifiable)\n", g.Name)
			continue
		}

		ser := payloadFor(g.Variant)
		sizes := g.BlockSizesOrDefault()
		f, err := cache.NewFixed(cache.Config{
			Seed:      g.Seed,
			Sizes:     sizes,
			Payload:   ser,
			TotalSize: uint32(g.MaximumPrebuildCacheSizeBytes.Bytes),
		})
		if err != nil {
			fmt.Printf("%-24s FAIL: %v\n", g.Name, err)
			ok = false
			continue
		}

		var total uint64
		for i := 0; i < f.Len(); i++ {
			total += uint64(f.Advance().TotalBytes())
		}
		var maxSize uint32
		for _, s := range sizes {
			if s > maxSize {
				maxSize = s
			}
		}

		budget := uint64(g.MaximumPrebuildCacheSizeBytes.Bytes)
		lowerBound := uint64(0)
		if budget > uint64(maxSize) {
			lowerBound = budget - uint64(maxSize)
		}

		if total > budget || total < lowerBound {
			fmt.Printf("%-24s FAIL: %d bytes across %d blocks outside [%d, %d]\n", g.Name, total, f.Len(), lowerBound, budget)
			ok = false
			continue
		}
		fmt.Printf("%-24s OK: %d bytes across %d blocks (budget %d)\n", g.Name, total, f.Len(), budget)
	}

	if !ok {
		os.Exit(1)
	}
}

func payloadFor(variant string) payload.Serializer {
	switch variant {
	case "dogstatsd":
		return payload.DogStatsD{}
	case "trace_span":
		return payload.TraceSpan{}
	default:
		return payload.ConstFill{Byte: 'A'}
	}
}
