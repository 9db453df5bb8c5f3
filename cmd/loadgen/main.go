// Command loadgen is the process driver: it loads a YAML
// config, spawns the target subprocess, builds each generator's Block
// Cache, fans out N connections per generator, and runs the Send Loop on
// each until a signal or the target's own exit triggers the shutdown
// broadcast.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NVIDIA/aisloadgen/block"
	"github.com/NVIDIA/aisloadgen/cache"
	"github.com/NVIDIA/aisloadgen/cmn/cos"
	"github.com/NVIDIA/aisloadgen/cmn/nlog"
	"github.com/NVIDIA/aisloadgen/config"
	"github.com/NVIDIA/aisloadgen/genmetrics"
	"github.com/NVIDIA/aisloadgen/payload"
	"github.com/NVIDIA/aisloadgen/peek"
	"github.com/NVIDIA/aisloadgen/sendloop"
	"github.com/NVIDIA/aisloadgen/throttle"
	"github.com/NVIDIA/aisloadgen/wire"
)

func main() {
	configPath := flag.String("config", "", "path to generator config YAML")
	flag.Parse()

	if *configPath == "" {
		cos.Exitf("missing required -config flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		cos.ExitLogf("%v", err)
	}

	if err := run(cfg); err != nil {
		cos.ExitLogf("%v", err)
	}
}

func run(cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	metrics := genmetrics.New(reg)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				nlog.Warningf("metrics server exited: %v", err)
			}
		}()
	}

	shutdown := &cos.StopCh{}
	shutdown.Init()

	target, err := startTarget(cfg)
	if err != nil {
		return fmt.Errorf("loadgen: start target: %w", err)
	}

	go watchTarget(target, shutdown)
	go watchSignals(shutdown)

	errs := &cos.Errs{}
	var wg sync.WaitGroup
	ctx := context.Background()
	// Startup barrier: children wait on start, which is closed only once
	// every child of every generator has been spawned.
	start := make(chan struct{})

	for _, g := range cfg.Generators {
		g := g
		for i := 0; i < g.ParallelConnections; i++ {
			id := fmt.Sprintf("%s-%d", g.Name, i)
			src, err := buildSource(g, shutdown)
			if err != nil {
				errs.Add(fmt.Errorf("generator %s: %w", g.Name, err))
				continue
			}
			th, err := throttle.New(throttle.Config{
				BytesPerSecond: uint32(g.BytesPerSecond.Bytes),
				Burst:          g.Throttle.Burst,
			})
			if err != nil {
				errs.Add(fmt.Errorf("generator %s: %w", g.Name, err))
				continue
			}
			tr, err := buildTransport(g)
			if err != nil {
				errs.Add(fmt.Errorf("generator %s: %w", g.Name, err))
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				lbl := genmetrics.Labels{Component: "generator", ComponentName: g.Variant, ID: id}
				if err := sendloop.Loop(ctx, sendloop.Config{
					Source:    src,
					Throttle:  th,
					Transport: tr,
					Shutdown:  shutdown,
					Metrics:   metrics,
					Labels:    lbl,
				}); err != nil {
					errs.Add(fmt.Errorf("generator %s child %s: %w", g.Name, id, err))
				}
			}()
		}
	}

	close(start)
	wg.Wait()
	if target != nil {
		_ = target.Process.Kill()
		_ = target.Wait()
	}

	if cnt, joined := errs.JoinErr(); cnt > 0 {
		nlog.Errorf("loadgen: %d generator error(s)", cnt)
		return joined
	}
	return nil
}

// buildSource constructs one child's BlockSource: cache.Fixed's
// cyclic cursor adapted directly (fixedSource), or cache.Stream's channel
// wrapped in a peek.Receiver (streamSource) — both satisfy
// sendloop.BlockSource's peek/advance shape.
func buildSource(g config.GeneratorConfig, shutdown *cos.StopCh) (sendloop.BlockSource, error) {
	ser := payloadFor(g.Variant)
	cacheCfg := cache.Config{
		Seed:      g.Seed,
		Sizes:     g.BlockSizesOrDefault(),
		Payload:   ser,
		TotalSize: uint32(g.MaximumPrebuildCacheSizeBytes.Bytes),
	}

	switch g.BlockCacheMethod {
	case config.CacheStream:
		s := cache.NewStream(cacheCfg)
		go func() {
			<-shutdown.Listen()
			s.Stop()
		}()
		return streamSource{r: peek.New[block.Block](s.Blocks())}, nil
	default:
		f, err := cache.NewFixed(cacheCfg)
		if err != nil {
			return nil, err
		}
		return fixedSource{f: f}, nil
	}
}

// fixedSource adapts cache.Fixed's cyclic cursor to sendloop.BlockSource.
// Peek/Advance never block, so ctx is ignored.
type fixedSource struct {
	f *cache.Fixed
}

func (s fixedSource) Peek(context.Context) (block.Block, error)    { return s.f.Peek(), nil }
func (s fixedSource) Advance(context.Context) (block.Block, error) { return s.f.Advance(), nil }

// streamSource adapts a cache.Stream's channel, via a peek.Receiver, to
// sendloop.BlockSource.
type streamSource struct {
	r *peek.Receiver[block.Block]
}

func (s streamSource) Peek(ctx context.Context) (block.Block, error)    { return s.r.Peek(ctx) }
func (s streamSource) Advance(ctx context.Context) (block.Block, error) { return s.r.Next(ctx) }

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

func buildTransport(g config.GeneratorConfig) (sendloop.Transport, error) {
	switch g.Transport {
	case "tcp":
		return &wire.TCP{Addr: g.TargetAddr}, nil
	case "udsdgram":
		return &wire.UnixDatagram{Addr: g.TargetAddr}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", g.Transport)
	}
}

func startTarget(cfg *config.Config) (*exec.Cmd, error) {
	cmd := exec.Command(cfg.TargetExecutable, cfg.TargetArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func watchTarget(cmd *exec.Cmd, shutdown *cos.StopCh) {
	_ = cmd.Wait()
	nlog.Infof("loadgen: target process exited")
	shutdown.Close()
}

func watchSignals(shutdown *cos.StopCh) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	nlog.Infof("loadgen: signal received, shutting down")
	shutdown.Close()
}
