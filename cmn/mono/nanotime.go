//go:build !mono

// Package mono provides low-level monotonic time.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns a monotonic-clock reading in nanoseconds, measured from
// process start. The `mono`
// build tag links directly against runtime.nanotime for a few extra
// nanoseconds of savings on the hot path (see fast_nanotime.go); this is the
// portable default used unless that tag is set.
func NanoTime() int64 {
	return int64(time.Since(start))
}
