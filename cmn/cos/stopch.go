// Package cos provides common low-level types and utilities for all aisloadgen packages
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "sync"

// StopCh is the one-shot broadcast signal used throughout the loader: a
// single terminal transition from running to stopped, observed by any
// number of subscribers via Listen().
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func (sc *StopCh) Init() {
	sc.ch = make(chan struct{})
}

// Listen returns the channel that closes exactly once, at shutdown.
// A receive on an already-closed channel returns immediately, so callers
// that check for shutdown after it has already fired do not block.
func (sc *StopCh) Listen() <-chan struct{} {
	return sc.ch
}

// Close fires the terminal transition. Safe to call more than once or from
// multiple goroutines; only the first call has effect.
func (sc *StopCh) Close() {
	sc.once.Do(func() { close(sc.ch) })
}

func (sc *StopCh) IsStopped() bool {
	select {
	case <-sc.ch:
		return true
	default:
		return false
	}
}
