// Package cos provides common low-level types and utilities for all aisloadgen packages
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"crypto/rand"
	"fmt"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenShortID returns a short, lowercase alphanumeric identifier suitable for
// labeling a generator child or blackhole connection in logs and metrics.
func GenShortID(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is fatal-grade; fall back to a fixed marker
		// rather than panicking mid-loop.
		return fmt.Sprintf("id-err-%d", n)
	}
	out := make([]byte, n)
	for i, v := range b {
		out[i] = idAlphabet[int(v)%len(idAlphabet)]
	}
	return string(out)
}
