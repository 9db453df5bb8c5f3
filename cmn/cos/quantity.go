// Package cos provides common low-level types and utilities for all aisloadgen packages
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB

	KB = 1000
	MB = 1000 * KB
	GB = 1000 * MB
)

// suffix table, longest-prefix-first so "Gib" doesn't get shadowed by "b"
var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"GiB", GiB}, {"GB", GB}, {"Gb", GB / 8},
	{"MiB", MiB}, {"MB", MB}, {"Mb", MB / 8},
	{"KiB", KiB}, {"KB", KB}, {"Kb", KB / 8},
	{"B", 1}, {"b", 1},
}

// ParseSize converts a human quantity ("100 MB", "64KiB", "512") into bytes
// by matching the suffix table above; a bare number is taken as bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrQuantityUsage
	}
	for _, e := range sizeSuffixes {
		if strings.HasSuffix(s, e.suffix) {
			numPart := strings.TrimSpace(strings.TrimSuffix(s, e.suffix))
			if numPart == "" {
				return 0, ErrQuantityUsage
			}
			f, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %s", ErrQuantityUsage, s)
			}
			return int64(f * float64(e.mult)), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrQuantityUsage, s)
	}
	return n, nil
}

// ToSizeIEC renders bytes using IEC (1024-based) suffixes, for printing
// stats and config round-trips.
func ToSizeIEC(b int64) string {
	switch {
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/GiB)
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/MiB)
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/KiB)
	default:
		return fmt.Sprintf("%dB", b)
	}
}
