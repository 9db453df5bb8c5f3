package payload

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
)

// DogStatsD generates a document of newline-delimited DogStatsD metric
// lines (`name:value|type|#tag:val,...`).
type DogStatsD struct {
	// MinNameLen/MaxNameLen bound generated metric name length; defaults to
	// [4,24].
	MinNameLen, MaxNameLen int
	// MinTags/MaxTags bound the number of tags appended to each line;
	// defaults to [0,8], kept small enough to exercise tight byte budgets.
	MinTags, MaxTags int
}

var dsdKinds = []string{"c", "g", "h", "ms"}

const alphaNum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randToken(rnd *rand.Rand, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphaNum[rnd.Intn(len(alphaNum))])
	}
	return sb.String()
}

func (d DogStatsD) nameLenRange() (int, int) {
	if d.MaxNameLen > 0 {
		return d.MinNameLen, d.MaxNameLen
	}
	return 4, 24
}

func (d DogStatsD) tagRange() (int, int) {
	if d.MaxTags > 0 {
		return d.MinTags, d.MaxTags
	}
	return 0, 8
}

func (d DogStatsD) line(rnd *rand.Rand) string {
	minL, maxL := d.nameLenRange()
	nameLen := minL + rnd.Intn(maxL-minL+1)
	name := randToken(rnd, nameLen)
	value := rnd.Intn(1 << 20)
	kind := dsdKinds[rnd.Intn(len(dsdKinds))]

	minT, maxT := d.tagRange()
	numTags := minT + rnd.Intn(maxT-minT+1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%d|%s", name, value, kind)
	if numTags > 0 {
		sb.WriteString("|#")
		for i := 0; i < numTags; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%s:%s", randToken(rnd, 6), randToken(rnd, 8))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Serialize appends as many complete DogStatsD lines as fit within
// maxBytes. It never emits a partial line: once the next candidate line
// would overflow the budget, serialization stops.
func (d DogStatsD) Serialize(rnd *rand.Rand, maxBytes int, w io.Writer) (int, error) {
	cw := &countingWriter{w: w}
	for {
		line := d.line(rnd)
		if cw.n+len(line) > maxBytes {
			return cw.n, nil
		}
		if _, err := io.WriteString(cw, line); err != nil {
			return cw.n, err
		}
	}
}
