package threaded

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/threadcore/wazerotc/internal/features"
)

func TestOffsetTargetsPlainRoundTrip(t *testing.T) {
	targets := []int{10, 11, 12, 99}
	ot := NewOffsetTargets(targets)
	require.Equal(t, len(targets), ot.Len())
	for i, want := range targets {
		require.Equal(t, want, ot.At(i))
	}
}

func TestPackedTargetsRoundTrip(t *testing.T) {
	tests := [][]int{
		{0},
		{7, 7, 7},
		{10, 11, 12, 99},
		{1000, 4, 512, 1023, 4, 4},
		{1 << 20, 1<<20 + 1},
	}
	for _, targets := range tests {
		p := packTargets(targets)
		require.Equal(t, len(targets), p.count)
		for i, want := range targets {
			require.Equal(t, want, p.at(i))
		}
	}
}

func TestPackedTargetsStraddleWordBoundary(t *testing.T) {
	// 16 five-bit deltas: entry 12 occupies bits 60-64 and crosses the
	// first uint64.
	targets := make([]int, 16)
	for i := range targets {
		targets[i] = 100 + (i*7)%32
	}
	p := packTargets(targets)
	require.Equal(t, uint(5), p.width)
	for i, want := range targets {
		require.Equal(t, want, p.at(i))
	}
}

func TestOffsetTargetsCompressedViaFeatureFlag(t *testing.T) {
	features.Enable("branchtable_offset_compression")
	ot := NewOffsetTargets([]int{3, 1, 4, 1, 5, 9, 2, 6})
	require.NotNil(t, ot.compressed)
	require.Equal(t, 8, ot.Len())
	for i, want := range []int{3, 1, 4, 1, 5, 9, 2, 6} {
		require.Equal(t, want, ot.At(i))
	}
}
