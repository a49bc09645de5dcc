package threaded

import (
	"math/bits"

	"github.com/threadcore/wazerotc/internal/features"
)

// OffsetTargets holds a BranchTable's target list: num-targets direct
// targets plus the default target appended last.
//
// When the "branchtable_offset_compression" feature is enabled
// (WAZEROTC_FEATURES=branchtable_offset_compression), targets are stored
// frame-of-reference encoded rather than as a flat []int. Branch tables
// compiled from a switch cluster inside one function body, so every entry
// fits in a small unsigned delta from the lowest target; packing those
// deltas at the minimal fixed bit width shrinks a wide table by an order
// of magnitude. Otherwise a plain slice is used, avoiding the decode cost
// on every dispatch.
type OffsetTargets struct {
	plain      []int
	compressed *packedTargets
}

// NewOffsetTargets builds an OffsetTargets from num-targets direct targets
// followed by the default target, selecting a representation per the
// branchtable_offset_compression feature flag.
func NewOffsetTargets(targets []int) OffsetTargets {
	if features.Have("branchtable_offset_compression") && len(targets) > 0 {
		return OffsetTargets{compressed: packTargets(targets)}
	}
	cp := make([]int, len(targets))
	copy(cp, targets)
	return OffsetTargets{plain: cp}
}

// Len returns the number of direct targets plus the trailing default.
func (t OffsetTargets) Len() int {
	if t.compressed != nil {
		return t.compressed.count
	}
	return len(t.plain)
}

// At returns the target at index i (the default sits at Len()-1).
func (t OffsetTargets) At(i int) int {
	if t.compressed != nil {
		return t.compressed.at(i)
	}
	return t.plain[i]
}

// packedTargets is the compressed form. Code-stream addresses are
// non-negative, so each target is stored as an unsigned delta from the
// smallest one, packed back to back at the minimal fixed bit width that
// holds the largest delta.
type packedTargets struct {
	base  int
	width uint
	count int
	words []uint64
}

func packTargets(targets []int) *packedTargets {
	base, max := targets[0], targets[0]
	for _, t := range targets[1:] {
		if t < base {
			base = t
		}
		if t > max {
			max = t
		}
	}
	width := uint(bits.Len64(uint64(max - base)))
	if width == 0 {
		width = 1
	}
	p := &packedTargets{
		base:  base,
		width: width,
		count: len(targets),
		words: make([]uint64, (uint(len(targets))*width+63)/64),
	}
	for i, t := range targets {
		p.put(i, uint64(t-base))
	}
	return p
}

func (p *packedTargets) put(i int, delta uint64) {
	bit := uint(i) * p.width
	p.words[bit/64] |= delta << (bit % 64)
	if rem := 64 - bit%64; rem < p.width {
		// The delta straddles a word boundary; its high bits spill into
		// the next word.
		p.words[bit/64+1] |= delta >> rem
	}
}

func (p *packedTargets) at(i int) int {
	bit := uint(i) * p.width
	delta := p.words[bit/64] >> (bit % 64)
	if rem := 64 - bit%64; rem < p.width {
		delta |= p.words[bit/64+1] << rem
	}
	mask := ^uint64(0) >> (64 - p.width)
	return p.base + int(delta&mask)
}
