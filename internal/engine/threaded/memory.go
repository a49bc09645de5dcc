package threaded

import "encoding/binary"

const (
	// PageSize is one WebAssembly memory page: 64 KiB.
	PageSize = 65536
	// MaxPages bounds memory.grow; 4 GiB address space / page size.
	MaxPages = 65536
)

// Runtime owns the linear memory backing store and is the single
// authoritative back-pointer every MemoryHeader refreshes from after any
// operation that can reallocate memory: Call, CallIndirect, a Loop
// iteration, a raw host call, or memory.grow itself.
type Runtime struct {
	memory *MemoryInstance

	// rootSlots is the single backing array every call frame's SP is sliced
	// from, so nested frames share one contiguous slot stack instead of
	// each allocating its own.
	rootSlots []uint64

	// stack is the base stack-pointer saved/restored around CallRawFunction
	// so a host call may recursively invoke exported engine functions.
	stack SlotStack

	// Yield is the sole cooperative-suspension callback. A non-nil return
	// is propagated as a trap. nil means the Yield handler is a no-op.
	Yield func() error

	config EngineConfig
}

// NewRuntime constructs a Runtime whose linear memory starts at minPages,
// growable up to maxPages, with a slot stack sized by cfg.StackSlotCapacity.
func NewRuntime(minPages, maxPages uint32, cfg EngineConfig) *Runtime {
	rt := &Runtime{config: cfg}
	rt.memory = newMemoryInstance(rt, minPages, maxPages)
	cap := cfg.StackSlotCapacity
	if cap <= 0 {
		cap = defaultStackSlotCapacity
	}
	rt.rootSlots = make([]uint64, cap)
	rt.stack = rt.rootSlots
	return rt
}

// Memory returns the runtime's current memory instance.
func (rt *Runtime) Memory() *MemoryInstance { return rt.memory }

// MemoryHeader precedes the linear-memory bytes. A handler
// holds one of these by pointer; after any sub-call it must refresh via
// the owning Runtime's back-pointer, because memory.grow may reallocate
// the backing buffer.
type MemoryHeader struct {
	Runtime *Runtime
	inst    *MemoryInstance
}

// Refresh re-reads the current *MemoryInstance from the runtime, observing
// a relocation caused by memory.grow during a sub-call.
func (h *MemoryHeader) Refresh() *MemoryHeader {
	return h.Runtime.memory.header
}

// Bytes returns the current linear memory backing slice.
func (h *MemoryHeader) Bytes() []byte { return h.inst.bytes }

// MemoryInstance is the linear memory itself, plus its header.
type MemoryInstance struct {
	runtime  *Runtime
	bytes    []byte
	pages    uint32
	maxPages uint32
	header   *MemoryHeader
}

func newMemoryInstance(rt *Runtime, minPages, maxPages uint32) *MemoryInstance {
	if maxPages == 0 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	m := &MemoryInstance{
		runtime:  rt,
		bytes:    make([]byte, uint64(minPages)*PageSize),
		pages:    minPages,
		maxPages: maxPages,
	}
	m.header = &MemoryHeader{Runtime: rt, inst: m}
	return m
}

// Header returns the MemoryInstance's current header, the value a Frame
// threads through the dispatch ABI as `mem`.
func (m *MemoryInstance) Header() *MemoryHeader { return m.header }

// PageCount returns the current size in pages (memory.size).
func (m *MemoryInstance) PageCount() uint32 { return m.pages }

// Grow implements memory.grow: returns the previous page count, or
// 0xffffffff (-1 as i32) if the growth would exceed maxPages. Growing
// reallocates the backing byte slice and installs a new MemoryHeader,
// which is why every handler must refresh its mem pointer afterward.
func (m *MemoryInstance) Grow(deltaPages uint32) uint32 {
	if deltaPages == 0 {
		return m.pages
	}
	newPages := uint64(m.pages) + uint64(deltaPages)
	if newPages > uint64(m.maxPages) {
		return 0xffffffff
	}
	old := m.pages
	newBytes := make([]byte, newPages*PageSize)
	copy(newBytes, m.bytes)
	m.bytes = newBytes
	m.pages = uint32(newPages)
	// Relocation: a fresh header so stale pointers threaded through handlers
	// are detectably different from rt.memory.header.
	m.header = &MemoryHeader{Runtime: m.runtime, inst: m}
	return old
}

func (m *MemoryInstance) bounds(offset uint64, size uint64) ([]byte, bool) {
	end := offset + size
	if end < offset || end > uint64(len(m.bytes)) {
		return nil, false
	}
	return m.bytes, true
}

// ReadByte, ReadUint16Le, ReadUint32Le, ReadUint64Le implement the
// bounds-checked little-endian loads behind the load opcodes. Offsets are
// 64-bit because the effective address is the sum of two u32 values: it
// must be checked unwrapped, or an address just past the 32-bit space
// would alias back into valid memory.
func (m *MemoryInstance) ReadByte(offset uint64) (byte, bool) {
	b, ok := m.bounds(offset, 1)
	if !ok {
		return 0, false
	}
	return b[offset], true
}

func (m *MemoryInstance) ReadUint16Le(offset uint64) (uint16, bool) {
	b, ok := m.bounds(offset, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[offset:]), true
}

func (m *MemoryInstance) ReadUint32Le(offset uint64) (uint32, bool) {
	b, ok := m.bounds(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[offset:]), true
}

func (m *MemoryInstance) ReadUint64Le(offset uint64) (uint64, bool) {
	b, ok := m.bounds(offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b[offset:]), true
}

func (m *MemoryInstance) WriteByte(offset uint64, v byte) bool {
	b, ok := m.bounds(offset, 1)
	if !ok {
		return false
	}
	b[offset] = v
	return true
}

func (m *MemoryInstance) WriteUint16Le(offset uint64, v uint16) bool {
	b, ok := m.bounds(offset, 2)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint16(b[offset:], v)
	return true
}

func (m *MemoryInstance) WriteUint32Le(offset uint64, v uint32) bool {
	b, ok := m.bounds(offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(b[offset:], v)
	return true
}

func (m *MemoryInstance) WriteUint64Le(offset uint64, v uint64) bool {
	b, ok := m.bounds(offset, 8)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint64(b[offset:], v)
	return true
}

// Copy implements memory.copy: a memmove-equivalent that handles
// overlapping source/destination ranges by picking a copy direction that
// never reads from a position it has already overwritten.
func (m *MemoryInstance) Copy(dst, src, n uint32) bool {
	if _, ok := m.bounds(uint64(dst), uint64(n)); !ok {
		return false
	}
	if _, ok := m.bounds(uint64(src), uint64(n)); !ok {
		return false
	}
	if n == 0 {
		return true
	}
	if dst <= src || dst >= src+n {
		// Non-overlapping, or dst starts at or before src: safe to copy forward.
		copy(m.bytes[dst:dst+n], m.bytes[src:src+n])
	} else {
		// dst overlaps and starts after src: copy backward so bytes read
		// are never ones already clobbered by the write.
		for i := int64(n) - 1; i >= 0; i-- {
			m.bytes[uint32(i)+dst] = m.bytes[uint32(i)+src]
		}
	}
	return true
}

// Fill implements memory.fill: writes the low 8 bits of value to n bytes
// starting at offset.
func (m *MemoryInstance) Fill(offset uint32, value byte, n uint32) bool {
	b, ok := m.bounds(uint64(offset), uint64(n))
	if !ok {
		return false
	}
	region := b[offset : offset+n]
	for i := range region {
		region[i] = value
	}
	return true
}
