// Package pool provides pooled growable byte buffers used to avoid
// per-call allocations on the codec's hot paths: decompressing an entry
// payload of unknown expansion factor, and accumulating a downloaded
// bundle's bytes as they stream in over HTTP.
package pool

import (
	"io"
	"sync"
)

// Default and threshold sizes for the two pools this package maintains.
// EntryBuffer targets a single decompressed bundle entry (HTML/JS/CSS);
// BundleBuffer targets a whole downloaded bundle file, which is larger and
// longer-lived for the duration of a download.
const (
	EntryBufferDefaultSize   = 1024 * 16        // 16KiB
	EntryBufferMaxThreshold  = 1024 * 128       // 128KiB
	BundleBufferDefaultSize  = 1024 * 256       // 256KiB
	BundleBufferMaxThreshold = 1024 * 1024 * 16 // 16MiB
)

// ByteBuffer is a growable byte buffer meant to be reused via a
// ByteBufferPool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite writes data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// SetLength sets the length of the buffer to n. Panics if n is negative or
// greater than the capacity.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 || n > cap(bb.B) {
		panic("pool: SetLength: invalid length")
	}
	bb.B = bb.B[:n]
}

// Grow ensures the buffer can hold requiredBytes more bytes without
// reallocating.
//
// The growth strategy is as follows:
//   - For small buffers (capacity up to 4*EntryBufferDefaultSize, i.e. 64KiB), grow by EntryBufferDefaultSize to minimize reallocations.
//   - For larger buffers, grow by 25% of current capacity to balance memory usage and reallocation cost.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := EntryBufferDefaultSize
	if cap(bb.B) > 4*EntryBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)

	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)

	return int64(n), err
}

// ByteBufferPool is a sync.Pool of ByteBuffers with an optional maximum
// capacity threshold, beyond which a returned buffer is discarded instead
// of retained (avoids letting one oversized entry/bundle bloat the pool).
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)

	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	entryPool  = NewByteBufferPool(EntryBufferDefaultSize, EntryBufferMaxThreshold)
	bundlePool = NewByteBufferPool(BundleBufferDefaultSize, BundleBufferMaxThreshold)
)

// GetEntryBuffer retrieves a ByteBuffer from the default entry-sized pool,
// used by compress.DecompressEntry's adaptive-growth loop.
func GetEntryBuffer() *ByteBuffer { return entryPool.Get() }

// PutEntryBuffer returns a ByteBuffer to the default entry-sized pool.
func PutEntryBuffer(bb *ByteBuffer) { entryPool.Put(bb) }

// GetBundleBuffer retrieves a ByteBuffer from the default bundle-sized
// pool, used by remote.Client to accumulate a streamed download.
func GetBundleBuffer() *ByteBuffer { return bundlePool.Get() }

// PutBundleBuffer returns a ByteBuffer to the default bundle-sized pool.
func PutBundleBuffer(bb *ByteBuffer) { bundlePool.Put(bb) }
