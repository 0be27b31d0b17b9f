// Package audio holds the small amount of audio handling the relay does on
// its ingest path: PCM16 frame decoding, energy-based voice activity
// detection, and a ring buffer that absorbs frames while the STT connection
// is being re-established.
package audio

import "sync"

// RingBuffer is a thread-safe byte ring buffer. Writes past capacity are
// truncated; the caller decides whether dropped audio matters.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []byte
	head  int // index of the oldest byte
	count int // bytes currently stored
}

// NewRingBuffer creates a ring buffer holding up to size bytes.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{buf: make([]byte, size)}
}

// Write appends data, returning the number of bytes stored. When the buffer
// fills, the remainder of data is discarded.
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for _, b := range data {
		if rb.count == len(rb.buf) {
			break
		}
		rb.buf[(rb.head+rb.count)%len(rb.buf)] = b
		rb.count++
		written++
	}
	return written
}

// Read copies up to len(data) bytes into data and returns the count.
func (rb *RingBuffer) Read(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for read < len(data) && rb.count > 0 {
		data[read] = rb.buf[rb.head]
		rb.head = (rb.head + 1) % len(rb.buf)
		rb.count--
		read++
	}
	return read
}

// Drain returns and removes everything currently buffered.
func (rb *RingBuffer) Drain() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]byte, rb.count)
	for i := 0; i < len(out); i++ {
		out[i] = rb.buf[rb.head]
		rb.head = (rb.head + 1) % len(rb.buf)
	}
	rb.count = 0
	return out
}

// Available returns the number of bytes available to read.
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Space returns the number of bytes that can be written without truncation.
func (rb *RingBuffer) Space() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buf) - rb.count
}

// Clear discards all buffered data.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.count = 0
}

// IsEmpty reports whether the buffer holds no data.
func (rb *RingBuffer) IsEmpty() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count == 0
}
