// Package logtail keeps a rolling window of the server's log output.
package logtail

import "sync"

// DefaultSize is the number of lines kept when no size is configured.
const DefaultSize = 70

// Buffer is a fixed-size ring of log lines. The oldest line is dropped once
// it is full. It is safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	lines   []string
	head    int
	count   int
	version uint64
}

// NewBuffer creates a buffer holding up to size lines.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{lines: make([]string, size)}
}

// Push appends a line, evicting the oldest if the buffer is full.
func (b *Buffer) Push(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.lines)
	b.lines[b.head] = line
	b.head = (b.head + 1) % size
	if b.count < size {
		b.count++
	}
	b.version++
}

// Last returns up to n of the newest lines, oldest first.
func (b *Buffer) Last(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	size := len(b.lines)
	// head is the next write slot, so the newest line sits at head-1.
	start := (b.head - n + size) % size

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = b.lines[(start+i)%size]
	}
	return out
}

// Lines returns every buffered line, oldest first.
func (b *Buffer) Lines() []string {
	return b.Last(b.Cap())
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the maximum number of lines kept.
func (b *Buffer) Cap() int {
	return len(b.lines)
}

// Version increases on every Push. Readers compare it to skip redraws.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}
