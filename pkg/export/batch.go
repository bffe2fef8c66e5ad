package export

import (
	"sync"
	"time"
)

// Buffer accumulates score rows between flushes
type Buffer struct {
	mu        sync.Mutex
	rows      []ScoreRow
	capacity  int
	lastFlush time.Time
}

// NewBuffer creates a new Buffer instance
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		rows:      make([]ScoreRow, 0, capacity),
		capacity:  capacity,
		lastFlush: time.Now(),
	}
}

// Add adds a row to the buffer. Returns true when the buffer is full and
// should be flushed.
func (b *Buffer) Add(row ScoreRow) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rows = append(b.rows, row)
	return len(b.rows) >= b.capacity
}

// Flush returns the current batch and clears the buffer
func (b *Buffer) Flush() []ScoreRow {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.rows
	b.rows = make([]ScoreRow, 0, b.capacity)
	b.lastFlush = time.Now()
	return batch
}

// Size returns the current number of buffered rows
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows)
}

// ShouldFlush reports whether the interval has elapsed with rows pending
func (b *Buffer) ShouldFlush(interval time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows) > 0 && time.Since(b.lastFlush) >= interval
}
