// Package store reads and writes the whole dashboard document against a
// single-blob backend, with a short-lived read cache in front of it.
package store

import (
	"context"
	"sync"
)

// Blob is a single named document slot in some backend.
type Blob interface {
	// Read returns the current content. A non-2xx answer is a *StatusError.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the content.
	Write(ctx context.Context, data []byte) error
	// Name identifies the backend in logs and errors.
	Name() string
}

// MemoryBlob keeps the document in memory and counts backend calls. It backs
// tests and dry runs.
type MemoryBlob struct {
	mu     sync.Mutex
	data   []byte
	reads  int
	writes int

	// ReadErr and WriteErr, when set, are returned instead of touching data.
	ReadErr  error
	WriteErr error
}

// NewMemoryBlob returns a MemoryBlob holding a copy of data.
func NewMemoryBlob(data []byte) *MemoryBlob {
	return &MemoryBlob{data: append([]byte(nil), data...)}
}

func (m *MemoryBlob) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.data == nil {
		return nil, &StatusError{Op: "read", Backend: m.Name(), StatusCode: 404, Body: "empty"}
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBlob) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBlob) Name() string { return "memory" }

// Data returns a copy of the stored content.
func (m *MemoryBlob) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Reads returns how many times Read was called.
func (m *MemoryBlob) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns how many times Write was called.
func (m *MemoryBlob) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SetErrors sets the read and write failures under the lock.
func (m *MemoryBlob) SetErrors(readErr, writeErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadErr = readErr
	m.WriteErr = writeErr
}
