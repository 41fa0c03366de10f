package storage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Memory keeps files in process memory.
type Memory struct {
	mu     sync.RWMutex
	files  map[string]File
	logger *zap.Logger
}

func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{files: make(map[string]File), logger: logger}
}

func (m *Memory) Put(_ context.Context, file File) (string, error) {
	id := NewID(file.Name)

	data := make([]byte, len(file.Data))
	copy(data, file.Data)
	file.Data = data

	m.mu.Lock()
	m.files[id] = file
	m.mu.Unlock()

	m.logger.Debug("stored file", zap.String("file_id", id), zap.String("filename", file.Name), zap.Int("size", len(data)))
	return id, nil
}

func (m *Memory) Get(_ context.Context, id string) (*File, error) {
	m.mu.RLock()
	file, ok := m.files[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	data := make([]byte, len(file.Data))
	copy(data, file.Data)
	file.Data = data
	return &file, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.files[id]
	delete(m.files, id)
	m.mu.Unlock()

	if ok {
		m.logger.Debug("deleted file", zap.String("file_id", id))
	}
	return nil
}

// Purge drops every stored file.
func (m *Memory) Purge(_ context.Context) error {
	m.mu.Lock()
	n := len(m.files)
	m.files = make(map[string]File)
	m.mu.Unlock()

	m.logger.Info("cleared stored files", zap.Int("count", n))
	return nil
}

// Len reports how many files are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
