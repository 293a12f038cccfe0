package store

import (
	"context"
	"sort"
	"sync"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

// Memory is an in-process signal store. Contents are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]monitor.Signal
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]monitor.Signal)}
}

func (m *Memory) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[id]
	return ok, nil
}

func (m *Memory) Put(_ context.Context, sig monitor.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sig.ID] = sig
	return nil
}

// Get returns the stored document for id.
func (m *Memory) Get(id string) (monitor.Signal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sig, ok := m.data[id]
	return sig, ok
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Recent(_ context.Context, limit int) ([]monitor.Signal, error) {
	m.mu.RLock()
	out := make([]monitor.Signal, 0, len(m.data))
	for _, sig := range m.data {
		out = append(out, sig)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close()                     {}
