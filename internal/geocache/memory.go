package geocache

import (
	"context"
	"sync"

	"github.com/sells-group/agency-map/internal/model"
)

// MemoryBackend keeps resolutions for the life of the process.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]model.Resolution
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]model.Resolution)}
}

func (m *MemoryBackend) Lookup(_ context.Context, query string) (model.Resolution, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.entries[query]
	return res, ok, nil
}

func (m *MemoryBackend) Store(_ context.Context, query string, res model.Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[query] = res
	return nil
}

func (m *MemoryBackend) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{Backend: "memory", Entries: len(m.entries)}
	for _, res := range m.entries {
		if res.IsFound() {
			st.Found++
		}
	}
	st.NotFound = st.Entries - st.Found
	if st.Entries > 0 {
		st.Runs = 1
	}
	return st, nil
}

func (m *MemoryBackend) Close() error { return nil }
