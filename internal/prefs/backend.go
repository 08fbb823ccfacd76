package prefs

import "sync"

// Backend abstracts the key/value store that persists preferences.
// The daemon uses a flat JSON file; tests use MemoryBackend.
type Backend interface {
	GetString(key string) (val string, ok bool, err error)
	SetString(key, val string) error
	GetBool(key string) (val bool, ok bool, err error)
	SetBool(key string, val bool) error
}

// MemoryBackend is an in-memory Backend used by tests and by callers
// that want a bridge with no durable storage.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]any
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]any)}
}

func (b *MemoryBackend) GetString(key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (b *MemoryBackend) SetString(key, val string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = val
	return nil
}

func (b *MemoryBackend) GetBool(key string) (bool, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return false, false, nil
	}
	bv, ok := v.(bool)
	return bv, ok, nil
}

func (b *MemoryBackend) SetBool(key string, val bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = val
	return nil
}
