// common/redis/memory.go
package redis

import (
	"context"
	"sync"
	"time"
)

// memoryKV — потокобезопасная in-memory реализация KV для тестов и
// локальной разработки. CAS выполняется под тем же мьютексом, что и
// остальные операции, поэтому семантика совпадает с Lua-скриптом.
type memoryKV struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

// NewMemory создаёт пустой in-memory KV.
func NewMemory() KV {
	return &memoryKV{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (m *memoryKV) expiredLocked(key string) bool {
	exp, ok := m.expires[key]
	if !ok {
		return true
	}
	if time.Now().After(exp) {
		delete(m.values, key)
		delete(m.expires, key)
		return true
	}
	return false
}

func (m *memoryKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.expires[key] = time.Now().Add(ttl)
	return nil
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expiredLocked(key) {
		return "", ErrNotFound
	}
	return m.values[key], nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.expires, key)
	return nil
}

func (m *memoryKV) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expiredLocked(key) {
		return false, nil
	}
	if m.values[key] != oldValue {
		return false, nil
	}
	m.values[key] = newValue
	m.expires[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *memoryKV) Ping(ctx context.Context) error { return ctx.Err() }

func (m *memoryKV) Close() error { return nil }
