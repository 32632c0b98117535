package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/npri-watch/npri-api/internal/constants"
)

// Memory is a process-local LRU. Entries expire after the TTL given to
// NewMemory; the ttl passed to Set is ignored.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory returns an LRU holding at most size entries.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.lru.Add(key, val)
	return nil
}

func (m *Memory) Name() string { return constants.CacheDriverMemory }

// Len reports the number of live entries.
func (m *Memory) Len() int { return m.lru.Len() }

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
