package models

import (
	"fmt"
	"time"
)

// evictOverBudget removes LRU handles until a new load fits under the
// concurrent-model budget. Ties on last-used break toward the smaller use
// count. Handles with live borrows are never evicted; if every handle is
// borrowed the load fails rather than waits.
func (m *Manager) evictOverBudget() error {
	for {
		m.mu.Lock()
		if len(m.handles) < m.maxModels {
			m.mu.Unlock()
			return nil
		}
		var lru *Handle
		for _, h := range m.handles {
			if h.borrows > 0 {
				continue
			}
			if lru == nil || h.LastUsed.Before(lru.LastUsed) ||
				(h.LastUsed.Equal(lru.LastUsed) && h.UseCount < lru.UseCount) {
				lru = h
			}
		}
		if lru == nil {
			m.mu.Unlock()
			return fmt.Errorf("model budget full (%d) and every handle is in use", m.maxModels)
		}
		key := lru.Pair.Key()
		m.lruMeta[key] = lruRecord{LastUsedUnix: lru.LastUsed.Unix(), SizeMB: lru.SizeMB}
		m.releaseHandleLocked(lru)
		delete(m.handles, key)
		m.evictions++
		m.mu.Unlock()
		m.log.Info().Str("pair", key).Msg("model evicted")
	}
}

// Touch refreshes a handle's recency without borrowing it.
func (m *Manager) Touch(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handles[key]; ok {
		h.LastUsed = time.Now()
	}
}
