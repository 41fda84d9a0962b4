package models

import (
	"encoding/json"
	"os"

	"mtd/internal/common/fsutil"
)

type lruRecord struct {
	LastUsedUnix int64 `json:"last_used_unix"`
	SizeMB       int   `json:"size_mb"`
}

func (m *Manager) loadLRUMetadata() {
	m.lruMeta = make(map[string]lruRecord)
	if m.lruPath == "" {
		return
	}
	f, err := os.Open(m.lruPath)
	if err != nil {
		return
	}
	defer f.Close()
	var data map[string]lruRecord
	if err := json.NewDecoder(f).Decode(&data); err == nil && data != nil {
		m.lruMeta = data
	}
}

func (m *Manager) saveLRUMetadata() {
	if m.lruPath == "" {
		return
	}
	m.mu.RLock()
	snap := make(map[string]lruRecord, len(m.handles)+len(m.lruMeta))
	for k, v := range m.lruMeta {
		snap[k] = v
	}
	for key, h := range m.handles {
		snap[key] = lruRecord{LastUsedUnix: h.LastUsed.Unix(), SizeMB: h.SizeMB}
	}
	m.mu.RUnlock()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	_ = fsutil.WriteFileAtomic(m.lruPath, b, 0o644)
}
