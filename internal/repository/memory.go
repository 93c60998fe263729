package repository

import (
	"context"
	"sync"
	"time"

	"studiobook/internal/models"
)

// MemorySlotCache is the in-process fallback used when Redis is disabled
// or unreachable.
type MemorySlotCache struct {
	entries sync.Map
	ttl     time.Duration
}

type slotEntry struct {
	slots     []models.Slot
	expiresAt time.Time
}

func NewMemorySlotCache(ttl time.Duration) *MemorySlotCache {
	return &MemorySlotCache{
		ttl: ttl,
	}
}

func (r *MemorySlotCache) GetSlots(ctx context.Context, date time.Time) ([]models.Slot, error) {
	val, ok := r.entries.Load(slotKey(date))
	if !ok {
		return nil, nil
	}
	entry := val.(slotEntry)
	if time.Now().After(entry.expiresAt) {
		r.entries.Delete(slotKey(date))
		return nil, nil
	}
	return entry.slots, nil
}

func (r *MemorySlotCache) SetSlots(ctx context.Context, date time.Time, slots []models.Slot) error {
	if slots == nil {
		slots = []models.Slot{}
	}
	r.entries.Store(slotKey(date), slotEntry{
		slots:     slots,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySlotCache) InvalidateDate(ctx context.Context, date time.Time) error {
	r.entries.Delete(slotKey(date))
	return nil
}
