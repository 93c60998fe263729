package repository

import (
	"context"
	"sync/atomic"
	"time"

	"studiobook/internal/domain"
	"studiobook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSlotCache serves from the primary cache and degrades to the
// fallback when the primary errors, probing for recovery once a minute.
type FailoverSlotCache struct {
	primary   domain.SlotCache
	fallback  domain.SlotCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSlotCache(primary, fallback domain.SlotCache, logger *zerolog.Logger) *FailoverSlotCache {
	return &FailoverSlotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSlotCache) GetSlots(ctx context.Context, date time.Time) ([]models.Slot, error) {
	if !r.isDown.Load() {
		slots, err := r.primary.GetSlots(ctx, date)
		if err == nil {
			return slots, nil
		}
		r.markDown(err)
	}

	if r.shouldProbe() {
		slots, err := r.primary.GetSlots(ctx, date)
		if err == nil {
			r.isDown.Store(false)
			return slots, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSlots(ctx, date)
}

func (r *FailoverSlotCache) SetSlots(ctx context.Context, date time.Time, slots []models.Slot) error {
	if !r.isDown.Load() {
		err := r.primary.SetSlots(ctx, date, slots)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSlots(ctx, date, slots)
}

func (r *FailoverSlotCache) InvalidateDate(ctx context.Context, date time.Time) error {
	// Both layers are invalidated; a stale fallback would resurrect
	// freed slots after a failover.
	var primaryErr error
	if !r.isDown.Load() {
		if primaryErr = r.primary.InvalidateDate(ctx, date); primaryErr != nil {
			r.markDown(primaryErr)
		}
	}
	return r.fallback.InvalidateDate(ctx, date)
}

func (r *FailoverSlotCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary slot cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSlotCache) shouldProbe() bool {
	return r.isDown.Load() && time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}
