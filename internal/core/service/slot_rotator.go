package service

import (
	"context"
	"sync"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

// SlotRotator is the in-process slot sequence. State is lost on restart;
// use the Redis sequence when slots must survive restarts or be shared
// between instances.
type SlotRotator struct {
	mu      sync.Mutex
	current domain.Slot
}

func NewSlotRotator() *SlotRotator {
	return &SlotRotator{current: domain.InitialSlot}
}

func (r *SlotRotator) NextSlot(ctx context.Context) (domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.current
	if !slot.Valid() {
		slot = domain.InitialSlot
	}
	r.current = slot.Next()

	return slot, nil
}
