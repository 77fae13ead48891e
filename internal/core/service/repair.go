package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

// Repair brings one journaled grant to its reconciled state. An entry
// without a label crashed or lost its connection between allocation and
// registration; the warehouse decides whether that registration happened.
func (s *GrantService) Repair(ctx context.Context, task domain.RepairTask) error {
	ctx, span := tracer.Start(ctx, "GrantService.Repair")
	defer span.End()

	entry, err := s.journal.Get(ctx, task.EntryID)
	if err != nil {
		return fmt.Errorf("load journal entry %s: %w", task.EntryID, err)
	}
	if entry.Status == domain.JournalReconciled || entry.Status == domain.JournalFailed {
		return nil
	}

	labelID := entry.LabelID
	if labelID == 0 {
		found, ok, err := s.warehouse.LookupLabel(ctx, entry.GoodsID)
		if err != nil {
			return fmt.Errorf("lookup label of goods %d: %w", entry.GoodsID, err)
		}
		if !ok {
			s.recordStatus(ctx, entry.ID, domain.JournalFailed, fmt.Errorf("goods %d was never registered", entry.GoodsID))
			return nil
		}
		labelID = found
		if err := s.journal.RecordRegistered(ctx, entry.ID, labelID); err != nil {
			return fmt.Errorf("journal registration of goods %d: %w", entry.GoodsID, err)
		}
	}

	if err := s.reconciler.Reconcile(ctx, entry.GoodsID, labelID); err != nil {
		s.recordStatus(ctx, entry.ID, domain.JournalRepair, err)
		return err
	}

	s.recordStatus(ctx, entry.ID, domain.JournalReconciled, nil)
	s.logger.Info("grant reconciled", zap.Int64("goods_id", entry.GoodsID), zap.Int64("label_id", labelID))
	return nil
}

// SweepJournal queues every entry needing repair plus unfinished entries
// untouched since staleBefore. It returns the number of queued tasks.
func (s *GrantService) SweepJournal(ctx context.Context, staleBefore time.Time, limit int) (int, error) {
	entries, err := s.journal.Pending(ctx, staleBefore, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending grants: %w", err)
	}

	queued := 0
	for _, e := range entries {
		if s.enqueueRepair(domain.RepairTask{EntryID: e.ID, GoodsID: e.GoodsID}) {
			queued++
		}
	}
	return queued, nil
}

func (s *GrantService) enqueueRepair(task domain.RepairTask) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.repairQueue <- task:
		return true
	default:
		s.logger.Warn("repair queue full, leaving grant for next sweep", zap.Int64("goods_id", task.GoodsID))
		return false
	}
}

func (s *GrantService) GetRepairQueue() <-chan domain.RepairTask {
	return s.repairQueue
}

func (s *GrantService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.repairQueue)
	}
}
