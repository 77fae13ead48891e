package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/port"
)

const (
	idempotencyKeyPrefix       = "grant:"
	defaultRegistrationRetries = 3
)

var tracer = otel.Tracer("github.com/rl1809/warehouse-grant/internal/core/service")

// Dependencies wires the stores used by GrantService. Cache and Catalog
// may be nil.
type Dependencies struct {
	Directory port.CharacterDirectory
	Warehouse port.WarehouseRepository
	Goods     port.GoodsStateStore
	Items     port.ItemStateStore
	Slots     port.SlotSequence
	Cache     port.CacheRepository
	Journal   port.GrantJournal
	Catalog   port.ItemCatalog
	Logger    *zap.Logger
}

type Options struct {
	GoodsNumber          int32
	AllocationMaxTries   uint
	AllocationBackoff    time.Duration
	RegistrationAttempts int
	RepairQueueSize      int
}

// GrantService runs the item grant pipeline and owns the repair queue fed
// by grants whose reconciliation did not complete.
type GrantService struct {
	identity   *IdentityResolver
	slots      port.SlotSequence
	allocator  *GoodsAllocator
	registrar  *Registrar
	reconciler *Reconciler
	warehouse  port.WarehouseRepository
	cache      port.CacheRepository
	journal    port.GrantJournal
	catalog    port.ItemCatalog
	logger     *zap.Logger
	now        func() time.Time

	registrationAttempts int

	mu          sync.RWMutex
	closed      bool
	repairQueue chan domain.RepairTask
}

func NewGrantService(deps Dependencies, opts Options) *GrantService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RegistrationAttempts <= 0 {
		opts.RegistrationAttempts = defaultRegistrationRetries
	}
	if opts.RepairQueueSize <= 0 {
		opts.RepairQueueSize = 1
	}

	return &GrantService{
		identity:             NewIdentityResolver(deps.Directory),
		slots:                deps.Slots,
		allocator:            NewGoodsAllocator(deps.Warehouse, deps.Cache, opts.AllocationMaxTries, opts.AllocationBackoff, logger),
		registrar:            NewRegistrar(deps.Warehouse, opts.GoodsNumber),
		reconciler:           NewReconciler(deps.Goods, deps.Items),
		warehouse:            deps.Warehouse,
		cache:                deps.Cache,
		journal:              deps.Journal,
		catalog:              deps.Catalog,
		logger:               logger,
		now:                  time.Now,
		registrationAttempts: opts.RegistrationAttempts,
		repairQueue:          make(chan domain.RepairTask, opts.RepairQueueSize),
	}
}

// Grant delivers an item to the account owning in.CharacterName.
//
// When registration succeeded but reconciliation did not, Grant returns
// the receipt together with an error wrapping domain.ErrReconciliation;
// the grant exists and has been queued for repair.
func (s *GrantService) Grant(ctx context.Context, in domain.GrantInput) (receipt *domain.GrantReceipt, err error) {
	ctx, span := tracer.Start(ctx, "GrantService.Grant")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := domain.ParseGrantInput(in, s.now())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("item.id", int(req.ItemID)),
		attribute.Int("item.quantity", int(req.Quantity)),
	)

	if req.RequestID != "" && s.cache != nil {
		key := idempotencyKeyPrefix + req.RequestID
		ok, cacheErr := s.cache.SetIdempotency(ctx, key)
		if cacheErr != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", cacheErr)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}

		registrationAttempted := false
		defer func() {
			if err != nil && !registrationAttempted {
				if relErr := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); relErr != nil {
					s.logger.Debug("release idempotency key", zap.String("key", key), zap.Error(relErr))
				}
			}
		}()
		return s.grant(ctx, span, req, &registrationAttempted)
	}

	return s.grant(ctx, span, req, new(bool))
}

func (s *GrantService) grant(ctx context.Context, span trace.Span, req domain.GrantRequest, registrationAttempted *bool) (*domain.GrantReceipt, error) {
	accountID, err := s.identity.Resolve(ctx, req.CharacterName)
	if err != nil {
		return nil, err
	}
	req.AccountID = accountID

	slot, err := s.slots.NextSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: next delivery slot: %w", domain.ErrAllocation, err)
	}

	goodsID, err := s.allocator.Allocate(ctx, 0)
	if err != nil {
		return nil, err
	}

	var (
		labelID int64
		entryID uuid.UUID
	)
	for attempt := 1; ; attempt++ {
		req.GoodsID = goodsID
		entryID = uuid.New()
		if err := s.journal.RecordAllocated(ctx, domain.GrantEntry{
			ID:        entryID,
			GoodsID:   goodsID,
			AccountID: accountID,
			ItemID:    req.ItemID,
			Quantity:  req.Quantity,
			Slot:      slot,
			Status:    domain.JournalAllocated,
		}); err != nil {
			return nil, fmt.Errorf("journal grant %d: %w", goodsID, err)
		}

		*registrationAttempted = true
		labelID, err = s.registrar.Register(ctx, req, slot)
		if err == nil {
			break
		}

		if !registrationRefused(err) {
			// The call may have committed before failing; the sweeper
			// settles the entry through a label lookup.
			s.recordStatus(ctx, entryID, domain.JournalAllocated, err)
			s.logger.Warn("registration outcome unknown, left for repair",
				zap.Int64("goods_id", goodsID), zap.Stringer("entry_id", entryID))
			return nil, err
		}
		s.recordStatus(ctx, entryID, domain.JournalFailed, err)
		if !errors.Is(err, domain.ErrDuplicateGoodsID) {
			return nil, err
		}
		if attempt >= s.registrationAttempts {
			return nil, fmt.Errorf("%w: goods id still duplicate after %d attempts: %w", domain.ErrAllocation, attempt, err)
		}

		s.logger.Info("goods id taken at registration, allocating again", zap.Int64("goods_id", goodsID))
		goodsID, err = s.allocator.Allocate(ctx, goodsID)
		if err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int64("goods.id", goodsID),
		attribute.Int64("goods.label_id", labelID),
		attribute.Int("goods.slot", int(slot)),
	)
	receipt := &domain.GrantReceipt{GoodsID: goodsID, LabelID: labelID, Slot: slot}

	if err := s.journal.RecordRegistered(ctx, entryID, labelID); err != nil {
		s.logger.Warn("journal registration", zap.Int64("goods_id", goodsID), zap.Int64("label_id", labelID))
		s.logger.Debug("journal error", zap.Error(err))
	}

	if err := s.reconciler.Reconcile(ctx, goodsID, labelID); err != nil {
		receipt.ReconciliationPending = true
		s.recordStatus(ctx, entryID, domain.JournalRepair, err)
		s.enqueueRepair(domain.RepairTask{EntryID: entryID, GoodsID: goodsID})
		s.logger.Warn("grant registered, reconciliation pending",
			zap.Int64("goods_id", goodsID), zap.Int64("label_id", labelID))
		s.logger.Debug("reconciliation error", zap.Error(err))
		return receipt, err
	}

	s.recordStatus(ctx, entryID, domain.JournalReconciled, nil)
	s.logger.Info("item granted",
		zap.String("character", req.CharacterName),
		zap.Int32("item_id", req.ItemID),
		zap.Int32("quantity", req.Quantity),
		zap.Int64("goods_id", goodsID),
		zap.Int64("label_id", labelID),
		zap.Int32("slot", int32(slot)))

	return receipt, nil
}

// Characters lists character names of an account.
func (s *GrantService) Characters(ctx context.Context, rawAccountID string) ([]string, error) {
	return s.identity.Characters(ctx, rawAccountID)
}

// Catalog returns the grantable item catalog.
func (s *GrantService) Catalog(ctx context.Context) ([]domain.ItemCategory, error) {
	if s.catalog == nil {
		return nil, nil
	}
	return s.catalog.ListCategories(ctx)
}

// registrationRefused reports whether the store answered and wrote
// nothing, as opposed to a failure with an unknown outcome.
func registrationRefused(err error) bool {
	return errors.Is(err, domain.ErrDuplicateGoodsID) || errors.Is(err, domain.ErrRegistrationRejected)
}

func (s *GrantService) recordStatus(ctx context.Context, entryID uuid.UUID, status domain.JournalStatus, cause error) {
	lastErr := ""
	if cause != nil {
		lastErr = cause.Error()
	}
	if err := s.journal.RecordStatus(context.WithoutCancel(ctx), entryID, status, lastErr); err != nil {
		s.logger.Warn("journal status", zap.Stringer("entry_id", entryID), zap.String("status", string(status)))
		s.logger.Debug("journal error", zap.Error(err))
	}
}
