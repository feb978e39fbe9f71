package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/dealerhub/inventory/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrDuplicateRequest is returned when an idempotency key has already been
// used for a committed operation within the retention window
var ErrDuplicateRequest = shared.NewDomainError("DUPLICATE_REQUEST", "Operation with this idempotency key was already applied")

// StockOperationsService is the only component that mutates allocations.
// Every mutating operation runs inside a TransactionScope and persists
// aggregates with an optimistic version check, so concurrent writers to the
// same allocation surface as CONCURRENCY_CONFLICT instead of lost updates.
//
// Domain events are published after the transaction commits; publication is
// best-effort and never fails the operation.
type StockOperationsService struct {
	allocationRepo allocation.AllocationRepository
	ledgerRepo     allocation.StockTransactionRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewStockOperationsService creates a new stock operations service
func NewStockOperationsService(
	allocationRepo allocation.AllocationRepository,
	ledgerRepo allocation.StockTransactionRepository,
	txScope TransactionScope,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *StockOperationsService {
	return &StockOperationsService{
		allocationRepo: allocationRepo,
		ledgerRepo:     ledgerRepo,
		txScope:        txScope,
		eventPublisher: eventPublisher,
		idempotencyTTL: 24 * time.Hour,
		logger:         logger,
	}
}

// WithIdempotencyStore enables duplicate-suppression for transfer and
// adjust requests carrying an idempotency key
func (s *StockOperationsService) WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) *StockOperationsService {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
	return s
}

// Transfer moves stock of one product from one dealer's allocation to
// another's. The two allocation updates and the two ledger entries commit
// atomically; on any failure no partial state is observable.
func (s *StockOperationsService) Transfer(ctx context.Context, tenantID uuid.UUID, req TransferRequest) (*TransferResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "transfer")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrFromDealerID, req.FromDealerID.String(),
		telemetry.SpanAttrToDealerID, req.ToDealerID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	if req.FromDealerID == req.ToDealerID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Source and destination dealer must differ")
	}
	if err := s.checkIdempotency(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	var (
		result TransferResult
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		source, err := repos.AllocationRepo().FindByProductAndDealer(ctx, tenantID, req.ProductID, req.FromDealerID)
		if err != nil {
			return err
		}
		if err := ensureOperable(source); err != nil {
			return err
		}

		sourceBefore := source.AvailableQuantity
		if err := source.TransferOut(req.Quantity); err != nil {
			return err
		}

		dest, err := repos.AllocationRepo().GetOrCreate(ctx, tenantID, req.ProductID, req.ToDealerID)
		if err != nil {
			return err
		}
		if err := ensureOperable(dest); err != nil {
			return err
		}
		destBefore := dest.AvailableQuantity
		if err := dest.TransferIn(req.Quantity); err != nil {
			return err
		}

		if err := repos.AllocationRepo().SaveWithLock(ctx, source); err != nil {
			return err
		}
		if err := repos.AllocationRepo().SaveWithLock(ctx, dest); err != nil {
			return err
		}

		reference := allocation.NewTransferReference()
		outTx, err := allocation.NewTransferOutTransaction(source, req.Quantity, sourceBefore, source.AvailableQuantity, reference)
		if err != nil {
			return err
		}
		inTx, err := allocation.NewTransferInTransaction(dest, req.Quantity, destBefore, dest.AvailableQuantity, reference)
		if err != nil {
			return err
		}
		applyActor(req.ActorID, outTx, inTx)
		if req.Notes != "" {
			outTx.WithNotes(req.Notes)
			inTx.WithNotes(req.Notes)
		}
		if err := repos.LedgerRepo().Create(ctx, outTx); err != nil {
			return err
		}
		if err := repos.LedgerRepo().Create(ctx, inTx); err != nil {
			return err
		}

		events = collectEvents(source, dest)
		result = TransferResult{
			ReferenceNumber: reference,
			Source:          ToAllocationResponse(source),
			Destination:     ToAllocationResponse(dest),
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrReference, result.ReferenceNumber)

	s.markIdempotent(ctx, req.IdempotencyKey)
	s.publishEvents(ctx, events)
	s.logger.Info("stock transferred",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("from_dealer_id", req.FromDealerID.String()),
		zap.String("to_dealer_id", req.ToDealerID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("reference", result.ReferenceNumber),
	)
	return &result, nil
}

// Adjust applies a signed manual correction to one allocation and appends
// the matching ledger entry. A correction that would drive available stock
// below zero is rejected with INSUFFICIENT_STOCK.
func (s *StockOperationsService) Adjust(ctx context.Context, tenantID uuid.UUID, req AdjustRequest) (*AdjustResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "adjust")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrDealerID, req.DealerID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
		telemetry.SpanAttrReason, req.Reason,
	)

	reason := allocation.TransactionReason(req.Reason)
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown adjustment reason")
	}
	if err := s.checkIdempotency(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	var (
		result AdjustResult
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := repos.AllocationRepo().FindByProductAndDealer(ctx, tenantID, req.ProductID, req.DealerID)
		if err != nil {
			return err
		}
		if err := ensureOperable(a); err != nil {
			return err
		}

		before := a.AvailableQuantity
		if err := a.Adjust(req.Quantity, string(reason)); err != nil {
			return err
		}
		if err := repos.AllocationRepo().SaveWithLock(ctx, a); err != nil {
			return err
		}

		reference := allocation.NewAdjustmentReference()
		tx, err := allocation.NewAdjustmentTransaction(a, req.Quantity, before, a.AvailableQuantity, reason, reference)
		if err != nil {
			return err
		}
		applyActor(req.ActorID, tx)
		if req.Notes != "" {
			tx.WithNotes(req.Notes)
		}
		if err := repos.LedgerRepo().Create(ctx, tx); err != nil {
			return err
		}

		events = collectEvents(a)
		result = AdjustResult{ReferenceNumber: reference, Allocation: ToAllocationResponse(a)}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrReference, result.ReferenceNumber)

	s.markIdempotent(ctx, req.IdempotencyKey)
	s.publishEvents(ctx, events)
	return &result, nil
}

// Reserve earmarks stock within an allocation without changing the
// available quantity. No ledger entry is written: reservations move stock
// between internal buckets, not in or out of the allocation.
func (s *StockOperationsService) Reserve(ctx context.Context, tenantID uuid.UUID, req ReserveRequest) (*AllocationResponse, error) {
	return s.mutateAllocation(ctx, tenantID, req.ProductID, req.DealerID, func(a *allocation.Allocation) error {
		return a.Reserve(req.Quantity)
	})
}

// Release returns previously reserved stock
func (s *StockOperationsService) Release(ctx context.Context, tenantID uuid.UUID, req ReleaseRequest) (*AllocationResponse, error) {
	return s.mutateAllocation(ctx, tenantID, req.ProductID, req.DealerID, func(a *allocation.Allocation) error {
		return a.Release(req.Quantity)
	})
}

// DeliverToCustomer consumes one unit on order fulfillment. A missing or
// empty allocation does not fail the caller's order workflow: the result
// reports Applied=false and a warning is logged. Storage failures are
// still returned as errors.
func (s *StockOperationsService) DeliverToCustomer(ctx context.Context, tenantID uuid.UUID, req DeliverRequest) (*DeliverResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "deliver_to_customer")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrDealerID, req.DealerID.String(),
	)

	var (
		result DeliverResult
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := repos.AllocationRepo().FindByProductAndDealer(ctx, tenantID, req.ProductID, req.DealerID)
		if err != nil {
			if isDomainCode(err, "NOT_FOUND") {
				s.logger.Warn("no allocation for delivered order, skipping stock deduction",
					zap.String("order_id", req.OrderID.String()),
					zap.String("product_id", req.ProductID.String()),
					zap.String("dealer_id", req.DealerID.String()),
				)
				result = DeliverResult{Applied: false}
				return nil
			}
			return err
		}
		if !a.IsActive || a.IsSuspended() || a.IsOutOfStock() {
			s.logger.Warn("allocation cannot cover delivered order, skipping stock deduction",
				zap.String("order_id", req.OrderID.String()),
				zap.String("allocation_id", a.ID.String()),
				zap.String("status", string(a.Status)),
			)
			result = DeliverResult{Applied: false}
			return nil
		}

		before := a.AvailableQuantity
		if err := a.Deliver(); err != nil {
			return err
		}
		if err := repos.AllocationRepo().SaveWithLock(ctx, a); err != nil {
			return err
		}

		tx, err := allocation.NewOutboundTransaction(a, decimal.NewFromInt(1), before, a.AvailableQuantity, req.OrderID)
		if err != nil {
			return err
		}
		applyActor(req.ActorID, tx)
		if err := repos.LedgerRepo().Create(ctx, tx); err != nil {
			return err
		}

		events = collectEvents(a)
		resp := ToAllocationResponse(a)
		result = DeliverResult{Applied: true, Allocation: &resp}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, "applied", result.Applied)

	s.publishEvents(ctx, events)
	return &result, nil
}

// ReceiveFromPurchaseOrder books stock in from a delivered purchase order,
// creating the allocation with default thresholds when the dealer has no
// record for the product yet.
func (s *StockOperationsService) ReceiveFromPurchaseOrder(ctx context.Context, tenantID uuid.UUID, req ReceiveRequest) (*ReceiveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "receive_from_purchase_order")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrDealerID, req.DealerID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	var (
		result ReceiveResult
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := repos.AllocationRepo().GetOrCreate(ctx, tenantID, req.ProductID, req.DealerID)
		if err != nil {
			return err
		}
		if err := ensureOperable(a); err != nil {
			return err
		}

		before := a.AvailableQuantity
		if err := a.Receive(req.Quantity); err != nil {
			return err
		}
		if err := repos.AllocationRepo().SaveWithLock(ctx, a); err != nil {
			return err
		}

		tx, err := allocation.NewInboundTransaction(a, req.Quantity, before, a.AvailableQuantity, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		applyActor(req.ActorID, tx)
		if err := repos.LedgerRepo().Create(ctx, tx); err != nil {
			return err
		}

		events = collectEvents(a)
		result = ReceiveResult{ReferenceNumber: tx.ReferenceNumber, Allocation: ToAllocationResponse(a)}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrReference, result.ReferenceNumber)

	s.publishEvents(ctx, events)
	return &result, nil
}

// CreateAllocation creates an allocation explicitly. An optional initial
// quantity is booked through the adjustment path so the ledger records it.
func (s *StockOperationsService) CreateAllocation(ctx context.Context, tenantID uuid.UUID, req CreateAllocationRequest) (*AllocationResponse, error) {
	minStock := allocation.DefaultMinimumStock
	maxStock := allocation.DefaultMaximumStock
	if req.MinimumStock != nil {
		minStock = *req.MinimumStock
	}
	if req.MaximumStock != nil {
		maxStock = *req.MaximumStock
	}

	var (
		result AllocationResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.AllocationRepo().FindByProductAndDealer(ctx, tenantID, req.ProductID, req.DealerID)
		if err != nil && !isDomainCode(err, "NOT_FOUND") {
			return err
		}
		if existing != nil {
			return shared.ErrAlreadyExists
		}

		a, err := allocation.NewAllocation(tenantID, req.ProductID, req.DealerID, minStock, maxStock)
		if err != nil {
			return err
		}
		if req.Priority != "" {
			if err := a.SetPriority(allocation.AllocationPriority(req.Priority)); err != nil {
				return err
			}
		}
		a.Notes = req.Notes
		if req.ActorID != nil {
			a.SetCreatedBy(*req.ActorID)
		}
		if err := repos.AllocationRepo().Save(ctx, a); err != nil {
			return err
		}

		if req.InitialQuantity != nil && req.InitialQuantity.IsPositive() {
			before := a.AvailableQuantity
			if err := a.Adjust(*req.InitialQuantity, string(allocation.ReasonCorrection)); err != nil {
				return err
			}
			if err := repos.AllocationRepo().SaveWithLock(ctx, a); err != nil {
				return err
			}
			tx, err := allocation.NewAdjustmentTransaction(a, *req.InitialQuantity, before, a.AvailableQuantity,
				allocation.ReasonCorrection, allocation.NewAdjustmentReference())
			if err != nil {
				return err
			}
			applyActor(req.ActorID, tx)
			if err := repos.LedgerRepo().Create(ctx, tx); err != nil {
				return err
			}
		}

		events = collectEvents(a)
		result = ToAllocationResponse(a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return &result, nil
}

// UpdateAllocation updates thresholds and metadata of an existing
// allocation. Quantities cannot be changed here.
func (s *StockOperationsService) UpdateAllocation(ctx context.Context, tenantID, id uuid.UUID, req UpdateAllocationRequest) (*AllocationResponse, error) {
	a, err := s.allocationRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.MinimumStock != nil || req.MaximumStock != nil {
		minStock := a.MinimumStock
		maxStock := a.MaximumStock
		if req.MinimumStock != nil {
			minStock = *req.MinimumStock
		}
		if req.MaximumStock != nil {
			maxStock = *req.MaximumStock
		}
		if err := a.SetThresholds(minStock, maxStock); err != nil {
			return nil, err
		}
	}
	if req.Priority != "" {
		if err := a.SetPriority(allocation.AllocationPriority(req.Priority)); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	if req.NextRestockDate != nil {
		a.NextRestockDate = req.NextRestockDate
	}
	if req.Suspended != nil {
		if *req.Suspended {
			a.Suspend()
		} else {
			a.Resume()
		}
	}

	if err := s.allocationRepo.SaveWithLock(ctx, a); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, collectEvents(a))
	resp := ToAllocationResponse(a)
	return &resp, nil
}

// DeleteAllocation marks an allocation as logically deleted. Ledger
// history is preserved.
func (s *StockOperationsService) DeleteAllocation(ctx context.Context, tenantID, id uuid.UUID) error {
	a, err := s.allocationRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	a.SoftDelete()
	return s.allocationRepo.SaveWithLock(ctx, a)
}

// GetAllocation returns one allocation by ID
func (s *StockOperationsService) GetAllocation(ctx context.Context, tenantID, id uuid.UUID) (*AllocationResponse, error) {
	a, err := s.allocationRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToAllocationResponse(a)
	return &resp, nil
}

// GetAllocationByKey returns the allocation for a product-dealer pair
func (s *StockOperationsService) GetAllocationByKey(ctx context.Context, tenantID, productID, dealerID uuid.UUID) (*AllocationResponse, error) {
	a, err := s.allocationRepo.FindByProductAndDealer(ctx, tenantID, productID, dealerID)
	if err != nil {
		return nil, err
	}
	resp := ToAllocationResponse(a)
	return &resp, nil
}

// ListAllocations returns a paginated, filtered allocation list
func (s *StockOperationsService) ListAllocations(ctx context.Context, tenantID uuid.UUID, filter AllocationListFilter) (*shared.Paginated[AllocationResponse], error) {
	domainFilter := buildAllocationFilter(filter)
	items, err := s.allocationRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.allocationRepo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToAllocationResponses(items), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// ListTransactions returns a paginated, filtered slice of the ledger,
// newest first
func (s *StockOperationsService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) (*shared.Paginated[TransactionResponse], error) {
	domainFilter := buildTransactionFilter(filter)
	items, err := s.ledgerRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.ledgerRepo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToTransactionResponses(items), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// GetTransaction returns one ledger entry by ID
func (s *StockOperationsService) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.ledgerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(tx)
	return &resp, nil
}

// GetTransactionsByReference returns all entries sharing one reference
// number, e.g. both halves of a transfer
func (s *StockOperationsService) GetTransactionsByReference(ctx context.Context, tenantID uuid.UUID, reference string) ([]TransactionResponse, error) {
	txs, err := s.ledgerRepo.FindByReference(ctx, tenantID, reference)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(txs), nil
}

// SummarizeLedgerByDealer aggregates ledger entries for one dealer
func (s *StockOperationsService) SummarizeLedgerByDealer(ctx context.Context, tenantID, dealerID uuid.UUID) (*allocation.LedgerSummary, error) {
	return s.ledgerRepo.SummarizeByDealer(ctx, tenantID, dealerID)
}

// SummarizeLedgerByProduct aggregates ledger entries for one product
func (s *StockOperationsService) SummarizeLedgerByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*allocation.LedgerSummary, error) {
	return s.ledgerRepo.SummarizeByProduct(ctx, tenantID, productID)
}

// mutateAllocation runs a single-allocation mutation that writes no ledger
// entries (reserve/release)
func (s *StockOperationsService) mutateAllocation(ctx context.Context, tenantID, productID, dealerID uuid.UUID, mutate func(*allocation.Allocation) error) (*AllocationResponse, error) {
	var (
		result AllocationResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := repos.AllocationRepo().FindByProductAndDealer(ctx, tenantID, productID, dealerID)
		if err != nil {
			return err
		}
		if err := ensureOperable(a); err != nil {
			return err
		}
		if err := mutate(a); err != nil {
			return err
		}
		if err := repos.AllocationRepo().SaveWithLock(ctx, a); err != nil {
			return err
		}
		events = collectEvents(a)
		result = ToAllocationResponse(a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return &result, nil
}

func (s *StockOperationsService) checkIdempotency(ctx context.Context, key string) error {
	if s.idempotency == nil || key == "" {
		return nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		// Idempotency is advisory; a store outage must not block operations
		s.logger.Warn("idempotency check failed, proceeding", zap.Error(err))
		return nil
	}
	if processed {
		return ErrDuplicateRequest
	}
	return nil
}

func (s *StockOperationsService) markIdempotent(ctx context.Context, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL); err != nil {
		s.logger.Warn("failed to record idempotency key", zap.Error(err))
	}
}

// publishEvents publishes domain events after commit; failures are logged
// and never surfaced to the caller
func (s *StockOperationsService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish domain events", zap.Error(err))
	}
}

// ensureOperable rejects stock operations on soft-deleted or suspended
// allocations
func ensureOperable(a *allocation.Allocation) error {
	if !a.IsActive {
		return shared.ErrNotFound
	}
	if a.IsSuspended() {
		return shared.NewDomainError("INVALID_STATE", "Allocation is suspended")
	}
	return nil
}

func applyActor(actorID *uuid.UUID, txs ...*allocation.StockTransaction) {
	if actorID == nil {
		return
	}
	for _, tx := range txs {
		tx.WithProcessedBy(*actorID)
	}
}

func collectEvents(aggregates ...*allocation.Allocation) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	return events
}

func isDomainCode(err error, code string) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func buildAllocationFilter(req AllocationListFilter) allocation.AllocationFilter {
	filter := allocation.AllocationFilter{
		Filter:          shared.DefaultFilter(),
		ProductID:       req.ProductID,
		DealerID:        req.DealerID,
		IncludeInactive: req.IncludeInactive,
	}
	if req.Status != "" {
		status := allocation.AllocationStatus(req.Status)
		filter.Status = &status
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	return filter
}

func buildTransactionFilter(req TransactionListFilter) allocation.TransactionFilter {
	filter := allocation.TransactionFilter{
		Filter:          shared.DefaultFilter(),
		ProductID:       req.ProductID,
		DealerID:        req.DealerID,
		ReferenceNumber: req.ReferenceNumber,
		FromDate:        req.FromDate,
		ToDate:          req.ToDate,
	}
	filter.OrderBy = "transaction_date"
	if req.TransactionType != "" {
		txType := allocation.TransactionType(req.TransactionType)
		filter.TransactionType = &txType
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	return filter
}
