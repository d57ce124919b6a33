package service

import (
	"context"
	"errors"

	"retailpos/internal/event"
	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type TransferRequest struct {
	ItemID     uuid.UUID  `json:"item_id" binding:"required"`
	Quantity   int        `json:"quantity" binding:"required,gt=0"`
	ToBranchID uuid.UUID  `json:"to_branch_id" binding:"required"`
	OperatorID *uuid.UUID `json:"-"`
}

type TransferQuery struct {
	BranchID *uuid.UUID
	Page     int
	Limit    int
}

type StockTransferredEvent struct {
	TransferID         uuid.UUID      `json:"transfer_id"`
	SourceItemID       uuid.UUID      `json:"source_item_id"`
	DestinationItemID  uuid.UUID      `json:"destination_item_id"`
	FromBranchID       uuid.UUID      `json:"from_branch_id"`
	ToBranchID         uuid.UUID      `json:"to_branch_id"`
	Quantity           model.Quantity `json:"quantity"`
	DestinationCreated bool           `json:"destination_created"`
}

type TransferService interface {
	Execute(ctx context.Context, req TransferRequest) (*model.StockTransfer, error)
	ListTransfers(ctx context.Context, q TransferQuery) ([]model.StockTransfer, int64, error)
}

type transferService struct {
	store     repository.InventoryStore
	allocator *SkuAllocator
	audit     *AuditLog
	publisher event.Publisher
	opts      Options
}

func NewTransferService(
	store repository.InventoryStore,
	allocator *SkuAllocator,
	audit *AuditLog,
	publisher event.Publisher,
	opts Options,
) TransferService {
	return &transferService{
		store:     store,
		allocator: allocator,
		audit:     audit,
		publisher: publisher,
		opts:      opts.withDefaults(),
	}
}

// Execute moves quantity of an item to another branch. The source decrement,
// the destination merge or creation and the transfer record commit together.
// When no item of the same name exists at the destination a new one is
// created under a freshly allocated SKU, retrying the allocation when a
// concurrent transfer took the same SKU first.
func (s *transferService) Execute(ctx context.Context, req TransferRequest) (*model.StockTransfer, error) {
	qty, err := model.NewPositiveQuantity(req.Quantity)
	if err != nil {
		return nil, &EngineError{Kind: KindInvalidRequest, Msg: "transfer quantity", Err: err}
	}

	source, err := s.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, storeError("load source item", err)
	}
	if source.BranchID == req.ToBranchID {
		return nil, newError(KindSameBranchTransfer, "cannot transfer %s to the branch that already holds it", source.Name)
	}
	if qty > source.Quantity {
		return nil, transferShortage(source, qty)
	}
	if _, err := s.store.GetBranch(ctx, req.ToBranchID); err != nil {
		return nil, storeError("load destination branch", err)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	var (
		transfer *model.StockTransfer
		dest     *model.Item
		created  bool
	)
	err = s.store.RunInTx(txCtx, func(txCtx context.Context) error {
		var err error
		source, err = s.store.GetItemForUpdate(txCtx, req.ItemID)
		if err != nil {
			return storeError("lock source item", err)
		}
		if qty > source.Quantity {
			return transferShortage(source, qty)
		}
		source.Quantity -= qty
		if err := s.store.UpdateItemQuantity(txCtx, source.ID, source.Quantity); err != nil {
			return storeError("decrement source stock", err)
		}

		dest, err = s.store.FindItemByBranchAndNameForUpdate(txCtx, req.ToBranchID, source.Name)
		switch {
		case err == nil:
			dest.Quantity += qty
			syncAttributes(dest, source)
			if err := s.store.UpsertItem(txCtx, dest); err != nil {
				return storeError("merge destination item", err)
			}
		case errors.Is(err, repository.ErrNotFound):
			dest, err = s.materialize(txCtx, source, req.ToBranchID, qty)
			if err != nil {
				return err
			}
			created = true
		default:
			return storeError("find destination item", err)
		}

		transfer = &model.StockTransfer{
			Quantity:           qty,
			SourceItemID:       source.ID,
			FromBranchID:       source.BranchID,
			ToBranchID:         req.ToBranchID,
			DestinationItemID:  dest.ID,
			DestinationCreated: created,
			OperatorID:         req.OperatorID,
		}
		if err := s.store.CreateStockTransfer(txCtx, transfer); err != nil {
			return storeError("create stock transfer", err)
		}
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("item_id", req.ItemID.String()).Msg("stock transfer rolled back")
		return nil, storeError("execute stock transfer", err)
	}

	log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("item_id", source.ID.String()).
		Str("to_branch_id", transfer.ToBranchID.String()).
		Int("quantity", qty.Int()).
		Bool("created", created).
		Msg("stock transfer committed")

	details := model.TransferDetails{
		TransferID:   transfer.ID,
		Quantity:     qty,
		FromBranchID: transfer.FromBranchID,
		ToBranchID:   transfer.ToBranchID,
	}
	out := details
	out.Direction = model.DirectionOut
	out.StockAfter = source.Quantity
	s.audit.Record(ctx, source, &transfer.ID, req.OperatorID, out)

	in := details
	in.Direction = model.DirectionIn
	in.Created = created
	in.StockAfter = dest.Quantity
	s.audit.Record(ctx, dest, &transfer.ID, req.OperatorID, in)

	publish(ctx, s.publisher, event.New(event.TypeStockTransferred, StockTransferredEvent{
		TransferID:         transfer.ID,
		SourceItemID:       transfer.SourceItemID,
		DestinationItemID:  transfer.DestinationItemID,
		FromBranchID:       transfer.FromBranchID,
		ToBranchID:         transfer.ToBranchID,
		Quantity:           qty,
		DestinationCreated: created,
	}))

	return transfer, nil
}

// materialize creates the destination copy of source. A duplicate SKU means
// another transaction claimed the allocated value first; the store rolls the
// failed insert back on its own so the allocation can simply be repeated.
func (s *transferService) materialize(ctx context.Context, source *model.Item, branchID uuid.UUID, qty model.Quantity) (*model.Item, error) {
	prefix := source.Sku.Prefix()

	var lastErr error
	for attempt := 1; attempt <= s.opts.SkuAllocationAttempts; attempt++ {
		sku, err := s.allocator.AllocateSku(ctx, branchID, prefix)
		if err != nil {
			return nil, err
		}

		item := &model.Item{
			BranchID:         branchID,
			Sku:              sku,
			Name:             source.Name,
			Quantity:         qty,
			MinimumSellPrice: source.MinimumSellPrice,
		}
		syncAttributes(item, source)

		err = s.store.UpsertItem(ctx, item)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return nil, storeError("create destination item", err)
		}

		lastErr = err
		log.Debug().
			Str("branch_id", branchID.String()).
			Str("sku", sku.String()).
			Int("attempt", attempt).
			Msg("sku taken, retrying allocation")
	}

	return nil, &EngineError{
		Kind: KindSkuAllocationFailed,
		Msg:  "no free sku for prefix " + prefix + " after retries",
		Err:  lastErr,
	}
}

// syncAttributes copies the descriptive fields that are kept identical
// across branches. Quantity, SKU, branch and the sell price floor stay
// untouched.
func syncAttributes(dst, src *model.Item) {
	dst.Price = src.Price
	dst.Description = src.Description
	dst.Category = src.Category
	dst.MinimumStockLevel = src.MinimumStockLevel
	dst.Origin = src.Origin
	dst.ImageURL = src.ImageURL
}

func (s *transferService) ListTransfers(ctx context.Context, q TransferQuery) ([]model.StockTransfer, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	transfers, total, err := s.store.ListStockTransfers(ctx, q.BranchID, q.Page, q.Limit)
	if err != nil {
		return nil, 0, storeError("list stock transfers", err)
	}
	return transfers, total, nil
}

func transferShortage(item *model.Item, want model.Quantity) error {
	return newError(KindInsufficientStock, "not enough stock in source branch: requested %d of %s, available %d", want, item.Name, item.Quantity)
}
