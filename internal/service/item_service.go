package service

import (
	"context"
	"errors"
	"strings"

	"retailpos/internal/event"
	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
)

// DTOs
type CreateItemRequest struct {
	BranchID          uuid.UUID   `json:"branch_id" binding:"required"`
	Sku               string      `json:"sku" binding:"required"`
	Name              string      `json:"name" binding:"required"`
	Description       string      `json:"description"`
	Category          string      `json:"category"`
	Origin            string      `json:"origin"`
	ImageURL          string      `json:"image_url"`
	Price             model.Money `json:"price"`
	Quantity          int         `json:"quantity" binding:"min=0"`
	MinimumStockLevel int         `json:"minimum_stock_level" binding:"min=0"`
	MinimumSellPrice  model.Money `json:"minimum_sell_price"`
}

// UpdateItemRequest is a partial update; nil fields are left as they are
type UpdateItemRequest struct {
	Sku               *string      `json:"sku"`
	Name              *string      `json:"name"`
	Description       *string      `json:"description"`
	Category          *string      `json:"category"`
	Origin            *string      `json:"origin"`
	ImageURL          *string      `json:"image_url"`
	Price             *model.Money `json:"price"`
	Quantity          *int         `json:"quantity"`
	MinimumStockLevel *int         `json:"minimum_stock_level"`
	MinimumSellPrice  *model.Money `json:"minimum_sell_price"`
}

type ItemChangedEvent struct {
	ItemID   uuid.UUID       `json:"item_id"`
	BranchID uuid.UUID       `json:"branch_id"`
	Action   model.LogAction `json:"action"`
}

type ItemService interface {
	ListItems(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.Item, int64, error)
	CreateItem(ctx context.Context, userID *uuid.UUID, req CreateItemRequest) (*model.Item, error)
	UpdateItem(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req UpdateItemRequest) (*model.Item, error)
	DeleteItem(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error
}

type itemService struct {
	store     repository.InventoryStore
	audit     *AuditLog
	publisher event.Publisher
}

func NewItemService(store repository.InventoryStore, audit *AuditLog, publisher event.Publisher) ItemService {
	return &itemService{store: store, audit: audit, publisher: publisher}
}

func (s *itemService) ListItems(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.Item, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	items, total, err := s.store.ListItems(ctx, branchID, page, limit)
	if err != nil {
		return nil, 0, storeError("list items", err)
	}
	return items, total, nil
}

func (s *itemService) CreateItem(ctx context.Context, userID *uuid.UUID, req CreateItemRequest) (*model.Item, error) {
	sku, err := model.ParseSku(req.Sku)
	if err != nil {
		return nil, &EngineError{Kind: KindInvalidRequest, Msg: "item sku", Err: err}
	}
	qty, err := model.NewQuantity(req.Quantity)
	if err != nil {
		return nil, &EngineError{Kind: KindInvalidRequest, Msg: "item quantity", Err: err}
	}
	minStock, err := model.NewQuantity(req.MinimumStockLevel)
	if err != nil {
		return nil, &EngineError{Kind: KindInvalidRequest, Msg: "minimum stock level", Err: err}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(KindInvalidRequest, "item name is required")
	}
	if req.Price.IsNegative() || req.MinimumSellPrice.IsNegative() {
		return nil, newError(KindInvalidRequest, "prices must not be negative")
	}
	if !req.Price.IsCents() || !req.MinimumSellPrice.IsCents() {
		return nil, newError(KindInvalidRequest, "prices must be whole numbers of cents")
	}
	if _, err := s.store.GetBranch(ctx, req.BranchID); err != nil {
		return nil, storeError("load branch", err)
	}

	item := &model.Item{
		BranchID:          req.BranchID,
		Sku:               sku,
		Name:              name,
		Description:       req.Description,
		Category:          req.Category,
		Origin:            req.Origin,
		ImageURL:          req.ImageURL,
		Price:             req.Price,
		Quantity:          qty,
		MinimumStockLevel: minStock,
		MinimumSellPrice:  req.MinimumSellPrice,
	}

	err = s.store.RunInTx(ctx, func(txCtx context.Context) error {
		return s.store.UpsertItem(txCtx, item)
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, newError(KindConflict, "sku %s is already used in this branch", sku)
	}
	if err != nil {
		return nil, storeError("create item", err)
	}

	s.audit.Record(ctx, item, nil, userID, model.CreateDetails{Sku: item.Sku, Quantity: item.Quantity, Price: item.Price})
	s.notify(ctx, item, model.ActionCreate)
	return item, nil
}

func (s *itemService) UpdateItem(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req UpdateItemRequest) (*model.Item, error) {
	var (
		item    *model.Item
		changes map[string]model.FieldChange
	)
	err := s.store.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.store.GetItemForUpdate(txCtx, id)
		if err != nil {
			return storeError("lock item", err)
		}
		changes, err = applyItemUpdate(item, req)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		return s.store.UpsertItem(txCtx, item)
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, newError(KindConflict, "sku is already used in this branch")
	}
	if err != nil {
		return nil, storeError("update item", err)
	}

	if len(changes) > 0 {
		s.audit.Record(ctx, item, nil, userID, model.UpdateDetails{Changes: changes})
		s.notify(ctx, item, model.ActionUpdate)
	}
	return item, nil
}

// applyItemUpdate mutates item and returns only the fields whose value changed
func applyItemUpdate(item *model.Item, req UpdateItemRequest) (map[string]model.FieldChange, error) {
	changes := make(map[string]model.FieldChange)

	setString := func(field string, dst *string, v *string) {
		if v != nil && *v != *dst {
			changes[field] = model.FieldChange{From: *dst, To: *v}
			*dst = *v
		}
	}
	setMoney := func(field string, dst *model.Money, v *model.Money) error {
		if v == nil || v.Equal(*dst) {
			return nil
		}
		if v.IsNegative() {
			return newError(KindInvalidRequest, "%s must not be negative", field)
		}
		if !v.IsCents() {
			return newError(KindInvalidRequest, "%s must be a whole number of cents", field)
		}
		changes[field] = model.FieldChange{From: *dst, To: *v}
		*dst = *v
		return nil
	}
	setQuantity := func(field string, dst *model.Quantity, v *int) error {
		if v == nil || model.Quantity(*v) == *dst {
			return nil
		}
		q, err := model.NewQuantity(*v)
		if err != nil {
			return &EngineError{Kind: KindInvalidRequest, Msg: field, Err: err}
		}
		changes[field] = model.FieldChange{From: *dst, To: q}
		*dst = q
		return nil
	}

	if req.Sku != nil && *req.Sku != item.Sku.String() {
		sku, err := model.ParseSku(*req.Sku)
		if err != nil {
			return nil, &EngineError{Kind: KindInvalidRequest, Msg: "item sku", Err: err}
		}
		changes["sku"] = model.FieldChange{From: item.Sku, To: sku}
		item.Sku = sku
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, newError(KindInvalidRequest, "item name must not be empty")
	}
	setString("name", &item.Name, req.Name)
	setString("description", &item.Description, req.Description)
	setString("category", &item.Category, req.Category)
	setString("origin", &item.Origin, req.Origin)
	setString("image_url", &item.ImageURL, req.ImageURL)

	if err := setMoney("price", &item.Price, req.Price); err != nil {
		return nil, err
	}
	if err := setMoney("minimum_sell_price", &item.MinimumSellPrice, req.MinimumSellPrice); err != nil {
		return nil, err
	}
	if err := setQuantity("quantity", &item.Quantity, req.Quantity); err != nil {
		return nil, err
	}
	if err := setQuantity("minimum_stock_level", &item.MinimumStockLevel, req.MinimumStockLevel); err != nil {
		return nil, err
	}
	return changes, nil
}

// DeleteItem soft deletes: the row and its SKU stay for sale and transfer history
func (s *itemService) DeleteItem(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error {
	var item *model.Item
	err := s.store.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.store.GetItemForUpdate(txCtx, id)
		if err != nil {
			return storeError("lock item", err)
		}
		return s.store.DeleteItem(txCtx, id)
	})
	if err != nil {
		return storeError("delete item", err)
	}

	s.audit.Record(ctx, item, nil, userID, model.DeleteDetails{Sku: item.Sku, Quantity: item.Quantity})
	s.notify(ctx, item, model.ActionDelete)
	return nil
}

func (s *itemService) notify(ctx context.Context, item *model.Item, action model.LogAction) {
	publish(ctx, s.publisher, event.New(event.TypeItemChanged, ItemChangedEvent{
		ItemID:   item.ID,
		BranchID: item.BranchID,
		Action:   action,
	}))
}
