package repository

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
)

func (r *inventoryStore) CreateStockTransfer(ctx context.Context, transfer *model.StockTransfer) error {
	return translateError(GetDB(ctx, r.db).Create(transfer).Error)
}

// ListStockTransfers returns transfers leaving or entering branchID, newest first
func (r *inventoryStore) ListStockTransfers(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error) {
	var transfers []model.StockTransfer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransfer{})
	if branchID != nil {
		db = db.Where("from_branch_id = ? OR to_branch_id = ?", *branchID, *branchID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}
