package repository

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
)

// CreateSale inserts the sale header and its lines in one statement batch
func (r *inventoryStore) CreateSale(ctx context.Context, sale *model.Sale) error {
	return translateError(GetDB(ctx, r.db).Create(sale).Error)
}

func (r *inventoryStore) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).Preload("Lines").First(&sale, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &sale, nil
}
