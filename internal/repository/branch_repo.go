package repository

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
)

func (r *inventoryStore) GetBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &branch, nil
}

func (r *inventoryStore) CreateBranch(ctx context.Context, branch *model.Branch) error {
	return translateError(GetDB(ctx, r.db).Create(branch).Error)
}

func (r *inventoryStore) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	if err := GetDB(ctx, r.db).Order("name asc").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}
