package repository

import (
	"context"
	"strings"

	"retailpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *inventoryStore) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *inventoryStore) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindItemByBranchAndNameForUpdate matches names case-insensitively. When a
// branch holds several rows with the same name the oldest one wins.
func (r *inventoryStore) FindItemByBranchAndNameForUpdate(ctx context.Context, branchID uuid.UUID, name string) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND LOWER(name) = LOWER(?)", branchID, strings.TrimSpace(name)).
		Order("created_at asc").
		First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// ListItemsByBranchAndSkuPrefix includes soft-deleted rows: their SKUs still
// occupy the unique index and must not be handed out again.
func (r *inventoryStore) ListItemsByBranchAndSkuPrefix(ctx context.Context, branchID uuid.UUID, prefix string) ([]model.Item, error) {
	var items []model.Item
	if err := GetDB(ctx, r.db).Unscoped().
		Where("branch_id = ? AND sku LIKE ?", branchID, escapeLike(prefix)+"%").
		Order("sku asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *inventoryStore) ListItems(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Item{})
	if branchID != nil {
		db = db.Where("branch_id = ?", *branchID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *inventoryStore) UpdateItemQuantity(ctx context.Context, id uuid.UUID, qty model.Quantity) error {
	res := GetDB(ctx, r.db).Model(&model.Item{}).Where("id = ?", id).Update("quantity", qty)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertItem inserts items without an id and saves the full row otherwise.
// Inserts run inside a nested transaction so a unique violation rolls back to
// a savepoint and leaves the caller's transaction usable for a retry.
func (r *inventoryStore) UpsertItem(ctx context.Context, item *model.Item) error {
	db := GetDB(ctx, r.db)
	if item.ID == uuid.Nil {
		return translateError(db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(item).Error
		}))
	}
	return translateError(db.Save(item).Error)
}

func (r *inventoryStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
