package service

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
)

// SkuLister is the slice of the store the allocator reads from
type SkuLister interface {
	ListItemsByBranchAndSkuPrefix(ctx context.Context, branchID uuid.UUID, prefix string) ([]model.Item, error)
}

// SkuAllocator derives the next free SKU for a category within a branch.
// It only proposes a value: uniqueness is enforced by the store's
// (branch_id, sku) index and the caller retries on a duplicate.
type SkuAllocator struct {
	store SkuLister
}

func NewSkuAllocator(store SkuLister) *SkuAllocator {
	return &SkuAllocator{store: store}
}

func (a *SkuAllocator) AllocateSku(ctx context.Context, branchID uuid.UUID, prefix string) (model.Sku, error) {
	if len(prefix) != model.SkuPrefixLen {
		return "", newError(KindInvalidRequest, "sku prefix %q must be %d characters", prefix, model.SkuPrefixLen)
	}

	items, err := a.store.ListItemsByBranchAndSkuPrefix(ctx, branchID, prefix)
	if err != nil {
		return "", storeError("list skus by prefix", err)
	}

	existing := make([]model.Sku, 0, len(items))
	for _, item := range items {
		existing = append(existing, item.Sku)
	}
	return NextSku(prefix, existing), nil
}

// NextSku returns prefix followed by the highest numeric sequence among
// existing plus one, or prefix+"001" when none match. SKUs with another
// prefix or a non-numeric suffix are ignored.
func NextSku(prefix string, existing []model.Sku) model.Sku {
	highest := 0
	for _, sku := range existing {
		if sku.Prefix() != prefix {
			continue
		}
		if seq, ok := sku.Sequence(); ok && seq > highest {
			highest = seq
		}
	}
	return model.SkuFromParts(prefix, highest+1)
}
