package memory

import (
	"context"
	"slices"
	"sync"

	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
)

var _ repository.AuditRepository = (*AuditLog)(nil)

// AuditLog is an append-only slice of inventory log entries
type AuditLog struct {
	mu      sync.RWMutex
	entries []model.InventoryLog
}

func NewAuditLog() *AuditLog {
	return &AuditLog{entries: make([]model.InventoryLog, 0, 128)}
}

func (a *AuditLog) Append(_ context.Context, entry *model.InventoryLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = now()
	a.entries = append(a.entries, *entry)
	return nil
}

// List returns matching entries newest first
func (a *AuditLog) List(_ context.Context, filter repository.AuditFilter) ([]model.InventoryLog, int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var matched []model.InventoryLog
	for _, entry := range slices.Backward(a.entries) {
		if filter.ItemID != nil && entry.ItemID != *filter.ItemID {
			continue
		}
		if filter.ReferenceID != nil && (entry.ReferenceID == nil || *entry.ReferenceID != *filter.ReferenceID) {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		matched = append(matched, entry)
	}
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

// Len is the total number of entries ever appended
func (a *AuditLog) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}
