// Package memory is an in-process InventoryStore for dev mode and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ repository.InventoryStore = (*Store)(nil)

type txKey struct{}

type state struct {
	branches  map[uuid.UUID]model.Branch
	items     map[uuid.UUID]model.Item
	customers map[uuid.UUID]model.Customer
	sales     map[uuid.UUID]model.Sale
	transfers map[uuid.UUID]model.StockTransfer
}

func (st state) clone() state {
	sales := make(map[uuid.UUID]model.Sale, len(st.sales))
	for id, sale := range st.sales {
		sale.Lines = slices.Clone(sale.Lines)
		sales[id] = sale
	}
	return state{
		branches:  maps.Clone(st.branches),
		items:     maps.Clone(st.items),
		customers: maps.Clone(st.customers),
		sales:     sales,
		transfers: maps.Clone(st.transfers),
	}
}

// Store keeps every table in maps guarded by mu. Transactions are serialized
// on txMu and roll back by restoring a snapshot taken when they began.
// Writes made outside RunInTx take txMu too, so they never interleave with
// an open transaction.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   state
}

func New() *Store {
	return &Store{st: state{
		branches:  make(map[uuid.UUID]model.Branch),
		items:     make(map[uuid.UUID]model.Item),
		customers: make(map[uuid.UUID]model.Customer),
		sales:     make(map[uuid.UUID]model.Sale),
		transfers: make(map[uuid.UUID]model.StockTransfer),
	}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()

	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			s.st = snapshot
			s.mu.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func now() time.Time {
	return time.Now().UTC()
}

func (s *Store) GetBranch(_ context.Context, id uuid.UUID) (*model.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branch, ok := s.st.branches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &branch, nil
}

func (s *Store) CreateBranch(ctx context.Context, branch *model.Branch) error {
	return s.write(ctx, func() error {
		if branch.ID == uuid.Nil {
			branch.ID = uuid.New()
		}
		if _, exists := s.st.branches[branch.ID]; exists {
			return repository.ErrDuplicateKey
		}
		branch.CreatedAt = now()
		branch.UpdatedAt = branch.CreatedAt
		s.st.branches[branch.ID] = *branch
		return nil
	})
}

func (s *Store) ListBranches(_ context.Context) ([]model.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branches := slices.Collect(maps.Values(s.st.branches))
	slices.SortFunc(branches, func(a, b model.Branch) int {
		return strings.Compare(a.Name, b.Name)
	})
	return branches, nil
}

func (s *Store) GetItem(_ context.Context, id uuid.UUID) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.st.items[id]
	if !ok || item.DeletedAt.Valid {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

// GetItemForUpdate needs no lock of its own: transactions are already serialized.
func (s *Store) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return s.GetItem(ctx, id)
}

func (s *Store) FindItemByBranchAndNameForUpdate(_ context.Context, branchID uuid.UUID, name string) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Item
	for _, item := range s.st.items {
		if item.DeletedAt.Valid || item.BranchID != branchID {
			continue
		}
		if !strings.EqualFold(item.Name, strings.TrimSpace(name)) {
			continue
		}
		if found == nil || item.CreatedAt.Before(found.CreatedAt) {
			match := item
			found = &match
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (s *Store) ListItemsByBranchAndSkuPrefix(_ context.Context, branchID uuid.UUID, prefix string) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.Item
	for _, item := range s.st.items {
		if item.BranchID == branchID && strings.HasPrefix(item.Sku.String(), prefix) {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b model.Item) int {
		return strings.Compare(a.Sku.String(), b.Sku.String())
	})
	return items, nil
}

func (s *Store) ListItems(_ context.Context, branchID *uuid.UUID, page, limit int) ([]model.Item, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.st.items))
	for _, item := range s.st.items {
		if item.DeletedAt.Valid {
			continue
		}
		if branchID != nil && item.BranchID != *branchID {
			continue
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b model.Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return paginate(items, page, limit), int64(len(items)), nil
}

func (s *Store) UpdateItemQuantity(ctx context.Context, id uuid.UUID, qty model.Quantity) error {
	return s.write(ctx, func() error {
		item, ok := s.st.items[id]
		if !ok || item.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		if qty < 0 {
			return model.ErrInvalidQuantity
		}
		item.Quantity = qty
		item.UpdatedAt = now()
		s.st.items[id] = item
		return nil
	})
}

func (s *Store) UpsertItem(ctx context.Context, item *model.Item) error {
	return s.write(ctx, func() error {
		if item.Quantity < 0 {
			return model.ErrInvalidQuantity
		}
		for id, existing := range s.st.items {
			if id != item.ID && existing.BranchID == item.BranchID && existing.Sku == item.Sku {
				return repository.ErrDuplicateKey
			}
		}

		ts := now()
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
			item.CreatedAt = ts
		} else if existing, ok := s.st.items[item.ID]; ok {
			item.CreatedAt = existing.CreatedAt
		} else if item.CreatedAt.IsZero() {
			item.CreatedAt = ts
		}
		item.UpdatedAt = ts
		s.st.items[item.ID] = *item
		return nil
	})
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.write(ctx, func() error {
		item, ok := s.st.items[id]
		if !ok || item.DeletedAt.Valid {
			return repository.ErrNotFound
		}
		item.DeletedAt = gorm.DeletedAt{Time: now(), Valid: true}
		s.st.items[id] = item
		return nil
	})
}

func (s *Store) FindCustomerByPhone(_ context.Context, phone string) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, customer := range s.st.customers {
		if customer.Phone == phone {
			return &customer, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindCustomerByPhoneForUpdate(ctx context.Context, phone string) (*model.Customer, error) {
	return s.FindCustomerByPhone(ctx, phone)
}

func (s *Store) GetCustomerForUpdate(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.st.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	return s.write(ctx, func() error {
		for _, existing := range s.st.customers {
			if existing.Phone == customer.Phone {
				return repository.ErrDuplicateKey
			}
		}
		if customer.ID == uuid.Nil {
			customer.ID = uuid.New()
		}
		customer.CreatedAt = now()
		customer.UpdatedAt = customer.CreatedAt
		s.st.customers[customer.ID] = *customer
		return nil
	})
}

func (s *Store) UpdateCustomerBalance(ctx context.Context, id uuid.UUID, balance model.Money) error {
	return s.write(ctx, func() error {
		customer, ok := s.st.customers[id]
		if !ok {
			return repository.ErrNotFound
		}
		customer.LoyaltyPoints = balance
		customer.UpdatedAt = now()
		s.st.customers[id] = customer
		return nil
	})
}

func (s *Store) CreateSale(ctx context.Context, sale *model.Sale) error {
	return s.write(ctx, func() error {
		if sale.ID == uuid.Nil {
			sale.ID = uuid.New()
		}
		sale.CreatedAt = now()
		for i := range sale.Lines {
			if sale.Lines[i].ID == uuid.Nil {
				sale.Lines[i].ID = uuid.New()
			}
			sale.Lines[i].SaleID = sale.ID
		}
		stored := *sale
		stored.Lines = slices.Clone(sale.Lines)
		s.st.sales[sale.ID] = stored
		return nil
	})
}

func (s *Store) GetSale(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.st.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sale.Lines = slices.Clone(sale.Lines)
	return &sale, nil
}

func (s *Store) CreateStockTransfer(ctx context.Context, transfer *model.StockTransfer) error {
	return s.write(ctx, func() error {
		if transfer.ID == uuid.Nil {
			transfer.ID = uuid.New()
		}
		transfer.CreatedAt = now()
		s.st.transfers[transfer.ID] = *transfer
		return nil
	})
}

func (s *Store) ListStockTransfers(_ context.Context, branchID *uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transfers := make([]model.StockTransfer, 0, len(s.st.transfers))
	for _, t := range s.st.transfers {
		if branchID != nil && t.FromBranchID != *branchID && t.ToBranchID != *branchID {
			continue
		}
		transfers = append(transfers, t)
	}
	slices.SortFunc(transfers, func(a, b model.StockTransfer) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return paginate(transfers, page, limit), int64(len(transfers)), nil
}

func paginate[T any](rows []T, page, limit int) []T {
	if limit <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+limit, len(rows))
	return rows[start:end]
}
