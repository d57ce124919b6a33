package repository

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryStore is the persistence boundary of the transaction engine.
// Methods called with a context obtained from RunInTx join that transaction;
// the ForUpdate variants additionally take a row lock held until commit.
type InventoryStore interface {
	TransactionManager

	GetBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	CreateBranch(ctx context.Context, branch *model.Branch) error
	ListBranches(ctx context.Context) ([]model.Branch, error)

	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	GetItemForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindItemByBranchAndNameForUpdate(ctx context.Context, branchID uuid.UUID, name string) (*model.Item, error)
	ListItemsByBranchAndSkuPrefix(ctx context.Context, branchID uuid.UUID, prefix string) ([]model.Item, error)
	ListItems(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.Item, int64, error)
	UpdateItemQuantity(ctx context.Context, id uuid.UUID, qty model.Quantity) error
	UpsertItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error)
	FindCustomerByPhoneForUpdate(ctx context.Context, phone string) (*model.Customer, error)
	GetCustomerForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	UpdateCustomerBalance(ctx context.Context, id uuid.UUID, balance model.Money) error

	CreateSale(ctx context.Context, sale *model.Sale) error
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)

	CreateStockTransfer(ctx context.Context, transfer *model.StockTransfer) error
	ListStockTransfers(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error)
}

type inventoryStore struct {
	TransactionManager
	db *gorm.DB
}

// NewInventoryStore returns the postgres-backed InventoryStore
func NewInventoryStore(db *gorm.DB) InventoryStore {
	return &inventoryStore{
		TransactionManager: NewTransactionManager(db),
		db:                 db,
	}
}
