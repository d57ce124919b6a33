package service

import (
	"context"
	"sync"
	"testing"

	"retailpos/internal/event"
	"retailpos/internal/model"
	"retailpos/internal/repository"
	"retailpos/internal/repository/memory"

	"github.com/google/uuid"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testEngine struct {
	store     *memory.Store
	auditRepo *memory.AuditLog
	audit     *AuditLog
	events    *recordingPublisher
	sales     SaleService
	transfers TransferService
	items     ItemService
	branchX   model.Branch
	branchY   model.Branch
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	return newTestEngineWithStore(t, memory.New(), nil)
}

// newTestEngineWithStore lets a test wrap the store the services see;
// wrap may be nil.
func newTestEngineWithStore(t *testing.T, store *memory.Store, wrap func(repository.InventoryStore) repository.InventoryStore) *testEngine {
	t.Helper()

	e := &testEngine{
		store:     store,
		auditRepo: memory.NewAuditLog(),
		events:    &recordingPublisher{},
	}
	e.audit = NewAuditLog(e.auditRepo)

	var svcStore repository.InventoryStore = store
	if wrap != nil {
		svcStore = wrap(store)
	}

	e.sales = NewSaleService(svcStore, NewLoyaltyLedger(), e.audit, e.events, Options{})
	e.transfers = NewTransferService(svcStore, NewSkuAllocator(svcStore), e.audit, e.events, Options{})
	e.items = NewItemService(svcStore, e.audit, e.events)

	e.branchX = e.mustBranch(t, "Branch X")
	e.branchY = e.mustBranch(t, "Branch Y")
	return e
}

func (e *testEngine) mustBranch(t *testing.T, name string) model.Branch {
	t.Helper()
	b := model.Branch{Name: name}
	if err := e.store.CreateBranch(context.Background(), &b); err != nil {
		t.Fatalf("create branch %s: %v", name, err)
	}
	return b
}

func (e *testEngine) mustItem(t *testing.T, item model.Item) model.Item {
	t.Helper()
	if err := e.store.UpsertItem(context.Background(), &item); err != nil {
		t.Fatalf("create item %s: %v", item.Name, err)
	}
	return item
}

// beans is the item used by most scenarios: cost 100, floor 150
func (e *testEngine) beans(t *testing.T, branchID uuid.UUID, qty model.Quantity) model.Item {
	t.Helper()
	return e.mustItem(t, model.Item{
		BranchID:          branchID,
		Sku:               "101005",
		Name:              "Espresso Beans",
		Category:          "coffee",
		Description:       "single origin",
		Origin:            "Ethiopia",
		ImageURL:          "https://img.example/beans.png",
		Price:             model.NewMoneyFromInt(100),
		MinimumSellPrice:  model.NewMoneyFromInt(150),
		MinimumStockLevel: 5,
		Quantity:          qty,
	})
}

func (e *testEngine) mustCustomer(t *testing.T, c model.Customer) model.Customer {
	t.Helper()
	if err := e.store.CreateCustomer(context.Background(), &c); err != nil {
		t.Fatalf("create customer %s: %v", c.Phone, err)
	}
	return c
}

func (e *testEngine) quantity(t *testing.T, id uuid.UUID) model.Quantity {
	t.Helper()
	item, err := e.store.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("get item %s: %v", id, err)
	}
	return item.Quantity
}

func (e *testEngine) balance(t *testing.T, phone string) model.Money {
	t.Helper()
	c, err := e.store.FindCustomerByPhone(context.Background(), phone)
	if err != nil {
		t.Fatalf("find customer %s: %v", phone, err)
	}
	return c.LoyaltyPoints
}

func (e *testEngine) auditFor(t *testing.T, ref uuid.UUID) []model.InventoryLog {
	t.Helper()
	logs, _, err := e.auditRepo.List(context.Background(), repository.AuditFilter{ReferenceID: &ref, Page: 1, Limit: 100})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	return logs
}

func money(s string) model.Money {
	return model.MustMoney(s)
}

func sellOne(itemID uuid.UUID, qty int, price string) []SaleLineRequest {
	return []SaleLineRequest{{ItemID: itemID, Quantity: qty, SellPrice: money(price)}}
}
