package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"retailpos/internal/event"
	"retailpos/internal/model"
	"retailpos/internal/repository"
	"retailpos/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestSaleWalkInEarnsNothing(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)

	sale, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID: e.branchX.ID,
		Lines:    sellOne(item.ID, 3, "200"),
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	if !sale.TotalProfit.Equal(money("300")) {
		t.Fatalf("expected profit 300, got %s", sale.TotalProfit)
	}
	if !sale.TotalAmount.Equal(money("600")) {
		t.Fatalf("expected total 600, got %s", sale.TotalAmount)
	}
	if !sale.LoyaltyPointsEarned.IsZero() {
		t.Fatalf("expected walk-in to earn 0, got %s", sale.LoyaltyPointsEarned)
	}
	if sale.CustomerID != nil {
		t.Fatalf("expected no customer on walk-in sale")
	}
	if sale.PaymentMethod != model.PaymentCash {
		t.Fatalf("expected default payment method CASH, got %s", sale.PaymentMethod)
	}
	if got := e.quantity(t, item.ID); got != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", got)
	}

	stored, err := e.sales.GetSale(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if len(stored.Lines) != 1 || stored.Lines[0].ItemName != "Espresso Beans" || !stored.Lines[0].UnitCost.Equal(money("100")) {
		t.Fatalf("expected snapshotted line, got %+v", stored.Lines)
	}
}

func TestSaleExistingCustomerRedeemsAndEarns(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)
	e.mustCustomer(t, model.Customer{Phone: "0811", Name: "Existing", LoyaltyPoints: money("500")})

	sale, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID:      e.branchX.ID,
		Lines:         sellOne(item.ID, 3, "200"),
		CustomerPhone: "0811",
		RedeemPoints:  money("100"),
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	if !sale.LoyaltyPointsRedeemed.Equal(money("100")) {
		t.Fatalf("expected 100 redeemed, got %s", sale.LoyaltyPointsRedeemed)
	}
	if !sale.LoyaltyPointsEarned.Equal(money("15")) {
		t.Fatalf("expected 15 earned, got %s", sale.LoyaltyPointsEarned)
	}
	if !sale.AmountDue.Equal(money("500")) {
		t.Fatalf("expected amount due 500, got %s", sale.AmountDue)
	}
	if got := e.balance(t, "0811"); !got.Equal(money("415")) {
		t.Fatalf("expected balance 415, got %s", got)
	}
}

func TestSaleNewReferredCustomerCreditsReferrer(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)
	referrer := e.mustCustomer(t, model.Customer{Phone: "0822", Name: "Referrer", LoyaltyPoints: money("50")})

	sale, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID:        e.branchX.ID,
		Lines:           sellOne(item.ID, 3, "200"),
		CustomerPhone:   "0833",
		CustomerName:    "Newcomer",
		ReferredByPhone: "0822",
		RedeemPoints:    money("20"),
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	if !sale.LoyaltyPointsEarned.IsZero() {
		t.Fatalf("expected a new customer to earn 0, got %s", sale.LoyaltyPointsEarned)
	}
	if !sale.LoyaltyPointsRedeemed.IsZero() {
		t.Fatalf("expected a new customer to redeem 0, got %s", sale.LoyaltyPointsRedeemed)
	}
	if !sale.ReferrerBonus.Equal(money("6")) {
		t.Fatalf("expected referrer bonus 6, got %s", sale.ReferrerBonus)
	}
	if got := e.balance(t, "0822"); !got.Equal(money("56")) {
		t.Fatalf("expected referrer balance 56, got %s", got)
	}

	created, err := e.store.FindCustomerByPhone(context.Background(), "0833")
	if err != nil {
		t.Fatalf("expected new customer to be registered: %v", err)
	}
	if created.ReferredByID == nil || *created.ReferredByID != referrer.ID {
		t.Fatalf("expected new customer to reference the referrer")
	}
	if sale.CustomerID == nil || *sale.CustomerID != created.ID {
		t.Fatalf("expected sale to reference the new customer")
	}
	if !created.LoyaltyPoints.IsZero() {
		t.Fatalf("expected new customer balance 0, got %s", created.LoyaltyPoints)
	}
}

func TestSaleUnknownPhoneWithoutNameIsWalkIn(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)

	sale, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID:      e.branchX.ID,
		Lines:         sellOne(item.ID, 1, "200"),
		CustomerPhone: "0899",
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if sale.CustomerID != nil {
		t.Fatalf("expected walk-in sale")
	}
	if _, err := e.store.FindCustomerByPhone(context.Background(), "0899"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no customer to be created, got %v", err)
	}
}

func TestSaleRejectsInsufficientStockWithoutSideEffects(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 5)

	_, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID:      e.branchX.ID,
		Lines:         sellOne(item.ID, 10, "200"),
		CustomerPhone: "0844",
		CustomerName:  "Would Be Created",
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := e.quantity(t, item.ID); got != 5 {
		t.Fatalf("expected stock untouched at 5, got %d", got)
	}
	if _, err := e.store.FindCustomerByPhone(context.Background(), "0844"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no customer after rejected sale, got %v", err)
	}
	if n := e.auditRepo.Len(); n != 0 {
		t.Fatalf("expected no audit entries, got %d", n)
	}
	if len(e.events.types()) != 0 {
		t.Fatalf("expected no events, got %v", e.events.types())
	}
}

func TestSaleRejectsInvalidRequests(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 5)
	other := e.beans(t, e.branchY.ID, 5)

	tests := []struct {
		name string
		req  SaleRequest
		want error
	}{
		{
			name: "below minimum price",
			req:  SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(item.ID, 1, "149.99")},
			want: ErrBelowMinimumPrice,
		},
		{
			name: "negative redemption",
			req:  SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(item.ID, 1, "200"), RedeemPoints: money("-1")},
			want: ErrInvalidRedemption,
		},
		{
			name: "no lines",
			req:  SaleRequest{BranchID: e.branchX.ID},
			want: ErrInvalidRequest,
		},
		{
			name: "zero quantity",
			req:  SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(item.ID, 0, "200")},
			want: ErrInvalidRequest,
		},
		{
			name: "duplicate item lines",
			req: SaleRequest{BranchID: e.branchX.ID, Lines: []SaleLineRequest{
				{ItemID: item.ID, Quantity: 1, SellPrice: money("200")},
				{ItemID: item.ID, Quantity: 1, SellPrice: money("200")},
			}},
			want: ErrInvalidRequest,
		},
		{
			name: "item from another branch",
			req:  SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(other.ID, 1, "200")},
			want: ErrInvalidRequest,
		},
		{
			name: "unknown item",
			req:  SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(uuid.New(), 1, "200")},
			want: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.sales.Execute(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := e.quantity(t, item.ID); got != 5 {
		t.Fatalf("expected stock untouched at 5, got %d", got)
	}
}

func TestSaleProfitIdentityAcrossLines(t *testing.T) {
	e := newTestEngine(t)
	beans := e.beans(t, e.branchX.ID, 10)
	mug := e.mustItem(t, model.Item{
		BranchID:         e.branchX.ID,
		Sku:              "205001",
		Name:             "Mug",
		Price:            money("8.40"),
		MinimumSellPrice: money("10"),
		Quantity:         50,
	})

	sale, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID: e.branchX.ID,
		Lines: []SaleLineRequest{
			{ItemID: beans.ID, Quantity: 2, SellPrice: money("180")},
			{ItemID: mug.ID, Quantity: 7, SellPrice: money("12.25")},
		},
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	sum := model.ZeroMoney()
	for _, line := range sale.Lines {
		sum = sum.Add(line.SellPrice.Sub(line.UnitCost).MulQty(line.Quantity))
	}
	if !sale.TotalProfit.Equal(sum) {
		t.Fatalf("expected profit %s to equal sum of lines %s", sale.TotalProfit, sum)
	}
	// 2*(180-100) + 7*(12.25-8.40)
	if !sale.TotalProfit.Equal(money("186.95")) {
		t.Fatalf("expected profit 186.95, got %s", sale.TotalProfit)
	}

	logs := e.auditFor(t, sale.ID)
	if len(logs) != 2 {
		t.Fatalf("expected one audit entry per item, got %d", len(logs))
	}
	for _, l := range logs {
		d, err := l.DecodedDetails()
		if err != nil {
			t.Fatalf("decode details: %v", err)
		}
		sd, ok := d.(model.SaleDetails)
		if !ok || sd.SaleID != sale.ID || sd.QuantityChange >= 0 {
			t.Fatalf("unexpected sale details %+v", d)
		}
	}
	if got := e.events.types(); len(got) != 1 || got[0] != event.TypeSaleCompleted {
		t.Fatalf("expected one sale.completed event, got %v", got)
	}
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)

	const buyers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.sales.Execute(context.Background(), SaleRequest{
				BranchID: e.branchX.ID,
				Lines:    sellOne(item.ID, 1, "200"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 || rejected != buyers-10 {
		t.Fatalf("expected 10 sales and %d rejections, got %d and %d", buyers-10, succeeded, rejected)
	}
	if got := e.quantity(t, item.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestLoyaltyBalanceIdentityOverSeveralSales(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 100)

	// first sale registers the customer and earns nothing
	req := SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(item.ID, 1, "200"), CustomerPhone: "0855", CustomerName: "Loyal"}
	if _, err := e.sales.Execute(context.Background(), req); err != nil {
		t.Fatalf("first sale: %v", err)
	}

	earned, redeemed := model.ZeroMoney(), model.ZeroMoney()
	for _, redeem := range []string{"0", "3", "100", "1.5"} {
		req.RedeemPoints = money(redeem)
		sale, err := e.sales.Execute(context.Background(), req)
		if err != nil {
			t.Fatalf("sale redeeming %s: %v", redeem, err)
		}
		earned = earned.Add(sale.LoyaltyPointsEarned)
		redeemed = redeemed.Add(sale.LoyaltyPointsRedeemed)
	}

	want := earned.Sub(redeemed)
	if got := e.balance(t, "0855"); !got.Equal(want) {
		t.Fatalf("expected balance %s (earned %s - redeemed %s), got %s", want, earned, redeemed, got)
	}
}

func TestSaleSucceedsWhenAuditFails(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)
	e.audit = NewAuditLog(failingAuditRepo{})
	e.sales = NewSaleService(e.store, NewLoyaltyLedger(), e.audit, e.events, Options{})

	if _, err := e.sales.Execute(context.Background(), SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(item.ID, 2, "200")}); err != nil {
		t.Fatalf("expected sale to succeed despite audit failure, got %v", err)
	}
	if got := e.audit.Failures(); got != 1 {
		t.Fatalf("expected 1 audit failure, got %d", got)
	}
	if got := e.quantity(t, item.ID); got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}
}

func TestSaleRollsBackWhenContextCancelled(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.sales.Execute(ctx, SaleRequest{BranchID: e.branchX.ID, Lines: sellOne(item.ID, 2, "200")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("expected persistence failure kind, got %v", err)
	}
	if got := e.quantity(t, item.ID); got != 10 {
		t.Fatalf("expected stock rolled back to 10, got %d", got)
	}
}

type failingAuditRepo struct{}

func (failingAuditRepo) Append(context.Context, *model.InventoryLog) error {
	return errors.New("audit storage unavailable")
}

func (failingAuditRepo) List(context.Context, repository.AuditFilter) ([]model.InventoryLog, int64, error) {
	return nil, 0, nil
}

func TestSaleRejectsSubCentAmounts(t *testing.T) {
	e := newTestEngine(t)
	item := e.beans(t, e.branchX.ID, 10)
	e.mustCustomer(t, model.Customer{Phone: "0833", Name: "Regular", LoyaltyPoints: money("50")})
	subCent := model.NewMoneyFromDecimal(decimal.RequireFromString("150.005"))

	_, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID: e.branchX.ID,
		Lines: []SaleLineRequest{
			{ItemID: item.ID, Quantity: 1, SellPrice: subCent},
		},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("sub-cent sell price: expected ErrInvalidRequest, got %v", err)
	}

	_, err = e.sales.Execute(context.Background(), SaleRequest{
		BranchID:      e.branchX.ID,
		Lines:         sellOne(item.ID, 1, "200"),
		CustomerPhone: "0833",
		RedeemPoints:  model.NewMoneyFromDecimal(decimal.RequireFromString("0.001")),
	})
	if !errors.Is(err, ErrInvalidRedemption) {
		t.Fatalf("sub-cent redemption: expected ErrInvalidRedemption, got %v", err)
	}
	if got := e.quantity(t, item.ID); got != 10 {
		t.Fatalf("rejected sales changed stock: %d", got)
	}
}

// failingSaleStore fails one write inside the sale transaction
type failingSaleStore struct {
	repository.InventoryStore
	failCreateSale bool
	failBalance    bool
}

var errStoreDown = errors.New("connection reset by peer")

func (s *failingSaleStore) CreateSale(ctx context.Context, sale *model.Sale) error {
	if s.failCreateSale {
		return errStoreDown
	}
	return s.InventoryStore.CreateSale(ctx, sale)
}

func (s *failingSaleStore) UpdateCustomerBalance(ctx context.Context, id uuid.UUID, balance model.Money) error {
	if s.failBalance {
		return errStoreDown
	}
	return s.InventoryStore.UpdateCustomerBalance(ctx, id, balance)
}

func TestSaleRollsBackWhenAWriteFails(t *testing.T) {
	tests := []struct {
		name  string
		store func(repository.InventoryStore) repository.InventoryStore
	}{
		{"create sale", func(s repository.InventoryStore) repository.InventoryStore {
			return &failingSaleStore{InventoryStore: s, failCreateSale: true}
		}},
		{"update balance", func(s repository.InventoryStore) repository.InventoryStore {
			return &failingSaleStore{InventoryStore: s, failBalance: true}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngineWithStore(t, memory.New(), tt.store)
			item := e.beans(t, e.branchX.ID, 10)
			e.mustCustomer(t, model.Customer{Phone: "0844", Name: "Referrer", LoyaltyPoints: money("20")})

			_, err := e.sales.Execute(context.Background(), SaleRequest{
				BranchID:        e.branchX.ID,
				Lines:           sellOne(item.ID, 2, "200"),
				CustomerPhone:   "0855",
				CustomerName:    "Newcomer",
				ReferredByPhone: "0844",
			})
			if !errors.Is(err, ErrPersistenceFailure) {
				t.Fatalf("expected ErrPersistenceFailure, got %v", err)
			}
			if !errors.Is(err, errStoreDown) {
				t.Fatalf("expected the store error to be wrapped, got %v", err)
			}
			if got := e.quantity(t, item.ID); got != 10 {
				t.Fatalf("expected stock rolled back to 10, got %d", got)
			}
			if _, err := e.store.FindCustomerByPhone(context.Background(), "0855"); !errors.Is(err, repository.ErrNotFound) {
				t.Fatalf("expected new customer rolled back, got %v", err)
			}
			if got := e.balance(t, "0844"); !got.Equal(money("20")) {
				t.Fatalf("expected referrer balance 20, got %s", got)
			}
			if e.auditRepo.Len() != 0 || len(e.events.types()) != 0 {
				t.Fatalf("rolled back sale left audit entries or events")
			}
		})
	}
}

// lateCustomerStore misses a customer on the first locked lookup, as when a
// concurrent sale registers the same phone and commits in between.
type lateCustomerStore struct {
	repository.InventoryStore
	misses int
}

func (s *lateCustomerStore) FindCustomerByPhoneForUpdate(ctx context.Context, phone string) (*model.Customer, error) {
	if s.misses > 0 {
		s.misses--
		return nil, repository.ErrNotFound
	}
	return s.InventoryStore.FindCustomerByPhoneForUpdate(ctx, phone)
}

func TestSaleJoinsCustomerRegisteredConcurrently(t *testing.T) {
	e := newTestEngineWithStore(t, memory.New(), func(s repository.InventoryStore) repository.InventoryStore {
		return &lateCustomerStore{InventoryStore: s, misses: 1}
	})
	item := e.beans(t, e.branchX.ID, 10)
	existing := e.mustCustomer(t, model.Customer{Phone: "0866", Name: "First Buyer", LoyaltyPoints: money("100")})

	sale, err := e.sales.Execute(context.Background(), SaleRequest{
		BranchID:      e.branchX.ID,
		Lines:         sellOne(item.ID, 3, "200"),
		CustomerPhone: "0866",
		CustomerName:  "Second Buyer",
	})
	if err != nil {
		t.Fatalf("expected sale to use the existing customer, got %v", err)
	}
	if sale.CustomerID == nil || *sale.CustomerID != existing.ID {
		t.Fatalf("expected customer %s, got %v", existing.ID, sale.CustomerID)
	}
	// an existing customer earns 5% of the 300 profit
	if !sale.LoyaltyPointsEarned.Equal(money("15")) {
		t.Fatalf("expected 15 earned, got %s", sale.LoyaltyPointsEarned)
	}
	if got := e.balance(t, "0866"); !got.Equal(money("115")) {
		t.Fatalf("expected balance 115, got %s", got)
	}
}
