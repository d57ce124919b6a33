package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"retailpos/internal/event"
	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DTOs
type SaleLineRequest struct {
	ItemID    uuid.UUID   `json:"item_id" binding:"required"`
	Quantity  int         `json:"quantity" binding:"required,gt=0"`
	SellPrice model.Money `json:"sell_price"`
}

type SaleRequest struct {
	BranchID         uuid.UUID         `json:"branch_id" binding:"required"`
	OperatorID       *uuid.UUID        `json:"-"`
	Lines            []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	CustomerPhone    string            `json:"customer_phone"`
	CustomerName     string            `json:"customer_name"`
	ReferredByPhone  string            `json:"referred_by_phone"`
	RedeemPoints     model.Money       `json:"redeem_points"`
	PaymentMethod    string            `json:"payment_method" binding:"omitempty,oneof=CASH CARD TRANSFER"`
	PaymentReference string            `json:"payment_reference"`
}

type SaleCompletedEvent struct {
	SaleID      uuid.UUID   `json:"sale_id"`
	BranchID    uuid.UUID   `json:"branch_id"`
	CustomerID  *uuid.UUID  `json:"customer_id,omitempty"`
	TotalAmount model.Money `json:"total_amount"`
	ItemIDs     []uuid.UUID `json:"item_ids"`
}

type SaleService interface {
	Execute(ctx context.Context, req SaleRequest) (*model.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

type saleService struct {
	store     repository.InventoryStore
	ledger    *LoyaltyLedger
	audit     *AuditLog
	publisher event.Publisher
	opts      Options
}

func NewSaleService(
	store repository.InventoryStore,
	ledger *LoyaltyLedger,
	audit *AuditLog,
	publisher event.Publisher,
	opts Options,
) SaleService {
	return &saleService{
		store:     store,
		ledger:    ledger,
		audit:     audit,
		publisher: publisher,
		opts:      opts.withDefaults(),
	}
}

// saleLine is a request line resolved against its item
type saleLine struct {
	req      SaleLineRequest
	quantity model.Quantity
}

// Execute runs a sale as one transaction: stock decrements, the sale with its
// lines and the loyalty balance updates commit together or not at all.
// Request validation and a first stock check happen before the transaction
// opens; stock is checked again under the row locks.
func (s *saleService) Execute(ctx context.Context, req SaleRequest) (*model.Sale, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentCash
	}
	lines, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	var (
		sale     *model.Sale
		items    map[uuid.UUID]*model.Item
		customer *model.Customer
	)
	err = s.store.RunInTx(txCtx, func(txCtx context.Context) error {
		var err error
		items, err = s.lockItems(txCtx, lines)
		if err != nil {
			return err
		}

		sale = &model.Sale{
			BranchID:         req.BranchID,
			OperatorID:       req.OperatorID,
			PaymentMethod:    req.PaymentMethod,
			PaymentReference: req.PaymentReference,
			TotalAmount:      model.ZeroMoney(),
			TotalProfit:      model.ZeroMoney(),
		}
		for _, l := range lines {
			item := items[l.req.ItemID]
			if l.quantity > item.Quantity {
				return insufficientStock(item, l.quantity)
			}
			if l.req.SellPrice.LessThan(item.MinimumSellPrice) {
				return belowMinimumPrice(item)
			}

			line := model.SaleLine{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Category:  item.Category,
				Sku:       item.Sku,
				UnitCost:  item.Price,
				SellPrice: l.req.SellPrice,
				Quantity:  l.quantity,
				Profit:    l.req.SellPrice.Sub(item.Price).MulQty(l.quantity),
			}
			sale.Lines = append(sale.Lines, line)
			sale.TotalAmount = sale.TotalAmount.Add(line.LineTotal())
			sale.TotalProfit = sale.TotalProfit.Add(line.Profit)

			item.Quantity -= l.quantity
			if err := s.store.UpdateItemQuantity(txCtx, item.ID, item.Quantity); err != nil {
				return storeError("decrement stock", err)
			}
		}

		var isNew bool
		customer, isNew, err = s.resolveCustomer(txCtx, req)
		if err != nil {
			return err
		}
		referrer, err := s.resolveReferrer(txCtx, customer)
		if err != nil {
			return err
		}

		redeemed, err := s.ledger.Redeem(customer, req.RedeemPoints, sale.TotalAmount, isNew)
		if err != nil {
			return err
		}
		loyalty := s.ledger.ComputeLoyalty(customer, referrer, sale.TotalProfit, isNew)

		sale.LoyaltyPointsRedeemed = redeemed
		sale.LoyaltyPointsEarned = loyalty.Earned
		sale.ReferrerBonus = loyalty.ReferrerBonus
		sale.AmountDue = sale.TotalAmount.Sub(redeemed)
		if customer != nil {
			sale.CustomerID = &customer.ID
		}

		if err := s.store.CreateSale(txCtx, sale); err != nil {
			return storeError("create sale", err)
		}

		if customer != nil {
			balance, err := s.ledger.Settle(customer.LoyaltyPoints, redeemed, loyalty.Earned)
			if err != nil {
				return err
			}
			if !balance.Equal(customer.LoyaltyPoints) {
				if err := s.store.UpdateCustomerBalance(txCtx, customer.ID, balance); err != nil {
					return storeError("update customer balance", err)
				}
				customer.LoyaltyPoints = balance
			}
		}
		if loyalty.CreditReferrer {
			balance := referrer.LoyaltyPoints.Add(loyalty.ReferrerBonus)
			if err := s.store.UpdateCustomerBalance(txCtx, referrer.ID, balance); err != nil {
				return storeError("credit referrer", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("branch_id", req.BranchID.String()).Msg("sale rolled back")
		return nil, storeError("execute sale", err)
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("branch_id", sale.BranchID.String()).
		Str("total", sale.TotalAmount.String()).
		Int("lines", len(sale.Lines)).
		Msg("sale committed")

	itemIDs := make([]uuid.UUID, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		item := items[line.ItemID]
		s.audit.Record(ctx, item, &sale.ID, req.OperatorID, model.SaleDetails{
			SaleID:         sale.ID,
			QuantityChange: -line.Quantity.Int(),
			SellPrice:      line.SellPrice,
			StockAfter:     item.Quantity,
		})
		itemIDs = append(itemIDs, line.ItemID)
	}

	publish(ctx, s.publisher, event.New(event.TypeSaleCompleted, SaleCompletedEvent{
		SaleID:      sale.ID,
		BranchID:    sale.BranchID,
		CustomerID:  sale.CustomerID,
		TotalAmount: sale.TotalAmount,
		ItemIDs:     itemIDs,
	}))

	return sale, nil
}

// validate checks the request shape and runs the read-time stock and price
// checks. Nothing is written.
func (s *saleService) validate(ctx context.Context, req SaleRequest) ([]saleLine, error) {
	if req.BranchID == uuid.Nil {
		return nil, newError(KindInvalidRequest, "branch is required")
	}
	if len(req.Lines) == 0 {
		return nil, newError(KindInvalidRequest, "a sale needs at least one line")
	}
	if req.RedeemPoints.IsNegative() {
		return nil, newError(KindInvalidRedemption, "redeem points must not be negative, got %s", req.RedeemPoints)
	}
	if !req.RedeemPoints.IsCents() {
		return nil, newError(KindInvalidRedemption, "redeem points must be a whole number of cents")
	}

	lines := make([]saleLine, 0, len(req.Lines))
	seen := make(map[uuid.UUID]bool, len(req.Lines))
	for i, l := range req.Lines {
		qty, err := model.NewPositiveQuantity(l.Quantity)
		if err != nil {
			return nil, &EngineError{Kind: KindInvalidRequest, Msg: fmt.Sprintf("line %d", i+1), Err: err}
		}
		if l.SellPrice.IsNegative() {
			return nil, newError(KindInvalidRequest, "line %d: sell price must not be negative", i+1)
		}
		if !l.SellPrice.IsCents() {
			return nil, newError(KindInvalidRequest, "line %d: sell price must be a whole number of cents", i+1)
		}
		if seen[l.ItemID] {
			return nil, newError(KindInvalidRequest, "item %s appears on more than one line", l.ItemID)
		}
		seen[l.ItemID] = true

		item, err := s.store.GetItem(ctx, l.ItemID)
		if err != nil {
			return nil, storeError("load item "+l.ItemID.String(), err)
		}
		if item.BranchID != req.BranchID {
			return nil, newError(KindInvalidRequest, "item %s is not stocked by branch %s", item.ID, req.BranchID)
		}
		if qty > item.Quantity {
			return nil, insufficientStock(item, qty)
		}
		if l.SellPrice.LessThan(item.MinimumSellPrice) {
			return nil, belowMinimumPrice(item)
		}
		lines = append(lines, saleLine{req: l, quantity: qty})
	}
	return lines, nil
}

// lockItems takes row locks in id order so concurrent sales sharing items
// cannot deadlock on each other.
func (s *saleService) lockItems(ctx context.Context, lines []saleLine) (map[uuid.UUID]*model.Item, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.req.ItemID)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	items := make(map[uuid.UUID]*model.Item, len(ids))
	for _, id := range ids {
		item, err := s.store.GetItemForUpdate(ctx, id)
		if err != nil {
			return nil, storeError("lock item "+id.String(), err)
		}
		items[id] = item
	}
	return items, nil
}

// resolveCustomer looks the customer up by phone. An unknown phone with a
// name registers a new customer; without a name the sale is a walk-in.
func (s *saleService) resolveCustomer(ctx context.Context, req SaleRequest) (*model.Customer, bool, error) {
	phone := strings.TrimSpace(req.CustomerPhone)
	if phone == "" {
		return nil, false, nil
	}

	customer, err := s.store.FindCustomerByPhoneForUpdate(ctx, phone)
	if err == nil {
		return customer, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, storeError("find customer", err)
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, false, nil
	}

	customer = &model.Customer{Phone: phone, Name: name, LoyaltyPoints: model.ZeroMoney()}
	if refPhone := strings.TrimSpace(req.ReferredByPhone); refPhone != "" && refPhone != phone {
		referrer, err := s.store.FindCustomerByPhone(ctx, refPhone)
		switch {
		case err == nil:
			customer.ReferredByID = &referrer.ID
		case !errors.Is(err, repository.ErrNotFound):
			return nil, false, storeError("find referrer", err)
		}
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// a concurrent sale registered the phone first; buy as that customer
			existing, lookupErr := s.store.FindCustomerByPhoneForUpdate(ctx, phone)
			if lookupErr != nil {
				return nil, false, storeError("reload customer", lookupErr)
			}
			log.Debug().Str("customer_id", existing.ID.String()).Msg("customer registered concurrently")
			return existing, false, nil
		}
		return nil, false, storeError("create customer", err)
	}
	return customer, true, nil
}

func (s *saleService) resolveReferrer(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	if customer == nil || customer.ReferredByID == nil || *customer.ReferredByID == customer.ID {
		return nil, nil
	}
	referrer, err := s.store.GetCustomerForUpdate(ctx, *customer.ReferredByID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("lock referrer", err)
	}
	return referrer, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return nil, storeError("get sale", err)
	}
	return sale, nil
}

func insufficientStock(item *model.Item, want model.Quantity) error {
	return newError(KindInsufficientStock, "not enough stock for %s: requested %d, available %d", item.Name, want, item.Quantity)
}

func belowMinimumPrice(item *model.Item) error {
	return newError(KindBelowMinimumPrice, "cannot sell %s below minimum price of %s", item.Name, item.MinimumSellPrice)
}
