package memory

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Fixed ids so a dev client can address the seeded rows without listing first.
var (
	SeedMainBranchID      = uuid.MustParse("8a1d2f3e-0000-4000-8000-000000000001")
	SeedWarehouseBranchID = uuid.MustParse("8a1d2f3e-0000-4000-8000-000000000002")
)

// NewSeeded returns a store holding two branches, a few items in the main
// branch and one loyalty customer.
func NewSeeded() *Store {
	s := New()
	seedInto(s)
	return s
}

// seedInto writes the dev rows. Failures are logged and skipped so a partly
// seeded store still starts.
func seedInto(s *Store) {
	ctx := context.Background()

	for _, b := range []model.Branch{
		{ID: SeedMainBranchID, Name: "Main Street", Location: "12 Main Street", Phone: "555-0100"},
		{ID: SeedWarehouseBranchID, Name: "North Warehouse", Location: "Industrial Park 4", Phone: "555-0199"},
	} {
		branch := b
		if err := s.CreateBranch(ctx, &branch); err != nil {
			log.Warn().Err(err).Str("branch", branch.Name).Msg("seed branch failed")
		}
	}

	for _, it := range []struct {
		sku, name, category string
		price, minSell      int64
		qty                 int
	}{
		{"101001", "Espresso Beans 1kg", "coffee", 100, 150, 40},
		{"101002", "Decaf Beans 500g", "coffee", 60, 90, 25},
		{"205001", "Ceramic Mug", "kitchen", 8, 12, 120},
		{"310001", "Pour Over Kettle", "equipment", 35, 55, 10},
	} {
		item := model.Item{
			BranchID:          SeedMainBranchID,
			Sku:               model.Sku(it.sku),
			Name:              it.name,
			Category:          it.category,
			Price:             model.NewMoneyFromInt(it.price),
			MinimumSellPrice:  model.NewMoneyFromInt(it.minSell),
			Quantity:          model.Quantity(it.qty),
			MinimumStockLevel: 5,
		}
		if err := s.UpsertItem(ctx, &item); err != nil {
			log.Warn().Err(err).Str("sku", it.sku).Msg("seed item failed")
		}
	}

	if err := s.CreateCustomer(ctx, &model.Customer{
		Phone:         "0800111222",
		Name:          "Dana Regular",
		LoyaltyPoints: model.NewMoneyFromInt(500),
	}); err != nil {
		log.Warn().Err(err).Msg("seed customer failed")
	}
}
