package service

import (
	"context"
	"strings"

	"retailpos/internal/model"
	"retailpos/internal/repository"
)

type CustomerService interface {
	GetCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error)
}

type customerService struct {
	store repository.InventoryStore
}

func NewCustomerService(store repository.InventoryStore) CustomerService {
	return &customerService{store: store}
}

// GetCustomerByPhone is the loyalty balance lookup used at the counter
func (s *customerService) GetCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, newError(KindInvalidRequest, "phone is required")
	}
	customer, err := s.store.FindCustomerByPhone(ctx, phone)
	if err != nil {
		return nil, storeError("find customer", err)
	}
	return customer, nil
}
