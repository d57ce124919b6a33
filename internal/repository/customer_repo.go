package repository

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *inventoryStore) FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Where("phone = ?", phone).First(&customer).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

func (r *inventoryStore) FindCustomerByPhoneForUpdate(ctx context.Context, phone string) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("phone = ?", phone).First(&customer).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

func (r *inventoryStore) GetCustomerForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

// CreateCustomer inserts inside a savepoint so a phone collision leaves the
// surrounding transaction usable for a re-read.
func (r *inventoryStore) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(customer).Error
	})
	return translateError(err)
}

func (r *inventoryStore) UpdateCustomerBalance(ctx context.Context, id uuid.UUID, balance model.Money) error {
	res := GetDB(ctx, r.db).Model(&model.Customer{}).Where("id = ?", id).Update("loyalty_points", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
