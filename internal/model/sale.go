package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a loyalty-program member identified by phone number
type Customer struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Phone         string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"phone"`
	Name          string     `gorm:"type:varchar(255);not null" json:"name"`
	LoyaltyPoints Money      `gorm:"type:decimal(14,2);not null;default:0" json:"loyalty_points"`
	ReferredByID  *uuid.UUID `gorm:"type:uuid;index" json:"referred_by_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Payment methods accepted at the counter
const (
	PaymentCash     = "CASH"
	PaymentCard     = "CARD"
	PaymentTransfer = "TRANSFER"
)

// Sale is the header of a committed point-of-sale transaction
type Sale struct {
	ID                    uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BranchID              uuid.UUID  `gorm:"type:uuid;not null;index" json:"branch_id"`
	OperatorID            *uuid.UUID `gorm:"type:uuid;index" json:"operator_id"`
	CustomerID            *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	TotalAmount           Money      `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	TotalProfit           Money      `gorm:"type:decimal(14,2);not null" json:"total_profit"`
	LoyaltyPointsEarned   Money      `gorm:"type:decimal(14,2);not null;default:0" json:"loyalty_points_earned"`
	LoyaltyPointsRedeemed Money      `gorm:"type:decimal(14,2);not null;default:0" json:"loyalty_points_redeemed"`
	ReferrerBonus         Money      `gorm:"type:decimal(14,2);not null;default:0" json:"referrer_bonus"`
	AmountDue             Money      `gorm:"type:decimal(14,2);not null" json:"amount_due"` // total_amount - loyalty_points_redeemed
	PaymentMethod         string     `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentReference      string     `gorm:"type:varchar(255)" json:"payment_reference,omitempty"`
	Lines                 []SaleLine `gorm:"foreignKey:SaleID" json:"lines"`
	CreatedAt             time.Time  `gorm:"index" json:"created_at"`
}

// SaleLine snapshots the item as it was at sale time so later edits do not rewrite history
type SaleLine struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	ItemName  string    `gorm:"type:varchar(255);not null" json:"item_name"`
	Category  string    `gorm:"type:varchar(100)" json:"category"`
	Sku       Sku       `gorm:"type:varchar(64)" json:"sku"`
	UnitCost  Money     `gorm:"type:decimal(14,2);not null" json:"unit_cost"`
	SellPrice Money     `gorm:"type:decimal(14,2);not null" json:"sell_price"`
	Quantity  Quantity  `gorm:"type:int;not null" json:"quantity"`
	Profit    Money     `gorm:"type:decimal(14,2);not null" json:"profit"`
}

// LineTotal is sell price times quantity
func (l SaleLine) LineTotal() Money {
	return l.SellPrice.MulQty(l.Quantity)
}
