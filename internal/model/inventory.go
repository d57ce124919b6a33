package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a physical shop or warehouse holding its own inventory
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Location  string    `gorm:"type:varchar(255)" json:"location"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a stocked product record scoped to one branch.
// Price is the unit cost; MinimumSellPrice is the floor a sale may not go below.
type Item struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BranchID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_items_branch_sku;index" json:"branch_id"`
	Sku               Sku            `gorm:"type:varchar(64);not null;uniqueIndex:idx_items_branch_sku" json:"sku"`
	Name              string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Description       string         `gorm:"type:text" json:"description"`
	Category          string         `gorm:"type:varchar(100)" json:"category"`
	Origin            string         `gorm:"type:varchar(100)" json:"origin"`
	ImageURL          string         `gorm:"type:text" json:"image_url"`
	Price             Money          `gorm:"type:decimal(14,2);not null" json:"price"`
	Quantity          Quantity       `gorm:"type:int;default:0;not null;check:quantity >= 0" json:"quantity"`
	MinimumStockLevel Quantity       `gorm:"type:int;default:0;not null" json:"minimum_stock_level"`
	MinimumSellPrice  Money          `gorm:"type:decimal(14,2);not null;default:0" json:"minimum_sell_price"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// StockTransfer records a movement of quantity from one branch's item to another branch
type StockTransfer struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Quantity           Quantity   `gorm:"type:int;not null" json:"quantity"`
	SourceItemID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"source_item_id"`
	FromBranchID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"from_branch_id"`
	ToBranchID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"to_branch_id"`
	DestinationItemID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"destination_item_id"`
	DestinationCreated bool       `gorm:"not null;default:false" json:"destination_created"`
	OperatorID         *uuid.UUID `gorm:"type:uuid;index" json:"operator_id"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
}
