package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LogAction is the kind of mutation an inventory log entry records
type LogAction string

const (
	ActionCreate   LogAction = "create"
	ActionUpdate   LogAction = "update"
	ActionDelete   LogAction = "delete"
	ActionSale     LogAction = "sale"
	ActionTransfer LogAction = "transfer"
)

func (a LogAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionSale, ActionTransfer:
		return true
	}
	return false
}

// InventoryLog is an append-only record of a single item mutation. Rows are
// never updated or deleted.
type InventoryLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Action      LogAction  `gorm:"type:varchar(20);not null;index" json:"action"`
	ItemID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"item_id"`
	ItemName    string     `gorm:"type:varchar(255)" json:"item_name"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index" json:"reference_id,omitempty"` // sale or transfer id
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`                // nil for system actions
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Details     string     `gorm:"type:jsonb;not null" json:"details"` // DetailsEnvelope
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// TableName keeps the audit table name stable regardless of struct renames.
func (InventoryLog) TableName() string {
	return "inventory_logs"
}

// LogDetails is the kind-specific payload of an InventoryLog.
// Implementations: SaleDetails, UpdateDetails, TransferDetails, CreateDetails, DeleteDetails.
type LogDetails interface {
	Kind() LogAction
}

type SaleDetails struct {
	SaleID         uuid.UUID `json:"sale_id"`
	QuantityChange int       `json:"quantity_change"`
	SellPrice      Money     `json:"sell_price"`
	StockAfter     Quantity  `json:"stock_after"`
}

func (SaleDetails) Kind() LogAction { return ActionSale }

// FieldChange is the before/after value of one updated field
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

type UpdateDetails struct {
	Changes map[string]FieldChange `json:"changes"`
}

func (UpdateDetails) Kind() LogAction { return ActionUpdate }

// Transfer directions, relative to the logged item
const (
	DirectionOut = "out"
	DirectionIn  = "in"
)

type TransferDetails struct {
	TransferID   uuid.UUID `json:"transfer_id"`
	Quantity     Quantity  `json:"quantity"`
	FromBranchID uuid.UUID `json:"from_branch_id"`
	ToBranchID   uuid.UUID `json:"to_branch_id"`
	Direction    string    `json:"direction"`
	Created      bool      `json:"created,omitempty"` // destination item was materialized by this transfer
	StockAfter   Quantity  `json:"stock_after"`
}

func (TransferDetails) Kind() LogAction { return ActionTransfer }

type CreateDetails struct {
	Sku      Sku      `json:"sku"`
	Quantity Quantity `json:"quantity"`
	Price    Money    `json:"price"`
}

func (CreateDetails) Kind() LogAction { return ActionCreate }

type DeleteDetails struct {
	Sku      Sku      `json:"sku"`
	Quantity Quantity `json:"quantity"`
}

func (DeleteDetails) Kind() LogAction { return ActionDelete }

var ErrUnknownDetailsKind = errors.New("unknown log details kind")

// detailsEnvelope is the self-describing wire form stored in InventoryLog.Details
type detailsEnvelope struct {
	Kind LogAction       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeDetails wraps d in a {"kind": ..., "data": ...} envelope
func EncodeDetails(d LogDetails) (string, error) {
	if d == nil {
		return "", fmt.Errorf("encode log details: nil payload")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode %s details: %w", d.Kind(), err)
	}
	raw, err := json.Marshal(detailsEnvelope{Kind: d.Kind(), Data: data})
	if err != nil {
		return "", fmt.Errorf("encode %s envelope: %w", d.Kind(), err)
	}
	return string(raw), nil
}

// DecodeDetails parses an envelope back into its concrete variant
func DecodeDetails(raw string) (LogDetails, error) {
	var env detailsEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode log details envelope: %w", err)
	}

	var target LogDetails
	switch env.Kind {
	case ActionSale:
		var d SaleDetails
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("decode sale details: %w", err)
		}
		target = d
	case ActionUpdate:
		var d UpdateDetails
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("decode update details: %w", err)
		}
		target = d
	case ActionTransfer:
		var d TransferDetails
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("decode transfer details: %w", err)
		}
		target = d
	case ActionCreate:
		var d CreateDetails
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("decode create details: %w", err)
		}
		target = d
	case ActionDelete:
		var d DeleteDetails
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("decode delete details: %w", err)
		}
		target = d
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetailsKind, env.Kind)
	}
	return target, nil
}

// DecodedDetails is a convenience for DecodeDetails(l.Details)
func (l InventoryLog) DecodedDetails() (LogDetails, error) {
	return DecodeDetails(l.Details)
}
