package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the operator acting on inventory. Accounts are managed outside this
// service; the engine only references them by id.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Role      string         `gorm:"type:varchar(50);not null" json:"role"` // admin, manager, staff
	BranchID  *uuid.UUID     `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
