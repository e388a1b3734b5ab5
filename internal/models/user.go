package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a platform account. Suspension itself is owned by the
// account service; the flag here mirrors its decision for read paths.
type User struct {
	ID          string `gorm:"primaryKey" json:"id"`
	DisplayName string `gorm:"type:text" json:"displayName"`
	IsSuspended bool   `json:"isSuspended"`
	SuspendedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BeforeCreate is a GORM hook that runs before a record is created.
// It generates a new UUID when the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
