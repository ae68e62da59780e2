package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every entity: uuid identity assigned at creation,
// immutable creation timestamp and the soft-delete marker. A row with a
// non-null deleted_at is excluded from default queries but stays physically
// present and restorable.
type Base struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the uuid primary key if the caller did not provide one
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// TenantOwned is implemented by entities that belong to an enterprise.
// The generic repository uses it to attach the resolved tenant on create
// and to discard any client-supplied enterprise value.
type TenantOwned interface {
	SetEnterprise(id string)
}

// FieldValue pairs a database column with the value an entity holds for it
type FieldValue struct {
	Column string
	Value  interface{}
}

// Uniquer exposes the values of an entity's declared unique columns so the
// generic repository can run its pre-insert checks without reflection
type Uniquer interface {
	UniqueFields() []FieldValue
}
