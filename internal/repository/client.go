package repository

import (
	"chatflow-service/internal/model"

	"gorm.io/gorm"
)

// NewClientRepository builds the client repository; clients need nothing
// beyond the generic surface
func NewClientRepository(db *gorm.DB) *Repository[model.Client] {
	return NewRepository[model.Client](db, model.ClientDescriptor)
}
