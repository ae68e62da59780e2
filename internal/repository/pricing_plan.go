package repository

import (
	"chatflow-service/internal/model"

	"gorm.io/gorm"
)

// NewPricingPlanRepository builds the pricing plan repository; plans need
// nothing beyond the generic surface
func NewPricingPlanRepository(db *gorm.DB) *Repository[model.PricingPlan] {
	return NewRepository[model.PricingPlan](db, model.PricingPlanDescriptor)
}
