package repository

import (
	"context"
	"errors"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"

	"gorm.io/gorm"
)

// EnterpriseRepository adds plan-aware operations on top of the generic layer
type EnterpriseRepository struct {
	*Repository[model.Enterprise]
}

func NewEnterpriseRepository(db *gorm.DB) *EnterpriseRepository {
	return &EnterpriseRepository{NewRepository[model.Enterprise](db, model.EnterpriseDescriptor)}
}

// EnterpriseUpdate carries the partial fields accepted by UpdateWithPlan;
// nil means "leave unchanged"
type EnterpriseUpdate struct {
	Name      *string
	Phone     *string
	Connected *bool
}

// GetWithPricingPlan returns the enterprise with its current plan preloaded
func (r *EnterpriseRepository) GetWithPricingPlan(ctx context.Context, id string) (*model.Enterprise, error) {
	var enterprise model.Enterprise
	err := r.db.WithContext(ctx).Preload("PricingPlan").First(&enterprise, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Enterprise not found")
		}
		return nil, apperr.FromRepository(err)
	}
	return &enterprise, nil
}

// UpdateWithPlan partial-applies name/phone/connected and reassigns the
// pricing plan. The target plan must exist before anything is written.
func (r *EnterpriseRepository) UpdateWithPlan(ctx context.Context, id, planID string, data EnterpriseUpdate) (*model.Enterprise, error) {
	var plan model.PricingPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("PricingPlan not found")
		}
		return nil, apperr.FromRepository(err)
	}

	var enterprise model.Enterprise
	if err := r.db.WithContext(ctx).First(&enterprise, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Enterprise not found")
		}
		return nil, apperr.FromRepository(err)
	}

	if data.Name != nil {
		enterprise.Name = *data.Name
	}
	if data.Phone != nil {
		enterprise.Phone = *data.Phone
	}
	if data.Connected != nil {
		enterprise.Connected = *data.Connected
	}
	enterprise.PricingPlanID = &plan.ID
	enterprise.PricingPlan = &plan

	if err := r.db.WithContext(ctx).Save(&enterprise).Error; err != nil {
		return nil, apperr.FromRepository(err)
	}
	return &enterprise, nil
}

// CountByPhone reports how many active enterprises hold the given phone
func (r *EnterpriseRepository) CountByPhone(ctx context.Context, phone string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Enterprise{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return 0, apperr.FromRepository(err)
	}
	return count, nil
}
