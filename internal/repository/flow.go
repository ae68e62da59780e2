package repository

import (
	"context"
	"errors"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"

	"gorm.io/gorm"
)

// FlowRepository adds the flow<->plan association handling on top of the
// generic layer
type FlowRepository struct {
	*Repository[model.Flow]
}

func NewFlowRepository(db *gorm.DB) *FlowRepository {
	return &FlowRepository{NewRepository[model.Flow](db, model.FlowDescriptor)}
}

// FlowUpdate carries the partial fields accepted by UpdateWithPricingPlans.
// A non-nil PlanIDs replaces the full association set.
type FlowUpdate struct {
	Name        *string
	Description *string
	PlanIDs     []string
}

// resolvePlans loads every referenced plan, failing with the missing id
func (r *FlowRepository) resolvePlans(ctx context.Context, planIDs []string) ([]model.PricingPlan, error) {
	plans := make([]model.PricingPlan, 0, len(planIDs))
	for _, id := range planIDs {
		var plan model.PricingPlan
		if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFoundf("The PricingPlan with id %s was not found", id)
			}
			return nil, apperr.FromRepository(err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// CreateWithPricingPlans persists a flow together with its plan associations
func (r *FlowRepository) CreateWithPricingPlans(ctx context.Context, flow *model.Flow, planIDs []string) (*model.Flow, error) {
	if err := r.checkUniques(ctx, flow); err != nil {
		return nil, err
	}
	plans, err := r.resolvePlans(ctx, planIDs)
	if err != nil {
		return nil, err
	}
	flow.PricingPlans = plans

	if err := r.db.WithContext(ctx).Create(flow).Error; err != nil {
		return nil, apperr.FromRepository(err)
	}
	return flow, nil
}

// UpdateWithPricingPlans partial-applies name/description and, when plan ids
// are provided, replaces the full association set (not an additive merge)
func (r *FlowRepository) UpdateWithPricingPlans(ctx context.Context, id string, data FlowUpdate) (*model.Flow, error) {
	var flow model.Flow
	if err := r.db.WithContext(ctx).First(&flow, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Flow with id %s not found", id)
		}
		return nil, apperr.FromRepository(err)
	}

	var plans []model.PricingPlan
	if data.PlanIDs != nil {
		resolved, err := r.resolvePlans(ctx, data.PlanIDs)
		if err != nil {
			return nil, err
		}
		plans = resolved
	}

	if data.Name != nil {
		flow.Name = *data.Name
	}
	if data.Description != nil {
		flow.Description = *data.Description
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&flow).Error; err != nil {
			return err
		}
		if data.PlanIDs != nil {
			if err := tx.Model(&flow).Association("PricingPlans").Replace(plans); err != nil {
				return err
			}
			flow.PricingPlans = plans
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromRepository(err)
	}
	return &flow, nil
}

// FlowsForPlan lists the flows enabled by one pricing plan
func (r *FlowRepository) FlowsForPlan(ctx context.Context, planID string) ([]model.Flow, error) {
	var flows []model.Flow
	err := r.db.WithContext(ctx).
		Joins("JOIN pricing_plans_flows ppf ON ppf.flow_id = flows.id").
		Where("ppf.pricing_plan_id = ?", planID).
		Find(&flows).Error
	if err != nil {
		return nil, apperr.FromRepository(err)
	}
	return flows, nil
}

// FlowsForEnterprisePlan lists the flows available under the plan the given
// enterprise currently holds
func (r *FlowRepository) FlowsForEnterprisePlan(ctx context.Context, enterpriseID string) ([]model.Flow, error) {
	var enterprise model.Enterprise
	if err := r.db.WithContext(ctx).First(&enterprise, "id = ?", enterpriseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Enterprise not found")
		}
		return nil, apperr.FromRepository(err)
	}
	if enterprise.PricingPlanID == nil {
		return nil, apperr.Validationf("Enterprise does not have an assigned plan")
	}
	return r.FlowsForPlan(ctx, *enterprise.PricingPlanID)
}
