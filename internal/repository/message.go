package repository

import (
	"context"
	"errors"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRepository adds the plan membership rule and the flow-aware reads on
// top of the generic layer
type MessageRepository struct {
	*Repository[model.Message]
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{NewRepository[model.Message](db, model.MessageDescriptor)}
}

// CreateMessage persists a message after verifying, inside one transaction,
// that the target flow belongs to the plan the enterprise currently holds.
// A failed check leaves no row behind.
func (r *MessageRepository) CreateMessage(ctx context.Context, msg *model.Message, flowID, enterpriseID string) (*model.Message, error) {
	if flowID == "" {
		return nil, apperr.Validationf("Flow not provided")
	}
	if _, err := uuid.Parse(flowID); err != nil {
		return nil, apperr.Validationf("Invalid flow ID format")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enterprise model.Enterprise
		if err := tx.Preload("PricingPlan").First(&enterprise, "id = ?", enterpriseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("Enterprise not found")
			}
			return err
		}

		var flow model.Flow
		if err := tx.Preload("PricingPlans").First(&flow, "id = ?", flowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("Flow not found")
			}
			return err
		}

		if enterprise.PricingPlanID == nil {
			return apperr.Validationf("Enterprise does not have an assigned plan")
		}

		inPlan := false
		for _, plan := range flow.PricingPlans {
			if plan.ID == *enterprise.PricingPlanID {
				inPlan = true
				break
			}
		}
		if !inPlan {
			return apperr.Validationf("The flow does not belong to the enterprise's contracted plan")
		}

		msg.EnterpriseID = enterprise.ID
		msg.FlowID = flow.ID
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, apperr.FromRepository(err)
	}
	return msg, nil
}

// FindAllWithFlow lists the tenant's active messages with the flow preloaded
func (r *MessageRepository) FindAllWithFlow(ctx context.Context, enterpriseID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.scoped(r.db.WithContext(ctx).Preload("Flow"), enterpriseID).Find(&messages).Error
	if err != nil {
		return nil, apperr.FromRepository(err)
	}
	return messages, nil
}

// FindAllDeletedWithFlow lists only the tenant's soft-deleted messages
func (r *MessageRepository) FindAllDeletedWithFlow(ctx context.Context, enterpriseID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.scoped(
		r.db.WithContext(ctx).Unscoped().Preload("Flow").Where("deleted_at IS NOT NULL"),
		enterpriseID,
	).Find(&messages).Error
	if err != nil {
		return nil, apperr.FromRepository(err)
	}
	return messages, nil
}

// FindByIDWithFlow returns one active message with its flow preloaded
func (r *MessageRepository) FindByIDWithFlow(ctx context.Context, id, enterpriseID string) (*model.Message, error) {
	var msg model.Message
	tx := r.scoped(r.db.WithContext(ctx).Preload("Flow").Where("id = ?", id), enterpriseID)
	if err := tx.First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Message not found")
		}
		return nil, apperr.FromRepository(err)
	}
	return &msg, nil
}

// FindByNumOrder lists the tenant's active messages with the given order
// number inside one flow
func (r *MessageRepository) FindByNumOrder(ctx context.Context, enterpriseID, flowID string, numOrder int) ([]model.Message, error) {
	var messages []model.Message
	err := r.scoped(
		r.db.WithContext(ctx).Preload("Flow").Where("flow_id = ? AND num_order = ?", flowID, numOrder),
		enterpriseID,
	).Find(&messages).Error
	if err != nil {
		return nil, apperr.FromRepository(err)
	}
	if len(messages) == 0 {
		return nil, apperr.NotFoundf("Message not found")
	}
	return messages, nil
}

// FindByNumOrderAndFlowName resolves the flow by name first, then lists the
// tenant's active messages with the given order number inside it
func (r *MessageRepository) FindByNumOrderAndFlowName(ctx context.Context, enterpriseID, flowName string, numOrder int) ([]model.Message, error) {
	var flow model.Flow
	if err := r.db.WithContext(ctx).First(&flow, "name = ?", flowName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Flow not found")
		}
		return nil, apperr.FromRepository(err)
	}
	return r.FindByNumOrder(ctx, enterpriseID, flow.ID, numOrder)
}
