package repository

import (
	"context"
	"errors"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"

	"gorm.io/gorm"
)

// ProfileRepository adds the enterprise-preloading read used by tenant
// resolution
type ProfileRepository struct {
	*Repository[model.Profile]
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{NewRepository[model.Profile](db, model.ProfileDescriptor)}
}

// FindWithEnterprise returns one active profile with its enterprise preloaded
func (r *ProfileRepository) FindWithEnterprise(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Preload("Enterprise").First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Profile not found")
		}
		return nil, apperr.FromRepository(err)
	}
	return &profile, nil
}
