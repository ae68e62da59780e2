package repository

import (
	"context"
	"errors"
	"fmt"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"
	"chatflow-service/internal/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the tenant-aware, soft-delete-aware CRUD layer shared by
// every entity type. Behavior is parameterized by the entity's static
// Descriptor (tenant relation, unique columns, column allow-lists) instead of
// per-entity code; the six entity repositories embed it and add only their
// cross-entity rules.
type Repository[T any] struct {
	db   *gorm.DB
	desc model.Descriptor
}

// NewRepository creates a repository for one entity type
func NewRepository[T any](db *gorm.DB, desc model.Descriptor) *Repository[T] {
	return &Repository[T]{db: db, desc: desc}
}

// Desc returns the entity's static capability table
func (r *Repository[T]) Desc() model.Descriptor {
	return r.desc
}

// DB exposes the underlying handle to sibling repositories
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

// scoped merges the enterprise id into the query as an equality constraint
// when the entity is tenant-owned and a tenant was resolved
func (r *Repository[T]) scoped(tx *gorm.DB, enterpriseID string) *gorm.DB {
	if r.desc.HasEnterprise && enterpriseID != "" {
		return tx.Where("enterprise_id = ?", enterpriseID)
	}
	return tx
}

// FindAll returns one page of active rows matching the equality filters,
// together with the total number of matching rows
func (r *Repository[T]) FindAll(ctx context.Context, filters map[string]interface{}, page int, sort []query.SortField, enterpriseID string) ([]T, int64, error) {
	return r.findPage(ctx, filters, page, sort, enterpriseID, false)
}

// FindAllDeleted is FindAll without the implicit soft-delete exclusion
func (r *Repository[T]) FindAllDeleted(ctx context.Context, filters map[string]interface{}, page int, sort []query.SortField, enterpriseID string) ([]T, int64, error) {
	return r.findPage(ctx, filters, page, sort, enterpriseID, true)
}

func (r *Repository[T]) findPage(ctx context.Context, filters map[string]interface{}, page int, sort []query.SortField, enterpriseID string, withDeleted bool) ([]T, int64, error) {
	order, err := query.OrderClause(sort, r.desc)
	if err != nil {
		return nil, 0, err
	}

	base := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(new(T))
		if withDeleted {
			tx = tx.Unscoped()
		}
		if len(filters) > 0 {
			tx = tx.Where(filters)
		}
		return r.scoped(tx, enterpriseID)
	}

	// The metadata total is a real count, not the size of the returned page
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, apperr.FromRepository(err)
	}

	tx := base()
	if order != "" {
		tx = tx.Order(order)
	}

	var entities []T
	if err := tx.Offset((page - 1) * query.PageSize).Limit(query.PageSize).Find(&entities).Error; err != nil {
		return nil, 0, apperr.FromRepository(err)
	}
	return entities, total, nil
}

// FindByID returns one active row by id, additionally scoped by enterprise
// when one is provided
func (r *Repository[T]) FindByID(ctx context.Context, id, enterpriseID string) (*T, error) {
	entity := new(T)
	tx := r.scoped(r.db.WithContext(ctx).Where("id = ?", id), enterpriseID)
	if err := tx.First(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Entity not found")
		}
		return nil, apperr.FromRepository(err)
	}
	return entity, nil
}

// Create persists a new entity. Declared unique columns are checked against
// active rows first; for tenant-owned entities the enterprise is attached
// from the resolved tenant and any client-supplied enterprise value is
// discarded.
func (r *Repository[T]) Create(ctx context.Context, entity *T, enterpriseID string) (*T, error) {
	if err := r.checkUniques(ctx, entity); err != nil {
		return nil, err
	}

	if owned, ok := any(entity).(model.TenantOwned); ok && r.desc.HasEnterprise {
		// The tenant is always derived from the authenticated caller
		owned.SetEnterprise("")
		if enterpriseID != "" {
			var enterprise model.Enterprise
			if err := r.db.WithContext(ctx).First(&enterprise, "id = ?", enterpriseID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperr.NotFoundf("Enterprise not found")
				}
				return nil, apperr.FromRepository(err)
			}
			owned.SetEnterprise(enterprise.ID)
		}
	}

	// Associations never ride along on a generic create: a nested relation in
	// the entity would insert rows that bypass the uniqueness checks. Entity
	// repositories that do persist associations resolve them explicitly first.
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return nil, apperr.FromRepository(err)
	}
	return entity, nil
}

// checkUniques enforces the pre-insert uniqueness policy: every declared
// unique column must not hold the candidate value on any active row.
// Soft-deleted rows do not count, so their values can be reused.
func (r *Repository[T]) checkUniques(ctx context.Context, entity *T) error {
	uniquer, ok := any(entity).(model.Uniquer)
	if !ok || len(r.desc.UniqueColumns) == 0 {
		return nil
	}
	for _, fv := range uniquer.UniqueFields() {
		var count int64
		if err := r.db.WithContext(ctx).Model(new(T)).Where(fmt.Sprintf("%q = ?", fv.Column), fv.Value).Count(&count).Error; err != nil {
			return apperr.FromRepository(err)
		}
		if count > 0 {
			return apperr.Conflictf("Entity with same %s already exists", fv.Column)
		}
	}
	return nil
}

// Update applies a partial column->value update to one row and returns its
// current state. Zero affected rows means the row does not exist inside the
// caller's scope.
func (r *Repository[T]) Update(ctx context.Context, id string, data map[string]interface{}, enterpriseID string) (*T, error) {
	if len(data) == 0 {
		return nil, apperr.Validationf("You did not provide valid attributes for the entity")
	}

	tx := r.scoped(r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id), enterpriseID).Updates(data)
	if tx.Error != nil {
		return nil, apperr.FromRepository(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, apperr.NotFoundf("Entity not found")
	}
	return r.FindByID(ctx, id, enterpriseID)
}

// Delete removes the row irreversibly, regardless of its soft-delete state
func (r *Repository[T]) Delete(ctx context.Context, id, enterpriseID string) error {
	tx := r.scoped(r.db.WithContext(ctx).Unscoped().Where("id = ?", id), enterpriseID).Delete(new(T))
	if tx.Error != nil {
		return apperr.FromRepository(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFoundf("Entity not found")
	}
	return nil
}

// LogicDelete sets the soft-delete marker instead of removing the row
func (r *Repository[T]) LogicDelete(ctx context.Context, id, enterpriseID string) error {
	tx := r.scoped(r.db.WithContext(ctx).Where("id = ?", id), enterpriseID).Delete(new(T))
	if tx.Error != nil {
		return apperr.FromRepository(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFoundf("Entity not found")
	}
	return nil
}

// Restore clears the soft-delete marker. Restore is only reachable from the
// deleted state; restoring an active row reports not-found.
func (r *Repository[T]) Restore(ctx context.Context, id, enterpriseID string) (*T, error) {
	tx := r.scoped(
		r.db.WithContext(ctx).Unscoped().Model(new(T)).Where("id = ?", id).Where("deleted_at IS NOT NULL"),
		enterpriseID,
	).Update("deleted_at", nil)
	if tx.Error != nil {
		return nil, apperr.FromRepository(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, apperr.NotFoundf("Entity not found")
	}
	return r.FindByID(ctx, id, enterpriseID)
}
