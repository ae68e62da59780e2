package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/middleware"
	"chatflow-service/internal/model"
	"chatflow-service/internal/query"
	"chatflow-service/pkg/jwtutil"
	"chatflow-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Store is the persistence surface the generic handler operates on. The
// entity repositories satisfy it; tests substitute fakes.
type Store[T any] interface {
	Desc() model.Descriptor
	FindAll(ctx context.Context, filters map[string]interface{}, page int, sort []query.SortField, enterpriseID string) ([]T, int64, error)
	FindAllDeleted(ctx context.Context, filters map[string]interface{}, page int, sort []query.SortField, enterpriseID string) ([]T, int64, error)
	FindByID(ctx context.Context, id, enterpriseID string) (*T, error)
	Create(ctx context.Context, entity *T, enterpriseID string) (*T, error)
	Update(ctx context.Context, id string, data map[string]interface{}, enterpriseID string) (*T, error)
	Delete(ctx context.Context, id, enterpriseID string) error
	LogicDelete(ctx context.Context, id, enterpriseID string) error
	Restore(ctx context.Context, id, enterpriseID string) (*T, error)
}

// TenantResolver maps verified claims to the caller's enterprise scope
type TenantResolver interface {
	EnterpriseID(ctx context.Context, desc model.Descriptor, claims *jwtutil.UserClaims) (string, error)
}

// listResponse is the pagination envelope every list endpoint returns
type listResponse[D any] struct {
	query.PageMeta
	Entities []D `json:"entitiesDTO"`
}

// Handler serves the shared CRUD surface for one entity type. Entity handlers
// embed it and add their extension endpoints.
type Handler[T any, D any] struct {
	store    Store[T]
	resolver TenantResolver
	toDTO    func(*T) D
	record   func(entity, operation string)
}

// NewHandler wires a generic handler. record may be nil when no metrics sink
// is attached (tests).
func NewHandler[T any, D any](store Store[T], resolver TenantResolver, toDTO func(*T) D, record func(entity, operation string)) *Handler[T, D] {
	return &Handler[T, D]{store: store, resolver: resolver, toDTO: toDTO, record: record}
}

func (h *Handler[T, D]) recordOp(operation string) {
	if h.record != nil {
		h.record(h.store.Desc().Name, operation)
	}
}

// scope resolves the enterprise for the current request
func (h *Handler[T, D]) scope(c echo.Context) (string, error) {
	return h.resolver.EnterpriseID(c.Request().Context(), h.store.Desc(), middleware.ClaimsFromEcho(c))
}

// coerceFilter converts a raw query-string value to the filter's declared
// type so typed columns never see an unparseable string
func coerceFilter(f model.FilterField, raw string) (interface{}, error) {
	switch f.Type {
	case model.FilterBool:
		return strconv.ParseBool(raw)
	case model.FilterInt:
		return strconv.Atoi(raw)
	case model.FilterFloat:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

// filtersFrom translates the query string into column equality filters.
// page and orderBy are reserved; every other key must be a filterable
// attribute with a coercible value, and all offending keys are reported
// together.
func (h *Handler[T, D]) filtersFrom(c echo.Context) (map[string]interface{}, error) {
	desc := h.store.Desc()
	filters := make(map[string]interface{})
	var invalid []string

	for key, values := range c.QueryParams() {
		if key == "page" || key == "orderBy" {
			continue
		}
		f, ok := desc.Filter(key)
		if !ok {
			invalid = append(invalid, key)
			continue
		}
		value, err := coerceFilter(f, values[0])
		if err != nil {
			invalid = append(invalid, key)
			continue
		}
		filters[f.Column] = value
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, apperr.Validationf("The query parameters [%s] are not valid", strings.Join(invalid, ", "))
	}
	return filters, nil
}

func (h *Handler[T, D]) list(c echo.Context, deleted bool) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	filters, err := h.filtersFrom(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	page := query.ParsePage(c.QueryParam("page"))
	sortFields := query.ParseOrderBy(c.QueryParam("orderBy"))

	find := h.store.FindAll
	if deleted {
		find = h.store.FindAllDeleted
	}
	entities, total, err := find(c.Request().Context(), filters, page, sortFields, enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	dtos := make([]D, 0, len(entities))
	for i := range entities {
		dtos = append(dtos, h.toDTO(&entities[i]))
	}

	h.recordOp("list")
	return c.JSON(http.StatusOK, listResponse[D]{
		PageMeta: query.NewPageMeta(total, page),
		Entities: dtos,
	})
}

// GetAll lists one page of active entities
func (h *Handler[T, D]) GetAll(c echo.Context) error {
	return h.list(c, false)
}

// GetAllDeleted lists one page including soft-deleted entities
func (h *Handler[T, D]) GetAllDeleted(c echo.Context) error {
	return h.list(c, true)
}

// GetByID returns one active entity
func (h *Handler[T, D]) GetByID(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	entity, err := h.store.FindByID(c.Request().Context(), c.Param("id"), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	h.recordOp("get")
	return c.JSON(http.StatusOK, h.toDTO(entity))
}

// Create inserts a new entity from the request body. Server-assigned fields
// in the body are discarded; any remaining key must be a writable attribute,
// which keeps relation objects from ever reaching the model.
func (h *Handler[T, D]) Create(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	body := make(map[string]interface{})
	if err := c.Bind(&body); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	delete(body, "id")
	delete(body, "createdAt")
	delete(body, "deletedAt")

	if err := h.rejectUnknownAttributes(body); err != nil {
		return apperr.Respond(c, err)
	}

	entity := new(T)
	encoded, err := json.Marshal(body)
	if err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if err := json.Unmarshal(encoded, entity); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}

	created, err := h.store.Create(c.Request().Context(), entity, enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	logger.FromEcho(c).Info("Entity created", zap.String("entity", h.store.Desc().Name))
	h.recordOp("create")
	return c.JSON(http.StatusCreated, h.toDTO(created))
}

// rejectUnknownAttributes validates every body key against the writable
// allow-list, reporting all offenders together
func (h *Handler[T, D]) rejectUnknownAttributes(body map[string]interface{}) error {
	desc := h.store.Desc()
	var unknown []string
	for attr := range body {
		if _, ok := desc.UpdateColumn(attr); !ok {
			unknown = append(unknown, attr)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return apperr.Validationf("The attributes [%s] are not valid for the entity", strings.Join(unknown, ", "))
	}
	return nil
}

// Update partial-updates one entity. Attributes outside the writable
// allow-list are a validation error, as is an empty update.
func (h *Handler[T, D]) Update(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	body := make(map[string]interface{})
	if err := c.Bind(&body); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}

	if err := h.rejectUnknownAttributes(body); err != nil {
		return apperr.Respond(c, err)
	}

	desc := h.store.Desc()
	data := make(map[string]interface{})
	for attr, value := range body {
		if col, ok := desc.UpdateColumn(attr); ok {
			data[col] = value
		}
	}

	updated, err := h.store.Update(c.Request().Context(), c.Param("id"), data, enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	h.recordOp("update")
	return c.JSON(http.StatusOK, h.toDTO(updated))
}

// Delete removes one entity permanently
func (h *Handler[T, D]) Delete(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	if err := h.store.Delete(c.Request().Context(), c.Param("id"), enterpriseID); err != nil {
		return apperr.Respond(c, err)
	}

	logger.FromEcho(c).Info("Entity deleted", zap.String("entity", h.store.Desc().Name), zap.String("id", c.Param("id")))
	h.recordOp("delete")
	return c.NoContent(http.StatusNoContent)
}

// LogicDelete soft-deletes one entity
func (h *Handler[T, D]) LogicDelete(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	if err := h.store.LogicDelete(c.Request().Context(), c.Param("id"), enterpriseID); err != nil {
		return apperr.Respond(c, err)
	}

	h.recordOp("logicDelete")
	return c.NoContent(http.StatusNoContent)
}

// Restore brings a soft-deleted entity back
func (h *Handler[T, D]) Restore(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	entity, err := h.store.Restore(c.Request().Context(), c.Param("id"), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	h.recordOp("restore")
	return c.JSON(http.StatusOK, h.toDTO(entity))
}

// Register mounts the shared CRUD routes with their role requirements
func (h *Handler[T, D]) Register(g *echo.Group) {
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor, model.RoleEmpleado)
	admin := middleware.RequireRoles(model.RoleAdmin)
	editors := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor)

	g.GET("", h.GetAll, staff)
	g.GET("/getAllDeleted", h.GetAllDeleted, admin)
	g.GET("/:id", h.GetByID, staff)
	g.POST("", h.Create, admin)
	g.PATCH("/:id", h.Update, editors)
	g.DELETE("/:id", h.Delete, admin)
	g.DELETE("/logicDelete/:id", h.LogicDelete, admin)
	g.PATCH("/restore/:id", h.Restore, admin)
}
