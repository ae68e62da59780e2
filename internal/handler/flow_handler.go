package handler

import (
	"context"
	"net/http"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/dto"
	"chatflow-service/internal/middleware"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// EnterpriseResolver resolves the caller's enterprise even for entities
// without an enterprise relation
type EnterpriseResolver interface {
	RequireEnterpriseID(ctx context.Context, claims *jwtutil.UserClaims) (string, error)
}

// FlowHandler serves the flow CRUD surface with plan-association handling
type FlowHandler struct {
	*Handler[model.Flow, dto.FlowDTO]
	repo    *repository.FlowRepository
	tenants EnterpriseResolver
}

func NewFlowHandler(repo *repository.FlowRepository, resolver TenantResolver, tenants EnterpriseResolver, record func(entity, operation string)) *FlowHandler {
	return &FlowHandler{
		Handler: NewHandler(repo, resolver, func(f *model.Flow) dto.FlowDTO { return dto.NewFlowDTO(f) }, record),
		repo:    repo,
		tenants: tenants,
	}
}

type flowRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	PricingPlans []string `json:"pricingPlans"`
}

// Create inserts a flow together with its plan associations. Every referenced
// plan must exist.
func (h *FlowHandler) Create(c echo.Context) error {
	var req flowRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return apperr.Respond(c, apperr.Validationf("You did not provide valid attributes for the entity"))
	}

	flow := &model.Flow{Name: *req.Name}
	if req.Description != nil {
		flow.Description = *req.Description
	}

	created, err := h.repo.CreateWithPricingPlans(c.Request().Context(), flow, req.PricingPlans)
	if err != nil {
		return apperr.Respond(c, err)
	}

	h.recordOp("create")
	return c.JSON(http.StatusCreated, dto.NewFlowDTO(created))
}

// Update partial-updates a flow; a provided plan list replaces the full
// association set
func (h *FlowHandler) Update(c echo.Context) error {
	var req flowRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if req.Name == nil && req.Description == nil && req.PricingPlans == nil {
		return apperr.Respond(c, apperr.Validationf("You did not provide valid attributes for the entity"))
	}

	updated, err := h.repo.UpdateWithPricingPlans(c.Request().Context(), c.Param("id"), repository.FlowUpdate{
		Name:        req.Name,
		Description: req.Description,
		PlanIDs:     req.PricingPlans,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	h.recordOp("update")
	return c.JSON(http.StatusOK, dto.NewFlowDTO(updated))
}

// ForCurrentPlan lists the flows available under the plan the caller's
// enterprise currently holds
func (h *FlowHandler) ForCurrentPlan(c echo.Context) error {
	enterpriseID, err := h.tenants.RequireEnterpriseID(c.Request().Context(), middleware.ClaimsFromEcho(c))
	if err != nil {
		return apperr.Respond(c, err)
	}

	flows, err := h.repo.FlowsForEnterprisePlan(c.Request().Context(), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	dtos := make([]dto.FlowDTO, 0, len(flows))
	for i := range flows {
		dtos = append(dtos, dto.NewFlowDTO(&flows[i]))
	}
	return c.JSON(http.StatusOK, dtos)
}

// Register mounts the shared CRUD routes with the plan-aware overrides
func (h *FlowHandler) Register(g *echo.Group) {
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor, model.RoleEmpleado)
	admin := middleware.RequireRoles(model.RoleAdmin)
	editors := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor)

	g.GET("", h.GetAll, staff)
	g.GET("/getAllDeleted", h.GetAllDeleted, admin)
	g.GET("/forCurrentPlan", h.ForCurrentPlan, staff)
	g.GET("/:id", h.GetByID, staff)
	g.POST("", h.Create, admin)
	g.PATCH("/:id", h.Update, editors)
	g.DELETE("/:id", h.Delete, admin)
	g.DELETE("/logicDelete/:id", h.LogicDelete, admin)
	g.PATCH("/restore/:id", h.Restore, admin)
}
