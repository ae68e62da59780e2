package handler

import (
	"net/http"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/dto"
	"chatflow-service/internal/middleware"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// EnterpriseHandler serves the enterprise CRUD surface plus the plan-aware
// extension endpoints
type EnterpriseHandler struct {
	*Handler[model.Enterprise, dto.EnterpriseDTO]
	repo *repository.EnterpriseRepository
}

func NewEnterpriseHandler(repo *repository.EnterpriseRepository, resolver TenantResolver, record func(entity, operation string)) *EnterpriseHandler {
	return &EnterpriseHandler{
		Handler: NewHandler(repo, resolver, func(e *model.Enterprise) dto.EnterpriseDTO { return dto.NewEnterpriseDTO(e) }, record),
		repo:    repo,
	}
}

type enterpriseUpdateRequest struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	Connected     *bool   `json:"connected"`
	PricingPlanID string  `json:"pricingPlanId"`
}

// GetWithPricingPlan returns one enterprise with its current plan preloaded
func (h *EnterpriseHandler) GetWithPricingPlan(c echo.Context) error {
	enterprise, err := h.repo.GetWithPricingPlan(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewEnterpriseDTO(enterprise))
}

// UpdateWithPlan partial-updates an enterprise and reassigns its plan
func (h *EnterpriseHandler) UpdateWithPlan(c echo.Context) error {
	var req enterpriseUpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if req.PricingPlanID == "" {
		return apperr.Respond(c, apperr.Validationf("PricingPlan not provided"))
	}

	enterprise, err := h.repo.UpdateWithPlan(c.Request().Context(), c.Param("id"), req.PricingPlanID, repository.EnterpriseUpdate{
		Name:      req.Name,
		Phone:     req.Phone,
		Connected: req.Connected,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	logger.FromEcho(c).Info("Enterprise plan updated",
		zap.String("enterprise_id", enterprise.ID),
		zap.String("pricing_plan_id", req.PricingPlanID))
	return c.JSON(http.StatusOK, dto.NewEnterpriseDTO(enterprise))
}

// Register mounts the shared CRUD routes and the plan-aware extensions
func (h *EnterpriseHandler) Register(g *echo.Group) {
	h.Handler.Register(g)

	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor, model.RoleEmpleado)
	editors := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor)

	g.GET("/getEnterpriseWithPricingPlan/:id", h.GetWithPricingPlan, staff)
	g.PATCH("/update/:id", h.UpdateWithPlan, editors)
}
