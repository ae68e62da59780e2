package handler

import (
	"net/http"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/dto"
	"chatflow-service/internal/identity"
	"chatflow-service/internal/middleware"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProfileHandler serves the agent accounts of an enterprise. The local row
// only carries the enterprise link; email, password and role live in the
// identity provider under the same id.
type ProfileHandler struct {
	*Handler[model.Profile, dto.ProfileDTO]
	repo     *repository.ProfileRepository
	provider identity.Provider
}

func NewProfileHandler(repo *repository.ProfileRepository, resolver TenantResolver, provider identity.Provider, record func(entity, operation string)) *ProfileHandler {
	return &ProfileHandler{
		Handler:  NewHandler(repo, resolver, func(p *model.Profile) dto.ProfileDTO { return dto.NewProfileDTO(p) }, record),
		repo:     repo,
		provider: provider,
	}
}

type profileCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type profileUpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type roleChangeRequest struct {
	Role string `json:"role"`
}

func validRole(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleRedactor, model.RoleEmpleado:
		return true
	}
	return false
}

// Create registers an agent account inside the caller's enterprise: identity
// account first, then the local profile row under the same id
func (h *ProfileHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var req profileCreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return apperr.Respond(c, apperr.Validationf("You did not provide valid attributes for the entity"))
	}
	role := req.Role
	if role == "" {
		role = model.RoleEmpleado
	}
	if !validRole(role) {
		return apperr.Respond(c, apperr.Validationf("Role %s is not valid", role))
	}

	user, err := h.provider.CreateUser(ctx, identity.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	profile := &model.Profile{Base: model.Base{ID: user.ID}}
	created, err := h.repo.Create(ctx, profile, enterpriseID)
	if err != nil {
		// keep identity and local state aligned
		if derr := h.provider.DeleteUser(ctx, user.ID); derr != nil {
			log.Error("Identity cleanup failed after profile create", zap.Error(derr))
		}
		return apperr.Respond(c, err)
	}

	log.Info("Profile created",
		zap.String("profile_id", created.ID),
		zap.String("role", role))
	h.recordOp("create")

	d := dto.NewProfileDTO(created)
	d.Email = user.Email
	d.Role = user.Role
	return c.JSON(http.StatusCreated, d)
}

// GetByID returns one profile merged with its identity account
func (h *ProfileHandler) GetByID(c echo.Context) error {
	ctx := c.Request().Context()

	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	profile, err := h.repo.FindByID(ctx, c.Param("id"), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	d := dto.NewProfileDTO(profile)
	if user, err := h.provider.GetUser(ctx, profile.ID); err == nil {
		d.Email = user.Email
		d.Role = user.Role
	}
	h.recordOp("get")
	return c.JSON(http.StatusOK, d)
}

// Update forwards email/password changes to the identity provider. The local
// row has no updatable columns.
func (h *ProfileHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if req.Email == nil && req.Password == nil {
		return apperr.Respond(c, apperr.Validationf("You did not provide valid attributes for the entity"))
	}

	profile, err := h.repo.FindByID(ctx, c.Param("id"), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	user, err := h.provider.UpdateUser(ctx, profile.ID, identity.UserUpdate{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	h.recordOp("update")
	d := dto.NewProfileDTO(profile)
	d.Email = user.Email
	d.Role = user.Role
	return c.JSON(http.StatusOK, d)
}

// ChangeRole changes the role held by the identity provider for one profile
func (h *ProfileHandler) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()

	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var req roleChangeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if !validRole(req.Role) {
		return apperr.Respond(c, apperr.Validationf("Role %s is not valid", req.Role))
	}

	profile, err := h.repo.FindByID(ctx, c.Param("id"), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	user, err := h.provider.UpdateUser(ctx, profile.ID, identity.UserUpdate{Role: &req.Role})
	if err != nil {
		return apperr.Respond(c, err)
	}

	logger.FromEcho(c).Info("Profile role changed",
		zap.String("profile_id", profile.ID),
		zap.String("role", req.Role))

	d := dto.NewProfileDTO(profile)
	d.Email = user.Email
	d.Role = user.Role
	return c.JSON(http.StatusOK, d)
}

// Delete removes the local row and the identity account
func (h *ProfileHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	id := c.Param("id")
	if err := h.repo.Delete(ctx, id, enterpriseID); err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.provider.DeleteUser(ctx, id); err != nil {
		log.Error("Identity cleanup failed after profile delete", zap.Error(err))
	}

	h.recordOp("delete")
	return c.NoContent(http.StatusNoContent)
}

// Register mounts the profile routes. Every mutation is admin-only; reads are
// open to all staff roles.
func (h *ProfileHandler) Register(g *echo.Group) {
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor, model.RoleEmpleado)
	admin := middleware.RequireRoles(model.RoleAdmin)

	g.GET("", h.GetAll, staff)
	g.GET("/getAllDeleted", h.GetAllDeleted, admin)
	g.GET("/:id", h.GetByID, staff)
	g.POST("", h.Create, admin)
	g.PATCH("/:id", h.Update, admin)
	g.PATCH("/role/:id", h.ChangeRole, admin)
	g.DELETE("/:id", h.Delete, admin)
	g.DELETE("/logicDelete/:id", h.LogicDelete, admin)
	g.PATCH("/restore/:id", h.Restore, admin)
}
