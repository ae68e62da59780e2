package handler

import (
	"net/http"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/dto"
	"chatflow-service/internal/identity"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/pkg/jwtutil"
	"chatflow-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves enterprise signup and credential login. Credentials live
// in the external identity provider; locally only the enterprise and profile
// rows are kept.
type AuthHandler struct {
	enterprises *repository.EnterpriseRepository
	profiles    *repository.ProfileRepository
	provider    identity.Provider
	jwtUtil     *jwtutil.JWTUtil
}

func NewAuthHandler(enterprises *repository.EnterpriseRepository, profiles *repository.ProfileRepository, provider identity.Provider, jwtUtil *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{
		enterprises: enterprises,
		profiles:    profiles,
		provider:    provider,
		jwtUtil:     jwtUtil,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register signs up a new enterprise: the phone must be free among active
// enterprises, the identity account is created with the admin role, and the
// enterprise and admin profile rows are persisted.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}
	if req.Name == "" || req.Phone == "" || req.Email == "" || req.Password == "" {
		return apperr.Respond(c, apperr.Validationf("You did not provide valid attributes for the entity"))
	}

	count, err := h.enterprises.CountByPhone(ctx, req.Phone)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if count > 0 {
		return apperr.Respond(c, apperr.Conflictf("Enterprise phone already registered"))
	}

	user, err := h.provider.CreateUser(ctx, identity.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		log.Error("Identity user creation failed", zap.Error(err))
		return apperr.Respond(c, err)
	}

	enterprise, err := h.enterprises.Create(ctx, &model.Enterprise{Name: req.Name, Phone: req.Phone}, "")
	if err != nil {
		// keep identity and local state aligned
		if derr := h.provider.DeleteUser(ctx, user.ID); derr != nil {
			log.Error("Identity cleanup failed after enterprise create", zap.Error(derr))
		}
		return apperr.Respond(c, err)
	}

	profile := &model.Profile{Base: model.Base{ID: user.ID}, EnterpriseID: enterprise.ID}
	if err := h.profiles.DB().WithContext(ctx).Create(profile).Error; err != nil {
		log.Error("Profile creation failed after enterprise create", zap.Error(err))
		return apperr.Respond(c, err)
	}

	log.Info("Enterprise registered",
		zap.String("enterprise_id", enterprise.ID),
		zap.String("profile_id", profile.ID))

	profileDTO := dto.NewProfileDTO(profile)
	profileDTO.Email = user.Email
	profileDTO.Role = user.Role
	return c.JSON(http.StatusCreated, echo.Map{
		"enterprise": dto.NewEnterpriseDTO(enterprise),
		"profile":    profileDTO,
	})
}

// Login exchanges credentials for a service token. The identity provider
// verifies the credentials; the issued token carries the profile id as
// subject plus the provider-held role and email.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}

	session, err := h.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn("Sign-in rejected", zap.String("email", req.Email))
		return apperr.Respond(c, apperr.Unauthorizedf("Invalid credentials"))
	}

	// the subject must map to a local profile or the session is useless
	if _, err := h.profiles.FindWithEnterprise(ctx, session.User.ID); err != nil {
		log.Warn("No profile for identity user", zap.String("user_id", session.User.ID))
		return apperr.Respond(c, apperr.Unauthorizedf("No profile found for the authenticated subject"))
	}

	token, err := h.jwtUtil.GenerateToken(session.User.ID, session.User.Email, session.User.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return apperr.Respond(c, err)
	}

	log.Info("Profile logged in", zap.String("profile_id", session.User.ID))
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// RegisterRoutes mounts the public auth routes
func (h *AuthHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}
