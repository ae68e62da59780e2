package handler

import (
	"net/http"
	"strconv"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/dto"
	"chatflow-service/internal/middleware"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MessageHandler serves the message CRUD surface. Creation goes through the
// transactional plan-membership check; the flow-preloaded reads mirror the
// original endpoint names.
type MessageHandler struct {
	*Handler[model.Message, dto.MessageDTO]
	repo *repository.MessageRepository
}

func NewMessageHandler(repo *repository.MessageRepository, resolver TenantResolver, record func(entity, operation string)) *MessageHandler {
	return &MessageHandler{
		Handler: NewHandler(repo, resolver, func(m *model.Message) dto.MessageDTO { return dto.NewMessageDTO(m) }, record),
		repo:    repo,
	}
}

type messageCreateRequest struct {
	NumOrder int    `json:"numOrder"`
	Body     string `json:"body"`
	Flow     string `json:"flow"`
}

// Create inserts a message after the plan-membership check. The enterprise
// comes from the caller's token, never from the body.
func (h *MessageHandler) Create(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var req messageCreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.Validationf("Invalid request body"))
	}

	msg := &model.Message{NumOrder: req.NumOrder, Body: req.Body}
	created, err := h.repo.CreateMessage(c.Request().Context(), msg, req.Flow, enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	logger.FromEcho(c).Info("Message created",
		zap.String("message_id", created.ID),
		zap.String("flow_id", created.FlowID))
	h.recordOp("create")
	return c.JSON(http.StatusCreated, dto.NewMessageDTO(created))
}

// GetAllWithFlow lists the tenant's active messages with flows preloaded
func (h *MessageHandler) GetAllWithFlow(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	messages, err := h.repo.FindAllWithFlow(c.Request().Context(), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.messageDTOs(messages))
}

// GetAllDeletedWithFlow lists only the tenant's soft-deleted messages
func (h *MessageHandler) GetAllDeletedWithFlow(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	messages, err := h.repo.FindAllDeletedWithFlow(c.Request().Context(), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.messageDTOs(messages))
}

// GetByIDWithFlow returns one message with its flow preloaded
func (h *MessageHandler) GetByIDWithFlow(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	msg, err := h.repo.FindByIDWithFlow(c.Request().Context(), c.Param("id"), enterpriseID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewMessageDTO(msg))
}

// FindByNumOrder lists the tenant's messages with a given order number inside
// one flow, addressed by flow id
func (h *MessageHandler) FindByNumOrder(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	numOrder, err := strconv.Atoi(c.QueryParam("numOrder"))
	if err != nil {
		return apperr.Respond(c, apperr.Validationf("The query parameters [numOrder] are not valid"))
	}

	messages, err := h.repo.FindByNumOrder(c.Request().Context(), enterpriseID, c.QueryParam("idFlow"), numOrder)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.messageDTOs(messages))
}

// FindByNumOrderAndFlowName is FindByNumOrder with the flow addressed by name
func (h *MessageHandler) FindByNumOrderAndFlowName(c echo.Context) error {
	enterpriseID, err := h.scope(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	numOrder, err := strconv.Atoi(c.QueryParam("numOrder"))
	if err != nil {
		return apperr.Respond(c, apperr.Validationf("The query parameters [numOrder] are not valid"))
	}

	messages, err := h.repo.FindByNumOrderAndFlowName(c.Request().Context(), enterpriseID, c.QueryParam("nameFlow"), numOrder)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.messageDTOs(messages))
}

func (h *MessageHandler) messageDTOs(messages []model.Message) []dto.MessageDTO {
	dtos := make([]dto.MessageDTO, 0, len(messages))
	for i := range messages {
		dtos = append(dtos, dto.NewMessageDTO(&messages[i]))
	}
	return dtos
}

// Register mounts the shared CRUD routes with the transactional create and
// the flow-preloaded reads
func (h *MessageHandler) Register(g *echo.Group) {
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor, model.RoleEmpleado)
	admin := middleware.RequireRoles(model.RoleAdmin)
	editors := middleware.RequireRoles(model.RoleAdmin, model.RoleRedactor)

	g.GET("", h.GetAll, staff)
	g.GET("/getAllDeleted", h.GetAllDeleted, admin)
	g.GET("/getAllWithFlow", h.GetAllWithFlow, staff)
	g.GET("/getMessageAllDeleted", h.GetAllDeletedWithFlow, admin)
	g.GET("/getMessageById/:id", h.GetByIDWithFlow, staff)
	g.GET("/findAllMessagesByNumOrder", h.FindByNumOrder, staff)
	g.GET("/findAllMessagesByNumOrderAndFlowByName", h.FindByNumOrderAndFlowName, staff)
	g.GET("/:id", h.GetByID, staff)
	g.POST("", h.Create, admin)
	g.POST("/create", h.Create, admin)
	g.PATCH("/:id", h.Update, editors)
	g.DELETE("/:id", h.Delete, admin)
	g.DELETE("/logicDelete/:id", h.LogicDelete, admin)
	g.PATCH("/restore/:id", h.Restore, admin)
}
