package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mini-drive/backend/internal/model"
	"github.com/mini-drive/backend/internal/service"
)

type UserHandler struct {
	svc *service.UserService
	log *zap.Logger
}

func NewUserHandler(svc *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// List godoc
// @Summary List all accounts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PublicUser
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Disable godoc
// @Summary Disable an account
// @Description Soft-disables; the row and its file ownership survive.
// @Tags users
// @Security BearerAuth
// @Param id path int true "User id"
// @Success 204
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) Disable(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   model.KindNotFound,
			Message: "not found",
		})
		return
	}
	if err := h.svc.Disable(c.Request.Context(), userID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
