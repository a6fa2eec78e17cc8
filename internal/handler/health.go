package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mini-drive/backend/internal/model"
)

// Healthz godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} model.StatusResponse
// @Router /healthz [get]
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, model.StatusResponse{Status: "ok"})
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.RootResponse{
		Status:  "ok",
		Message: "mini-drive API server is running",
	})
}
