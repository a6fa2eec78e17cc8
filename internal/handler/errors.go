package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mini-drive/backend/internal/model"
	"github.com/mini-drive/backend/internal/service"
)

// writeError translates service errors into the stable client-facing shape.
// Anything unrecognized is logged in full and surfaced as a bare 500.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var ve *service.ValidationError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:  model.KindValidation,
			Fields: ve.Violations,
		})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:   model.KindValidation,
			Message: "invalid input",
		})
	case errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenMalformed),
		errors.Is(err, service.ErrTokenSignatureInvalid):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Error:   model.KindUnauthorized,
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Error:   model.KindUnauthorized,
			Message: "unauthorized",
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, model.ErrorResponse{
			Error:   model.KindForbidden,
			Message: "forbidden",
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   model.KindNotFound,
			Message: "not found",
		})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Error:   model.KindConflict,
			Message: "already exists",
		})
	case errors.As(err, &maxBytes):
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{
			Error:   model.KindPayloadTooLarge,
			Message: "request body too large",
		})
	default:
		log.Error("internal error",
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.KindServerError,
			Message: "server error",
		})
	}
}

// writeBindError handles ShouldBind failures: tag violations become a
// field-level 422, anything else (broken JSON, wrong types) a 400.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]model.FieldViolation, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, model.FieldViolation{
				Field:  jsonFieldName(fe.Field()),
				Reason: violationReason(fe),
			})
		}
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:  model.KindValidation,
			Fields: fields,
		})
		return
	}
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error:   model.KindValidation,
		Message: "malformed request body",
	})
}

func jsonFieldName(structField string) string {
	if structField == "" {
		return structField
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

func violationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
