package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mini-drive/backend/internal/model"
	"github.com/mini-drive/backend/internal/service"
)

type FileHandler struct {
	svc *service.FileService
	log *zap.Logger
}

func NewFileHandler(svc *service.FileService, log *zap.Logger) *FileHandler {
	return &FileHandler{svc: svc, log: log}
}

// Upload godoc
// @Summary Upload a file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File content"
// @Success 201 {object} model.File
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/v1/files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	principal := GetAuthUser(c)
	if principal == nil {
		writeError(c, h.log, service.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:  model.KindValidation,
			Fields: []model.FieldViolation{{Field: "file", Reason: "multipart field is required"}},
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer src.Close()

	created, err := h.svc.Upload(c.Request.Context(), principal,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), src)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List godoc
// @Summary List files
// @Description Lists the caller's files; admins may pass ?owner=<id>.
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param owner query int false "Owner id (admin only)"
// @Success 200 {object} model.FileListResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/v1/files [get]
func (h *FileHandler) List(c *gin.Context) {
	principal := GetAuthUser(c)
	if principal == nil {
		writeError(c, h.log, service.ErrUnauthorized)
		return
	}

	ownerID := principal.ID
	if raw := c.Query("owner"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   model.KindValidation,
				Message: "owner must be an integer",
			})
			return
		}
		ownerID = parsed
	}

	files, err := h.svc.List(c.Request.Context(), principal, ownerID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, model.FileListResponse{Files: files})
}

// Get godoc
// @Summary Get file metadata
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File id"
// @Success 200 {object} model.File
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	principal, fileID, ok := h.principalAndID(c)
	if !ok {
		return
	}
	f, err := h.svc.Get(c.Request.Context(), principal, fileID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Download godoc
// @Summary Download file content
// @Tags files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "File id"
// @Success 200 {file} binary
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/files/{id}/content [get]
func (h *FileHandler) Download(c *gin.Context) {
	principal, fileID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	f, blob, err := h.svc.OpenContent(c.Request.Context(), principal, fileID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer blob.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	c.Header("Content-Type", f.ContentType)
	c.Header("Content-Length", strconv.FormatInt(f.SizeBytes, 10))
	http.ServeContent(c.Writer, c.Request, f.Name, f.UpdatedAt, blob)
}

// Rename godoc
// @Summary Rename a file
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File id"
// @Param request body model.RenameFileRequest true "New name"
// @Success 200 {object} model.File
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/v1/files/{id} [put]
func (h *FileHandler) Rename(c *gin.Context) {
	principal, fileID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req model.RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	renamed, err := h.svc.Rename(c.Request.Context(), principal, fileID, req.Name)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, renamed)
}

// Delete godoc
// @Summary Delete a file
// @Tags files
// @Security BearerAuth
// @Param id path int true "File id"
// @Success 204
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	principal, fileID, ok := h.principalAndID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), principal, fileID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Archive godoc
// @Summary Download all own files as a zip archive
// @Tags files
// @Produce application/zip
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/files/archive [get]
func (h *FileHandler) Archive(c *gin.Context) {
	principal := GetAuthUser(c)
	if principal == nil {
		writeError(c, h.log, service.ErrUnauthorized)
		return
	}

	// Headers are buffered until the first body write, which only happens
	// once the listing has succeeded inside Archive. A listing failure can
	// therefore still produce a clean error response.
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", principal.Username+".zip"))

	if err := h.svc.Archive(c.Request.Context(), principal, c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Header("Content-Type", "")
			c.Header("Content-Disposition", "")
			writeError(c, h.log, err)
			return
		}
		// Mid-stream failure; the status is gone, log and cut the stream.
		h.log.Error("archive stream failed",
			zap.Int64("user_id", principal.ID),
			zap.Error(err),
		)
		c.Abort()
	}
}

func (h *FileHandler) principalAndID(c *gin.Context) (*model.AuthUser, int64, bool) {
	principal := GetAuthUser(c)
	if principal == nil {
		writeError(c, h.log, service.ErrUnauthorized)
		return nil, 0, false
	}
	fileID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, h.log, service.ErrNotFound)
		return nil, 0, false
	}
	return principal, fileID, true
}
