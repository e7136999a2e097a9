package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"natours_backend/internal/logger"
	"natours_backend/internal/services"
	"natours_backend/internal/storage"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Каталоги хранилища, которые можно раздавать
var publicImageDirs = map[string]bool{
	services.UserPhotoDir: true,
	services.TourImageDir: true,
}

// FileHandler раздает изображения из хранилища под /img (локальный диск или S3/R2)
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	img := r.Group("/img")
	{
		img.GET("/:dir/:name", h.ServeImage)
		img.HEAD("/:dir/:name", h.ServeImage)
	}
}

// ServeImage godoc
// @Summary      Фото пользователя или изображение тура
// @Tags         files
// @Produce      image/jpeg
// @Param        dir   path  string  true  "users или tours"
// @Param        name  path  string  true  "Имя файла"
// @Success      200
// @Failure      404  {object}  apperrors.ErrorResponse
// @Router       /img/{dir}/{name} [get]
func (h *FileHandler) ServeImage(c *gin.Context) {
	dir, name := c.Param("dir"), c.Param("name")
	if !publicImageDirs[dir] || name != path.Base(name) {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}

	reader, err := h.storage.Open(c.Request.Context(), dir+"/"+name)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			logger.CtxWithError(c.Request.Context(), "Failed to open image", err, "dir", dir, "name", name)
		}
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Status(http.StatusOK)

	if c.Request.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// заголовки уже отправлены
		c.Error(err)
	}
}
