package handlers

import (
	"net/http"
	"strings"

	"natours_backend/internal/auth"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// photoField - поле multipart с фото пользователя
const photoField = "photo"

type UserHandler struct {
	*BaseHandler
	users         *ResourceHandler[models.User]
	userService   services.UserService
	uploadService services.UploadService
}

func NewUserHandler(base *BaseHandler, users services.ResourceService[models.User], userService services.UserService, uploadService services.UploadService) *UserHandler {
	return &UserHandler{
		BaseHandler:   base,
		users:         NewResourceHandler(base, users),
		userService:   userService,
		uploadService: uploadService,
	}
}

func (h *UserHandler) RegisterRoutes(users *gin.RouterGroup, guard *middleware.Guard) {
	me := users.Group("", guard.Protect())
	{
		me.GET("/me", h.GetMe)
		me.PATCH("/update-current", h.UpdateMe)
		me.DELETE("/delete-current", h.DeleteMe)
	}

	admin := users.Group("", guard.Protect(), middleware.RequireRoles(auth.RolesAdmin...))
	{
		admin.GET("", h.users.GetAll)
		admin.GET("/:id", h.users.GetOne)
		admin.PATCH("/:id", h.users.Update)
		admin.DELETE("/:id", h.users.Delete)
	}
}

// GetMe godoc
// @Summary      Текущий пользователь
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200
// @Failure      401  {object}  apperrors.ErrorResponse
// @Router       /api/v1/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetMe(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary      Изменение имени, email и фото
// @Description  Пароль здесь не меняется: для этого /update-password
// @Tags         users
// @Security     BearerAuth
// @Accept       json,mpfd
// @Produce      json
// @Param        body   body      dto.UpdateMeRequest  false  "name, email"
// @Param        photo  formData  file                 false  "Фото"
// @Success      200
// @Failure      400  {object}  apperrors.ErrorResponse
// @Router       /api/v1/users/update-current [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateMeRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if !h.bindUpdateMeForm(c, &req) {
			return
		}
	} else if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	// до загрузки файла: иначе фото сохранится, а запрос все равно упадет
	if req.TouchesPassword() {
		h.HandleServiceError(c, apperrors.ErrPasswordUpdateNotAllowed)
		return
	}

	if file, err := c.FormFile(photoField); err == nil {
		name, err := h.uploadService.UserPhoto(c.Request.Context(), userID, file)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		req.Photo = name
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, "user", user)
}

// DeleteMe godoc
// @Summary      Деактивация своей учетной записи
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Router       /api/v1/users/delete-current [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteMe(c.Request.Context(), h.GetDB(c), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *UserHandler) bindUpdateMeForm(c *gin.Context, req *dto.UpdateMeRequest) bool {
	form, err := c.MultipartForm()
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Invalid multipart form: "+err.Error()))
		return false
	}

	if v, ok := formValue(form.Value, "name"); ok {
		req.Name = &v
	}
	if v, ok := formValue(form.Value, "email"); ok {
		req.Email = &v
	}
	req.Password, _ = formValue(form.Value, "password")
	req.PasswordConfirm, _ = formValue(form.Value, "passwordConfirm")

	if err := h.validator.Validate(req); err != nil {
		h.HandleServiceError(c, apperrors.Translate(err))
		return false
	}
	return true
}

func formValue(values map[string][]string, key string) (string, bool) {
	vals := values[key]
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}
