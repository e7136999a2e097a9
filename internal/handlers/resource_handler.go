package handlers

import (
	"net/http"

	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ScopeFunc - условие выборки из параметров маршрута (вложенные ресурсы)
type ScopeFunc func(c *gin.Context) repositories.Scope

// MutatorFunc собирает дополнения записи из запроса: id из URL,
// текущий пользователь, загруженные файлы.
type MutatorFunc[T any] func(c *gin.Context) ([]services.Mutator[T], error)

// ResourceHandler - общая HTTP-обертка над ResourceService:
// одинаковые ответы для всех сущностей.
type ResourceHandler[T any] struct {
	*BaseHandler
	svc services.ResourceService[T]
}

func NewResourceHandler[T any](base *BaseHandler, svc services.ResourceService[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{BaseHandler: base, svc: svc}
}

func (h *ResourceHandler[T]) GetAll(c *gin.Context) {
	h.list(c, nil)
}

func (h *ResourceHandler[T]) GetAllWith(scope ScopeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.list(c, scope)
	}
}

func (h *ResourceHandler[T]) list(c *gin.Context, scope ScopeFunc) {
	var scopes []repositories.Scope
	if scope != nil {
		scopes = append(scopes, scope(c))
	}

	result, err := h.svc.ReadMany(c.Request.Context(), h.GetDB(c), c.Request.URL.Query(), scopes...)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	items := result.Items
	if items == nil {
		items = []T{}
	}
	docs, err := query.Project(items, result.Spec.Fields)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, "data", docs, len(items))
}

func (h *ResourceHandler[T]) GetOne(c *gin.Context) {
	item, err := h.svc.ReadOne(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, item)
}

func (h *ResourceHandler[T]) Create(c *gin.Context) {
	h.CreateWith(nil)(c)
}

func (h *ResourceHandler[T]) CreateWith(mut MutatorFunc[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := h.ReadBody(c)
		if !ok {
			return
		}
		mutators, ok := h.mutators(c, mut)
		if !ok {
			return
		}

		item, err := h.svc.Create(c.Request.Context(), h.GetDB(c), body, mutators...)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		respondOne(c, http.StatusCreated, item)
	}
}

func (h *ResourceHandler[T]) Update(c *gin.Context) {
	h.UpdateWith(nil)(c)
}

func (h *ResourceHandler[T]) UpdateWith(mut MutatorFunc[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := h.ReadBody(c)
		if !ok {
			return
		}
		mutators, ok := h.mutators(c, mut)
		if !ok {
			return
		}

		item, err := h.svc.Update(c.Request.Context(), h.GetDB(c), c.Param("id"), body, mutators...)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		respondOne(c, http.StatusOK, item)
	}
}

func (h *ResourceHandler[T]) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *ResourceHandler[T]) mutators(c *gin.Context, mut MutatorFunc[T]) ([]services.Mutator[T], bool) {
	if mut == nil {
		return nil, true
	}
	mutators, err := mut(c)
	if err != nil {
		h.HandleServiceError(c, err)
		return nil, false
	}
	return mutators, true
}
