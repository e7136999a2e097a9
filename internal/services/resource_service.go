package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/validator"
	"natours_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stage - шаг записи, выполняется внутри транзакции
type Stage[T any] func(ctx context.Context, tx *gorm.DB, item *T) error

// Expander раскрывает ссылки у набора записей (populate)
type Expander[T any] func(ctx context.Context, db *gorm.DB, items []*T) error

// Mutator дополняет запись после разбора тела (id из URL, загруженные файлы)
type Mutator[T any] func(item *T)

// Resource описывает сущность для общей CRUD-фабрики.
// Порядок записи: decode -> mutators -> Protect -> Normalize -> validate ->
// Prepare -> insert/save -> AfterWrite. Удаление: load -> Prepare -> delete ->
// AfterDelete. Prepare/AfterWrite/AfterDelete идут в одной транзакции.
type Resource[T any] struct {
	Name   string
	Schema query.Schema
	Query  query.Options
	Scopes []repositories.Scope

	New func() *T

	// Protect восстанавливает поля, которые клиент не задает; current == nil при создании
	Protect     func(current, item *T)
	Prepare     Stage[T]
	AfterWrite  Stage[T]
	AfterDelete Stage[T]

	Expanders map[string]Expander[T]
	ReadOne   []string
	ReadMany  []string
}

// ListResult - выборка и разобранный запрос (fields нужны для проекции)
type ListResult[T any] struct {
	Items []T
	Spec  query.Spec
}

type ResourceService[T any] interface {
	Create(ctx context.Context, db *gorm.DB, body []byte, mutators ...Mutator[T]) (*T, error)
	ReadOne(ctx context.Context, db *gorm.DB, id string) (*T, error)
	ReadMany(ctx context.Context, db *gorm.DB, values url.Values, scopes ...repositories.Scope) (*ListResult[T], error)
	Update(ctx context.Context, db *gorm.DB, id string, body []byte, mutators ...Mutator[T]) (*T, error)
	Delete(ctx context.Context, db *gorm.DB, id string) error
	Expand(ctx context.Context, db *gorm.DB, items []*T, names ...string) error
}

type resourceService[T any] struct {
	res       Resource[T]
	repo      repositories.ResourceRepository[T]
	validator *validator.Validator
}

func NewResourceService[T any](res Resource[T], repo repositories.ResourceRepository[T], v *validator.Validator) ResourceService[T] {
	if res.Query.DefaultLimit == 0 {
		res.Query = query.DefaultOptions()
	}
	return &resourceService[T]{res: res, repo: repo, validator: v}
}

func (s *resourceService[T]) Create(ctx context.Context, db *gorm.DB, body []byte, mutators ...Mutator[T]) (*T, error) {
	item := s.res.New()
	if err := decodeBody(body, item); err != nil {
		return nil, err
	}
	for _, mutate := range mutators {
		mutate(item)
	}
	s.protect(nil, item)
	normalize(item)

	if err := s.validator.Validate(item); err != nil {
		return nil, apperrors.Translate(err)
	}

	err := s.repo.Transaction(db, func(tx *gorm.DB) error {
		if err := runStage(ctx, tx, s.res.Prepare, item); err != nil {
			return err
		}
		if err := s.repo.Create(tx, item); err != nil {
			return err
		}
		return runStage(ctx, tx, s.res.AfterWrite, item)
	})
	if err != nil {
		return nil, resourceError(err)
	}

	logger.CtxInfo(ctx, "Document created", "resource", s.res.Name, "id", baseOf(item).ID)
	return item, nil
}

func (s *resourceService[T]) ReadOne(ctx context.Context, db *gorm.DB, id string) (*T, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(db, id, s.res.Scopes...)
	if err != nil {
		return nil, resourceError(err)
	}

	if err := s.Expand(ctx, db, []*T{item}, s.res.ReadOne...); err != nil {
		return nil, resourceError(err)
	}
	return item, nil
}

func (s *resourceService[T]) ReadMany(ctx context.Context, db *gorm.DB, values url.Values, scopes ...repositories.Scope) (*ListResult[T], error) {
	spec, err := query.Parse(values, s.res.Query)
	if err != nil {
		return nil, err
	}

	all := append(append([]repositories.Scope{}, s.res.Scopes...), scopes...)
	items, err := s.repo.FindAll(db, spec, s.res.Schema, all...)
	if err != nil {
		return nil, resourceError(err)
	}

	ptrs := make([]*T, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	if err := s.Expand(ctx, db, ptrs, s.res.ReadMany...); err != nil {
		return nil, resourceError(err)
	}

	return &ListResult[T]{Items: items, Spec: spec}, nil
}

func (s *resourceService[T]) Update(ctx context.Context, db *gorm.DB, id string, body []byte, mutators ...Mutator[T]) (*T, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var item *T
	err := s.repo.Transaction(db, func(tx *gorm.DB) error {
		loaded, err := s.repo.FindByID(tx, id, s.res.Scopes...)
		if err != nil {
			return err
		}
		current := *loaded

		if err := decodeBody(body, loaded); err != nil {
			return err
		}
		for _, mutate := range mutators {
			mutate(loaded)
		}
		s.protect(&current, loaded)
		normalize(loaded)

		// все ограничения проверяются на объединенной записи
		if err := s.validator.Validate(loaded); err != nil {
			return err
		}
		if err := runStage(ctx, tx, s.res.Prepare, loaded); err != nil {
			return err
		}
		if err := s.repo.Save(tx, loaded); err != nil {
			return err
		}
		if err := runStage(ctx, tx, s.res.AfterWrite, loaded); err != nil {
			return err
		}
		item = loaded
		return nil
	})
	if err != nil {
		return nil, resourceError(err)
	}

	if err := s.Expand(ctx, db, []*T{item}, s.res.ReadMany...); err != nil {
		return nil, resourceError(err)
	}

	logger.CtxInfo(ctx, "Document updated", "resource", s.res.Name, "id", id)
	return item, nil
}

func (s *resourceService[T]) Delete(ctx context.Context, db *gorm.DB, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	err := s.repo.Transaction(db, func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(tx, id, s.res.Scopes...)
		if err != nil {
			return err
		}
		if err := runStage(ctx, tx, s.res.Prepare, item); err != nil {
			return err
		}
		if err := s.repo.Delete(tx, id); err != nil {
			return err
		}
		return runStage(ctx, tx, s.res.AfterDelete, item)
	})
	if err != nil {
		return resourceError(err)
	}

	logger.CtxInfo(ctx, "Document deleted", "resource", s.res.Name, "id", id)
	return nil
}

// Expand применяет раскрытия по именам; неизвестное имя - ошибка конфигурации
func (s *resourceService[T]) Expand(ctx context.Context, db *gorm.DB, items []*T, names ...string) error {
	if len(items) == 0 {
		return nil
	}
	for _, name := range names {
		expander, ok := s.res.Expanders[name]
		if !ok {
			return fmt.Errorf("%s: unknown expansion %q", s.res.Name, name)
		}
		if err := expander(ctx, db, items); err != nil {
			return fmt.Errorf("%s: expand %s: %w", s.res.Name, name, err)
		}
	}
	return nil
}

func (s *resourceService[T]) protect(current, item *T) {
	if b := baseOf(item); b != nil {
		if current != nil {
			*b = *baseOf(current)
		} else {
			*b = models.BaseModel{}
		}
	}
	if s.res.Protect != nil {
		s.res.Protect(current, item)
	}
}

// --- helpers ---

type based interface {
	Base() *models.BaseModel
}

func baseOf(item interface{}) *models.BaseModel {
	if b, ok := item.(based); ok {
		return b.Base()
	}
	return nil
}

type normalizer interface {
	Normalize()
}

func normalize(item interface{}) {
	if n, ok := item.(normalizer); ok {
		n.Normalize()
	}
}

func runStage[T any](ctx context.Context, tx *gorm.DB, stage Stage[T], item *T) error {
	if stage == nil {
		return nil
	}
	return stage(ctx, tx, item)
}

// checkID - битый id отвечает 400, а не 500 от базы
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.InvalidValue("id", id)
	}
	return nil
}

func decodeBody(body []byte, dst interface{}) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperrors.InvalidValue(typeErr.Field, typeErr.Value)
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return apperrors.NewBadRequestError("Invalid request body: malformed JSON")
		}
		return apperrors.NewBadRequestError("Invalid request body: " + err.Error())
	}
	return nil
}

// resourceError переводит ошибки хранилища в операционные
func resourceError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.ErrNotFound(err)
	}
	return apperrors.Translate(err)
}
