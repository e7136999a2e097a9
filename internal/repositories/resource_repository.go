package repositories

import (
	"errors"

	"natours_backend/internal/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// Scope - условие, которое ресурс накладывает на каждый запрос
// (только активные пользователи, без секретных туров и т.п.)
type Scope func(db *gorm.DB) *gorm.DB

// ResourceRepository - общие операции хранилища для фабрики ресурсов.
// db передается в каждый метод: это пул или текущая транзакция.
type ResourceRepository[T any] interface {
	Transaction(db *gorm.DB, fn func(tx *gorm.DB) error) error
	FindByID(db *gorm.DB, id string, scopes ...Scope) (*T, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*T, error)
	FindAll(db *gorm.DB, spec query.Spec, schema query.Schema, scopes ...Scope) ([]T, error)
	Create(db *gorm.DB, item *T) error
	Save(db *gorm.DB, item *T) error
	Delete(db *gorm.DB, id string) error
}

type resourceRepository[T any] struct{}

func NewResourceRepository[T any]() ResourceRepository[T] {
	return &resourceRepository[T]{}
}

// Transaction: fn выполняется в одной транзакции, ошибка или паника - откат
func (r *resourceRepository[T]) Transaction(db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit().Error
}

func (r *resourceRepository[T]) FindByID(db *gorm.DB, id string, scopes ...Scope) (*T, error) {
	var item T
	err := applyScopes(db, scopes).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByIDForUpdate - SELECT ... FOR UPDATE, только внутри транзакции
func (r *resourceRepository[T]) FindByIDForUpdate(db *gorm.DB, id string) (*T, error) {
	var item T
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *resourceRepository[T]) FindAll(db *gorm.DB, spec query.Spec, schema query.Schema, scopes ...Scope) ([]T, error) {
	var items []T
	tx := applyScopes(db.Model(new(T)), scopes)
	if err := query.Apply(tx, spec, schema).Find(&items).Error; err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *resourceRepository[T]) Create(db *gorm.DB, item *T) error {
	return db.Create(item).Error
}

func (r *resourceRepository[T]) Save(db *gorm.DB, item *T) error {
	return db.Save(item).Error
}

// Delete - физическое удаление; повторное удаление дает ErrNotFound
func (r *resourceRepository[T]) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func applyScopes(db *gorm.DB, scopes []Scope) *gorm.DB {
	for _, scope := range scopes {
		db = scope(db)
	}
	return db
}
