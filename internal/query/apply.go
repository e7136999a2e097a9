package query

import (
	"strconv"
	"strings"
	"time"

	"natours_backend/pkg/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindTime
)

type Column struct {
	Name string
	Kind Kind
}

// Schema - белый список полей ресурса: json-имя -> колонка.
// Только эти поля доступны для фильтра и сортировки.
type Schema map[string]Column

// Apply привязывает Spec к запросу gorm. Неизвестные поля игнорируются,
// в SQL попадают только имена колонок из схемы. Значение, которое не
// приводится к типу поля, записывается в db как ошибка и всплывет на Find.
func Apply(db *gorm.DB, spec Spec, schema Schema) *gorm.DB {
	db = Where(db, spec, schema)

	ordered := false
	for _, s := range spec.Sort {
		col, ok := schema[s.Field]
		if !ok {
			continue
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col.Name}, Desc: s.Desc})
		ordered = true
	}
	if !ordered {
		if col, ok := schema["createdAt"]; ok {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col.Name}, Desc: true})
		}
	}
	// стабильная пагинация при равных ключах сортировки
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	limit := spec.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return db.Offset(spec.Offset()).Limit(limit)
}

// Where - только фильтр, без сортировки и окна
func Where(db *gorm.DB, spec Spec, schema Schema) *gorm.DB {
	for _, f := range spec.Filters {
		col, ok := schema[f.Field]
		if !ok {
			continue
		}
		expr, err := buildFilter(f, col)
		if err != nil {
			// отдельная сессия, чтобы ошибка не осела в общем *gorm.DB
			tx := db.Session(&gorm.Session{})
			_ = tx.AddError(err)
			return tx
		}
		if expr != nil {
			db = db.Where(expr)
		}
	}
	return db
}

func buildFilter(f Filter, col Column) (clause.Expression, error) {
	c := clause.Column{Name: col.Name}

	if f.Op == OpIn {
		values := make([]interface{}, 0, len(f.Values))
		for _, raw := range f.Values {
			v, err := convert(f.Field, raw, col.Kind)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return clause.IN{Column: c, Values: values}, nil
	}

	v, err := convert(f.Field, f.Value(), col.Kind)
	if err != nil {
		return nil, err
	}

	if col.Kind == KindBool && f.Op != OpEq {
		return nil, nil
	}

	switch f.Op {
	case OpGte:
		return clause.Gte{Column: c, Value: v}, nil
	case OpGt:
		return clause.Gt{Column: c, Value: v}, nil
	case OpLte:
		return clause.Lte{Column: c, Value: v}, nil
	case OpLt:
		return clause.Lt{Column: c, Value: v}, nil
	default:
		return clause.Eq{Column: c, Value: v}, nil
	}
}

func convert(field, raw string, kind Kind) (interface{}, error) {
	switch kind {
	case KindNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, apperrors.InvalidValue(field, raw)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.InvalidValue(field, raw)
		}
		return b, nil
	case KindTime:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, apperrors.InvalidValue(field, raw)
	default:
		return raw, nil
	}
}
