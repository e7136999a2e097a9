package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"natours_backend/pkg/apperrors"
)

// Op - оператор фильтра
type Op string

const (
	OpEq  Op = "eq"
	OpIn  Op = "in"
	OpGte Op = "gte"
	OpGt  Op = "gt"
	OpLte Op = "lte"
	OpLt  Op = "lt"
)

// Зарезервированные параметры никогда не становятся фильтрами
const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	DefaultSort  = "-createdAt"
)

// DefaultWhitelist - параметры, дубликаты которых превращаются в IN
var DefaultWhitelist = []string{
	"duration",
	"ratingsQuantity",
	"ratingsAverage",
	"maxGroupSize",
	"difficulty",
	"price",
}

var bracketParam = regexp.MustCompile(`^([A-Za-z0-9_.]+)\[([A-Za-z]+)\]$`)

type Filter struct {
	Field  string
	Op     Op
	Values []string
}

// Value - единственное значение (для всех операторов кроме IN)
func (f Filter) Value() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[len(f.Values)-1]
}

type SortField struct {
	Field string
	Desc  bool
}

// Spec - разобранный запрос: фильтр, сортировка, проекция, окно страницы.
type Spec struct {
	Filters []Filter
	Sort    []SortField
	Fields  []string
	Page    int
	Limit   int
}

// Offset насыщается на math.MaxInt: страница за пределами данных пустая,
// а не первая
func (s Spec) Offset() int {
	page, limit := s.Page, s.Limit
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

type Options struct {
	Whitelist    []string
	DefaultSort  string
	DefaultLimit int
}

func DefaultOptions() Options {
	return Options{
		Whitelist:    DefaultWhitelist,
		DefaultSort:  DefaultSort,
		DefaultLimit: DefaultLimit,
	}
}

// Parse разбирает параметры строки запроса. Функция чистая: о схеме
// ресурса ничего не знает, неизвестные поля отсеиваются в Apply.
func Parse(values url.Values, opts Options) (Spec, error) {
	if opts.DefaultSort == "" {
		opts.DefaultSort = DefaultSort
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	whitelisted := make(map[string]bool, len(opts.Whitelist))
	for _, name := range opts.Whitelist {
		whitelisted[name] = true
	}

	spec := Spec{
		Page:  positiveInt(last(values[ParamPage]), DefaultPage),
		Limit: positiveInt(last(values[ParamLimit]), opts.DefaultLimit),
		Sort:  parseSort(last(values[ParamSort])),
	}
	if len(spec.Sort) == 0 {
		spec.Sort = parseSort(opts.DefaultSort)
	}
	spec.Fields = splitList(last(values[ParamFields]))

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch key {
		case ParamPage, ParamSort, ParamLimit, ParamFields:
			continue
		}
		vals := values[key]
		if len(vals) == 0 {
			continue
		}

		field, op := key, OpEq
		if m := bracketParam.FindStringSubmatch(key); m != nil {
			field = m[1]
			op = Op(strings.ToLower(m[2]))
			switch op {
			case OpGte, OpGt, OpLte, OpLt:
			default:
				return Spec{}, apperrors.NewBadRequestError("Unsupported query operator: " + m[2])
			}
		}

		if op == OpEq && len(vals) > 1 && whitelisted[field] {
			spec.Filters = append(spec.Filters, Filter{Field: field, Op: OpIn, Values: dedupe(vals)})
			continue
		}
		// для остальных дубликатов побеждает последнее значение
		spec.Filters = append(spec.Filters, Filter{Field: field, Op: op, Values: []string{last(vals)}})
	}

	return spec, nil
}

func parseSort(raw string) []SortField {
	var fields []SortField
	for _, name := range splitList(raw) {
		desc := strings.HasPrefix(name, "-")
		name = strings.TrimLeft(name, "-+")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Desc: desc})
	}
	return fields
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func last(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

func dedupe(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
