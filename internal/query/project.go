package query

import (
	"encoding/json"
	"strings"
)

// Project оставляет в ответе только поля из fields (по json-именам).
// "-name" исключает поле; id остается всегда. Пустой список - без изменений.
func Project[T any](items []T, fields []string) (interface{}, error) {
	if len(fields) == 0 {
		return items, nil
	}

	include, exclude := splitProjection(fields)
	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out = append(out, filterKeys(doc, include, exclude))
	}
	return out, nil
}

func splitProjection(fields []string) (include, exclude map[string]bool) {
	include = make(map[string]bool)
	exclude = make(map[string]bool)
	for _, f := range fields {
		if name, ok := strings.CutPrefix(f, "-"); ok {
			exclude[name] = true
			continue
		}
		include[f] = true
	}
	return include, exclude
}

func filterKeys(doc map[string]json.RawMessage, include, exclude map[string]bool) map[string]json.RawMessage {
	for key := range doc {
		if key == "id" {
			continue
		}
		if len(include) > 0 && !include[key] {
			delete(doc, key)
			continue
		}
		if exclude[key] {
			delete(doc, key)
		}
	}
	return doc
}
