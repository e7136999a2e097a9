package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Ссылки между сущностями хранятся как uuid, а в ответе раскрываются
// явным шагом expansion. Нераскрытая ссылка сериализуется как строка id,
// раскрытая - как объект. На вход принимается и то, и другое.

// UserRef - ссылка на пользователя
type UserRef struct {
	ID   string
	User *UserSummary
}

func NewUserRef(id string) UserRef {
	return UserRef{ID: id}
}

func (r UserRef) Expanded() bool {
	return r.User != nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.User != nil {
		return json.Marshal(r.User)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	id, err := refIDFromJSON(data)
	if err != nil {
		return err
	}
	*r = UserRef{ID: id}
	return nil
}

func (r UserRef) Value() (driver.Value, error) {
	if r.ID == "" {
		return nil, nil
	}
	return r.ID, nil
}

func (r *UserRef) Scan(src interface{}) error {
	id, err := refIDFromSQL(src)
	if err != nil {
		return err
	}
	*r = UserRef{ID: id}
	return nil
}

// TourRef - ссылка на тур
type TourRef struct {
	ID   string
	Tour *TourSummary
}

func NewTourRef(id string) TourRef {
	return TourRef{ID: id}
}

func (r TourRef) Expanded() bool {
	return r.Tour != nil
}

func (r TourRef) MarshalJSON() ([]byte, error) {
	if r.Tour != nil {
		return json.Marshal(r.Tour)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

func (r *TourRef) UnmarshalJSON(data []byte) error {
	id, err := refIDFromJSON(data)
	if err != nil {
		return err
	}
	*r = TourRef{ID: id}
	return nil
}

func (r TourRef) Value() (driver.Value, error) {
	if r.ID == "" {
		return nil, nil
	}
	return r.ID, nil
}

func (r *TourRef) Scan(src interface{}) error {
	id, err := refIDFromSQL(src)
	if err != nil {
		return err
	}
	*r = TourRef{ID: id}
	return nil
}

// UserRefs - список гидов тура; в БД jsonb-массив id
type UserRefs []UserRef

func (UserRefs) GormDataType() string {
	return "jsonb"
}

func (r UserRefs) IDs() []string {
	ids := make([]string, 0, len(r))
	for _, ref := range r {
		ids = append(ids, ref.ID)
	}
	return ids
}

func (r UserRefs) Value() (driver.Value, error) {
	b, err := json.Marshal(r.IDs())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *UserRefs) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for UserRefs", src)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	refs := make(UserRefs, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, UserRef{ID: id})
	}
	*r = refs
	return nil
}

func refIDFromJSON(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return "", err
		}
		return id, nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", errors.New("reference must be an id string or an object with id")
	}
	return obj.ID, nil
}

func refIDFromSQL(src interface{}) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case [16]byte:
		// pgx может вернуть uuid в бинарном виде
		return fmt.Sprintf("%x-%x-%x-%x-%x", v[0:4], v[4:6], v[6:8], v[8:10], v[10:16]), nil
	default:
		return "", fmt.Errorf("unsupported type %T for reference", src)
	}
}
