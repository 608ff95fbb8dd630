package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TranslationCell is the per-language state of a row. The structured map is
// the single source of truth; flattened per-language columns exist only in
// export output.
type TranslationCell struct {
	Text              string     `json:"text"`
	Status            string     `json:"status"`
	Remark            string     `json:"remark,omitempty"`
	AssignedManagerID uint       `json:"assigned_manager_id,omitempty"`
	AssignedAt        *time.Time `json:"assigned_at,omitempty"`
}

// TranslationSet maps a target language code to its cell.
type TranslationSet map[string]*TranslationCell

func (t TranslationSet) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (t *TranslationSet) Scan(value interface{}) error {
	if value == nil {
		*t = TranslationSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for TranslationSet: %T", value)
	}
	if len(data) == 0 {
		*t = TranslationSet{}
		return nil
	}
	return json.Unmarshal(data, t)
}

// Clone returns a deep copy so cached rows can be handed out without
// aliasing the store's state.
func (t TranslationSet) Clone() TranslationSet {
	if t == nil {
		return nil
	}
	out := make(TranslationSet, len(t))
	for lang, cell := range t {
		if cell == nil {
			continue
		}
		c := *cell
		if cell.AssignedAt != nil {
			at := *cell.AssignedAt
			c.AssignedAt = &at
		}
		out[lang] = &c
	}
	return out
}

// StringList stores a slice of strings as a JSON column.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	if len(data) == 0 {
		*s = StringList{}
		return nil
	}
	return json.Unmarshal(data, s)
}
