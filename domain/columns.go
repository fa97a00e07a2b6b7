package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// FieldList is an ordered set of field names persisted as a JSON column.
type FieldList []string

func (l FieldList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	bytes, err := json.Marshal(l)
	return string(bytes), err
}

func (l *FieldList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// PayloadMap holds the audit payload of a flow log as a JSON column.
type PayloadMap map[string]interface{}

func (m PayloadMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	bytes, err := json.Marshal(m)
	return string(bytes), err
}

func (m *PayloadMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// PropertyMap is the opaque extension map of a transition rule.
type PropertyMap map[string]string

func (m PropertyMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	bytes, err := json.Marshal(m)
	return string(bytes), err
}

func (m *PropertyMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

func scanJSON(src, dest interface{}) error {
	switch data := src.(type) {
	case []byte:
		if len(data) == 0 {
			return nil
		}
		return json.Unmarshal(data, dest)
	case string:
		if data == "" {
			return nil
		}
		return json.Unmarshal([]byte(data), dest)
	case nil:
		return nil
	default:
		return errors.New("incompatible type for JSON column")
	}
}
