package utils

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB stores any JSON-serializable value in a Postgres JSONB column.
type JSONB[T any] struct {
	Data T
}

func NewJSONB[T any](data T) JSONB[T] {
	return JSONB[T]{Data: data}
}

func (j JSONB[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, fmt.Errorf("JSONB: marshal failed: %w", err)
	}
	return b, nil
}

func (j *JSONB[T]) Scan(value any) error {
	if value == nil {
		var zero T
		j.Data = zero
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONB: Scan failed, expected []byte but got %T", value)
	}

	return json.Unmarshal(b, &j.Data)
}
