package utils

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNilValue     = errors.New("nothing to encode")
	ErrEmptyPayload = errors.New("empty cached payload")
)

// EncodeCached turns a snapshot into the JSON bytes kept in Redis.
func EncodeCached[T any](value *T) ([]byte, error) {
	if value == nil {
		return nil, ErrNilValue
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", value, err)
	}
	return data, nil
}

func DecodeCached[T any](data []byte) (*T, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	value := new(T)
	if err := json.Unmarshal(data, value); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", value, err)
	}
	return value, nil
}
