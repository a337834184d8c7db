package storage

import (
	"encoding/json"
	"fmt"
)

// TypedStore binds a Store kind to a Go type with JSON encoding.
type TypedStore[T any] struct {
	store *Store
	kind  string
}

func NewTypedStore[T any](store *Store, kind string) *TypedStore[T] {
	return &TypedStore[T]{store: store, kind: kind}
}

func (s *TypedStore[T]) Kind() string { return s.kind }

// Get returns the zero value and version 0 when id is unknown.
func (s *TypedStore[T]) Get(id string) (value T, version int64, err error) {
	payload, version, err := s.store.Get(s.kind, id)
	if err != nil || payload == nil {
		return value, 0, err
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		return value, 0, fmt.Errorf("failed to unmarshal %s/%s: %w", s.kind, id, err)
	}
	return value, version, nil
}

func (s *TypedStore[T]) Set(id string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", s.kind, id, err)
	}
	return s.store.Set(s.kind, id, payload)
}

func (s *TypedStore[T]) Delete(id string) error {
	return s.store.Delete(s.kind, id)
}

func (s *TypedStore[T]) Clear() error {
	return s.store.Clear(s.kind)
}

func (s *TypedStore[T]) GetAll() (map[string]T, map[string]int64, error) {
	payloads, versions, err := s.store.GetAll(s.kind)
	if err != nil {
		return nil, nil, err
	}
	values := make(map[string]T, len(payloads))
	for id, payload := range payloads {
		var value T
		if err := json.Unmarshal(payload, &value); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal %s/%s: %w", s.kind, id, err)
		}
		values[id] = value
	}
	return values, versions, nil
}
