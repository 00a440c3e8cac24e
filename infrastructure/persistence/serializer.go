package persistence

import (
	"encoding/json"
	"reflect"

	"partdocs/application/ports"
	pkgerrors "partdocs/pkg/errors"
)

// JSONSerializer maps entities to the generic document form through their
// JSON field tags. Timestamps render in the fixed-width sortable layout via
// document.Timestamp; the opaque version bytes are excluded from the body
// because the store's own tag field is authoritative.
type JSONSerializer[T any] struct{}

// NewJSONSerializer creates a JSON-based serializer
func NewJSONSerializer[T any]() *JSONSerializer[T] {
	return &JSONSerializer[T]{}
}

// Serialize implements ports.Serializer
func (s *JSONSerializer[T]) Serialize(entity T) (ports.Document, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to serialize entity").WithCause(err)
	}

	var doc ports.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.NewInternalError("failed to build document").WithCause(err)
	}
	return doc, nil
}

// Deserialize implements ports.Serializer
func (s *JSONSerializer[T]) Deserialize(doc ports.Document) (T, error) {
	var entity T

	data, err := json.Marshal(doc)
	if err != nil {
		return entity, pkgerrors.NewInternalError("failed to encode document").WithCause(err)
	}
	if err := json.Unmarshal(data, &entity); err != nil {
		return entity, pkgerrors.NewInternalError("failed to deserialize entity").WithCause(err)
	}
	return entity, nil
}

// isNil reports whether a generic entity value is absent. Entity types are
// pointers, so a typed nil must be caught as well as the untyped zero.
func isNil[T any](v T) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
