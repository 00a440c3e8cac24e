package persistence

import (
	"partdocs/application/ports"
	"partdocs/domain/document"
	pkgerrors "partdocs/pkg/errors"
)

// EntityDocumentMapper performs the two-way identifier substitution around
// serialization. Persisted documents carry only the store's internal
// document id, so the store's uniqueness constraint (scoped to document id
// plus partition) stays correct; entities handed back to callers always
// carry the compound external identifier.
type EntityDocumentMapper[T document.Entity] struct {
	serializer ports.Serializer[T]
}

// NewEntityDocumentMapper creates a mapper around the given serializer
func NewEntityDocumentMapper[T document.Entity](serializer ports.Serializer[T]) *EntityDocumentMapper[T] {
	return &EntityDocumentMapper[T]{serializer: serializer}
}

// ToDocument serializes the entity and rewrites the identifier field to the
// internal lookup id, stripping any partition-derived suffix.
func (m *EntityDocumentMapper[T]) ToDocument(entity T, lookupID string) (ports.Document, error) {
	if isNil(entity) {
		return nil, pkgerrors.NewValidationError("entity is required")
	}
	if lookupID == "" {
		return nil, pkgerrors.NewValidationError("lookup id is empty")
	}

	doc, err := m.serializer.Serialize(entity)
	if err != nil {
		return nil, err
	}
	doc[ports.FieldID] = lookupID
	return doc, nil
}

// FromDocument deserializes the document and rewrites the in-memory
// identifier to the externally stable compound form.
func (m *EntityDocumentMapper[T]) FromDocument(doc ports.Document, externalID string) (T, error) {
	var zero T
	if doc == nil {
		return zero, pkgerrors.NewValidationError("document is required")
	}
	if externalID == "" {
		return zero, pkgerrors.NewValidationError("external id is empty")
	}

	entity, err := m.serializer.Deserialize(doc)
	if err != nil {
		return zero, err
	}
	entity.SetID(externalID)
	return entity, nil
}
