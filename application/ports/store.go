// Package ports declares the boundaries to external collaborators: the
// document container client, the entity serializer, and the change
// publisher. The repository layer depends only on these interfaces.
package ports

import (
	"context"

	"partdocs/pkg/partition"
)

// Store-reserved document fields
const (
	// FieldID holds the store's internal document id, never the compound
	// external identifier.
	FieldID = "id"
	// FieldETag holds the store's concurrency tag, rotated on every write.
	FieldETag = "_etag"
	// FieldUpdatedAt holds the server-assigned write timestamp.
	FieldUpdatedAt = "updatedAt"
)

// Document is the generic wire representation of a stored record
type Document map[string]interface{}

// ID returns the document's internal identifier
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// ETag returns the document's concurrency tag
func (d Document) ETag() string {
	etag, _ := d[FieldETag].(string)
	return etag
}

// RequestOptions carries per-request store options. It is a value type:
// deriving a variant copies it, so a shared base configuration is never
// mutated.
type RequestOptions struct {
	// IfMatch is the precondition token; the store rejects the mutation
	// unless its current tag equals this value. Empty means unconditional.
	IfMatch string
	// ConsistentRead requests strongly consistent point reads where the
	// store distinguishes consistency levels.
	ConsistentRead bool
}

// WithPrecondition returns a copy of the options carrying the given token
func (o RequestOptions) WithPrecondition(token string) RequestOptions {
	o.IfMatch = token
	return o
}

// ContainerClient is the point-operation contract of the underlying
// document store. Implementations translate their native failures into the
// pkg/errors taxonomy: Conflict from createItem, NotFound and
// PreconditionFailed from the mutating operations, Database for anything
// transient.
type ContainerClient interface {
	// CreateItem persists a new document. The returned document carries the
	// server-assigned concurrency tag.
	CreateItem(ctx context.Context, doc Document, documentID string, key partition.Key, opts RequestOptions) (Document, error)

	// ReadItem point-reads a document by (documentID, partition key).
	ReadItem(ctx context.Context, documentID string, key partition.Key, opts RequestOptions) (Document, error)

	// ReplaceItem overwrites an existing document, honoring any IfMatch
	// precondition natively when the store supports conditional writes.
	ReplaceItem(ctx context.Context, doc Document, documentID string, key partition.Key, opts RequestOptions) (Document, error)

	// DeleteItem removes a document, honoring any IfMatch precondition.
	DeleteItem(ctx context.Context, documentID string, key partition.Key, opts RequestOptions) error

	// QueryItems returns the documents of one partition in store order.
	// Documents carry internal ids; identifier reattachment is the
	// repository's concern.
	QueryItems(ctx context.Context, key partition.Key, opts RequestOptions) ([]Document, error)
}

// Serializer converts entities to and from the generic document form.
// Implementations own field mapping, including the sortable fixed-width
// timestamp rendering; the single id field is rewritten by the mapper, not
// here.
type Serializer[T any] interface {
	Serialize(entity T) (Document, error)
	Deserialize(doc Document) (T, error)
}
