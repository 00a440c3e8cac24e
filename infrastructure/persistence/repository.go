// Package persistence implements the partition-aware repository. A single
// external identifier is split into (document id, partition key) before
// every store call and reassembled afterwards; optimistic concurrency runs
// on the store's opaque tag.
package persistence

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"partdocs/application/ports"
	"partdocs/domain/document"
	pkgerrors "partdocs/pkg/errors"
	"partdocs/pkg/identifier"
	"partdocs/pkg/partition"
)

// Repository provides partition-aware CRUD over a ContainerClient. It holds
// no mutable state after construction and is safe for concurrent use.
type Repository[T document.Entity] struct {
	container  ports.ContainerClient
	mapper     *EntityDocumentMapper[T]
	codec      identifier.Codec
	properties []string
	options    ports.RequestOptions
	publisher  ports.ChangePublisher
	logger     *zap.Logger
	clock      func() time.Time
	generateID func() string
}

// Option configures a Repository
type Option[T document.Entity] func(*Repository[T])

// WithPartitionProperties sets the ordered partition key property names.
// Entities must implement partition.FieldProvider exposing these names.
// Without this option the identifier itself is the single partition key.
func WithPartitionProperties[T document.Entity](names ...string) Option[T] {
	return func(r *Repository[T]) {
		r.properties = names
	}
}

// WithCodec overrides the default identifier codec
func WithCodec[T document.Entity](codec identifier.Codec) Option[T] {
	return func(r *Repository[T]) {
		r.codec = codec
	}
}

// WithRequestOptions sets the base per-request store options
func WithRequestOptions[T document.Entity](opts ports.RequestOptions) Option[T] {
	return func(r *Repository[T]) {
		r.options = opts
	}
}

// WithChangePublisher attaches a best-effort change publisher
func WithChangePublisher[T document.Entity](publisher ports.ChangePublisher) Option[T] {
	return func(r *Repository[T]) {
		r.publisher = publisher
	}
}

// WithClock overrides the write-timestamp source
func WithClock[T document.Entity](clock func() time.Time) Option[T] {
	return func(r *Repository[T]) {
		r.clock = clock
	}
}

// WithIDGenerator overrides the generated document id source
func WithIDGenerator[T document.Entity](generate func() string) Option[T] {
	return func(r *Repository[T]) {
		r.generateID = generate
	}
}

// NewRepository creates a repository over the given container client
func NewRepository[T document.Entity](
	container ports.ContainerClient,
	serializer ports.Serializer[T],
	logger *zap.Logger,
	opts ...Option[T],
) *Repository[T] {
	r := &Repository[T]{
		container:  container,
		mapper:     NewEntityDocumentMapper[T](serializer),
		codec:      identifier.NewDelimitedCodec(),
		logger:     logger,
		clock:      time.Now,
		generateID: newHexID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newHexID generates a lowercase hex document id free of codec delimiters
func newHexID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Create persists a new entity. An empty or id-less external identifier
// gets a generated document id, and the external identifier is re-derived
// with the same encoding rule. On a conflict the existing entity is read
// back and attached to the returned error. The entity is mutated only after
// the store accepts the write.
func (r *Repository[T]) Create(ctx context.Context, entity T) error {
	if isNil(entity) {
		return pkgerrors.NewValidationError("entity is required")
	}

	externalID := entity.GetID()
	var documentID string
	var decoded []string
	hadSuffix := false
	if externalID != "" {
		var err error
		documentID, decoded, err = r.codec.Decode(externalID)
		if err != nil {
			return err
		}
		hadSuffix = documentID != externalID
	}

	generated := false
	if documentID == "" {
		documentID = r.generateID()
		generated = true
	}

	key, err := r.writeKey(entity, documentID, decoded)
	if err != nil {
		return err
	}

	if generated {
		var suffix []string
		switch {
		case len(r.properties) > 0:
			suffix = key.Canonical()
		case hadSuffix:
			suffix = decoded
		}
		externalID, err = r.codec.Encode(documentID, suffix)
		if err != nil {
			return err
		}
	}

	now := r.clock().UTC()
	doc, err := r.mapper.ToDocument(entity, documentID)
	if err != nil {
		return err
	}
	doc[ports.FieldUpdatedAt] = document.At(now).String()

	created, err := r.container.CreateItem(ctx, doc, documentID, key, r.options)
	if err != nil {
		if pkgerrors.IsConflict(err) {
			conflict := pkgerrors.NewConflictError("entity already exists").WithCause(err)
			if existing, readErr := r.readCurrent(ctx, documentID, key, externalID); readErr == nil && !isNil(existing) {
				conflict = conflict.WithEntity(existing)
			}
			return conflict
		}
		return r.storeFailure("create", err)
	}

	entity.SetID(externalID)
	entity.SetUpdatedAt(now)
	if etag := created.ETag(); etag != "" {
		entity.SetVersion([]byte(etag))
	}

	r.publish(ctx, ports.ChangeCreated, externalID, key, now)
	r.logger.Debug("Entity created",
		zap.String("externalID", externalID),
		zap.String("documentID", documentID),
		zap.String("partition", key.String()),
	)
	return nil
}

// Read point-reads an entity by its external identifier. A missing entity
// is a nil result, not an error.
func (r *Repository[T]) Read(ctx context.Context, externalID string) (T, error) {
	var zero T
	if externalID == "" {
		return zero, pkgerrors.NewValidationError("identifier is empty")
	}

	documentID, decoded, err := r.codec.Decode(externalID)
	if err != nil {
		return zero, err
	}
	if documentID == "" {
		return zero, pkgerrors.NewValidationError("identifier has no document id")
	}

	key := partition.KeyFromStrings(decoded)
	doc, err := r.container.ReadItem(ctx, documentID, key, r.options)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return zero, nil
		}
		return zero, r.storeFailure("read", err)
	}

	return r.toEntity(doc, externalID)
}

// Replace overwrites an existing entity. A non-nil expectedVersion is
// compared byte-for-byte against the stored entity's version and also
// passed to the store as a native precondition, closing the window between
// the verifying read and the write. The external identifier never changes.
func (r *Repository[T]) Replace(ctx context.Context, entity T, expectedVersion []byte) error {
	if isNil(entity) {
		return pkgerrors.NewValidationError("entity is required")
	}
	externalID := entity.GetID()
	if externalID == "" {
		return pkgerrors.NewValidationError("entity has no identifier")
	}

	documentID, decoded, err := r.codec.Decode(externalID)
	if err != nil {
		return err
	}
	if documentID == "" {
		return pkgerrors.NewValidationError("identifier has no document id")
	}

	current, err := r.Read(ctx, externalID)
	if err != nil {
		return err
	}
	if isNil(current) {
		return pkgerrors.NewNotFoundError("entity")
	}
	if expectedVersion != nil && !bytes.Equal(expectedVersion, current.GetVersion()) {
		return pkgerrors.NewPreconditionFailedError("version mismatch").WithEntity(current)
	}

	key, err := r.writeKey(entity, documentID, decoded)
	if err != nil {
		return err
	}

	opts := r.options
	if len(expectedVersion) > 0 {
		opts = opts.WithPrecondition(string(expectedVersion))
	}

	now := r.clock().UTC()
	doc, err := r.mapper.ToDocument(entity, documentID)
	if err != nil {
		return err
	}
	doc[ports.FieldUpdatedAt] = document.At(now).String()

	replaced, err := r.container.ReplaceItem(ctx, doc, documentID, key, opts)
	if err != nil {
		switch {
		case pkgerrors.IsNotFound(err):
			return pkgerrors.NewNotFoundError("entity")
		case pkgerrors.IsPreconditionFailed(err):
			failure := pkgerrors.NewPreconditionFailedError("version mismatch").WithCause(err)
			if stored, readErr := r.readCurrent(ctx, documentID, key, externalID); readErr == nil && !isNil(stored) {
				failure = failure.WithEntity(stored)
			}
			return failure
		default:
			return r.storeFailure("replace", err)
		}
	}

	entity.SetUpdatedAt(now)
	if etag := replaced.ETag(); etag != "" {
		entity.SetVersion([]byte(etag))
	}

	r.publish(ctx, ports.ChangeReplaced, externalID, key, now)
	r.logger.Debug("Entity replaced",
		zap.String("externalID", externalID),
		zap.String("documentID", documentID),
	)
	return nil
}

// Delete removes an entity by its external identifier. A non-nil
// expectedVersion is verified against the stored entity first and passed to
// the store as a native precondition. A missing entity is NotFound, even
// when another writer deleted it between the check and the delete.
func (r *Repository[T]) Delete(ctx context.Context, externalID string, expectedVersion []byte) error {
	if externalID == "" {
		return pkgerrors.NewValidationError("identifier is empty")
	}

	documentID, decoded, err := r.codec.Decode(externalID)
	if err != nil {
		return err
	}
	if documentID == "" {
		return pkgerrors.NewValidationError("identifier has no document id")
	}

	key := partition.KeyFromStrings(decoded)
	opts := r.options
	if expectedVersion != nil {
		current, err := r.Read(ctx, externalID)
		if err != nil {
			return err
		}
		if isNil(current) {
			return pkgerrors.NewNotFoundError("entity")
		}
		if !bytes.Equal(expectedVersion, current.GetVersion()) {
			return pkgerrors.NewPreconditionFailedError("version mismatch").WithEntity(current)
		}
		opts = opts.WithPrecondition(string(expectedVersion))
	}

	if err := r.container.DeleteItem(ctx, documentID, key, opts); err != nil {
		switch {
		case pkgerrors.IsNotFound(err):
			return pkgerrors.NewNotFoundError("entity")
		case pkgerrors.IsPreconditionFailed(err):
			failure := pkgerrors.NewPreconditionFailedError("version mismatch").WithCause(err)
			if stored, readErr := r.readCurrent(ctx, documentID, key, externalID); readErr == nil && !isNil(stored) {
				failure = failure.WithEntity(stored)
			}
			return failure
		default:
			return r.storeFailure("delete", err)
		}
	}

	r.publish(ctx, ports.ChangeDeleted, externalID, key, r.clock().UTC())
	r.logger.Debug("Entity deleted",
		zap.String("externalID", externalID),
		zap.String("documentID", documentID),
	)
	return nil
}

// QueryPartition lists the entities of one partition. Unlike the raw
// container surface, results undergo the same identifier reattachment as
// point reads, so callers never observe internal document ids.
func (r *Repository[T]) QueryPartition(ctx context.Context, key partition.Key) ([]T, error) {
	if key.Len() == 0 {
		return nil, pkgerrors.NewValidationError("partition key is required")
	}

	docs, err := r.container.QueryItems(ctx, key, r.options)
	if err != nil {
		return nil, r.storeFailure("query", err)
	}

	entities := make([]T, 0, len(docs))
	for _, doc := range docs {
		externalID := doc.ID()
		if len(r.properties) > 0 {
			externalID, err = r.codec.Encode(doc.ID(), key.Canonical())
			if err != nil {
				r.logger.Warn("Skipping document with unencodable identifier",
					zap.String("documentID", doc.ID()), zap.Error(err))
				continue
			}
		}
		entity, err := r.toEntity(doc, externalID)
		if err != nil {
			r.logger.Warn("Failed to map queried document",
				zap.String("documentID", doc.ID()), zap.Error(err))
			continue
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// Container exposes the store's native surface for external query/paging
// layers. Documents obtained this way carry internal ids.
func (r *Repository[T]) Container() ports.ContainerClient {
	return r.container
}

// writeKey resolves the partition key for a write. With configured
// properties the entity's declared fields are authoritative; otherwise the
// key falls back to the decoded identifier components, or the document id
// itself.
func (r *Repository[T]) writeKey(entity T, documentID string, decoded []string) (partition.Key, error) {
	if len(r.properties) > 0 {
		provider, ok := any(entity).(partition.FieldProvider)
		if !ok {
			return partition.Key{}, pkgerrors.NewValidationError("entity type does not declare partition fields")
		}
		return partition.Build(provider, r.properties)
	}
	if len(decoded) > 0 {
		return partition.KeyFromStrings(decoded), nil
	}
	return partition.KeyFromStrings([]string{documentID}), nil
}

// readCurrent reads the stored entity backing an identifier, for conflict
// and precondition payloads
func (r *Repository[T]) readCurrent(ctx context.Context, documentID string, key partition.Key, externalID string) (T, error) {
	var zero T
	doc, err := r.container.ReadItem(ctx, documentID, key, r.options)
	if err != nil {
		return zero, err
	}
	return r.toEntity(doc, externalID)
}

// toEntity maps a stored document back to an entity, reattaching the
// external identifier and the store's concurrency tag
func (r *Repository[T]) toEntity(doc ports.Document, externalID string) (T, error) {
	entity, err := r.mapper.FromDocument(doc, externalID)
	if err != nil {
		var zero T
		return zero, err
	}
	if etag := doc.ETag(); etag != "" {
		entity.SetVersion([]byte(etag))
	}
	return entity, nil
}

// storeFailure normalizes unexpected container errors
func (r *Repository[T]) storeFailure(operation string, err error) error {
	if pkgerrors.IsDatabase(err) {
		return err
	}
	return pkgerrors.NewDatabaseError(operation, err)
}

// publish emits a change notification; failures are logged, never returned
func (r *Repository[T]) publish(ctx context.Context, changeType ports.ChangeType, externalID string, key partition.Key, at time.Time) {
	if r.publisher == nil {
		return
	}
	change := ports.Change{
		Type:       changeType,
		ExternalID: externalID,
		Partition:  key.String(),
		OccurredAt: document.At(at),
	}
	if err := r.publisher.Publish(ctx, change); err != nil {
		r.logger.Warn("Failed to publish change event",
			zap.String("type", string(changeType)),
			zap.String("externalID", externalID),
			zap.Error(err),
		)
	}
}
