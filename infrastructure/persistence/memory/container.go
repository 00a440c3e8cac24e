// Package memory provides an in-memory ContainerClient with the same error
// contract as the real store. It backs unit tests and local runs.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"partdocs/application/ports"
	pkgerrors "partdocs/pkg/errors"
	"partdocs/pkg/partition"
)

type storedItem struct {
	doc  ports.Document
	etag string
}

// Container is a mutex-guarded in-memory document container. Uniqueness is
// scoped to (partition key, document id), matching the real store.
type Container struct {
	mu         sync.RWMutex
	partitions map[string]map[string]*storedItem
}

// NewContainer creates an empty in-memory container
func NewContainer() *Container {
	return &Container{
		partitions: make(map[string]map[string]*storedItem),
	}
}

// CreateItem implements ports.ContainerClient
func (c *Container) CreateItem(ctx context.Context, doc ports.Document, documentID string, key partition.Key, opts ports.RequestOptions) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("create", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.partitions[key.String()]
	if items == nil {
		items = make(map[string]*storedItem)
		c.partitions[key.String()] = items
	}
	if _, exists := items[documentID]; exists {
		return nil, pkgerrors.NewConflictError("item already exists")
	}

	item := &storedItem{doc: cloneDocument(doc), etag: uuid.New().String()}
	item.doc[ports.FieldETag] = item.etag
	items[documentID] = item

	return cloneDocument(item.doc), nil
}

// ReadItem implements ports.ContainerClient
func (c *Container) ReadItem(ctx context.Context, documentID string, key partition.Key, opts ports.RequestOptions) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("read", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.partitions[key.String()][documentID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("item")
	}
	return cloneDocument(item.doc), nil
}

// ReplaceItem implements ports.ContainerClient
func (c *Container) ReplaceItem(ctx context.Context, doc ports.Document, documentID string, key partition.Key, opts ports.RequestOptions) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("replace", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.partitions[key.String()]
	item, ok := items[documentID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("item")
	}
	if opts.IfMatch != "" && opts.IfMatch != item.etag {
		return nil, pkgerrors.NewPreconditionFailedError("etag mismatch")
	}

	replacement := &storedItem{doc: cloneDocument(doc), etag: uuid.New().String()}
	replacement.doc[ports.FieldETag] = replacement.etag
	items[documentID] = replacement

	return cloneDocument(replacement.doc), nil
}

// DeleteItem implements ports.ContainerClient
func (c *Container) DeleteItem(ctx context.Context, documentID string, key partition.Key, opts ports.RequestOptions) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewDatabaseError("delete", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.partitions[key.String()]
	item, ok := items[documentID]
	if !ok {
		return pkgerrors.NewNotFoundError("item")
	}
	if opts.IfMatch != "" && opts.IfMatch != item.etag {
		return pkgerrors.NewPreconditionFailedError("etag mismatch")
	}

	delete(items, documentID)
	return nil
}

// QueryItems implements ports.ContainerClient. Results are ordered by
// document id for determinism.
func (c *Container) QueryItems(ctx context.Context, key partition.Key, opts ports.RequestOptions) ([]ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("query", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	items := c.partitions[key.String()]
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]ports.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, cloneDocument(items[id].doc))
	}
	return docs, nil
}

// cloneDocument deep-copies a document so callers never share storage with
// the container
func cloneDocument(doc ports.Document) ports.Document {
	data, err := json.Marshal(doc)
	if err != nil {
		// Documents are built from JSON-serializable entities; this cannot
		// fail for well-formed input.
		clone := make(ports.Document, len(doc))
		for k, v := range doc {
			clone[k] = v
		}
		return clone
	}
	var clone ports.Document
	if err := json.Unmarshal(data, &clone); err != nil {
		return doc
	}
	return clone
}
