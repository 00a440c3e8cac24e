// Package document defines the contract every stored entity satisfies:
// a caller-visible identifier, a server-assigned write timestamp, opaque
// version bytes for optimistic concurrency, and a soft-delete flag.
package document

import "time"

// Entity is the compile-time contract for repository-managed types.
// Embedding Base satisfies it.
type Entity interface {
	GetID() string
	SetID(id string)
	GetUpdatedAt() Timestamp
	SetUpdatedAt(t time.Time)
	GetVersion() []byte
	SetVersion(version []byte)
	IsDeleted() bool
}

// Base carries the system fields of a stored document. Version holds the
// store's concurrency tag as opaque bytes and never round-trips through the
// document body; the store's own system field is authoritative.
type Base struct {
	ID        string    `json:"id"`
	UpdatedAt Timestamp `json:"updatedAt,omitempty"`
	Deleted   bool      `json:"deleted,omitempty"`
	Version   []byte    `json:"-"`
}

// GetID returns the external identifier
func (b *Base) GetID() string {
	return b.ID
}

// SetID sets the external identifier
func (b *Base) SetID(id string) {
	b.ID = id
}

// GetUpdatedAt returns the last write timestamp
func (b *Base) GetUpdatedAt() Timestamp {
	return b.UpdatedAt
}

// SetUpdatedAt sets the last write timestamp
func (b *Base) SetUpdatedAt(t time.Time) {
	b.UpdatedAt = At(t)
}

// GetVersion returns the opaque concurrency token
func (b *Base) GetVersion() []byte {
	return b.Version
}

// SetVersion sets the opaque concurrency token
func (b *Base) SetVersion(version []byte) {
	b.Version = version
}

// IsDeleted reports the soft-delete flag. The repository does not enforce
// it; filtering deleted records is left to callers and the query layer.
func (b *Base) IsDeleted() bool {
	return b.Deleted
}
