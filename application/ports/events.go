package ports

import (
	"context"

	"partdocs/domain/document"
)

// ChangeType identifies the kind of write that occurred
type ChangeType string

const (
	ChangeCreated  ChangeType = "entity.created"
	ChangeReplaced ChangeType = "entity.replaced"
	ChangeDeleted  ChangeType = "entity.deleted"
)

// Change describes a successful repository write
type Change struct {
	Type       ChangeType         `json:"type"`
	ExternalID string             `json:"externalId"`
	Partition  string             `json:"partition"`
	OccurredAt document.Timestamp `json:"occurredAt"`
}

// ChangePublisher emits change notifications after successful writes.
// Publishing is best-effort; a publish failure never fails the write.
type ChangePublisher interface {
	Publish(ctx context.Context, change Change) error
}
