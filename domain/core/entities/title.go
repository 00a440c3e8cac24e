// Package entities holds the catalog domain model stored through the
// partition-aware repository.
package entities

import (
	"partdocs/domain/document"
	pkgerrors "partdocs/pkg/errors"
	"partdocs/pkg/partition"
)

// Title is a catalog record. The container is partitioned by rating, so
// two titles may share a document id as long as their ratings differ.
type Title struct {
	document.Base

	Name    string  `json:"name"`
	Rating  string  `json:"rating"`
	Year    int     `json:"year,omitempty"`
	Score   float64 `json:"score,omitempty"`
	Adult   bool    `json:"adult,omitempty"`
	Summary string  `json:"summary,omitempty"`
}

// NewTitle creates a title with required-field validation
func NewTitle(name, rating string) (*Title, error) {
	if name == "" {
		return nil, pkgerrors.NewValidationError("name cannot be empty")
	}
	if rating == "" {
		return nil, pkgerrors.NewValidationError("rating cannot be empty")
	}
	return &Title{Name: name, Rating: rating}, nil
}

// PartitionFields exposes the properties eligible for partition keys.
// The repository picks the configured subset in declared order.
func (t *Title) PartitionFields() map[string]partition.Value {
	return map[string]partition.Value{
		"rating": partition.Of(t.Rating),
		"year":   partition.Of(t.Year),
		"score":  partition.Of(t.Score),
		"adult":  partition.Of(t.Adult),
	}
}
