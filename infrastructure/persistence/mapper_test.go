package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partdocs/application/ports"
	"partdocs/domain/core/entities"
	pkgerrors "partdocs/pkg/errors"
)

func TestEntityDocumentMapper_ToDocument(t *testing.T) {
	mapper := NewEntityDocumentMapper[*entities.Title](NewJSONSerializer[*entities.Title]())

	t.Run("identifier field is replaced with lookup id", func(t *testing.T) {
		title := &entities.Title{Name: "Heat", Rating: "R"}
		title.SetID("movie-1:R")

		doc, err := mapper.ToDocument(title, "movie-1")
		require.NoError(t, err)
		assert.Equal(t, "movie-1", doc.ID())
		assert.Equal(t, "Heat", doc["name"])
	})

	t.Run("nil entity rejected", func(t *testing.T) {
		_, err := mapper.ToDocument(nil, "movie-1")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("empty lookup id rejected", func(t *testing.T) {
		_, err := mapper.ToDocument(&entities.Title{Name: "Heat"}, "")
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestEntityDocumentMapper_FromDocument(t *testing.T) {
	mapper := NewEntityDocumentMapper[*entities.Title](NewJSONSerializer[*entities.Title]())

	t.Run("external id is reattached", func(t *testing.T) {
		doc := ports.Document{ports.FieldID: "movie-1", "name": "Heat", "rating": "R"}

		title, err := mapper.FromDocument(doc, "movie-1:R")
		require.NoError(t, err)
		assert.Equal(t, "movie-1:R", title.GetID())
		assert.Equal(t, "Heat", title.Name)
		assert.Equal(t, "R", title.Rating)
	})

	t.Run("nil document rejected", func(t *testing.T) {
		_, err := mapper.FromDocument(nil, "movie-1")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("empty external id rejected", func(t *testing.T) {
		_, err := mapper.FromDocument(ports.Document{}, "")
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestEntityDocumentMapper_SubstitutionRoundTrip(t *testing.T) {
	mapper := NewEntityDocumentMapper[*entities.Title](NewJSONSerializer[*entities.Title]())

	original := &entities.Title{Name: "Heat", Rating: "R", Year: 1995, Score: 8.3}
	original.SetID("movie-1:R")

	doc, err := mapper.ToDocument(original, "movie-1")
	require.NoError(t, err)

	restored, err := mapper.FromDocument(doc, "movie-1:R")
	require.NoError(t, err)

	assert.Equal(t, original.GetID(), restored.GetID())
	assert.Equal(t, original.Name, restored.Name)
	assert.Equal(t, original.Year, restored.Year)
	assert.Equal(t, original.Score, restored.Score)
}
