package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"partdocs/domain/core/entities"
	"partdocs/infrastructure/config"
	"partdocs/infrastructure/persistence"
	"partdocs/infrastructure/persistence/memory"
	"partdocs/interfaces/http/rest"
	"partdocs/interfaces/http/rest/handlers"
	pkgerrors "partdocs/pkg/errors"
)

// setupTestServer assembles the full REST stack over an in-memory store.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	repo := persistence.NewRepository[*entities.Title](
		memory.NewContainer(),
		persistence.NewJSONSerializer[*entities.Title](),
		logger,
		persistence.WithPartitionProperties[*entities.Title]("rating"),
	)
	titleHandler := handlers.NewTitleHandler(repo, pkgerrors.NewErrorHandler(logger, false), logger)

	cfg := &config.Config{
		Environment: "test",
		EnableCORS:  false,
		EnableAuth:  false,
	}
	router := rest.NewRouter(cfg, titleHandler, logger)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server
}

func request(t *testing.T, method, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeTitle(t *testing.T, resp *http.Response) entities.Title {
	t.Helper()
	defer resp.Body.Close()
	var title entities.Title
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&title))
	return title
}

// TestTitleLifecycle walks a title through create, read, conditional
// replace, and conditional delete over the full HTTP stack.
func TestTitleLifecycle(t *testing.T) {
	server := setupTestServer(t)
	base := server.URL + "/api/v1/titles"

	// Create with a caller-chosen id
	resp := request(t, http.MethodPost, base, handlers.CreateTitleRequest{
		ID:     "movie-1:R",
		Name:   "Heat",
		Rating: "R",
		Year:   1995,
		Score:  8.3,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	created := decodeTitle(t, resp)
	assert.Equal(t, "movie-1:R", created.ID)

	// Read it back
	resp = request(t, http.MethodGet, base+"/movie-1:R", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeTitle(t, resp)
	assert.Equal(t, "Heat", got.Name)
	assert.Equal(t, 1995, got.Year)

	// Duplicate create conflicts
	resp = request(t, http.MethodPost, base, handlers.CreateTitleRequest{
		ID: "movie-1:R", Name: "Heat Again", Rating: "R",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Conditional replace with the current tag succeeds and rotates it
	resp = request(t, http.MethodPut, base+"/movie-1:R", handlers.ReplaceTitleRequest{
		Name: "Heat (Remastered)", Rating: "R", Year: 1995,
	}, map[string]string{"If-Match": etag})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	newETag := resp.Header.Get("ETag")
	require.NotEmpty(t, newETag)
	require.NotEqual(t, etag, newETag)
	resp.Body.Close()

	// The old tag no longer wins
	resp = request(t, http.MethodPut, base+"/movie-1:R", handlers.ReplaceTitleRequest{
		Name: "Heat", Rating: "R",
	}, map[string]string{"If-Match": etag})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	resp.Body.Close()

	// Conditional delete with the fresh tag
	resp = request(t, http.MethodDelete, base+"/movie-1:R", nil, map[string]string{"If-Match": newETag})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = request(t, http.MethodGet, base+"/movie-1:R", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// TestTitlePartitionListing creates titles across partitions and lists one.
func TestTitlePartitionListing(t *testing.T) {
	server := setupTestServer(t)
	base := server.URL + "/api/v1/titles"

	var generatedID string
	for _, tc := range []struct {
		name, rating string
	}{
		{"Heat", "R"},
		{"Seven", "R"},
		{"Up", "PG"},
	} {
		resp := request(t, http.MethodPost, base, handlers.CreateTitleRequest{
			Name: tc.name, Rating: tc.rating,
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		title := decodeTitle(t, resp)
		require.NotEmpty(t, title.ID)
		if tc.name == "Heat" {
			generatedID = title.ID
		}
	}

	// Generated ids resolve through point reads
	resp := request(t, http.MethodGet, base+"/"+generatedID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Heat", decodeTitle(t, resp).Name)

	resp = request(t, http.MethodGet, base+"?rating=R", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var listing struct {
		Titles []entities.Title `json:"titles"`
		Count  int              `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Equal(t, 2, listing.Count)
	for _, title := range listing.Titles {
		assert.Equal(t, "R", title.Rating)
	}
}
