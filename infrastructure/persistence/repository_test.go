package persistence

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"partdocs/domain/core/entities"
	"partdocs/infrastructure/persistence/memory"
	pkgerrors "partdocs/pkg/errors"
	"partdocs/pkg/partition"
)

func newTestRepository(opts ...Option[*entities.Title]) *Repository[*entities.Title] {
	return NewRepository[*entities.Title](
		memory.NewContainer(),
		NewJSONSerializer[*entities.Title](),
		zap.NewNop(),
		opts...,
	)
}

func ratingRepository() *Repository[*entities.Title] {
	return newTestRepository(WithPartitionProperties[*entities.Title]("rating"))
}

func TestRepository_CreateThenRead_IdentityPartition(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	title := &entities.Title{Name: "Heat", Rating: "R", Year: 1995}
	title.SetID("movie-1")

	before := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, title))

	assert.Equal(t, "movie-1", title.GetID())
	assert.NotEmpty(t, title.GetVersion())
	assert.False(t, title.GetUpdatedAt().Before(before))

	got, err := repo.Read(ctx, "movie-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "movie-1", got.GetID())
	assert.Equal(t, title.Name, got.Name)
	assert.Equal(t, title.Year, got.Year)
	assert.Equal(t, title.GetVersion(), got.GetVersion())
}

func TestRepository_CreateGeneratesIdentifier(t *testing.T) {
	ctx := context.Background()
	repo := ratingRepository()

	title := &entities.Title{Name: "Heat", Rating: "PG-13"}
	require.NoError(t, repo.Create(ctx, title))

	// Generated document id is lowercase hex with the partition suffix
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+:PG-13$`), title.GetID())

	got, err := repo.Read(ctx, title.GetID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, title.GetID(), got.GetID())
	assert.Equal(t, "Heat", got.Name)
}

func TestRepository_CreateHierarchicalPartition(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(WithPartitionProperties[*entities.Title]("rating", "year"))

	title := &entities.Title{Name: "Heat", Rating: "R", Year: 1995}
	require.NoError(t, repo.Create(ctx, title))
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+:R\|1995$`), title.GetID())

	got, err := repo.Read(ctx, title.GetID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1995, got.Year)
}

func TestRepository_CreateConflictCarriesExistingEntity(t *testing.T) {
	ctx := context.Background()
	repo := ratingRepository()

	first := &entities.Title{Name: "First", Rating: "PG-13"}
	first.SetID("movie-1:PG-13")
	require.NoError(t, repo.Create(ctx, first))

	second := &entities.Title{Name: "Second", Rating: "PG-13"}
	second.SetID("movie-1:PG-13")

	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	existing, ok := appErr.Entity.(*entities.Title)
	require.True(t, ok)
	assert.Equal(t, "First", existing.Name)
	assert.Equal(t, "movie-1:PG-13", existing.GetID())

	// The losing entity was never mutated
	assert.Empty(t, second.GetVersion())
	assert.True(t, second.GetUpdatedAt().IsZero())
}

func TestRepository_ConcurrentCreate_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	repo := ratingRepository()

	const writers = 2
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := &entities.Title{Name: "Racer", Rating: "PG-13"}
			title.SetID("race-1:PG-13")
			errs[i] = repo.Create(ctx, title)
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case pkgerrors.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestRepository_Replace(t *testing.T) {
	ctx := context.Background()
	repo := ratingRepository()

	title := &entities.Title{Name: "Heat", Rating: "PG-13"}
	title.SetID("movie-1:PG-13")
	require.NoError(t, repo.Create(ctx, title))
	firstVersion := title.GetVersion()

	t.Run("success refreshes version and timestamp", func(t *testing.T) {
		title.Name = "Heat (Director's Cut)"
		require.NoError(t, repo.Replace(ctx, title, firstVersion))

		assert.Equal(t, "movie-1:PG-13", title.GetID())
		assert.NotEqual(t, firstVersion, title.GetVersion())

		got, err := repo.Read(ctx, "movie-1:PG-13")
		require.NoError(t, err)
		assert.Equal(t, "Heat (Director's Cut)", got.Name)
	})

	t.Run("stale version fails and leaves the document untouched", func(t *testing.T) {
		stale := &entities.Title{Name: "Stale write", Rating: "PG-13"}
		stale.SetID("movie-1:PG-13")

		err := repo.Replace(ctx, stale, firstVersion)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsPreconditionFailed(err))

		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		current, ok := appErr.Entity.(*entities.Title)
		require.True(t, ok)
		assert.Equal(t, "Heat (Director's Cut)", current.Name)

		got, err := repo.Read(ctx, "movie-1:PG-13")
		require.NoError(t, err)
		assert.Equal(t, "Heat (Director's Cut)", got.Name)
	})

	t.Run("missing entity", func(t *testing.T) {
		ghost := &entities.Title{Name: "Ghost", Rating: "PG-13"}
		ghost.SetID("missing:PG-13")
		err := repo.Replace(ctx, ghost, nil)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("no expected version replaces unconditionally", func(t *testing.T) {
		title.Name = "Heat (Remastered)"
		require.NoError(t, repo.Replace(ctx, title, nil))

		got, err := repo.Read(ctx, "movie-1:PG-13")
		require.NoError(t, err)
		assert.Equal(t, "Heat (Remastered)", got.Name)
	})
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := ratingRepository()

	title := &entities.Title{Name: "Heat", Rating: "PG-13"}
	title.SetID("movie-1:PG-13")
	require.NoError(t, repo.Create(ctx, title))

	t.Run("stale version", func(t *testing.T) {
		err := repo.Delete(ctx, "movie-1:PG-13", []byte("stale"))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsPreconditionFailed(err))

		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.NotNil(t, appErr.Entity)
	})

	t.Run("unconditional delete succeeds", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "movie-1:PG-13", nil))

		got, err := repo.Read(ctx, "movie-1:PG-13")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nonexistent id", func(t *testing.T) {
		err := repo.Delete(ctx, "missing:PG-13", nil)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestRepository_ReadNotFoundIsNotAnError(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	got, err := repo.Read(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_InputValidation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	t.Run("create nil entity", func(t *testing.T) {
		err := repo.Create(ctx, nil)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("read empty id", func(t *testing.T) {
		_, err := repo.Read(ctx, "")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("read malformed id", func(t *testing.T) {
		_, err := repo.Read(ctx, "movie-1:")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("read id that decodes to empty document id", func(t *testing.T) {
		_, err := repo.Read(ctx, ":PG-13")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("replace nil entity", func(t *testing.T) {
		err := repo.Replace(ctx, nil, nil)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("replace entity without id", func(t *testing.T) {
		err := repo.Replace(ctx, &entities.Title{Name: "Heat"}, nil)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("delete empty id", func(t *testing.T) {
		err := repo.Delete(ctx, "", nil)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("delete id that decodes to empty document id", func(t *testing.T) {
		err := repo.Delete(ctx, ":PG-13", nil)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestRepository_QueryPartitionReattachesIdentifiers(t *testing.T) {
	ctx := context.Background()
	repo := ratingRepository()

	for _, name := range []string{"First", "Second"} {
		title := &entities.Title{Name: name, Rating: "PG-13"}
		require.NoError(t, repo.Create(ctx, title))
	}
	other := &entities.Title{Name: "Elsewhere", Rating: "R"}
	require.NoError(t, repo.Create(ctx, other))

	key := partition.NewKey(partition.String("PG-13"))
	results, err := repo.QueryPartition(ctx, key)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, title := range results {
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+:PG-13$`), title.GetID())
		assert.NotEmpty(t, title.GetVersion())
	}
}

func TestRepository_FixedClock(t *testing.T) {
	ctx := context.Background()
	instant := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newTestRepository(WithClock[*entities.Title](func() time.Time { return instant }))

	title := &entities.Title{Name: "Heat", Rating: "R"}
	title.SetID("movie-1")
	require.NoError(t, repo.Create(ctx, title))

	assert.True(t, title.GetUpdatedAt().Equal(instant))
}

func TestRepository_EntityWithoutPartitionFieldsRejected(t *testing.T) {
	// Title implements partition.FieldProvider, so break the contract by
	// asking for a property it does not declare.
	ctx := context.Background()
	repo := newTestRepository(WithPartitionProperties[*entities.Title]("studio"))

	title := &entities.Title{Name: "Heat", Rating: "R"}
	err := repo.Create(ctx, title)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}
