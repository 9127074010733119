package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"blogquery/app/config"
	"blogquery/app/logger"
	"blogquery/app/models"
	"blogquery/app/repositories"
	"blogquery/app/repositories/mock"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) repositories.PostStore

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"badger in memory": func(t *testing.T) repositories.PostStore {
			db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return repositories.NewBadgerPostRepository(db)
		},
		"badger on disk": func(t *testing.T) repositories.PostStore {
			repo, err := repositories.OpenBadger(filepath.Join(t.TempDir(), "badger"), nil)
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		},
		"sqlite in memory": func(t *testing.T) repositories.PostStore {
			repo, err := repositories.OpenSQLite(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		},
		"sqlite on disk": func(t *testing.T) repositories.PostStore {
			repo, err := repositories.OpenSQLite(filepath.Join(t.TempDir(), "query.db"))
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		},
		"memory": func(t *testing.T) repositories.PostStore {
			return mock.NewPostRepository()
		},
	}
}

func TestPostStore(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			testPostStore(t, factory)
		})
	}
}

func testPostStore(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("create and get post", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, models.NewPost("p1", "Hello")))

		post, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", post.ID)
		assert.Equal(t, "Hello", post.Title)
		assert.Empty(t, post.Comments)
	})

	t.Run("create duplicate id fails", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, models.NewPost("p1", "Hello")))

		err := store.Create(ctx, models.NewPost("p1", "Again"))
		assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

		post, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Hello", post.Title)
	})

	t.Run("get missing post", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("list empty store", func(t *testing.T) {
		store := newStore(t)
		posts, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("list returns every post", func(t *testing.T) {
		store := newStore(t)
		for i := 1; i <= 3; i++ {
			require.NoError(t, store.Create(ctx, models.NewPost(fmt.Sprintf("p%d", i), fmt.Sprintf("Post %d", i))))
		}

		posts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		ids := []string{posts[0].ID, posts[1].ID, posts[2].ID}
		assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, ids)
	})

	t.Run("replace overwrites the document", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, models.NewPost("p1", "Hello")))

		post, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		post.Title = "Changed"
		post.AddComment(models.Comment{ID: "c1", Content: "first"})
		require.NoError(t, store.Replace(ctx, post))

		stored, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, post, stored)
	})

	t.Run("replace missing post", func(t *testing.T) {
		store := newStore(t)
		err := store.Replace(ctx, models.NewPost("nope", "x"))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("update applies the mutation", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, models.NewPost("p1", "Hello")))

		err := store.Update(ctx, "p1", func(post *models.Post) error {
			post.AddComment(models.Comment{ID: "c1", Content: "first"})
			return nil
		})
		require.NoError(t, err)

		post, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []models.Comment{{ID: "c1", Content: "first"}}, post.Comments)
	})

	t.Run("update error from fn writes nothing", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, models.NewPost("p1", "Hello")))

		abort := errors.New("abort")
		err := store.Update(ctx, "p1", func(post *models.Post) error {
			post.AddComment(models.Comment{ID: "c1", Content: "first"})
			return abort
		})
		assert.ErrorIs(t, err, abort)

		post, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, post.Comments)
	})

	t.Run("update missing post", func(t *testing.T) {
		store := newStore(t)
		called := false
		err := store.Update(ctx, "nope", func(post *models.Post) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.False(t, called)
	})

	t.Run("delete reports whether a post was removed", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, models.NewPost("p1", "Hello")))

		found, err := store.Delete(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, found)

		_, err = store.Get(ctx, "p1")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		found, err = store.Delete(ctx, "p1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("concurrent updates on one post are not lost", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, models.NewPost("p1", "Hello")))

		const writers = 20
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- store.Update(ctx, "p1", func(post *models.Post) error {
					post.AddComment(models.Comment{ID: fmt.Sprintf("c%d", i), Content: "x"})
					return nil
				})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		post, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Len(t, post.Comments, writers)
	})
}

func TestSQLiteListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo, err := repositories.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, repo.Create(ctx, models.NewPost(id, id)))
	}
	posts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "zeta", posts[0].ID)
	assert.Equal(t, "alpha", posts[1].ID)
	assert.Equal(t, "mid", posts[2].ID)
}

func TestBadgerCanceledContext(t *testing.T) {
	repo, err := repositories.OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	err = repo.Create(ctx, models.NewPost("p1", "Hello"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerPingAfterClose(t *testing.T) {
	repo, err := repositories.OpenBadger("", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	assert.Error(t, repo.Ping(context.Background()))
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "badger")

	repo, err := repositories.OpenBadger(path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, models.NewPost("p1", "Hello")))
	require.NoError(t, repo.Close())

	repo, err = repositories.OpenBadger(path, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	post, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("badger", func(t *testing.T) {
		store, err := repositories.Open(&config.Config{
			StoreDriver: config.DriverBadger,
			BadgerPath:  filepath.Join(dir, "badger"),
		}, logger.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &repositories.BadgerPostRepository{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := repositories.Open(&config.Config{
			StoreDriver: config.DriverSQLite,
			SQLitePath:  filepath.Join(dir, "query.db"),
		}, logger.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &repositories.SQLitePostRepository{}, store)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := repositories.Open(&config.Config{StoreDriver: "mongo"}, logger.NewNop())
		assert.Error(t, err)
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		_, err := repositories.OpenSQLite("  ")
		assert.Error(t, err)
	})
}
