package repositories

import (
	"context"
	"errors"
	"fmt"

	"blogquery/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostStore using BadgerDB
type BadgerPostRepository struct {
	db     *badger.DB
	locks  keyedMutex
	ownsDB bool
}

// NewBadgerPostRepository creates a new BadgerPostRepository on an open
// database. Close leaves db open.
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// DB exposes the underlying database for admin commands.
func (r *BadgerPostRepository) DB() *badger.DB {
	return r.db
}

// List retrieves every post in key order
func (r *BadgerPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	posts := []*models.Post{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to read post %s: %w", it.Item().Key(), err)
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Get retrieves a post by ID
func (r *BadgerPostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create stores a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.locks.Lock(post.ID)
	defer unlock()

	return r.db.Update(func(txn *badger.Txn) error {
		key := postKey(post.ID)

		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return putPost(txn, post)
	})
}

// Replace overwrites an existing post
func (r *BadgerPostRepository) Replace(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.locks.Lock(post.ID)
	defer unlock()

	return r.db.Update(func(txn *badger.Txn) error {
		// Verify post exists
		_, err := txn.Get(postKey(post.ID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return putPost(txn, post)
	})
}

// Update applies fn to the stored post inside a single transaction
func (r *BadgerPostRepository) Update(ctx context.Context, id string, fn func(post *models.Post) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.locks.Lock(id)
	defer unlock()

	return r.db.Update(func(txn *badger.Txn) error {
		post, err := getPost(txn, id)
		if err != nil {
			return err
		}
		if err := fn(post); err != nil {
			return err
		}
		post.ID = id
		return putPost(txn, post)
	})
}

// Delete removes a post by ID
func (r *BadgerPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	unlock := r.locks.Lock(id)
	defer unlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		key := postKey(id)

		// Verify post exists
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ping reports whether the database is usable
func (r *BadgerPostRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return r.db.View(func(txn *badger.Txn) error { return nil })
}

// Close closes the database if the repository opened it
func (r *BadgerPostRepository) Close() error {
	if !r.ownsDB {
		return nil
	}
	return r.db.Close()
}

func getPost(txn *badger.Txn, id string) (*models.Post, error) {
	item, err := txn.Get(postKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var post models.Post
	err = item.Value(func(val []byte) error {
		return unmarshalEntity(val, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func putPost(txn *badger.Txn, post *models.Post) error {
	data, err := marshalEntity(post)
	if err != nil {
		return err
	}
	return txn.Set(postKey(post.ID), data)
}
