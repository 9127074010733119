package repositories

import (
	"context"
	"errors"

	"blogquery/app/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// PostStore is the materialized view of posts, keyed by the post's
// external id.
type PostStore interface {
	// List returns every post in the backend's natural order.
	List(ctx context.Context) ([]*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	// Create fails with ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, post *models.Post) error
	// Replace is the plain whole-document overwrite. It fails with
	// ErrNotFound if the id is absent. It does not read the stored
	// document, so read-modify-write callers use Update instead.
	Replace(ctx context.Context, post *models.Post) error
	// Delete reports whether a document was found and removed.
	Delete(ctx context.Context, id string) (bool, error)
	// Update loads the post, applies fn and writes the result back as one
	// step. Calls for the same id are serialized. If fn returns an error
	// nothing is written and the error is returned as is.
	Update(ctx context.Context, id string, fn func(post *models.Post) error) error
	Ping(ctx context.Context) error
	Close() error
}
