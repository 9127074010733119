package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind names an event on the wire.
type EventKind string

const (
	KindPostCreated    EventKind = "PostCreated"
	KindCommentCreated EventKind = "CommentCreated"
	KindPostDeleted    EventKind = "PostDeleted"
	KindCommentDeleted EventKind = "CommentDeleted"
	KindCommentUpdated EventKind = "CommentUpdated"
)

// ErrInvalidPayload is returned when an event's data does not decode or
// fails validation.
var ErrInvalidPayload = errors.New("invalid event payload")

// Envelope is the body accepted by the events endpoint.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is one of PostCreated, CommentCreated, PostDeleted, CommentDeleted,
// CommentUpdated or UnknownEvent. The set is closed by the unexported method.
type Event interface {
	Kind() EventKind
	AggregateID() string
	event()
}

type PostCreated struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title"`
}

type CommentCreated struct {
	ID      string `json:"id" validate:"required"`
	PostID  string `json:"postId" validate:"required"`
	Content string `json:"content"`
}

type PostDeleted struct {
	ID string `json:"id" validate:"required"`
}

type CommentDeleted struct {
	CommentID string `json:"commentId" validate:"required"`
	PostID    string `json:"postId" validate:"required"`
}

type CommentUpdated struct {
	CommentID string `json:"commentId" validate:"required"`
	PostID    string `json:"postId" validate:"required"`
	Content   string `json:"content"`
}

// UnknownEvent carries a type string that matched none of the known kinds.
type UnknownEvent struct {
	Type string
}

func (PostCreated) Kind() EventKind    { return KindPostCreated }
func (CommentCreated) Kind() EventKind { return KindCommentCreated }
func (PostDeleted) Kind() EventKind    { return KindPostDeleted }
func (CommentDeleted) Kind() EventKind { return KindCommentDeleted }
func (CommentUpdated) Kind() EventKind { return KindCommentUpdated }
func (e UnknownEvent) Kind() EventKind { return EventKind(e.Type) }

func (e PostCreated) AggregateID() string    { return e.ID }
func (e CommentCreated) AggregateID() string { return e.PostID }
func (e PostDeleted) AggregateID() string    { return e.ID }
func (e CommentDeleted) AggregateID() string { return e.PostID }
func (e CommentUpdated) AggregateID() string { return e.PostID }
func (UnknownEvent) AggregateID() string     { return "" }

func (PostCreated) event()    {}
func (CommentCreated) event() {}
func (PostDeleted) event()    {}
func (CommentDeleted) event() {}
func (CommentUpdated) event() {}
func (UnknownEvent) event()   {}

// DecodeEvent turns an envelope into its typed event. Type matching is exact
// and case-sensitive; anything else becomes an UnknownEvent without looking
// at the data.
func DecodeEvent(env Envelope) (Event, error) {
	switch EventKind(env.Type) {
	case KindPostCreated:
		return decodePayload[PostCreated](env)
	case KindCommentCreated:
		return decodePayload[CommentCreated](env)
	case KindPostDeleted:
		return decodePayload[PostDeleted](env)
	case KindCommentDeleted:
		return decodePayload[CommentDeleted](env)
	case KindCommentUpdated:
		return decodePayload[CommentUpdated](env)
	default:
		return UnknownEvent{Type: env.Type}, nil
	}
}

func decodePayload[T Event](env Envelope) (Event, error) {
	var payload T
	if len(bytes.TrimSpace(env.Data)) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
		}
	}
	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
	}
	return payload, nil
}
