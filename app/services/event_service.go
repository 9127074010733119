package services

import (
	"context"
	"errors"
	"fmt"

	"blogquery/app/logger"
	"blogquery/app/models"
	"blogquery/app/repositories"
)

// Status is the result class of applying an event.
type Status int

const (
	StatusApplied Status = iota
	StatusPostNotFound
	StatusCommentNotFound
	StatusEventKindUnrecognized
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusPostNotFound:
		return "post_not_found"
	case StatusCommentNotFound:
		return "comment_not_found"
	case StatusEventKindUnrecognized:
		return "event_kind_unrecognized"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

const (
	DetailPostNotFound    = "Post Not Found"
	DetailCommentNotFound = "Comment Not Found"
	DetailEventNotFound   = "Event Not Found"
)

// Outcome describes what applying an event did.
type Outcome struct {
	Status Status
	Kind   models.EventKind
	Detail string
}

// Applied reports whether the event changed the view.
func (o Outcome) Applied() bool {
	return o.Status == StatusApplied
}

var (
	// ErrCommentNotFound aborts a post update when the target comment is
	// absent.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrUnhandledEvent means an Event variant reached Apply without a case.
	ErrUnhandledEvent = errors.New("unhandled event")
)

// EventService applies domain events to the materialized post view.
type EventService struct {
	store repositories.PostStore
	log   *logger.Logger
}

// NewEventService creates a new EventService
func NewEventService(store repositories.PostStore, log *logger.Logger) *EventService {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventService{
		store: store,
		log:   log.With("component", "event_service"),
	}
}

// Apply applies a single event. A non-nil error means the store failed or,
// for PostCreated, that the id already exists; the outcome is then zero.
// Not-found conditions and unknown kinds are outcomes, not errors.
func (s *EventService) Apply(ctx context.Context, event models.Event) (Outcome, error) {
	var (
		outcome Outcome
		err     error
	)
	switch e := event.(type) {
	case models.PostCreated:
		outcome, err = s.postCreated(ctx, e)
	case models.CommentCreated:
		outcome, err = s.commentCreated(ctx, e)
	case models.PostDeleted:
		outcome, err = s.postDeleted(ctx, e)
	case models.CommentDeleted:
		outcome, err = s.commentDeleted(ctx, e)
	case models.CommentUpdated:
		outcome, err = s.commentUpdated(ctx, e)
	case models.UnknownEvent:
		outcome = Outcome{Status: StatusEventKindUnrecognized, Kind: e.Kind(), Detail: DetailEventNotFound}
	default:
		err = fmt.Errorf("%w: %T", ErrUnhandledEvent, event)
	}
	s.record(event, outcome, err)
	return outcome, err
}

func (s *EventService) postCreated(ctx context.Context, e models.PostCreated) (Outcome, error) {
	if err := s.store.Create(ctx, models.NewPost(e.ID, e.Title)); err != nil {
		return Outcome{}, fmt.Errorf("create post %q: %w", e.ID, err)
	}
	return applied(e), nil
}

func (s *EventService) commentCreated(ctx context.Context, e models.CommentCreated) (Outcome, error) {
	err := s.store.Update(ctx, e.PostID, func(post *models.Post) error {
		post.AddComment(models.Comment{ID: e.ID, Content: e.Content})
		return nil
	})
	return mutationOutcome(e, err)
}

func (s *EventService) postDeleted(ctx context.Context, e models.PostDeleted) (Outcome, error) {
	found, err := s.store.Delete(ctx, e.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("delete post %q: %w", e.ID, err)
	}
	if !found {
		return Outcome{Status: StatusPostNotFound, Kind: e.Kind(), Detail: DetailPostNotFound}, nil
	}
	return applied(e), nil
}

func (s *EventService) commentDeleted(ctx context.Context, e models.CommentDeleted) (Outcome, error) {
	err := s.store.Update(ctx, e.PostID, func(post *models.Post) error {
		if !post.RemoveComment(e.CommentID) {
			return ErrCommentNotFound
		}
		return nil
	})
	return mutationOutcome(e, err)
}

func (s *EventService) commentUpdated(ctx context.Context, e models.CommentUpdated) (Outcome, error) {
	err := s.store.Update(ctx, e.PostID, func(post *models.Post) error {
		if !post.UpdateComment(e.CommentID, e.Content) {
			return ErrCommentNotFound
		}
		return nil
	})
	return mutationOutcome(e, err)
}

// mutationOutcome maps the result of a PostStore.Update to an outcome.
func mutationOutcome(e models.Event, err error) (Outcome, error) {
	switch {
	case err == nil:
		return applied(e), nil
	case errors.Is(err, repositories.ErrNotFound):
		return Outcome{Status: StatusPostNotFound, Kind: e.Kind(), Detail: DetailPostNotFound}, nil
	case errors.Is(err, ErrCommentNotFound):
		return Outcome{Status: StatusCommentNotFound, Kind: e.Kind(), Detail: DetailCommentNotFound}, nil
	default:
		return Outcome{}, fmt.Errorf("update post %q: %w", e.AggregateID(), err)
	}
}

func applied(e models.Event) Outcome {
	return Outcome{
		Status: StatusApplied,
		Kind:   e.Kind(),
		Detail: fmt.Sprintf("%s query works correctly", e.Kind()),
	}
}

func (s *EventService) record(event models.Event, outcome Outcome, err error) {
	fields := eventFields(event)
	switch {
	case err != nil:
		s.log.Error("event failed", append(fields, "error", err)...)
	case outcome.Applied():
		s.log.Info("event applied", fields...)
	default:
		s.log.Error("event rejected", append(fields, "outcome", outcome.Status.String(), "detail", outcome.Detail)...)
	}
}

func eventFields(event models.Event) []interface{} {
	if event == nil {
		return []interface{}{"event", "<nil>"}
	}
	fields := []interface{}{"event", string(event.Kind())}
	switch e := event.(type) {
	case models.PostCreated:
		fields = append(fields, "postId", e.ID, "title", e.Title)
	case models.CommentCreated:
		fields = append(fields, "postId", e.PostID, "commentId", e.ID, "content", e.Content)
	case models.PostDeleted:
		fields = append(fields, "postId", e.ID)
	case models.CommentDeleted:
		fields = append(fields, "postId", e.PostID, "commentId", e.CommentID)
	case models.CommentUpdated:
		fields = append(fields, "postId", e.PostID, "commentId", e.CommentID, "content", e.Content)
	}
	return fields
}
