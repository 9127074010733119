package controllers

import (
	"encoding/json"
	"net/http"

	"blogquery/app/logger"
	"blogquery/app/models"
	"blogquery/app/services"
)

// maxEventBytes caps the size of an event envelope.
const maxEventBytes = 1 << 20

// EventController receives domain events from the write side
type EventController struct {
	eventService *services.EventService
	log          *logger.Logger
}

// NewEventController creates a new EventController
func NewEventController(eventService *services.EventService, log *logger.Logger) *EventController {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventController{eventService: eventService, log: log}
}

// Handle decodes an event envelope, applies it and reports the outcome
func (ec *EventController) Handle(w http.ResponseWriter, r *http.Request) {
	var env models.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&env); err != nil {
		ec.log.Error("Invalid event envelope", "error", err)
		sendError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := models.DecodeEvent(env)
	if err != nil {
		ec.log.Error("Invalid event payload", "event", env.Type, "error", err)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := ec.eventService.Apply(r.Context(), event)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeOutcome(w, outcome)
}

// writeOutcome translates an outcome into a status code and body. Every
// not-found condition is a 404. PostDeleted and CommentCreated report it
// under "error", the comment events and unknown kinds under "message".
func writeOutcome(w http.ResponseWriter, outcome services.Outcome) {
	switch outcome.Status {
	case services.StatusApplied:
		sendMessage(w, outcome.Detail, http.StatusOK)
	case services.StatusPostNotFound, services.StatusCommentNotFound:
		switch outcome.Kind {
		case models.KindPostDeleted, models.KindCommentCreated:
			sendError(w, outcome.Detail, http.StatusNotFound)
		default:
			sendMessage(w, outcome.Detail, http.StatusNotFound)
		}
	case services.StatusEventKindUnrecognized:
		sendMessage(w, outcome.Detail, http.StatusNotFound)
	default:
		sendError(w, "unexpected outcome "+outcome.Status.String(), http.StatusInternalServerError)
	}
}
