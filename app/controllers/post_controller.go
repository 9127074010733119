package controllers

import (
	"errors"
	"net/http"

	"blogquery/app/logger"
	"blogquery/app/repositories"
	"blogquery/app/services"

	"github.com/gorilla/mux"
)

// PostController serves the materialized post view
type PostController struct {
	postService *services.PostService
	log         *logger.Logger
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, log *logger.Logger) *PostController {
	if log == nil {
		log = logger.NewNop()
	}
	return &PostController{postService: postService, log: log}
}

// Index returns every post with its embedded comments
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListPosts(r.Context())
	if err != nil {
		pc.log.Error("Failure getting all posts", "error", err)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	pc.log.Info("Successfully get all posts", "count", len(posts))
	sendJSON(w, http.StatusOK, posts)
}

// Show returns a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	post, err := pc.postService.GetPost(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		sendError(w, services.DetailPostNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		pc.log.Error("Failure getting post", "postId", id, "error", err)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Health reports whether the store is reachable
func (pc *PostController) Health(w http.ResponseWriter, r *http.Request) {
	if err := pc.postService.Healthy(r.Context()); err != nil {
		sendError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
