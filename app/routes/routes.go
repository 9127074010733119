package routes

import (
	"encoding/json"
	"net/http"

	"blogquery/app/config"
	"blogquery/app/controllers"
	"blogquery/app/logger"
	"blogquery/app/middleware"
	"blogquery/app/repositories"
	"blogquery/app/services"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// SetupRoutes builds the query service router on top of store.
func SetupRoutes(store repositories.PostStore, cfg *config.Config, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(middleware.ContentTypeJSON)

	postService := services.NewPostService(store)
	eventService := services.NewEventService(store, log)

	postController := controllers.NewPostController(postService, log)
	eventController := controllers.NewEventController(eventService, log)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
	})

	// Posts endpoints
	router.HandleFunc("/posts", postController.Index).Methods("GET")
	router.HandleFunc("/posts/{id}", postController.Show).Methods("GET")

	// Event bus endpoint
	router.HandleFunc("/events", eventController.Handle).Methods("POST")

	router.HandleFunc("/healthz", postController.Health).Methods("GET")

	return handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)
}
