package api

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

//go:embed static
var staticFS embed.FS

func NewRouter(apiHandler *APIHandler, relay *RelayHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/", apiHandler.IndexHandler)
	r.Get("/health", apiHandler.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	// The relay keeps its historical contract, including answering 405
	// itself, so it is mounted for every method.
	r.HandleFunc("/contact-handler", relay.Handle)

	r.Route("/api", func(r chi.Router) {
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", apiHandler.CreateChatSessionHandler)
			r.Get("/{sessionID}", apiHandler.GetChatSessionHandler)
			r.Delete("/{sessionID}", apiHandler.CloseChatSessionHandler)
			r.Post("/{sessionID}/messages", apiHandler.PostChatMessageHandler)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", apiHandler.CreateUploadQueueHandler)
			r.Get("/{queueID}", apiHandler.GetUploadQueueHandler)
			r.Delete("/{queueID}", apiHandler.CloseUploadQueueHandler)
			r.Post("/{queueID}/files", apiHandler.AddFilesHandler)
			r.Delete("/{queueID}/files/{index}", apiHandler.RemoveFileHandler)
			r.Post("/{queueID}/start", apiHandler.StartUploadHandler)
		})

		r.Get("/documents", apiHandler.ListDocumentsHandler)
		r.Get("/categories", apiHandler.ListCategoriesHandler)
		r.Post("/categories", apiHandler.AddCategoryHandler)

		r.Post("/contact", apiHandler.ContactSubmitHandler)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
