package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP routing table over the given handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Document admin routes
		r.Post("/documents", h.UploadDocumentHandler)
		r.Get("/documents", h.ListDocumentsHandler)
		r.Get("/documents/{documentID}", h.GetDocumentHandler)
		r.Post("/documents/{documentID}/process", h.ProcessDocumentHandler)
		r.Delete("/documents/{documentID}", h.DeleteDocumentHandler)

		// Chat routes
		r.Post("/chat", h.ChatHandler)
		r.Get("/conversations", h.ListConversationsHandler)
	})

	return r
}
