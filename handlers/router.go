package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kevinaaaquil/bookshelf/middleware"
	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

type RouterDeps struct {
	Catalog     *service.Catalog
	Auth        *service.Auth
	Images      *ImageUploader
	Metadata    BookLookup
	CORSOrigins []string
}

// NewRouter wires every route with its auth requirements.
func NewRouter(d RouterDeps) http.Handler {
	authors := &AuthorsHandler{Catalog: d.Catalog, Images: d.Images}
	books := &BooksHandler{Catalog: d.Catalog, Metadata: d.Metadata}
	users := &UsersHandler{Catalog: d.Catalog, Images: d.Images}
	reviews := &ReviewsHandler{Catalog: d.Catalog}
	suggestions := &SuggestionsHandler{Catalog: d.Catalog}
	login := &AuthHandler{Auth: d.Auth}

	requireAuth := middleware.Auth(d.Auth)
	optionalAuth := middleware.Optional(d.Auth)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.Sanitize)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, message("welcome to the bookshelf API"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/login", login.Login)

	r.Route("/authors", func(r chi.Router) {
		r.Get("/", authors.List)
		r.Get("/{id}", authors.Get)
		r.Get("/{id}/books", authors.Books)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, adminOnly)
			r.Post("/", authors.Create)
			r.Put("/{id}", authors.Update)
			r.Patch("/{id}", authors.Update)
			r.Patch("/{id}/image", authors.UploadImage)
			r.Delete("/{id}", authors.Delete)
		})
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", books.List)
		r.Get("/{id}", books.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, adminOnly)
			r.Get("/lookup/{isbn}", books.Lookup)
			r.Post("/", books.Create)
			r.Put("/{id}", books.Update)
			r.Delete("/{id}", books.Delete)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.With(optionalAuth).Post("/", users.Create)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.With(adminOnly).Get("/", users.List)
			r.Get("/{id}", users.Get)
			r.Put("/{id}", users.Update)
			r.Patch("/{id}/profile-image", users.UploadImage)
			r.Delete("/{id}", users.Delete)
		})
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/book/{bookId}", reviews.ForBook)
		r.Get("/user/{userId}", reviews.ByUser)
		r.Get("/{id}", reviews.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", reviews.Create)
			r.Put("/{id}", reviews.Update)
			r.Delete("/{id}", reviews.Delete)
		})
	})

	r.Route("/suggestions", func(r chi.Router) {
		r.With(optionalAuth).Post("/", suggestions.Create)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, adminOnly)
			r.Get("/", suggestions.List)
			r.Patch("/{id}/status", suggestions.UpdateStatus)
			r.Delete("/{id}", suggestions.Delete)
		})
	})

	return r
}
