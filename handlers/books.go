package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

// BookLookup fetches prefill data for an ISBN.
type BookLookup interface {
	Lookup(ctx context.Context, isbn string) (*service.BookPrefill, error)
}

type BooksHandler struct {
	Catalog  *service.Catalog
	Metadata BookLookup
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.ListBooks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(books))
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Catalog.GetBook(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.BookInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Catalog.CreateBook(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.BookInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Catalog.UpdateBook(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.Catalog.DeleteBook(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message("Book deleted successfully"))
}

// Lookup returns metadata an admin can use to fill in a new book.
func (h *BooksHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.Metadata == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "metadata lookup not configured"})
		return
	}
	p, err := h.Metadata.Lookup(r.Context(), chi.URLParam(r, "isbn"))
	if errors.Is(err, service.ErrNoMetadata) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	var verr *service.ValidationError
	if err != nil && !errors.As(err, &verr) {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "metadata lookup failed"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
