package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

type AuthorsHandler struct {
	Catalog *service.Catalog
	Images  *ImageUploader
}

func (h *AuthorsHandler) List(w http.ResponseWriter, r *http.Request) {
	authors, err := h.Catalog.ListAuthors(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if authors == nil {
		authors = []models.AuthorWithBooks{}
	}
	writeJSON(w, http.StatusOK, authors)
}

func (h *AuthorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.Catalog.GetAuthor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AuthorsHandler) Books(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	books, err := h.Catalog.FindBooksByAuthor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(books))
}

func (h *AuthorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.AuthorInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.Catalog.CreateAuthor(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Update serves both PUT and PATCH; only fields present in the body change.
func (h *AuthorsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.AuthorInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.Catalog.UpdateAuthor(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AuthorsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cur, err := h.Catalog.GetAuthor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	url, err := h.Images.Save(w, r, "authors/"+id.Hex()+"/")
	if err != nil {
		writeUploadError(w, r, err)
		return
	}
	a, err := h.Catalog.SetAuthorImage(r.Context(), id, url)
	if err != nil {
		h.Images.Discard(r, url)
		writeError(w, r, err)
		return
	}
	h.Images.Discard(r, cur.ProfileImage)
	writeJSON(w, http.StatusOK, a)
}

func (h *AuthorsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.Catalog.DeleteAuthor(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message("Author and associated books deleted successfully"))
}
