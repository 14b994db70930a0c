package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookshelf/middleware"
	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

type ReviewsHandler struct {
	Catalog *service.Catalog
}

func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.ReviewInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rev, err := h.Catalog.CreateReview(r.Context(), middleware.FromContext(r.Context()), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rev, err := h.Catalog.GetReview(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *ReviewsHandler) ForBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, err := h.Catalog.ReviewsForBook(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []models.ReviewDetail{}
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewsHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, err := h.Catalog.ReviewsByUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []models.ReviewDetail{}
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.ReviewInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rev, err := h.Catalog.UpdateReview(r.Context(), middleware.FromContext(r.Context()), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteReview(r.Context(), middleware.FromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message("Review deleted successfully"))
}
