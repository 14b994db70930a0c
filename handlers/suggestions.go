package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookshelf/middleware"
	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

type SuggestionsHandler struct {
	Catalog *service.Catalog
}

func (h *SuggestionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.SuggestionInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Catalog.CreateSuggestion(r.Context(), middleware.FromContext(r.Context()), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *SuggestionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.SuggestionFilter{Status: q.Get("status"), Type: q.Get("type")}
	items, err := h.Catalog.ListSuggestions(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.SuggestionDetail{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *SuggestionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.StatusInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Catalog.UpdateSuggestionStatus(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SuggestionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteSuggestion(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message("Suggestion deleted successfully"))
}
