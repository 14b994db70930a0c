package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookshelf/middleware"
	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

type UsersHandler struct {
	Catalog *service.Catalog
	Images  *ImageUploader
}

// Create is public registration; the optional caller decides whether an
// admin account may be requested.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Catalog.CreateUser(r.Context(), middleware.FromContext(r.Context()), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Catalog.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(users))
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Catalog.GetUser(r.Context(), middleware.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.UserInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Catalog.UpdateUser(r.Context(), middleware.FromContext(r.Context()), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor := middleware.FromContext(r.Context())
	cur, err := h.Catalog.GetUser(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	url, err := h.Images.Save(w, r, "users/"+id.Hex()+"/")
	if err != nil {
		writeUploadError(w, r, err)
		return
	}
	u, err := h.Catalog.SetUserImage(r.Context(), actor, id, url)
	if err != nil {
		h.Images.Discard(r, url)
		writeError(w, r, err)
		return
	}
	h.Images.Discard(r, cur.ProfileImage)
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.Catalog.DeleteUser(r.Context(), middleware.FromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message("User and associated reviews deleted successfully"))
}
