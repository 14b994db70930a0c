package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kevinaaaquil/bookshelf/service"
	"github.com/kevinaaaquil/bookshelf/utils"
)

const imageField = "image"

// ImageUploader stores multipart images through an ImageStore.
type ImageUploader struct {
	Store    service.ImageStore
	MaxBytes int64
}

var errUploadsDisabled = errors.New("image uploads not configured")

// Save reads the "image" part of a multipart request, checks that it really
// is an image and stores it under prefix. It returns the public URL.
func (u *ImageUploader) Save(w http.ResponseWriter, r *http.Request, prefix string) (string, error) {
	if u == nil || u.Store == nil {
		return "", errUploadsDisabled
	}
	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}
	if err := r.ParseMultipartForm(u.MaxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", service.Invalid(imageField, "file is too large")
		}
		return "", service.Invalid(imageField, "no image file provided")
	}
	file, _, err := r.FormFile(imageField)
	if err != nil {
		return "", service.Invalid(imageField, "no image file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", service.Invalid(imageField, "failed to read file")
	}
	contentType, ext, err := utils.DetectImage(data)
	if err != nil {
		return "", service.Invalid(imageField, err.Error())
	}
	return u.Store.Put(r.Context(), prefix, "image"+ext, bytes.NewReader(data), contentType)
}

// Discard removes a replaced image. Failures only leave an unused object
// behind, so they are logged.
func (u *ImageUploader) Discard(r *http.Request, url string) {
	if u == nil || u.Store == nil || url == "" {
		return
	}
	if err := u.Store.Remove(r.Context(), url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("remove old image")
	}
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errUploadsDisabled) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
		return
	}
	writeError(w, r, err)
}
