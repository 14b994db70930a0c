package utils

import (
	"errors"
	"net/http"
)

var ErrUnsupportedImage = errors.New("image must be jpeg, png or gif")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// DetectImage sniffs the first bytes of an upload and returns its content
// type and canonical extension. The client-declared type is not trusted.
func DetectImage(head []byte) (contentType, ext string, err error) {
	ct := http.DetectContentType(head)
	ext, ok := imageExtensions[ct]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	return ct, ext, nil
}
