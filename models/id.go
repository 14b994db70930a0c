package models

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned when a path or body reference is not a 24-char hex ObjectID.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a hex ObjectID coming from a request.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// isObjectID accepts nil and empty values; pair it with Required when the field is mandatory.
var isObjectID = validation.By(func(value interface{}) error {
	v, _ := validation.Indirect(value)
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	if !primitive.IsValidObjectID(strings.TrimSpace(s)) {
		return errors.New("must be a valid id")
	}
	return nil
})

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
