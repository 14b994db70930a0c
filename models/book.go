package models

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinPublishYear           = 1000
	MaxDescriptionLength     = 250
	MaxLongDescriptionLength = 2000
)

type Book struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Author          primitive.ObjectID `bson:"author" json:"author"`
	PublishYear     int                `bson:"publishYear" json:"publishYear"`
	ISBN            string             `bson:"isbn" json:"ISBN"`
	Description     string             `bson:"description" json:"description"`
	LongDescription string             `bson:"longDescription" json:"longDescription"`
	BookCover       string             `bson:"bookCover" json:"bookCover"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BookDetail is a Book with its author populated. In JSON the populated
// author replaces the raw id.
type BookDetail struct {
	Book   `bson:",inline"`
	Author *AuthorSummary `bson:"authorInfo,omitempty" json:"author"`
}

// BookSummary is the populated form of Review.book.
type BookSummary struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Title  string             `bson:"title" json:"title"`
	Author primitive.ObjectID `bson:"author" json:"author"`
}

// BookInput is the request body for POST and PUT /books.
type BookInput struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	PublishYear     *int    `json:"publishYear"`
	ISBN            *string `json:"ISBN"`
	Description     *string `json:"description"`
	LongDescription *string `json:"longDescription"`
	BookCover       *string `json:"bookCover"`
}

var publishYear = validation.By(func(value interface{}) error {
	v, _ := validation.Indirect(value)
	y, ok := v.(int)
	if !ok {
		return nil
	}
	if y < MinPublishYear || y > time.Now().Year() {
		return errors.New("invalid publish year")
	}
	return nil
})

// isbn accepts digits and hyphens with exactly 10 or 13 digits.
var isbn = validation.By(func(value interface{}) error {
	v, _ := validation.Indirect(value)
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
		default:
			return errors.New("invalid ISBN format")
		}
	}
	if digits != 10 && digits != 13 {
		return errors.New("invalid ISBN format")
	}
	return nil
})

func (in *BookInput) Validate(create bool) error {
	trim(in.Title)
	trim(in.Author)
	trim(in.ISBN)
	trim(in.Description)
	trim(in.LongDescription)
	trim(in.BookCover)
	return validation.ValidateStruct(in,
		validation.Field(&in.Title,
			validation.When(create, validation.Required.Error("title is required")),
			validation.NilOrNotEmpty.Error("title is required"),
			validation.Length(1, 300),
		),
		validation.Field(&in.Author,
			validation.When(create, validation.Required.Error("valid author id is required")),
			validation.NilOrNotEmpty.Error("valid author id is required"),
			isObjectID,
		),
		validation.Field(&in.PublishYear,
			validation.When(create, validation.NotNil.Error("publish year is required")),
			publishYear,
		),
		validation.Field(&in.ISBN,
			validation.When(create, validation.Required.Error("ISBN is required")),
			validation.NilOrNotEmpty.Error("ISBN is required"),
			isbn,
		),
		validation.Field(&in.Description,
			validation.When(create, validation.Required.Error("description is required")),
			validation.NilOrNotEmpty.Error("description is required"),
			validation.Length(1, MaxDescriptionLength),
		),
		validation.Field(&in.LongDescription,
			validation.When(create, validation.Required.Error("long description is required")),
			validation.NilOrNotEmpty.Error("long description is required"),
			validation.Length(1, MaxLongDescriptionLength),
		),
		validation.Field(&in.BookCover,
			validation.When(create, validation.Required.Error("valid book cover URL is required")),
			validation.NilOrNotEmpty.Error("valid book cover URL is required"),
			is.RequestURL.Error("valid book cover URL is required"),
		),
	)
}

// AuthorID returns the parsed author reference, if one was supplied.
func (in *BookInput) AuthorID() (primitive.ObjectID, bool) {
	if in.Author == nil {
		return primitive.NilObjectID, false
	}
	id, err := ParseID(*in.Author)
	return id, err == nil
}

func (in *BookInput) Apply(b *Book) {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if id, ok := in.AuthorID(); ok {
		b.Author = id
	}
	if in.PublishYear != nil {
		b.PublishYear = *in.PublishYear
	}
	if in.ISBN != nil {
		b.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.LongDescription != nil {
		b.LongDescription = *in.LongDescription
	}
	if in.BookCover != nil {
		b.BookCover = *in.BookCover
	}
}
