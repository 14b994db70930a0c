package models

import (
	"encoding/json"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5

	MaxReviewTextLength = 2000
)

type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Book       primitive.ObjectID `bson:"book" json:"book"`
	Rating     int                `bson:"rating" json:"rating"`
	ReviewText string             `bson:"reviewText,omitempty" json:"reviewText,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReviewDetail is a Review with user and/or book populated.
type ReviewDetail struct {
	Review `bson:",inline"`
	User   *UserSummary `bson:"userInfo,omitempty" json:"user,omitempty"`
	Book   *BookSummary `bson:"bookInfo,omitempty" json:"book,omitempty"`
}

// MarshalJSON falls back to the raw id for whichever side was not populated.
func (d ReviewDetail) MarshalJSON() ([]byte, error) {
	type plain Review
	out := struct {
		plain
		User interface{} `json:"user"`
		Book interface{} `json:"book"`
	}{plain: plain(d.Review), User: d.Review.User, Book: d.Review.Book}
	if d.User != nil {
		out.User = d.User
	}
	if d.Book != nil {
		out.Book = d.Book
	}
	return json.Marshal(out)
}

// ReviewInput is the body of POST /reviews and PUT /reviews/{id}. On update
// only rating and reviewText may be present.
type ReviewInput struct {
	User       *string `json:"user"`
	Book       *string `json:"book"`
	Rating     *int    `json:"rating"`
	ReviewText *string `json:"reviewText"`
}

var rating = validation.By(func(value interface{}) error {
	v, _ := validation.Indirect(value)
	r, ok := v.(int)
	if !ok {
		return nil
	}
	if r < MinRating || r > MaxRating {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
})

var immutable = validation.By(func(value interface{}) error {
	if _, isNil := validation.Indirect(value); !isNil {
		return errors.New("cannot be changed after creation")
	}
	return nil
})

func (in *ReviewInput) Validate(create bool) error {
	trim(in.User)
	trim(in.Book)
	trim(in.ReviewText)
	return validation.ValidateStruct(in,
		validation.Field(&in.User,
			validation.When(create, validation.Required.Error("user is required"), isObjectID).Else(immutable),
		),
		validation.Field(&in.Book,
			validation.When(create, validation.Required.Error("book is required"), isObjectID).Else(immutable),
		),
		validation.Field(&in.Rating,
			validation.When(create, validation.NotNil.Error("rating is required")),
			rating,
		),
		validation.Field(&in.ReviewText, validation.Length(0, MaxReviewTextLength)),
	)
}

// Refs returns the parsed user and book ids. Call Validate(true) first.
func (in *ReviewInput) Refs() (user, book primitive.ObjectID) {
	if in.User != nil {
		user, _ = ParseID(*in.User)
	}
	if in.Book != nil {
		book, _ = ParseID(*in.Book)
	}
	return user, book
}

func (in *ReviewInput) Apply(r *Review) {
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	if in.ReviewText != nil {
		r.ReviewText = *in.ReviewText
	}
}
