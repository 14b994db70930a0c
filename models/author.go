package models

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultAuthorImage = "https://static.vecteezy.com/system/resources/thumbnails/029/470/675/small_2x/ai-generated-ai-generative-purple-pink-color-sunset-evening-nature-outdoor-lake-with-mountains-landscape-background-graphic-art-photo.jpg"

var imageURLPattern = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|gif)$`)

type Author struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Bio          string             `bson:"bio,omitempty" json:"bio,omitempty"`
	DateOfBirth  *time.Time         `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	ProfileImage string             `bson:"profileImage" json:"profileImage"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AuthorWithBooks is an Author joined with the books that reference it.
type AuthorWithBooks struct {
	Author `bson:",inline"`
	Books  []Book `bson:"books" json:"books"`
}

// AuthorSummary is the populated form of Book.author.
type AuthorSummary struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
	Bio  string             `bson:"bio,omitempty" json:"bio,omitempty"`
}

// AuthorInput is the request body for both POST and PUT/PATCH /authors.
type AuthorInput struct {
	Name         *string `json:"name"`
	Bio          *string `json:"bio"`
	DateOfBirth  *string `json:"dateOfBirth"`
	ProfileImage *string `json:"profileImage"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("must be a date (YYYY-MM-DD or RFC 3339)")
}

var pastDate = validation.By(func(value interface{}) error {
	v, _ := validation.Indirect(value)
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	if t.After(time.Now()) {
		return errors.New("must not be in the future")
	}
	return nil
})

// Validate checks the input. Create requires name; update accepts any subset of fields.
func (in *AuthorInput) Validate(create bool) error {
	trim(in.Name)
	trim(in.Bio)
	trim(in.DateOfBirth)
	trim(in.ProfileImage)
	return validation.ValidateStruct(in,
		validation.Field(&in.Name,
			validation.When(create, validation.Required.Error("name is required")),
			validation.NilOrNotEmpty.Error("name cannot be empty"),
			validation.Length(1, 200),
		),
		validation.Field(&in.Bio, validation.Length(0, 2000).Error("bio must not exceed 2000 characters")),
		validation.Field(&in.DateOfBirth, pastDate),
		validation.Field(&in.ProfileImage, validation.Match(imageURLPattern).Error("must be an http(s) URL ending in jpg, jpeg, png or gif")),
	)
}

// Apply copies the provided fields onto a. Call Validate first.
func (in *AuthorInput) Apply(a *Author) {
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Bio != nil {
		a.Bio = *in.Bio
	}
	if in.DateOfBirth != nil {
		if *in.DateOfBirth == "" {
			a.DateOfBirth = nil
		} else if t, err := parseDate(*in.DateOfBirth); err == nil {
			t = t.UTC()
			a.DateOfBirth = &t
		}
	}
	if in.ProfileImage != nil && *in.ProfileImage != "" {
		a.ProfileImage = *in.ProfileImage
	}
	if a.ProfileImage == "" {
		a.ProfileImage = DefaultAuthorImage
	}
}

// ValidImageURL reports whether u is acceptable as a profile image.
func ValidImageURL(u string) bool {
	return imageURLPattern.MatchString(u)
}
