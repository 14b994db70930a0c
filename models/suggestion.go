package models

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SuggestionTypeBook    = "book"
	SuggestionTypeAuthor  = "author"
	SuggestionTypeWebpage = "webpage"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	MaxSuggestionLength = 1000
)

var (
	SuggestionTypes    = []interface{}{SuggestionTypeBook, SuggestionTypeAuthor, SuggestionTypeWebpage}
	SuggestionStatuses = []interface{}{StatusPending, StatusApproved, StatusRejected}
)

type Suggestion struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Text        string              `bson:"suggestion" json:"suggestion"`
	Type        string              `bson:"type" json:"type"`
	SubmittedBy *primitive.ObjectID `bson:"submittedBy" json:"submittedBy"`
	Status      string              `bson:"status" json:"status"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// SuggestionDetail carries the submitter's username when there is one.
type SuggestionDetail struct {
	Suggestion  `bson:",inline"`
	SubmittedBy *UserSummary `bson:"submitterInfo,omitempty" json:"submittedBy"`
}

// MarshalJSON keeps the stored submitter id when the user no longer exists,
// so only anonymous suggestions render submittedBy as null.
func (d SuggestionDetail) MarshalJSON() ([]byte, error) {
	type plain Suggestion
	out := struct {
		plain
		SubmittedBy interface{} `json:"submittedBy"`
	}{plain: plain(d.Suggestion), SubmittedBy: d.Suggestion.SubmittedBy}
	if d.SubmittedBy != nil {
		out.SubmittedBy = d.SubmittedBy
	}
	return json.Marshal(out)
}

// CanTransition reports whether status may move from one value to another.
// pending is the only non-terminal state; re-setting the same status is allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}

type SuggestionInput struct {
	Suggestion  *string `json:"suggestion"`
	Type        *string `json:"type"`
	SubmittedBy *string `json:"submittedBy"`
}

func (in *SuggestionInput) Validate() error {
	trim(in.Suggestion)
	trim(in.Type)
	trim(in.SubmittedBy)
	return validation.ValidateStruct(in,
		validation.Field(&in.Suggestion,
			validation.Required.Error("suggestion is required"),
			validation.Length(1, MaxSuggestionLength),
		),
		validation.Field(&in.Type,
			validation.Required.Error("type is required"),
			validation.In(SuggestionTypes...).Error("type must be book, author or webpage"),
		),
		validation.Field(&in.SubmittedBy, isObjectID),
	)
}

// Submitter returns the parsed submitter id, or nil for anonymous submissions.
func (in *SuggestionInput) Submitter() *primitive.ObjectID {
	if in.SubmittedBy == nil || *in.SubmittedBy == "" {
		return nil
	}
	id, err := ParseID(*in.SubmittedBy)
	if err != nil {
		return nil
	}
	return &id
}

type StatusInput struct {
	Status *string `json:"status"`
}

func (in *StatusInput) Validate() error {
	trim(in.Status)
	return validation.ValidateStruct(in,
		validation.Field(&in.Status,
			validation.Required.Error("status is required"),
			validation.In(SuggestionStatuses...).Error("invalid status"),
		),
	)
}

// SuggestionFilter holds the optional ?status and ?type query parameters.
type SuggestionFilter struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

func (f *SuggestionFilter) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Status, validation.In(SuggestionStatuses...).Error("invalid status")),
		validation.Field(&f.Type, validation.In(SuggestionTypes...).Error("invalid type")),
	)
}
