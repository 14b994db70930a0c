package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ValidRoles = []string{RoleUser, RoleAdmin}

const DefaultUserImage = "https://static.vecteezy.com/system/resources/thumbnails/009/292/244/small/default-avatar-icon-of-social-media-user-vector.jpg"

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password" json:"-"` // bcrypt hash
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Role         string             `bson:"role" json:"role"`
	ProfileImage string             `bson:"profileImage" json:"profileImage"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserWithStats is the GET /users list element.
type UserWithStats struct {
	User        `bson:",inline"`
	ReviewCount int `bson:"reviewCount" json:"reviewCount"`
}

// UserSummary is the populated form of Review.user and Suggestion.submittedBy.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
}

// UserInput is the request body for POST and PUT /users. An empty password
// on update leaves the stored hash untouched.
type UserInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
}

func (in *UserInput) Validate(create bool) error {
	trim(in.Username)
	trim(in.FirstName)
	trim(in.LastName)
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &e
	}
	if in.Role != nil {
		r := strings.ToLower(strings.TrimSpace(*in.Role))
		in.Role = &r
	}
	roles := make([]interface{}, len(ValidRoles))
	for i, r := range ValidRoles {
		roles[i] = r
	}
	return validation.ValidateStruct(in,
		validation.Field(&in.Username,
			validation.When(create, validation.Required.Error("username is required")),
			validation.NilOrNotEmpty.Error("username cannot be empty"),
			validation.Length(3, 50),
		),
		validation.Field(&in.Email,
			validation.When(create, validation.Required.Error("email is required")),
			validation.NilOrNotEmpty.Error("email cannot be empty"),
			is.EmailFormat.Error("please enter a valid email address"),
		),
		validation.Field(&in.Password,
			validation.When(create, validation.Required.Error("password is required")),
			validation.Length(MinPasswordLength, MaxPasswordLength).Error("password must be 6-72 characters"),
		),
		validation.Field(&in.FirstName,
			validation.When(create, validation.Required.Error("first name is required")),
			validation.NilOrNotEmpty.Error("first name cannot be empty"),
			validation.Length(1, 100),
		),
		validation.Field(&in.LastName,
			validation.When(create, validation.Required.Error("last name is required")),
			validation.NilOrNotEmpty.Error("last name cannot be empty"),
			validation.Length(1, 100),
		),
		validation.Field(&in.Role, validation.In(roles...).Error("role must be user or admin")),
	)
}

// Apply copies profile fields onto u. Password and role are handled by the
// caller since they need hashing and authorization.
func (in *UserInput) Apply(u *User) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if u.ProfileImage == "" {
		u.ProfileImage = DefaultUserImage
	}
}

// RequestedRole returns the role in the input, or "" when none was sent.
func (in *UserInput) RequestedRole() string {
	if in.Role == nil {
		return ""
	}
	return *in.Role
}

// NewPassword returns the plaintext password when one was supplied.
func (in *UserInput) NewPassword() (string, bool) {
	if in.Password == nil || *in.Password == "" {
		return "", false
	}
	return *in.Password, true
}
