package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthContext is the caller identity decoded from a bearer token. It is
// passed explicitly to every operation that needs it.
type AuthContext struct {
	UserID primitive.ObjectID
	Role   string
}

func (a *AuthContext) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanActFor reports whether the caller is the given user or an admin.
func (a *AuthContext) CanActFor(userID primitive.ObjectID) bool {
	return a != nil && (a.Role == RoleAdmin || a.UserID == userID)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate also normalizes the email the same way registration stores it.
func (in *LoginInput) Validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return validation.ValidateStruct(in,
		validation.Field(&in.Email, validation.Required.Error("email is required")),
		validation.Field(&in.Password, validation.Required.Error("password is required")),
	)
}
