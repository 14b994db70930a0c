package models

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	require.Error(t, err)
	errs, ok := err.(validation.Errors)
	require.True(t, ok, "expected validation.Errors, got %T", err)
	return errs
}

func validBook() *BookInput {
	return &BookInput{
		Title:           ptr("  Dune  "),
		Author:          ptr(primitive.NewObjectID().Hex()),
		PublishYear:     ptr(1965),
		ISBN:            ptr("978-0-441-01359-3"),
		Description:     ptr("Desert planet."),
		LongDescription: ptr("A long description of the desert planet."),
		BookCover:       ptr("https://covers.example.com/dune.jpg"),
	}
}

func TestBookInput_CreateValid(t *testing.T) {
	in := validBook()
	require.NoError(t, in.Validate(true))
	assert.Equal(t, "Dune", *in.Title)

	var b Book
	in.Apply(&b)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, 1965, b.PublishYear)
	id, ok := in.AuthorID()
	require.True(t, ok)
	assert.Equal(t, id, b.Author)
}

func TestBookInput_CreateRequiresFields(t *testing.T) {
	errs := fieldErrors(t, (&BookInput{}).Validate(true))
	for _, f := range []string{"title", "author", "publishYear", "ISBN", "description", "longDescription", "bookCover"} {
		assert.Contains(t, errs, f)
	}
}

func TestBookInput_UpdateAcceptsSubset(t *testing.T) {
	in := &BookInput{Title: ptr("New title")}
	assert.NoError(t, in.Validate(false))
}

func TestBookInput_PublishYearBounds(t *testing.T) {
	next := time.Now().Year() + 1
	for _, y := range []int{0, 999, next} {
		in := validBook()
		in.PublishYear = ptr(y)
		errs := fieldErrors(t, in.Validate(true))
		assert.Contains(t, errs, "publishYear", "year %d", y)
	}
	for _, y := range []int{1000, time.Now().Year()} {
		in := validBook()
		in.PublishYear = ptr(y)
		assert.NoError(t, in.Validate(true), "year %d", y)
	}
}

func TestBookInput_ISBN(t *testing.T) {
	good := []string{"0441013597", "978-0441013593", "0-441-01359-7"}
	bad := []string{"12345", "978044101359X", "97804410135931", "abc"}
	for _, s := range good {
		in := validBook()
		in.ISBN = ptr(s)
		assert.NoError(t, in.Validate(true), s)
	}
	for _, s := range bad {
		in := validBook()
		in.ISBN = ptr(s)
		errs := fieldErrors(t, in.Validate(true))
		assert.Contains(t, errs, "ISBN", s)
	}
}

func TestBookInput_DescriptionLimit(t *testing.T) {
	long := make([]byte, MaxDescriptionLength+1)
	for i := range long {
		long[i] = 'a'
	}
	in := validBook()
	in.Description = ptr(string(long))
	errs := fieldErrors(t, in.Validate(true))
	assert.Contains(t, errs, "description")
}

func TestBookInput_BadAuthorID(t *testing.T) {
	in := validBook()
	in.Author = ptr("not-an-id")
	errs := fieldErrors(t, in.Validate(true))
	assert.Contains(t, errs, "author")
}

func TestAuthorInput(t *testing.T) {
	in := &AuthorInput{Name: ptr("  Ursula  "), DateOfBirth: ptr("1929-10-21")}
	require.NoError(t, in.Validate(true))

	var a Author
	in.Apply(&a)
	assert.Equal(t, "Ursula", a.Name)
	assert.Equal(t, DefaultAuthorImage, a.ProfileImage)
	require.NotNil(t, a.DateOfBirth)
	assert.Equal(t, 1929, a.DateOfBirth.Year())

	errs := fieldErrors(t, (&AuthorInput{}).Validate(true))
	assert.Contains(t, errs, "name")

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	errs = fieldErrors(t, (&AuthorInput{Name: ptr("X"), DateOfBirth: ptr(future)}).Validate(true))
	assert.Contains(t, errs, "dateOfBirth")

	errs = fieldErrors(t, (&AuthorInput{Name: ptr("X"), ProfileImage: ptr("https://x.test/a.bmp")}).Validate(true))
	assert.Contains(t, errs, "profileImage")

	assert.NoError(t, (&AuthorInput{ProfileImage: ptr("https://x.test/a.PNG")}).Validate(false))
}

func TestUserInput(t *testing.T) {
	in := &UserInput{
		Username:  ptr(" reader "),
		Email:     ptr(" Reader@Example.COM "),
		Password:  ptr("secret1"),
		FirstName: ptr("Ada"),
		LastName:  ptr("Lovelace"),
	}
	require.NoError(t, in.Validate(true))
	assert.Equal(t, "reader@example.com", *in.Email)
	assert.Equal(t, "", in.RequestedRole())

	var u User
	in.Apply(&u)
	assert.Equal(t, "reader", u.Username)
	assert.Equal(t, DefaultUserImage, u.ProfileImage)
	assert.Empty(t, u.Password)

	pw, ok := in.NewPassword()
	assert.True(t, ok)
	assert.Equal(t, "secret1", pw)
}

func TestUserInput_Rejects(t *testing.T) {
	cases := map[string]*UserInput{
		"username": {Username: ptr("ab")},
		"email":    {Email: ptr("nope")},
		"password": {Password: ptr("12345")},
		"role":     {Role: ptr("root")},
	}
	for field, in := range cases {
		errs := fieldErrors(t, in.Validate(false))
		assert.Contains(t, errs, field)
	}
	long := make([]byte, MaxPasswordLength+1)
	for i := range long {
		long[i] = 'p'
	}
	errs := fieldErrors(t, (&UserInput{Password: ptr(string(long))}).Validate(false))
	assert.Contains(t, errs, "password")
}

func TestReviewInput_Rating(t *testing.T) {
	user, book := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()
	for _, r := range []int{0, 6, -1} {
		in := &ReviewInput{User: ptr(user), Book: ptr(book), Rating: ptr(r)}
		errs := fieldErrors(t, in.Validate(true))
		assert.Contains(t, errs, "rating", strconv.Itoa(r))
	}
	for r := MinRating; r <= MaxRating; r++ {
		in := &ReviewInput{User: ptr(user), Book: ptr(book), Rating: ptr(r)}
		assert.NoError(t, in.Validate(true))
	}
	errs := fieldErrors(t, (&ReviewInput{User: ptr(user), Book: ptr(book)}).Validate(true))
	assert.Contains(t, errs, "rating")
}

func TestReviewInput_UpdateCannotMoveReview(t *testing.T) {
	in := &ReviewInput{Rating: ptr(3), Book: ptr(primitive.NewObjectID().Hex())}
	errs := fieldErrors(t, in.Validate(false))
	assert.Contains(t, errs, "book")

	assert.NoError(t, (&ReviewInput{ReviewText: ptr("changed my mind")}).Validate(false))
}

func TestSuggestionInput(t *testing.T) {
	in := &SuggestionInput{Suggestion: ptr("  add Borges "), Type: ptr("author")}
	require.NoError(t, in.Validate())
	assert.Equal(t, "add Borges", *in.Suggestion)
	assert.Nil(t, in.Submitter())

	errs := fieldErrors(t, (&SuggestionInput{Suggestion: ptr("x"), Type: ptr("magazine")}).Validate())
	assert.Contains(t, errs, "type")

	errs = fieldErrors(t, (&SuggestionInput{Suggestion: ptr("   "), Type: ptr("book")}).Validate())
	assert.Contains(t, errs, "suggestion")
}

func TestStatusInput(t *testing.T) {
	errs := fieldErrors(t, (&StatusInput{Status: ptr("archived")}).Validate())
	assert.Equal(t, "invalid status", errs["status"].Error())
	assert.NoError(t, (&StatusInput{Status: ptr("approved")}).Validate())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusApproved))
	assert.True(t, CanTransition(StatusPending, StatusRejected))
	assert.True(t, CanTransition(StatusApproved, StatusApproved))
	assert.False(t, CanTransition(StatusApproved, StatusPending))
	assert.False(t, CanTransition(StatusRejected, StatusApproved))
}

func TestParseID(t *testing.T) {
	id := primitive.NewObjectID()
	got, err := ParseID(" " + id.Hex() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("123")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestAuthContext(t *testing.T) {
	me := primitive.NewObjectID()
	var anon *AuthContext
	assert.False(t, anon.IsAdmin())
	assert.False(t, anon.CanActFor(me))

	user := &AuthContext{UserID: me, Role: RoleUser}
	assert.True(t, user.CanActFor(me))
	assert.False(t, user.CanActFor(primitive.NewObjectID()))

	admin := &AuthContext{UserID: primitive.NewObjectID(), Role: RoleAdmin}
	assert.True(t, admin.CanActFor(me))
}

func TestSuggestionDetailJSON(t *testing.T) {
	userID := primitive.NewObjectID()
	base := Suggestion{ID: primitive.NewObjectID(), Text: "x", Type: SuggestionTypeBook, Status: StatusPending}

	submittedBy := func(d SuggestionDetail) interface{} {
		raw, err := json.Marshal(d)
		require.NoError(t, err)
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &out))
		require.Contains(t, out, "submittedBy")
		return out["submittedBy"]
	}

	assert.Nil(t, submittedBy(SuggestionDetail{Suggestion: base}))

	withUser := base
	withUser.SubmittedBy = &userID
	assert.Equal(t, userID.Hex(), submittedBy(SuggestionDetail{Suggestion: withUser}))

	populated := submittedBy(SuggestionDetail{Suggestion: withUser, SubmittedBy: &UserSummary{ID: userID, Username: "ada"}})
	assert.Equal(t, map[string]interface{}{"id": userID.Hex(), "username": "ada"}, populated)
}
