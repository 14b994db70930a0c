package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/store"
)

// Store is the persistence contract the catalog needs. *store.DB and
// *memory.Store both satisfy it.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	InsertAuthor(ctx context.Context, a *models.Author) (primitive.ObjectID, error)
	AuthorByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error)
	AuthorWithBooks(ctx context.Context, id primitive.ObjectID) (*models.AuthorWithBooks, error)
	ListAuthorsWithBooks(ctx context.Context) ([]models.AuthorWithBooks, error)
	UpdateAuthor(ctx context.Context, a *models.Author) error
	DeleteAuthor(ctx context.Context, id primitive.ObjectID) error

	InsertBook(ctx context.Context, b *models.Book) (primitive.ObjectID, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	BookDetail(ctx context.Context, id primitive.ObjectID) (*models.BookDetail, error)
	ListBookDetails(ctx context.Context) ([]models.BookDetail, error)
	BooksByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Book, error)
	UpdateBook(ctx context.Context, b *models.Book) error
	DeleteBook(ctx context.Context, id primitive.ObjectID) error
	DeleteBooksByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error)

	InsertUser(ctx context.Context, u *models.User) (primitive.ObjectID, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersWithStats(ctx context.Context) ([]models.UserWithStats, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error

	InsertReview(ctx context.Context, r *models.Review) (primitive.ObjectID, error)
	ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ReviewByUserAndBook(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Review, error)
	ReviewDetail(ctx context.Context, id primitive.ObjectID) (*models.ReviewDetail, error)
	ReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.ReviewDetail, error)
	ReviewsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ReviewDetail, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
	DeleteReviewsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteReviewsByBooks(ctx context.Context, bookIDs []primitive.ObjectID) (int64, error)

	InsertSuggestion(ctx context.Context, s *models.Suggestion) (primitive.ObjectID, error)
	SuggestionByID(ctx context.Context, id primitive.ObjectID) (*models.Suggestion, error)
	ListSuggestions(ctx context.Context, f models.SuggestionFilter) ([]models.SuggestionDetail, error)
	TransitionSuggestion(ctx context.Context, id primitive.ObjectID, from, to string) error
	DeleteSuggestion(ctx context.Context, id primitive.ObjectID) error

	DeleteOrphans(ctx context.Context) (store.OrphanReport, error)
}

// Notifier is told about new suggestions. A nil Notifier disables notifications.
type Notifier interface {
	NotifySuggestion(ctx context.Context, s *models.Suggestion) error
}

// Catalog enforces the cross-entity rules on top of a Store, which itself
// knows nothing about references between collections.
type Catalog struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewCatalog(s Store, n Notifier) *Catalog {
	return &Catalog{store: s, notifier: n, now: func() time.Time { return time.Now().UTC() }}
}

// CascadeResult counts the dependents removed together with an entity.
type CascadeResult struct {
	Books   int   `json:"books"`
	Reviews int64 `json:"reviews"`
}

// resolve turns a missing foreign entity into ErrInvalidReference.
func resolve(err error, what string, id primitive.ObjectID) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", what, id.Hex(), ErrInvalidReference)
	}
	return err
}

// Authors

func (c *Catalog) CreateAuthor(ctx context.Context, in *models.AuthorInput) (*models.Author, error) {
	if err := in.Validate(true); err != nil {
		return nil, validationFailed(err)
	}
	now := c.now()
	a := &models.Author{CreatedAt: now, UpdatedAt: now}
	in.Apply(a)
	id, err := c.store.InsertAuthor(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}
	a.ID = id
	return a, nil
}

func (c *Catalog) GetAuthor(ctx context.Context, id primitive.ObjectID) (*models.AuthorWithBooks, error) {
	return c.store.AuthorWithBooks(ctx, id)
}

func (c *Catalog) ListAuthors(ctx context.Context) ([]models.AuthorWithBooks, error) {
	return c.store.ListAuthorsWithBooks(ctx)
}

func (c *Catalog) UpdateAuthor(ctx context.Context, id primitive.ObjectID, in *models.AuthorInput) (*models.AuthorWithBooks, error) {
	if err := in.Validate(false); err != nil {
		return nil, validationFailed(err)
	}
	a, err := c.store.AuthorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(a)
	a.UpdatedAt = c.now()
	if err := c.store.UpdateAuthor(ctx, a); err != nil {
		return nil, err
	}
	return c.store.AuthorWithBooks(ctx, id)
}

// SetAuthorImage points the author's profile image at an uploaded file.
func (c *Catalog) SetAuthorImage(ctx context.Context, id primitive.ObjectID, url string) (*models.Author, error) {
	if !models.ValidImageURL(url) {
		return nil, Invalid("image", "is not a valid image URL")
	}
	a, err := c.store.AuthorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.ProfileImage = url
	a.UpdatedAt = c.now()
	if err := c.store.UpdateAuthor(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAuthor removes the author, every book that references it and every
// review of those books. Dependents go first so a failure without a
// transaction never leaves a book pointing at a deleted author.
func (c *Catalog) DeleteAuthor(ctx context.Context, id primitive.ObjectID) (CascadeResult, error) {
	var res CascadeResult
	err := c.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := c.store.AuthorByID(ctx, id); err != nil {
			return err
		}
		bookIDs, err := c.store.DeleteBooksByAuthor(ctx, id)
		if err != nil {
			return fmt.Errorf("delete books of author: %w", err)
		}
		n, err := c.store.DeleteReviewsByBooks(ctx, bookIDs)
		if err != nil {
			return fmt.Errorf("delete reviews of author books: %w", err)
		}
		res = CascadeResult{Books: len(bookIDs), Reviews: n}
		return c.store.DeleteAuthor(ctx, id)
	})
	if err != nil {
		return CascadeResult{}, err
	}
	log.Info().Str("author", id.Hex()).Int("books", res.Books).Int64("reviews", res.Reviews).Msg("author deleted")
	return res, nil
}

// Books

func (c *Catalog) CreateBook(ctx context.Context, in *models.BookInput) (*models.BookDetail, error) {
	if err := in.Validate(true); err != nil {
		return nil, validationFailed(err)
	}
	authorID, _ := in.AuthorID()
	if _, err := c.store.AuthorByID(ctx, authorID); err != nil {
		return nil, resolve(err, "author", authorID)
	}
	now := c.now()
	b := &models.Book{CreatedAt: now, UpdatedAt: now}
	in.Apply(b)
	id, err := c.store.InsertBook(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return c.store.BookDetail(ctx, id)
}

func (c *Catalog) GetBook(ctx context.Context, id primitive.ObjectID) (*models.BookDetail, error) {
	return c.store.BookDetail(ctx, id)
}

func (c *Catalog) ListBooks(ctx context.Context) ([]models.BookDetail, error) {
	return c.store.ListBookDetails(ctx)
}

// FindBooksByAuthor is the query-time form of Author.books.
func (c *Catalog) FindBooksByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Book, error) {
	if _, err := c.store.AuthorByID(ctx, authorID); err != nil {
		return nil, err
	}
	return c.store.BooksByAuthor(ctx, authorID)
}

func (c *Catalog) UpdateBook(ctx context.Context, id primitive.ObjectID, in *models.BookInput) (*models.BookDetail, error) {
	if err := in.Validate(false); err != nil {
		return nil, validationFailed(err)
	}
	b, err := c.store.BookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if authorID, ok := in.AuthorID(); ok && authorID != b.Author {
		if _, err := c.store.AuthorByID(ctx, authorID); err != nil {
			return nil, resolve(err, "author", authorID)
		}
	}
	in.Apply(b)
	b.UpdatedAt = c.now()
	if err := c.store.UpdateBook(ctx, b); err != nil {
		return nil, err
	}
	return c.store.BookDetail(ctx, id)
}

// DeleteBook removes the book and all of its reviews.
func (c *Catalog) DeleteBook(ctx context.Context, id primitive.ObjectID) (CascadeResult, error) {
	var res CascadeResult
	err := c.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := c.store.BookByID(ctx, id); err != nil {
			return err
		}
		n, err := c.store.DeleteReviewsByBooks(ctx, []primitive.ObjectID{id})
		if err != nil {
			return fmt.Errorf("delete reviews of book: %w", err)
		}
		res = CascadeResult{Books: 1, Reviews: n}
		return c.store.DeleteBook(ctx, id)
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return res, nil
}

// Users

// CreateUser registers an account. Only an admin caller may create another
// admin; actor is nil for anonymous registration.
func (c *Catalog) CreateUser(ctx context.Context, actor *models.AuthContext, in *models.UserInput) (*models.User, error) {
	if err := in.Validate(true); err != nil {
		return nil, validationFailed(err)
	}
	role := in.RequestedRole()
	if role == "" {
		role = models.RoleUser
	}
	if role == models.RoleAdmin && !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can create admin accounts: %w", ErrForbidden)
	}
	plain, _ := in.NewPassword()
	hash, err := HashPassword(plain)
	if err != nil {
		return nil, err
	}
	now := c.now()
	u := &models.User{Password: hash, Role: role, CreatedAt: now, UpdatedAt: now}
	in.Apply(u)
	id, err := c.store.InsertUser(ctx, u)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("username or email: %w", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return u, nil
}

func (c *Catalog) GetUser(ctx context.Context, actor *models.AuthContext, id primitive.ObjectID) (*models.User, error) {
	if !actor.CanActFor(id) {
		return nil, ErrForbidden
	}
	return c.store.UserByID(ctx, id)
}

func (c *Catalog) ListUsers(ctx context.Context) ([]models.UserWithStats, error) {
	return c.store.ListUsersWithStats(ctx)
}

// UpdateUser applies a profile change. The password is re-hashed only when a
// new one is supplied; role changes need an admin.
func (c *Catalog) UpdateUser(ctx context.Context, actor *models.AuthContext, id primitive.ObjectID, in *models.UserInput) (*models.User, error) {
	if !actor.CanActFor(id) {
		return nil, ErrForbidden
	}
	if err := in.Validate(false); err != nil {
		return nil, validationFailed(err)
	}
	u, err := c.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role := in.RequestedRole(); role != "" && role != u.Role {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("only admins can change roles: %w", ErrForbidden)
		}
		u.Role = role
	}
	if plain, ok := in.NewPassword(); ok {
		hash, err := HashPassword(plain)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	in.Apply(u)
	u.UpdatedAt = c.now()
	err = c.store.UpdateUser(ctx, u)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("username or email: %w", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (c *Catalog) SetUserImage(ctx context.Context, actor *models.AuthContext, id primitive.ObjectID, url string) (*models.User, error) {
	if !actor.CanActFor(id) {
		return nil, ErrForbidden
	}
	u, err := c.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.ProfileImage = url
	u.UpdatedAt = c.now()
	if err := c.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the account and every review it wrote.
func (c *Catalog) DeleteUser(ctx context.Context, actor *models.AuthContext, id primitive.ObjectID) (CascadeResult, error) {
	if !actor.CanActFor(id) {
		return CascadeResult{}, ErrForbidden
	}
	var res CascadeResult
	err := c.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := c.store.UserByID(ctx, id); err != nil {
			return err
		}
		n, err := c.store.DeleteReviewsByUser(ctx, id)
		if err != nil {
			return fmt.Errorf("delete reviews of user: %w", err)
		}
		res.Reviews = n
		return c.store.DeleteUser(ctx, id)
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return res, nil
}

// Reviews

// CreateReview adds a review for (user, book). The pre-check gives a clean
// error in the common case; the unique (user, book) index catches the race
// where two submissions pass the check together.
func (c *Catalog) CreateReview(ctx context.Context, actor *models.AuthContext, in *models.ReviewInput) (*models.ReviewDetail, error) {
	if err := in.Validate(true); err != nil {
		return nil, validationFailed(err)
	}
	userID, bookID := in.Refs()
	if !actor.CanActFor(userID) {
		return nil, fmt.Errorf("cannot review on behalf of another user: %w", ErrForbidden)
	}
	if _, err := c.store.UserByID(ctx, userID); err != nil {
		return nil, resolve(err, "user", userID)
	}
	if _, err := c.store.BookByID(ctx, bookID); err != nil {
		return nil, resolve(err, "book", bookID)
	}
	_, err := c.store.ReviewByUserAndBook(ctx, userID, bookID)
	switch {
	case err == nil:
		return nil, ErrDuplicateReview
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	now := c.now()
	r := &models.Review{User: userID, Book: bookID, CreatedAt: now, UpdatedAt: now}
	in.Apply(r)
	id, err := c.store.InsertReview(ctx, r)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrDuplicateReview
	}
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return c.store.ReviewDetail(ctx, id)
}

func (c *Catalog) GetReview(ctx context.Context, id primitive.ObjectID) (*models.ReviewDetail, error) {
	return c.store.ReviewDetail(ctx, id)
}

func (c *Catalog) ReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.ReviewDetail, error) {
	if _, err := c.store.BookByID(ctx, bookID); err != nil {
		return nil, err
	}
	return c.store.ReviewsForBook(ctx, bookID)
}

func (c *Catalog) ReviewsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ReviewDetail, error) {
	if _, err := c.store.UserByID(ctx, userID); err != nil {
		return nil, err
	}
	return c.store.ReviewsByUser(ctx, userID)
}

// UpdateReview changes rating and text only, and only for the review's author.
func (c *Catalog) UpdateReview(ctx context.Context, actor *models.AuthContext, id primitive.ObjectID, in *models.ReviewInput) (*models.ReviewDetail, error) {
	if err := in.Validate(false); err != nil {
		return nil, validationFailed(err)
	}
	r, err := c.store.ReviewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.UserID != r.User {
		return nil, fmt.Errorf("only the author can edit a review: %w", ErrForbidden)
	}
	in.Apply(r)
	r.UpdatedAt = c.now()
	if err := c.store.UpdateReview(ctx, r); err != nil {
		return nil, err
	}
	return c.store.ReviewDetail(ctx, id)
}

func (c *Catalog) DeleteReview(ctx context.Context, actor *models.AuthContext, id primitive.ObjectID) error {
	r, err := c.store.ReviewByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanActFor(r.User) {
		return ErrForbidden
	}
	return c.store.DeleteReview(ctx, id)
}

// Suggestions

// CreateSuggestion stores a visitor suggestion. Signed-in callers are
// recorded as the submitter unless they name one; only admins may name
// someone other than themselves, and anonymous callers may not name anyone.
func (c *Catalog) CreateSuggestion(ctx context.Context, actor *models.AuthContext, in *models.SuggestionInput) (*models.Suggestion, error) {
	if err := in.Validate(); err != nil {
		return nil, validationFailed(err)
	}
	submitter := in.Submitter()
	switch {
	case submitter == nil && actor != nil:
		id := actor.UserID
		submitter = &id
	case submitter != nil && !actor.CanActFor(*submitter):
		return nil, fmt.Errorf("cannot submit on behalf of another user: %w", ErrForbidden)
	}
	if submitter != nil {
		if _, err := c.store.UserByID(ctx, *submitter); err != nil {
			return nil, resolve(err, "user", *submitter)
		}
	}
	s := &models.Suggestion{
		Text:        *in.Suggestion,
		Type:        *in.Type,
		SubmittedBy: submitter,
		Status:      models.StatusPending,
		CreatedAt:   c.now(),
	}
	id, err := c.store.InsertSuggestion(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	s.ID = id
	if c.notifier != nil {
		if err := c.notifier.NotifySuggestion(ctx, s); err != nil {
			log.Warn().Err(err).Str("suggestion", id.Hex()).Msg("suggestion notification failed")
		}
	}
	return s, nil
}

func (c *Catalog) ListSuggestions(ctx context.Context, f models.SuggestionFilter) ([]models.SuggestionDetail, error) {
	if err := f.Validate(); err != nil {
		return nil, validationFailed(err)
	}
	return c.store.ListSuggestions(ctx, f)
}

// UpdateSuggestionStatus moves a suggestion along pending -> approved|rejected.
// Nothing but the status changes.
func (c *Catalog) UpdateSuggestionStatus(ctx context.Context, id primitive.ObjectID, in *models.StatusInput) (*models.Suggestion, error) {
	if err := in.Validate(); err != nil {
		return nil, validationFailed(err)
	}
	to := *in.Status
	s, err := c.store.SuggestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status == to {
		return s, nil
	}
	if !models.CanTransition(s.Status, to) {
		return nil, fmt.Errorf("%s to %s: %w", s.Status, to, ErrInvalidTransition)
	}
	if err := c.store.TransitionSuggestion(ctx, id, s.Status, to); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Lost a race with another moderator, or the suggestion was deleted.
		if _, err := c.store.SuggestionByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("status changed concurrently: %w", ErrInvalidTransition)
	}
	s.Status = to
	return s, nil
}

func (c *Catalog) DeleteSuggestion(ctx context.Context, id primitive.ObjectID) error {
	return c.store.DeleteSuggestion(ctx, id)
}

// EnsureAdmin creates the bootstrap admin account unless a user with that
// email already exists. The username comes from the email's local part; if
// a regular user already holds it, the next candidate is tried.
func (c *Catalog) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := c.store.UserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	admin := models.RoleAdmin
	first, last := "Site", "Admin"
	for _, username := range adminUsernames(email) {
		in := &models.UserInput{
			Username:  &username,
			Email:     &email,
			Password:  &password,
			FirstName: &first,
			LastName:  &last,
			Role:      &admin,
		}
		u, err = c.CreateUser(ctx, &models.AuthContext{Role: models.RoleAdmin}, in)
		if !errors.Is(err, ErrConflict) {
			return u, err
		}
		log.Warn().Str("username", username).Msg("bootstrap admin username taken")
	}
	return nil, fmt.Errorf("no free username for bootstrap admin: %w", ErrConflict)
}

func adminUsernames(email string) []string {
	local, _, _ := strings.Cut(email, "@")
	var out []string
	for _, name := range []string{local, local + "-admin", "admin", "admin-" + uuid.NewString()[:8]} {
		if n := len(name); n >= 3 && n <= 50 {
			out = append(out, name)
		}
	}
	return out
}
