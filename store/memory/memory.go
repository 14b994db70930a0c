// Package memory is an in-process implementation of the catalog store. It
// keeps the same contract as the MongoDB store, unique indexes included, and
// is used for tests and for running the API without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu          sync.RWMutex
	authors     map[primitive.ObjectID]models.Author
	books       map[primitive.ObjectID]models.Book
	users       map[primitive.ObjectID]models.User
	reviews     map[primitive.ObjectID]models.Review
	suggestions map[primitive.ObjectID]models.Suggestion
}

func New() *Store {
	return &Store{
		authors:     map[primitive.ObjectID]models.Author{},
		books:       map[primitive.ObjectID]models.Book{},
		users:       map[primitive.ObjectID]models.User{},
		reviews:     map[primitive.ObjectID]models.Review{},
		suggestions: map[primitive.ObjectID]models.Suggestion{},
	}
}

type txKey struct{}

// RunInTx holds the store's write lock for the whole of fn, so no other
// caller observes or interleaves with a partial cascade. On error every map
// is restored to its state before fn. fn must call the store with the
// context it is given; the store's lock is not reentrant otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock and rlock are no-ops inside RunInTx, which already holds s.mu.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

type state struct {
	authors     map[primitive.ObjectID]models.Author
	books       map[primitive.ObjectID]models.Book
	users       map[primitive.ObjectID]models.User
	reviews     map[primitive.ObjectID]models.Review
	suggestions map[primitive.ObjectID]models.Suggestion
}

func (s *Store) snapshot() state {
	return state{
		authors:     clone(s.authors),
		books:       clone(s.books),
		users:       clone(s.users),
		reviews:     clone(s.reviews),
		suggestions: clone(s.suggestions),
	}
}

func (s *Store) restore(st state) {
	s.authors, s.books, s.users, s.reviews, s.suggestions = st.authors, st.books, st.users, st.reviews, st.suggestions
}

func clone[V any](m map[primitive.ObjectID]V) map[primitive.ObjectID]V {
	out := make(map[primitive.ObjectID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Authors

func (s *Store) InsertAuthor(ctx context.Context, a *models.Author) (primitive.ObjectID, error) {
	defer s.lock(ctx)()
	a.ID = primitive.NewObjectID()
	s.authors[a.ID] = *a
	return a.ID, nil
}

func (s *Store) AuthorByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error) {
	defer s.rlock(ctx)()
	a, ok := s.authors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) AuthorWithBooks(ctx context.Context, id primitive.ObjectID) (*models.AuthorWithBooks, error) {
	defer s.rlock(ctx)()
	a, ok := s.authors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.AuthorWithBooks{Author: a, Books: s.booksOf(id)}, nil
}

func (s *Store) ListAuthorsWithBooks(ctx context.Context) ([]models.AuthorWithBooks, error) {
	defer s.rlock(ctx)()
	out := make([]models.AuthorWithBooks, 0, len(s.authors))
	for _, a := range s.authors {
		out = append(out, models.AuthorWithBooks{Author: a, Books: s.booksOf(a.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateAuthor(ctx context.Context, a *models.Author) error {
	defer s.lock(ctx)()
	if _, ok := s.authors[a.ID]; !ok {
		return store.ErrNotFound
	}
	s.authors[a.ID] = *a
	return nil
}

func (s *Store) DeleteAuthor(ctx context.Context, id primitive.ObjectID) error {
	return deleteFrom(ctx, s, func(s *Store) map[primitive.ObjectID]models.Author { return s.authors }, id)
}

// Books

func (s *Store) booksOf(authorID primitive.ObjectID) []models.Book {
	out := []models.Book{}
	for _, b := range s.books {
		if b.Author == authorID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishYear < out[j].PublishYear })
	return out
}

func (s *Store) InsertBook(ctx context.Context, b *models.Book) (primitive.ObjectID, error) {
	defer s.lock(ctx)()
	b.ID = primitive.NewObjectID()
	s.books[b.ID] = *b
	return b.ID, nil
}

func (s *Store) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	defer s.rlock(ctx)()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Store) bookDetail(b models.Book) models.BookDetail {
	d := models.BookDetail{Book: b}
	if a, ok := s.authors[b.Author]; ok {
		d.Author = &models.AuthorSummary{ID: a.ID, Name: a.Name, Bio: a.Bio}
	}
	return d
}

func (s *Store) BookDetail(ctx context.Context, id primitive.ObjectID) (*models.BookDetail, error) {
	defer s.rlock(ctx)()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	d := s.bookDetail(b)
	return &d, nil
}

func (s *Store) ListBookDetails(ctx context.Context) ([]models.BookDetail, error) {
	defer s.rlock(ctx)()
	out := make([]models.BookDetail, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, s.bookDetail(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) BooksByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Book, error) {
	defer s.rlock(ctx)()
	return s.booksOf(authorID), nil
}

func (s *Store) UpdateBook(ctx context.Context, b *models.Book) error {
	defer s.lock(ctx)()
	if _, ok := s.books[b.ID]; !ok {
		return store.ErrNotFound
	}
	s.books[b.ID] = *b
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	return deleteFrom(ctx, s, func(s *Store) map[primitive.ObjectID]models.Book { return s.books }, id)
}

func (s *Store) DeleteBooksByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer s.lock(ctx)()
	ids := []primitive.ObjectID{}
	for id, b := range s.books {
		if b.Author == authorID {
			ids = append(ids, id)
			delete(s.books, id)
		}
	}
	return ids, nil
}

// Users

func (s *Store) checkUserUnique(u *models.User) error {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return fmt.Errorf("%w: username %q", store.ErrDuplicate, u.Username)
		}
		if other.Email == u.Email {
			return fmt.Errorf("%w: email %q", store.ErrDuplicate, u.Email)
		}
	}
	return nil
}

func (s *Store) InsertUser(ctx context.Context, u *models.User) (primitive.ObjectID, error) {
	defer s.lock(ctx)()
	if err := s.checkUserUnique(u); err != nil {
		return primitive.NilObjectID, err
	}
	u.ID = primitive.NewObjectID()
	s.users[u.ID] = *u
	return u.ID, nil
}

func (s *Store) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer s.rlock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.rlock(ctx)()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsersWithStats(ctx context.Context) ([]models.UserWithStats, error) {
	defer s.rlock(ctx)()
	counts := map[primitive.ObjectID]int{}
	for _, r := range s.reviews {
		counts[r.User]++
	}
	out := make([]models.UserWithStats, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, models.UserWithStats{User: u, ReviewCount: counts[u.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	defer s.lock(ctx)()
	if _, ok := s.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	if err := s.checkUserUnique(u); err != nil {
		return err
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return deleteFrom(ctx, s, func(s *Store) map[primitive.ObjectID]models.User { return s.users }, id)
}

// Reviews

func (s *Store) InsertReview(ctx context.Context, r *models.Review) (primitive.ObjectID, error) {
	defer s.lock(ctx)()
	for _, other := range s.reviews {
		if other.User == r.User && other.Book == r.Book {
			return primitive.NilObjectID, fmt.Errorf("%w: review (user, book)", store.ErrDuplicate)
		}
	}
	r.ID = primitive.NewObjectID()
	s.reviews[r.ID] = *r
	return r.ID, nil
}

func (s *Store) ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	defer s.rlock(ctx)()
	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ReviewByUserAndBook(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Review, error) {
	defer s.rlock(ctx)()
	for _, r := range s.reviews {
		if r.User == userID && r.Book == bookID {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) reviewDetail(r models.Review, withUser, withBook bool) models.ReviewDetail {
	d := models.ReviewDetail{Review: r}
	if u, ok := s.users[r.User]; ok && withUser {
		d.User = &models.UserSummary{ID: u.ID, Username: u.Username}
	}
	if b, ok := s.books[r.Book]; ok && withBook {
		d.Book = &models.BookSummary{ID: b.ID, Title: b.Title, Author: b.Author}
	}
	return d
}

func (s *Store) ReviewDetail(ctx context.Context, id primitive.ObjectID) (*models.ReviewDetail, error) {
	defer s.rlock(ctx)()
	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	d := s.reviewDetail(r, true, true)
	return &d, nil
}

func (s *Store) ReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.ReviewDetail, error) {
	return s.filterReviews(ctx, func(r models.Review) bool { return r.Book == bookID }, true, false), nil
}

func (s *Store) ReviewsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ReviewDetail, error) {
	return s.filterReviews(ctx, func(r models.Review) bool { return r.User == userID }, false, true), nil
}

func (s *Store) filterReviews(ctx context.Context, keep func(models.Review) bool, withUser, withBook bool) []models.ReviewDetail {
	defer s.rlock(ctx)()
	out := []models.ReviewDetail{}
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, s.reviewDetail(r, withUser, withBook))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	defer s.lock(ctx)()
	cur, ok := s.reviews[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Rating = r.Rating
	cur.ReviewText = r.ReviewText
	cur.UpdatedAt = r.UpdatedAt
	s.reviews[r.ID] = cur
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	return deleteFrom(ctx, s, func(s *Store) map[primitive.ObjectID]models.Review { return s.reviews }, id)
}

func (s *Store) DeleteReviewsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.deleteReviewsWhere(ctx, func(r models.Review) bool { return r.User == userID }), nil
}

func (s *Store) DeleteReviewsByBooks(ctx context.Context, bookIDs []primitive.ObjectID) (int64, error) {
	set := make(map[primitive.ObjectID]bool, len(bookIDs))
	for _, id := range bookIDs {
		set[id] = true
	}
	return s.deleteReviewsWhere(ctx, func(r models.Review) bool { return set[r.Book] }), nil
}

func (s *Store) deleteReviewsWhere(ctx context.Context, match func(models.Review) bool) int64 {
	defer s.lock(ctx)()
	var n int64
	for id, r := range s.reviews {
		if match(r) {
			delete(s.reviews, id)
			n++
		}
	}
	return n
}

// Suggestions

func (s *Store) InsertSuggestion(ctx context.Context, sg *models.Suggestion) (primitive.ObjectID, error) {
	defer s.lock(ctx)()
	sg.ID = primitive.NewObjectID()
	s.suggestions[sg.ID] = *sg
	return sg.ID, nil
}

func (s *Store) SuggestionByID(ctx context.Context, id primitive.ObjectID) (*models.Suggestion, error) {
	defer s.rlock(ctx)()
	sg, ok := s.suggestions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sg, nil
}

func (s *Store) ListSuggestions(ctx context.Context, f models.SuggestionFilter) ([]models.SuggestionDetail, error) {
	defer s.rlock(ctx)()
	out := []models.SuggestionDetail{}
	for _, sg := range s.suggestions {
		if f.Status != "" && sg.Status != f.Status {
			continue
		}
		if f.Type != "" && sg.Type != f.Type {
			continue
		}
		d := models.SuggestionDetail{Suggestion: sg}
		if sg.SubmittedBy != nil {
			if u, ok := s.users[*sg.SubmittedBy]; ok {
				d.SubmittedBy = &models.UserSummary{ID: u.ID, Username: u.Username}
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) TransitionSuggestion(ctx context.Context, id primitive.ObjectID, from, to string) error {
	defer s.lock(ctx)()
	sg, ok := s.suggestions[id]
	if !ok || sg.Status != from {
		return store.ErrNotFound
	}
	sg.Status = to
	s.suggestions[id] = sg
	return nil
}

func (s *Store) DeleteSuggestion(ctx context.Context, id primitive.ObjectID) error {
	return deleteFrom(ctx, s, func(s *Store) map[primitive.ObjectID]models.Suggestion { return s.suggestions }, id)
}

// DeleteOrphans mirrors the MongoDB sweep.
func (s *Store) DeleteOrphans(ctx context.Context) (store.OrphanReport, error) {
	defer s.lock(ctx)()
	var report store.OrphanReport
	for id, b := range s.books {
		if _, ok := s.authors[b.Author]; !ok {
			delete(s.books, id)
			report.Books++
		}
	}
	for id, r := range s.reviews {
		_, hasBook := s.books[r.Book]
		_, hasUser := s.users[r.User]
		if !hasBook || !hasUser {
			delete(s.reviews, id)
			report.Reviews++
		}
	}
	return report, nil
}

func deleteFrom[V any](ctx context.Context, s *Store, pick func(*Store) map[primitive.ObjectID]V, id primitive.ObjectID) error {
	defer s.lock(ctx)()
	m := pick(s)
	if _, ok := m[id]; !ok {
		return store.ErrNotFound
	}
	delete(m, id)
	return nil
}
