package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/kevinaaaquil/bookshelf/models"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestUserByID(t *testing.T) {
	mt := newMock(t)

	mt.Run("not found", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bookshelf.users", mtest.FirstBatch))

		_, err := db.UserByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("found", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "bookshelf.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "ada"},
			{Key: "email", Value: "ada@example.com"},
			{Key: "role", Value: models.RoleUser},
		}))

		u, err := db.UserByID(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "ada", u.Username)
	})
}

func TestInsertUserDuplicate(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate key", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: bookshelf.users index: email_1",
		}))

		_, err := db.InsertUser(context.Background(), &models.User{Username: "ada", Email: "ada@example.com"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("inserted", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := db.InsertUser(context.Background(), &models.User{Username: "ada", Email: "ada@example.com"})
		require.NoError(mt, err)
		assert.False(mt, id.IsZero())
	})
}

func TestInsertReviewDuplicate(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate pair", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: bookshelf.reviews index: user_1_book_1",
		}))

		_, err := db.InsertReview(context.Background(), &models.Review{User: primitive.NewObjectID(), Book: primitive.NewObjectID(), Rating: 3})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	mt := newMock(t)

	mt.Run("update matches nothing", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := db.UpdateAuthor(context.Background(), &models.Author{ID: primitive.NewObjectID(), Name: "x"})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete matches nothing", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := db.DeleteBook(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestTransitionSuggestion(t *testing.T) {
	mt := newMock(t)

	mt.Run("moved", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := db.TransitionSuggestion(context.Background(), primitive.NewObjectID(), models.StatusPending, models.StatusApproved)
		assert.NoError(mt, err)
	})

	mt.Run("status already changed", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := db.TransitionSuggestion(context.Background(), primitive.NewObjectID(), models.StatusPending, models.StatusRejected)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestAuthorWithBooksMissing(t *testing.T) {
	mt := newMock(t)

	mt.Run("empty aggregate", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bookshelf.authors", mtest.FirstBatch))

		_, err := db.AuthorWithBooks(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestRunInTxWithoutTransactions(t *testing.T) {
	mt := newMock(t)

	mt.Run("runs directly", func(mt *mtest.T) {
		db := NewFromDatabase(mt.DB, false)
		called := false
		err := db.RunInTx(context.Background(), func(ctx context.Context) error {
			called = true
			return nil
		})
		require.NoError(mt, err)
		assert.True(mt, called)
	})
}
