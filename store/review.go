package store

import (
	"context"

	"github.com/kevinaaaquil/bookshelf/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	reviewUserLookup = mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "userInfo"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$userInfo"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
		{{Key: "$project", Value: bson.D{{Key: "userInfo.password", Value: 0}, {Key: "userInfo.email", Value: 0}}}},
	}
	reviewBookLookup = mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: booksCollection},
			{Key: "localField", Value: "book"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "bookInfo"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$bookInfo"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
	}
)

// InsertReview returns ErrDuplicate when the (user, book) pair already has a review.
func (db *DB) InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	res, err := db.Reviews().InsertOne(ctx, review, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := db.Reviews().FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (db *DB) ReviewByUserAndBook(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := db.Reviews().FindOne(ctx, bson.M{"user": userID, "book": bookID}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// ReviewDetail returns the review with both its user and its book populated.
func (db *DB) ReviewDetail(ctx context.Context, id primitive.ObjectID) (*models.ReviewDetail, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, reviewUserLookup...)
	pipeline = append(pipeline, reviewBookLookup...)
	reviews, err := db.aggregateReviews(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNotFound
	}
	return &reviews[0], nil
}

func (db *DB) ReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.ReviewDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"book": bookID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	return db.aggregateReviews(ctx, append(pipeline, reviewUserLookup...))
}

func (db *DB) ReviewsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ReviewDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	return db.aggregateReviews(ctx, append(pipeline, reviewBookLookup...))
}

func (db *DB) aggregateReviews(ctx context.Context, pipeline mongo.Pipeline) ([]models.ReviewDetail, error) {
	cur, err := db.Reviews().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	reviews := []models.ReviewDetail{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// UpdateReview writes rating, text and updatedAt; user and book never change.
func (db *DB) UpdateReview(ctx context.Context, review *models.Review) error {
	set := bson.M{
		"rating":     review.Rating,
		"reviewText": review.ReviewText,
		"updatedAt":  review.UpdatedAt,
	}
	return db.updateByID(ctx, db.Reviews(), review.ID, set)
}

func (db *DB) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	return db.deleteByID(ctx, db.Reviews(), id)
}

func (db *DB) DeleteReviewsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := db.Reviews().DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (db *DB) DeleteReviewsByBooks(ctx context.Context, bookIDs []primitive.ObjectID) (int64, error) {
	if len(bookIDs) == 0 {
		return 0, nil
	}
	res, err := db.Reviews().DeleteMany(ctx, bson.M{"book": bson.M{"$in": bookIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
