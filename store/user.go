package store

import (
	"context"

	"github.com/kevinaaaquil/bookshelf/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// InsertUser returns ErrDuplicate when the username or email is taken.
func (db *DB) InsertUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ListUsersWithStats returns all users with the number of reviews each wrote.
func (db *DB) ListUsersWithStats(ctx context.Context) ([]models.UserWithStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: reviewsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "user"},
			{Key: "as", Value: "reviews"},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "reviewCount", Value: bson.D{{Key: "$size", Value: "$reviews"}}}}}},
		{{Key: "$project", Value: bson.D{{Key: "reviews", Value: 0}}}},
	}
	cur, err := db.Users().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	users := []models.UserWithStats{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	set := bson.M{
		"username":     user.Username,
		"email":        user.Email,
		"password":     user.Password,
		"firstName":    user.FirstName,
		"lastName":     user.LastName,
		"role":         user.Role,
		"profileImage": user.ProfileImage,
		"updatedAt":    user.UpdatedAt,
	}
	return db.updateByID(ctx, db.Users(), user.ID, set)
}

func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return db.deleteByID(ctx, db.Users(), id)
}
