package store

import (
	"context"

	"github.com/kevinaaaquil/bookshelf/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertAuthor(ctx context.Context, author *models.Author) (primitive.ObjectID, error) {
	res, err := db.Authors().InsertOne(ctx, author, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) AuthorByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error) {
	var a models.Author
	if err := db.Authors().FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// booksLookup joins the virtual Author.books relation.
var booksLookup = bson.D{{Key: "$lookup", Value: bson.D{
	{Key: "from", Value: booksCollection},
	{Key: "localField", Value: "_id"},
	{Key: "foreignField", Value: "author"},
	{Key: "as", Value: "books"},
}}}

func (db *DB) AuthorWithBooks(ctx context.Context, id primitive.ObjectID) (*models.AuthorWithBooks, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		booksLookup,
	}
	authors, err := db.aggregateAuthors(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(authors) == 0 {
		return nil, ErrNotFound
	}
	return &authors[0], nil
}

func (db *DB) ListAuthorsWithBooks(ctx context.Context) ([]models.AuthorWithBooks, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
		booksLookup,
	}
	return db.aggregateAuthors(ctx, pipeline)
}

func (db *DB) aggregateAuthors(ctx context.Context, pipeline mongo.Pipeline) ([]models.AuthorWithBooks, error) {
	cur, err := db.Authors().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	authors := []models.AuthorWithBooks{}
	if err := cur.All(ctx, &authors); err != nil {
		return nil, err
	}
	for i := range authors {
		if authors[i].Books == nil {
			authors[i].Books = []models.Book{}
		}
	}
	return authors, nil
}

func (db *DB) UpdateAuthor(ctx context.Context, author *models.Author) error {
	set := bson.M{
		"name":         author.Name,
		"bio":          author.Bio,
		"dateOfBirth":  author.DateOfBirth,
		"profileImage": author.ProfileImage,
		"updatedAt":    author.UpdatedAt,
	}
	return db.updateByID(ctx, db.Authors(), author.ID, set)
}

func (db *DB) DeleteAuthor(ctx context.Context, id primitive.ObjectID) error {
	return db.deleteByID(ctx, db.Authors(), id)
}

func (db *DB) updateByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, set bson.M) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
