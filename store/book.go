package store

import (
	"context"

	"github.com/kevinaaaquil/bookshelf/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	if err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book); err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

var authorLookup = mongo.Pipeline{
	{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: authorsCollection},
		{Key: "localField", Value: "author"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "authorInfo"},
	}}},
	{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: "$authorInfo"},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}},
}

// BookDetail returns the book with name and bio of its author.
func (db *DB) BookDetail(ctx context.Context, id primitive.ObjectID) (*models.BookDetail, error) {
	pipeline := append(mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}, authorLookup...)
	books, err := db.aggregateBooks(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

func (db *DB) ListBookDetails(ctx context.Context) ([]models.BookDetail, error) {
	pipeline := append(mongo.Pipeline{{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}}}, authorLookup...)
	return db.aggregateBooks(ctx, pipeline)
}

func (db *DB) aggregateBooks(ctx context.Context, pipeline mongo.Pipeline) ([]models.BookDetail, error) {
	cur, err := db.Books().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.BookDetail{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// BooksByAuthor is the query-time join behind Author.books.
func (db *DB) BooksByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{"author": authorID}, options.Find().SetSort(bson.M{"publishYear": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) UpdateBook(ctx context.Context, book *models.Book) error {
	set := bson.M{
		"title":           book.Title,
		"author":          book.Author,
		"publishYear":     book.PublishYear,
		"isbn":            book.ISBN,
		"description":     book.Description,
		"longDescription": book.LongDescription,
		"bookCover":       book.BookCover,
		"updatedAt":       book.UpdatedAt,
	}
	return db.updateByID(ctx, db.Books(), book.ID, set)
}

func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	return db.deleteByID(ctx, db.Books(), id)
}

// DeleteBooksByAuthor removes every book of the author and returns their ids
// so dependent reviews can be removed too.
func (db *DB) DeleteBooksByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := db.Books().Find(ctx, bson.M{"author": authorID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if _, err := db.Books().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, err
	}
	return ids, nil
}
