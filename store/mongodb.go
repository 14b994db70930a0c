package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	authorsCollection     = "authors"
	booksCollection       = "books"
	usersCollection       = "users"
	reviewsCollection     = "reviews"
	suggestionsCollection = "suggestions"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database

	// transactions is true when the deployment is a replica set or a sharded
	// cluster; standalone servers reject multi-document transactions.
	transactions bool
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := &DB{
		Client:       client,
		Database:     client.Database(dbName),
		transactions: supportsTransactions(ctx, client),
	}
	log.Info().Str("db", dbName).Bool("transactions", db.transactions).Msg("connected to MongoDB")
	return db, nil
}

// NewFromDatabase wraps an already connected database handle.
func NewFromDatabase(database *mongo.Database, transactions bool) *DB {
	return &DB{Client: database.Client(), Database: database, transactions: transactions}
}

func supportsTransactions(ctx context.Context, client *mongo.Client) bool {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		log.Warn().Err(err).Msg("hello command failed; assuming no transaction support")
		return false
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid"
}

// SupportsTransactions reports whether RunInTx gives all-or-nothing semantics.
func (db *DB) SupportsTransactions() bool {
	return db.transactions
}

func (db *DB) Authors() *mongo.Collection {
	return db.Database.Collection(authorsCollection)
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection(booksCollection)
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection(usersCollection)
}

func (db *DB) Reviews() *mongo.Collection {
	return db.Database.Collection(reviewsCollection)
}

func (db *DB) Suggestions() *mongo.Collection {
	return db.Database.Collection(suggestionsCollection)
}

// EnsureIndexes creates the unique constraints the integrity rules rely on:
// one account per username and per email, one review per (user, book).
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{db.Users(), mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique}},
		{db.Users(), mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{db.Reviews(), mongo.IndexModel{Keys: bson.D{{Key: "user", Value: 1}, {Key: "book", Value: 1}}, Options: unique}},
		{db.Reviews(), mongo.IndexModel{Keys: bson.D{{Key: "book", Value: 1}}}},
		{db.Books(), mongo.IndexModel{Keys: bson.D{{Key: "author", Value: 1}}}},
		{db.Suggestions(), mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "type", Value: 1}}}},
	}
	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateOne(ctx, s.model); err != nil {
			return err
		}
	}
	return nil
}

// RunInTx runs fn in a multi-document transaction when the deployment
// supports one. Otherwise fn runs directly and a failure halfway through
// can leave orphans behind for DeleteOrphans to collect.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !db.transactions {
		return fn(ctx)
	}
	sess, err := db.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
