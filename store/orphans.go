package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DeleteOrphans removes books whose author is gone and reviews whose book or
// user is gone. It is the compensating sweep for cascades that ran without a
// transaction.
func (db *DB) DeleteOrphans(ctx context.Context) (OrphanReport, error) {
	var report OrphanReport

	bookIDs, err := db.danglingIDs(ctx, db.Books(), mongo.Pipeline{
		lookupStage(authorsCollection, "author", "a"),
		{{Key: "$match", Value: bson.M{"a": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return report, err
	}
	if len(bookIDs) > 0 {
		res, err := db.Books().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": bookIDs}})
		if err != nil {
			return report, err
		}
		report.Books = res.DeletedCount
	}

	reviewIDs, err := db.danglingIDs(ctx, db.Reviews(), mongo.Pipeline{
		lookupStage(booksCollection, "book", "b"),
		lookupStage(usersCollection, "user", "u"),
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"b": bson.M{"$size": 0}},
			bson.M{"u": bson.M{"$size": 0}},
		}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return report, err
	}
	if len(reviewIDs) > 0 {
		res, err := db.Reviews().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": reviewIDs}})
		if err != nil {
			return report, err
		}
		report.Reviews = res.DeletedCount
	}
	return report, nil
}

func lookupStage(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}

func (db *DB) danglingIDs(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]primitive.ObjectID, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
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
	return ids, nil
}
