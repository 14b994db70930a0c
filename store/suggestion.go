package store

import (
	"context"

	"github.com/kevinaaaquil/bookshelf/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertSuggestion(ctx context.Context, s *models.Suggestion) (primitive.ObjectID, error) {
	res, err := db.Suggestions().InsertOne(ctx, s, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) SuggestionByID(ctx context.Context, id primitive.ObjectID) (*models.Suggestion, error) {
	var s models.Suggestion
	if err := db.Suggestions().FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ListSuggestions filters on the non-empty fields of f; values are compared
// literally, never interpreted as operators.
func (db *DB) ListSuggestions(ctx context.Context, f models.SuggestionFilter) ([]models.SuggestionDetail, error) {
	match := bson.M{}
	if f.Status != "" {
		match["status"] = bson.M{"$eq": f.Status}
	}
	if f.Type != "" {
		match["type"] = bson.M{"$eq": f.Type}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "submittedBy"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "submitterInfo"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$submitterInfo"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
		{{Key: "$project", Value: bson.D{{Key: "submitterInfo.password", Value: 0}}}},
	}
	cur, err := db.Suggestions().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.SuggestionDetail{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionSuggestion moves the status only if it still equals from, so two
// moderators racing on the same pending suggestion cannot both win.
// Returns ErrNotFound when no document matched either way.
func (db *DB) TransitionSuggestion(ctx context.Context, id primitive.ObjectID, from, to string) error {
	res, err := db.Suggestions().UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteSuggestion(ctx context.Context, id primitive.ObjectID) error {
	return db.deleteByID(ctx, db.Suggestions(), id)
}
