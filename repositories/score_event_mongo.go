package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/smash-arena/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scoreEventsCollection = "score_events"

type MongoScoreEventRepository struct {
	coll *mongo.Collection
}

// NewMongoScoreEventRepository keeps the score log in a MongoDB collection
// instead of postgres. Call EnsureIndexes once at startup.
func NewMongoScoreEventRepository(db *mongo.Database) *MongoScoreEventRepository {
	return &MongoScoreEventRepository{coll: db.Collection(scoreEventsCollection)}
}

func (r *MongoScoreEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "match_id", Value: 1}, {Key: "seq", Value: -1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create score event index: %w", err)
	}
	return nil
}

func (r *MongoScoreEventRepository) Append(ctx context.Context, event *models.ScoreEvent) error {
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrScoreEventConflict
		}
		return fmt.Errorf("failed to append score event: %w", err)
	}
	return nil
}

func (r *MongoScoreEventRepository) ListByMatch(ctx context.Context, matchID int) ([]models.ScoreEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"match_id": matchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list score events of match %d: %w", matchID, err)
	}
	defer cursor.Close(ctx)

	events := make([]models.ScoreEvent, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode score events of match %d: %w", matchID, err)
	}
	return events, nil
}

func (r *MongoScoreEventRepository) Last(ctx context.Context, matchID int) (*models.ScoreEvent, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	var ev models.ScoreEvent
	err := r.coll.FindOne(ctx, bson.M{"match_id": matchID}, opts).Decode(&ev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrScoreEventNotFound
		}
		return nil, fmt.Errorf("failed to load last score event of match %d: %w", matchID, err)
	}
	return &ev, nil
}

func (r *MongoScoreEventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete score event %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrScoreEventNotFound
	}
	return nil
}
