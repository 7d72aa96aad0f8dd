package retention

import (
	"context"
	"errors"
	"log"
	"time"

	"recipe-pipeline-service/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore backs the retention job with the users,
// user_recipe_completions, retention_metrics, retention_alerts and
// retention_errors collections.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	s := &MongoStore{db: db}
	s.ensureIndexes()
	return s
}

func (s *MongoStore) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "cohort_date", Value: 1},
				{Key: "d7_retention_eligible", Value: 1},
			},
		},
	}
	if _, err := s.db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		log.Printf("Warning: Failed to create users indexes: %v", err)
	}

	completionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "completed_at", Value: 1},
			},
		},
	}
	if _, err := s.db.Collection("user_recipe_completions").Indexes().CreateMany(ctx, completionIndexes); err != nil {
		log.Printf("Warning: Failed to create completions indexes: %v", err)
	}

	metricIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cohort_date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.db.Collection("retention_metrics").Indexes().CreateMany(ctx, metricIndexes); err != nil {
		log.Printf("Warning: Failed to create metrics indexes: %v", err)
	}
}

func (s *MongoStore) CohortUsers(ctx context.Context, cohortDate string) ([]model.CohortUser, error) {
	cursor, err := s.db.Collection("users").Find(ctx, bson.M{
		"cohort_date":           cohortDate,
		"d7_retention_eligible": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []model.CohortUser
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) RepeatCompletions(ctx context.Context, userID string, after, until time.Time) ([]model.RecipeCompletion, error) {
	cursor, err := s.db.Collection("user_recipe_completions").Find(ctx, bson.M{
		"user_id":         userID,
		"completed_at":    bson.M{"$gt": after, "$lte": until},
		"is_first_recipe": false,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var completions []model.RecipeCompletion
	if err := cursor.All(ctx, &completions); err != nil {
		return nil, err
	}
	return completions, nil
}

func (s *MongoStore) SaveMetrics(ctx context.Context, m model.RetentionMetrics) error {
	_, err := s.db.Collection("retention_metrics").ReplaceOne(ctx,
		bson.M{"_id": metricsKey(m.CohortDate)},
		metricsDoc{RetentionMetrics: m, Key: metricsKey(m.CohortDate)},
		options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) MetricsByCohort(ctx context.Context, cohortDate string) (*model.RetentionMetrics, error) {
	var doc metricsDoc
	err := s.db.Collection("retention_metrics").FindOne(ctx,
		bson.M{"_id": metricsKey(cohortDate)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.RetentionMetrics, nil
}

func (s *MongoStore) SaveAlert(ctx context.Context, alert model.RetentionAlert) error {
	_, err := s.db.Collection("retention_alerts").InsertOne(ctx, alert)
	return err
}

func (s *MongoStore) RecordError(ctx context.Context, rec model.RetentionError) error {
	_, err := s.db.Collection("retention_errors").InsertOne(ctx, rec)
	return err
}

func (s *MongoStore) Trend(ctx context.Context, startDate string) ([]model.RetentionMetrics, error) {
	cursor, err := s.db.Collection("retention_metrics").Find(ctx,
		bson.M{"cohort_date": bson.M{"$gte": startDate}},
		options.Find().SetSort(bson.D{{Key: "cohort_date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []metricsDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.RetentionMetrics, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.RetentionMetrics)
	}
	return out, nil
}

func metricsKey(cohortDate string) string {
	return "d7_" + cohortDate
}

// metricsDoc pins the document _id to the d7_<cohort-date> key.
type metricsDoc struct {
	model.RetentionMetrics `bson:",inline"`
	Key                    string `bson:"_id"`
}
