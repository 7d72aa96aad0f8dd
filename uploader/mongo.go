package uploader

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

// MongoStore is the production Store backed by the regions and recipes
// collections. Recipes live in a flat collection keyed by (region,
// recipeId) instead of per-region subcollections.
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

	regionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "regionName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.db.Collection("regions").Indexes().CreateMany(ctx, regionIndexes); err != nil {
		log.Printf("Warning: Failed to create regions indexes: %v", err)
	}

	recipeIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "region", Value: 1},
				{Key: "recipeId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}
	if _, err := s.db.Collection("recipes").Indexes().CreateMany(ctx, recipeIndexes); err != nil {
		log.Printf("Warning: Failed to create recipes indexes: %v", err)
	}
}

func (s *MongoStore) GetRegion(ctx context.Context, name string) (*model.RegionRecord, error) {
	var rec model.RegionRecord
	err := s.db.Collection("regions").FindOne(ctx, bson.M{"regionName": name}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *MongoStore) UpsertRegion(ctx context.Context, rec model.RegionRecord) error {
	filter := bson.M{"regionName": rec.RegionName}
	update := bson.M{"$set": bson.M{
		"regionName": rec.RegionName,
		"regionCode": rec.RegionCode,
		"timestamp":  rec.Timestamp,
	}}
	_, err := s.db.Collection("regions").UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) RecipeExists(ctx context.Context, region, recipeID string) (bool, error) {
	count, err := s.db.Collection("recipes").CountDocuments(ctx,
		bson.M{"region": region, "recipeId": recipeID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoStore) CommitBatch(ctx context.Context, region string, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	var operations []mongo.WriteModel
	for _, recipe := range recipes {
		doc := recipeDoc{Recipe: recipe, RecipeID: recipe.ID()}
		operation := mongo.NewReplaceOneModel().
			SetFilter(bson.M{"region": region, "recipeId": doc.RecipeID}).
			SetReplacement(doc).
			SetUpsert(true)
		operations = append(operations, operation)
	}

	opts := options.BulkWrite().SetOrdered(false)
	result, err := s.db.Collection("recipes").BulkWrite(ctx, operations, opts)
	if err != nil {
		log.Printf("Bulk write failed for region %s: %v", region, err)
		return err
	}

	log.Printf("Batch committed for %s: %d upserted, %d modified",
		region, result.UpsertedCount, result.ModifiedCount)
	return nil
}

// recipeDoc adds the derived identifier alongside the embedded recipe
// fields so the dedupe lookup can use an indexed key.
type recipeDoc struct {
	model.Recipe `bson:",inline"`
	RecipeID     string `bson:"recipeId"`
}
