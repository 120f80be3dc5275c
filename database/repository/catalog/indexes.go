package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes(coll *mongo.Collection, indexModels []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
	}
	return nil
}

var categoryIndexes = []mongo.IndexModel{
	{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_slug")},
}

var serviceTypeIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "categoryId", Value: 1}, {Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_category_slug"),
	},
}

var serviceIndexes = []mongo.IndexModel{
	// 2dsphere for $near queries on the GeoJSON point
	{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetName("location_2dsphere")},
	{Keys: bson.D{{Key: "providerId", Value: 1}}, Options: options.Index().SetName("provider_idx")},
	{
		Keys:    bson.D{{Key: "categoryId", Value: 1}, {Key: "serviceTypeId", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("category_type_status_idx"),
	},
}
