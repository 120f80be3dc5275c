package userRepo

import (
	"context"
	"fmt"
	"time"

	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	repo := &MongoUserRepo{coll: db.Collection("users")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create user indexes", zap.Error(err))
	}
	return repo
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_email")},
		{
			Keys: bson.D{{Key: "referralCode", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_referral_code").
				SetPartialFilterExpression(bson.M{"referralCode": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "oauthProvider", Value: 1}, {Key: "oauthSubject", Value: 1}},
			Options: options.Index().SetName("oauth_identity").
				SetPartialFilterExpression(bson.M{"oauthSubject": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("role_status")},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// MongoReferralRepo implements ReferralRepository using MongoDB.
type MongoReferralRepo struct {
	coll *mongo.Collection
}

// NewMongoReferralRepo creates the referrals repository.
func NewMongoReferralRepo(db *mongo.Database) ReferralRepository {
	repo := &MongoReferralRepo{coll: db.Collection("referrals")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "referredUserId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_referred_user")},
		{Keys: bson.D{{Key: "referrerId", Value: 1}}, Options: options.Index().SetName("referrer")},
	})
	if err != nil {
		utils.GetLogger().Error("failed to create referral indexes", zap.Error(err))
	}
	return repo
}
