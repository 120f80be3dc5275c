package userRepo

import (
	"context"
	"fmt"
	"time"

	"homehub/database"
	"homehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new user document.
func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = models.NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return database.MapError(err)
	}
	return nil
}

// Update applies set to the user and returns the new document.
func (r *MongoUserRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &user, nil
}

// AddLoyaltyPoints increments the loyalty balance with $inc.
func (r *MongoUserRepo) AddLoyaltyPoints(ctx context.Context, id primitive.ObjectID, points int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"loyaltyPoints": points},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to add loyalty points for %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Create inserts a referral record.
func (r *MongoReferralRepo) Create(ctx context.Context, referral *models.Referral) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if referral.ID.IsZero() {
		referral.ID = primitive.NewObjectID()
	}
	referral.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, referral)
	return database.MapError(err)
}

// ListByReferrer returns the referrals credited to referrerID, newest first.
func (r *MongoReferralRepo) ListByReferrer(ctx context.Context, referrerID primitive.ObjectID) ([]models.Referral, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"referrerId": referrerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	referrals := []models.Referral{}
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, err
	}
	return referrals, nil
}
