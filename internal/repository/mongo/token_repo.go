package mongo

import (
	"alcyxob/challenge-admin/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type revokedToken struct {
	TokenID   string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expiresAt"`
	RevokedAt time.Time `bson:"revokedAt"`
}

// mongoTokenRepository implements repository.TokenRepository. Entries are
// reaped by a TTL index once the token would have expired anyway.
type mongoTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoTokenRepository creates a new revoked-token repository.
func NewMongoTokenRepository(db *mongo.Database) repository.TokenRepository {
	return &mongoTokenRepository{
		collection: db.Collection(revokedTokenCollectionName),
	}
}

// Revoke records a token id. Revoking twice is not an error.
func (r *mongoTokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("token id is required")
	}
	doc := revokedToken{TokenID: tokenID, ExpiresAt: expiresAt.UTC(), RevokedAt: time.Now().UTC()}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tokenID}, doc, options.Replace().SetUpsert(true))
	return err
}

// IsRevoked reports whether the token id was revoked.
func (r *mongoTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": tokenID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func revokedTokenIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
}
