package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

const collectionTiers = "tiers"

type TierRepository struct {
	col *mongo.Collection
}

func NewTierRepository(db *mongo.Database) *TierRepository {
	return &TierRepository{col: db.Collection(collectionTiers)}
}

func (r *TierRepository) Create(ctx context.Context, t *domain.MembershipTier) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *TierRepository) FindByID(ctx context.Context, id string) (*domain.MembershipTier, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.MembershipTier
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TierRepository) Update(ctx context.Context, t *domain.MembershipTier) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrTierNotFound
	}
	return nil
}

func (r *TierRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrTierNotFound
	}
	return nil
}

func (r *TierRepository) ListByLibrary(ctx context.Context, libraryID string) ([]*domain.MembershipTier, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"library_id": libraryID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tiers []*domain.MembershipTier
	if err := cur.All(ctx, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *TierRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "library_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
