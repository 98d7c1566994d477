package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

const collectionReservations = "reservations"

// openStatuses matches holds that still occupy a queue slot.
var openStatuses = bson.A{domain.ReservationActive, domain.ReservationReady}

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection(collectionReservations)}
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res domain.Reservation
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) FindOpenByItemAndBorrower(ctx context.Context, itemID, borrowerID string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"item_id":     itemID,
		"borrower_id": borrowerID,
		"status":      bson.M{"$in": openStatuses},
	}
	var res domain.Reservation
	if err := r.col.FindOne(ctx, filter).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) FindReadyForBorrower(ctx context.Context, itemID, borrowerID string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"item_id":     itemID,
		"borrower_id": borrowerID,
		"status":      domain.ReservationReady,
	}
	var res domain.Reservation
	if err := r.col.FindOne(ctx, filter).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) NextInQueue(ctx context.Context, itemID string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"item_id": itemID,
		"status":  domain.ReservationActive,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "queue_position", Value: 1}})

	var res domain.Reservation
	if err := r.col.FindOne(ctx, filter, opts).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) CountOpenByItem(ctx context.Context, itemID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"item_id": itemID,
		"status":  bson.M{"$in": openStatuses},
	})
}

func (r *ReservationRepository) CountHeldForPickup(ctx context.Context, itemID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"item_id": itemID,
		"status":  domain.ReservationReady,
	})
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, res)
	return err
}

func (r *ReservationRepository) List(ctx context.Context, filter ports.ListReservationsFilter) ([]*domain.Reservation, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.LibraryID != "" {
		query["library_id"] = filter.LibraryID
	}
	if filter.BorrowerID != "" {
		query["borrower_id"] = filter.BorrowerID
	}
	if filter.ItemID != "" {
		query["item_id"] = filter.ItemID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := pageOpts(filter.Page, filter.Limit).SetSort(bson.D{
		{Key: "item_id", Value: 1},
		{Key: "queue_position", Value: 1},
	})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []*domain.Reservation
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ReservationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "status", Value: 1}, {Key: "queue_position", Value: 1}}},
		{Keys: bson.D{{Key: "borrower_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "library_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
