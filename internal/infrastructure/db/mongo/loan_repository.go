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

const collectionLoans = "loans"

type LoanRepository struct {
	col *mongo.Collection
}

func NewLoanRepository(db *mongo.Database) *LoanRepository {
	return &LoanRepository{col: db.Collection(collectionLoans)}
}

func (r *LoanRepository) FindByID(ctx context.Context, id string) (*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.Loan
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) FindActiveByItemAndBorrower(ctx context.Context, itemID, borrowerID string) (*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"item_id":     itemID,
		"borrower_id": borrowerID,
		"status":      domain.LoanActive,
	}
	var l domain.Loan
	if err := r.col.FindOne(ctx, filter).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) List(ctx context.Context, filter ports.ListLoansFilter) ([]*domain.Loan, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.LibraryID != "" {
		query["library_id"] = filter.LibraryID
	}
	if filter.BorrowerID != "" {
		query["borrower_id"] = filter.BorrowerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := pageOpts(filter.Page, filter.Limit).SetSort(bson.D{{Key: "checkout_date", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var loans []*domain.Loan
	if err := cur.All(ctx, &loans); err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

func (r *LoanRepository) CountActive(ctx context.Context, libraryID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{"status": domain.LoanActive}
	if libraryID != "" {
		query["library_id"] = libraryID
	}
	return r.col.CountDocuments(ctx, query)
}

func (r *LoanRepository) CountOverdue(ctx context.Context, libraryID string, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{
		"status":   domain.LoanActive,
		"due_date": bson.M{"$lt": now},
	}
	if libraryID != "" {
		query["library_id"] = libraryID
	}
	return r.col.CountDocuments(ctx, query)
}

func (r *LoanRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		// At most one open loan per (item, borrower) pair, enforced at the
		// store level in case two desk checkouts race past the service guard.
		{
			Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "borrower_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.LoanActive)}),
		},
		{Keys: bson.D{{Key: "library_id", Value: 1}, {Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "borrower_id", Value: 1}, {Key: "checkout_date", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
