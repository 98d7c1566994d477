package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

const txTimeout = 15 * time.Second

// CirculationRepository applies multi-entity circulation transitions inside a
// MongoDB session transaction, so a failed write leaves every collection
// untouched. Requires a replica set (standalone mongod does not support
// transactions).
type CirculationRepository struct {
	client       *mongo.Client
	loans        *mongo.Collection
	items        *mongo.Collection
	members      *mongo.Collection
	reservations *mongo.Collection
}

func NewCirculationRepository(client *mongo.Client, db *mongo.Database) *CirculationRepository {
	return &CirculationRepository{
		client:       client,
		loans:        db.Collection(collectionLoans),
		items:        db.Collection(collectionItems),
		members:      db.Collection(collectionMembers),
		reservations: db.Collection(collectionReservations),
	}
}

func (r *CirculationRepository) withTx(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *CirculationRepository) ApplyCheckout(ctx context.Context, st ports.CheckoutState) error {
	return r.withTx(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.loans.InsertOne(sc, st.Loan); err != nil {
			return err
		}
		if err := r.replaceItem(sc, st.Item); err != nil {
			return err
		}
		if err := r.replaceMember(sc, st.Member); err != nil {
			return err
		}
		if st.Fulfill != nil {
			if err := r.replaceReservation(sc, st.Fulfill); err != nil {
				return err
			}
			// The fulfilled hold frees its queue slot.
			if err := r.renumberQueue(sc, st.Fulfill.ItemID, st.Fulfill.QueuePosition); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CirculationRepository) ApplyReturn(ctx context.Context, st ports.ReturnState) error {
	return r.withTx(ctx, func(sc mongo.SessionContext) error {
		if err := r.replaceLoan(sc, st.Loan); err != nil {
			return err
		}
		if err := r.replaceItem(sc, st.Item); err != nil {
			return err
		}
		if err := r.replaceMember(sc, st.Member); err != nil {
			return err
		}
		if st.Promote != nil {
			if err := r.replaceReservation(sc, st.Promote); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CirculationRepository) ApplyCancel(ctx context.Context, st ports.CancelState) error {
	return r.withTx(ctx, func(sc mongo.SessionContext) error {
		if err := r.replaceReservation(sc, st.Reservation); err != nil {
			return err
		}
		if st.Item != nil {
			if err := r.replaceItem(sc, st.Item); err != nil {
				return err
			}
		}
		if st.Member != nil {
			if err := r.replaceMember(sc, st.Member); err != nil {
				return err
			}
		}
		if st.Promote != nil {
			if err := r.replaceReservation(sc, st.Promote); err != nil {
				return err
			}
		}
		return r.renumberQueue(sc, st.Reservation.ItemID, st.Reservation.QueuePosition)
	})
}

// renumberQueue closes the gap left at the given position: every open hold on
// the item queued behind it moves up one slot.
func (r *CirculationRepository) renumberQueue(sc mongo.SessionContext, itemID string, position int) error {
	_, err := r.reservations.UpdateMany(sc,
		bson.M{
			"item_id":        itemID,
			"status":         bson.M{"$in": openStatuses},
			"queue_position": bson.M{"$gt": position},
		},
		bson.M{"$inc": bson.M{"queue_position": -1}},
	)
	return err
}

func (r *CirculationRepository) replaceLoan(sc mongo.SessionContext, l *domain.Loan) error {
	res, err := r.loans.ReplaceOne(sc, bson.M{"_id": l.ID}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func (r *CirculationRepository) replaceItem(sc mongo.SessionContext, i *domain.Item) error {
	res, err := r.items.ReplaceOne(sc, bson.M{"_id": i.ID}, i)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *CirculationRepository) replaceMember(sc mongo.SessionContext, m *domain.Member) error {
	res, err := r.members.ReplaceOne(sc, bson.M{"_id": m.ID}, m)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *CirculationRepository) replaceReservation(sc mongo.SessionContext, res *domain.Reservation) error {
	out, err := r.reservations.ReplaceOne(sc, bson.M{"_id": res.ID}, res)
	if err != nil {
		return err
	}
	if out.MatchedCount == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}
