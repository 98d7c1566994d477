package domain

import "time"

// ReservationStatus is the lifecycle state of a hold.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationReady     ReservationStatus = "ready"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationActive: {ReservationReady, ReservationCancelled},
	ReservationReady:  {ReservationFulfilled, ReservationCancelled},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Open reports whether the reservation still occupies a queue slot.
func (s ReservationStatus) Open() bool {
	return s == ReservationActive || s == ReservationReady
}

// Reservation is a hold on an item awaiting availability. Holds form a FIFO
// queue per item: QueuePosition is 1-based and renumbered on cancellation.
// A returned copy promotes the head of the queue to ready and stamps a
// pickup deadline; the copy stays held until checkout or cancellation.
type Reservation struct {
	ID             string            `json:"id" bson:"_id,omitempty"`
	ItemID         string            `json:"item_id" bson:"item_id"`
	BorrowerID     string            `json:"borrower_id" bson:"borrower_id"`
	LibraryID      string            `json:"library_id" bson:"library_id"`
	ReservedAt     time.Time         `json:"reserved_at" bson:"reserved_at"`
	Status         ReservationStatus `json:"status" bson:"status"`
	QueuePosition  int               `json:"queue_position" bson:"queue_position"`
	PickupDeadline *time.Time        `json:"pickup_deadline,omitempty" bson:"pickup_deadline,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at" bson:"updated_at"`
}
