package domain

import "time"

// ItemStatus is the lifecycle state of a lendable item.
type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemLoaned      ItemStatus = "loaned"
	ItemReserved    ItemStatus = "reserved"
	ItemMaintenance ItemStatus = "maintenance"
)

// itemTransitions defines the allowed state machine transitions.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemAvailable:   {ItemLoaned, ItemReserved, ItemMaintenance},
	ItemLoaned:      {ItemAvailable, ItemReserved},
	ItemReserved:    {ItemLoaned, ItemAvailable, ItemMaintenance},
	// Leaving maintenance lands wherever the counters say: copies may still
	// be out on loan or held for pickup from before the flag was set.
	ItemMaintenance: {ItemAvailable, ItemLoaned, ItemReserved},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, allowed := range itemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ItemCondition grades physical wear. Overwritten at every return.
type ItemCondition string

const (
	ConditionExcellent ItemCondition = "excellent"
	ConditionGood      ItemCondition = "good"
	ConditionFair      ItemCondition = "fair"
	ConditionPoor      ItemCondition = "poor"
)

// ValidCondition reports whether c is a known condition grade.
func ValidCondition(c ItemCondition) bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Item is a lendable physical object belonging to a library. Availability is
// tracked per unit: AvailableQty is the number of free copies, and Status is
// kept coherent with it by the circulation service. A copy held for a ready
// reservation is not counted as available.
type Item struct {
	ID                string        `json:"id" bson:"_id,omitempty"`
	LibraryID         string        `json:"library_id" bson:"library_id"`
	Name              string        `json:"name" bson:"name"`
	Description       string        `json:"description" bson:"description"`
	Category          string        `json:"category" bson:"category"`
	AgeRecommendation string        `json:"age_recommendation" bson:"age_recommendation"`
	Condition         ItemCondition `json:"condition" bson:"condition"`
	ReplacementValue  float64       `json:"replacement_value" bson:"replacement_value"`
	LendingPeriodDays int           `json:"lending_period_days" bson:"lending_period_days"`
	Barcode           string        `json:"barcode" bson:"barcode"`
	Status            ItemStatus    `json:"status" bson:"status"`
	ImageKeys         []string      `json:"image_keys,omitempty" bson:"image_keys,omitempty"`
	Quantity          int           `json:"quantity" bson:"quantity"`
	AvailableQty      int           `json:"available_qty" bson:"available_qty"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" bson:"updated_at"`
}

// DeriveStatus computes the status implied by the availability counter.
// heldForPickup is the number of copies reserved for ready pickups.
// Maintenance is an explicit host action and is never derived.
func (i *Item) DeriveStatus(heldForPickup int) ItemStatus {
	if i.Status == ItemMaintenance {
		return ItemMaintenance
	}
	if i.AvailableQty > 0 {
		return ItemAvailable
	}
	if heldForPickup > 0 {
		return ItemReserved
	}
	return ItemLoaned
}
