package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookingDbName  = "fixify"
	BookingColName = "bookings"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingAssigned   BookingStatus = "assigned"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
	BookingRejected   BookingStatus = "rejected"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAssigned, BookingInProgress,
		BookingCompleted, BookingCancelled, BookingRejected:
		return true
	}
	return false
}

// Terminal reports whether no further ordinary transitions are expected.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// RequiresContractor reports whether a booking in this status must carry a
// contractor assignment.
func (s BookingStatus) RequiresContractor() bool {
	return s == BookingAssigned || s == BookingInProgress || s == BookingCompleted
}

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleContractor Role = "contractor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleContractor || r == RoleAdmin
}

// Actor is the authenticated identity performing an operation. It is built
// from verified token claims, never from request bodies.
type Actor struct {
	ID   primitive.ObjectID
	Role Role
}

type Address struct {
	Line1      string `bson:"line1" json:"line1" validate:"required"`
	City       string `bson:"city" json:"city" validate:"required"`
	PostalCode string `bson:"postalCode" json:"postalCode" validate:"required"`
}

type Booking struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID primitive.ObjectID `bson:"customer_id" json:"customer_id" validate:"required"`
	ServiceID  primitive.ObjectID `bson:"service_id" json:"service_id" validate:"required"`
	// ContractorID is nil while the booking sits in the open pool. It is
	// deliberately stored as an explicit null so the claim CAS can key on it.
	ContractorID    *primitive.ObjectID  `bson:"contractor_id" json:"contractor_id"`
	Address         Address              `bson:"address" json:"address" validate:"required"`
	RejectedBy      []primitive.ObjectID `bson:"rejected_by,omitempty" json:"rejected_by,omitempty"`
	IssueImages     []string             `bson:"issue_images,omitempty" json:"issue_images,omitempty"`
	Notes           string               `bson:"notes,omitempty" json:"notes,omitempty"`
	ContractorNotes string               `bson:"contractor_notes,omitempty" json:"contractor_notes,omitempty"`
	BookingDate     *time.Time           `bson:"booking_date,omitempty" json:"booking_date,omitempty"`
	Status          BookingStatus        `bson:"status" json:"status"`
	CreatedAt       time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updated_at"`
}

func (b *Booking) BeforeCreate() error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (b *Booking) AssignedTo(id primitive.ObjectID) bool {
	return b.ContractorID != nil && *b.ContractorID == id
}

func (b *Booking) HasRejected(id primitive.ObjectID) bool {
	for _, r := range b.RejectedBy {
		if r == id {
			return true
		}
	}
	return false
}

func (b *Booking) OwnedBy(id primitive.ObjectID) bool {
	return b.CustomerID == id
}
