package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepo interface {
	EnsureBookingIndexes(ctx context.Context) error
	InsertBooking(ctx context.Context, booking *Booking) error
	FindBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	GetBookingView(ctx context.Context, id primitive.ObjectID) (*BookingView, error)
	ListBookingViews(ctx context.Context, p BookingPredicate, page PageSpec) ([]*BookingView, int64, error)
	UpdateBookingFields(ctx context.Context, id primitive.ObjectID, set bson.M) error
	ClaimBooking(ctx context.Context, id, contractorID primitive.ObjectID) error
	RejectBooking(ctx context.Context, id, contractorID primitive.ObjectID) error
	AssignContractor(ctx context.Context, id, contractorID primitive.ObjectID) error
	DeleteBooking(ctx context.Context, id primitive.ObjectID) error
}

func (mdb *MongodbRepo) EnsureBookingIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetName("customer_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "contractor_id", Value: 1}},
			Options: options.Index().SetName("contractor_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "service_id", Value: 1}},
			Options: options.Index().SetName("service_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_idx"),
		},
		{
			Keys:    bson.D{{Key: "rejected_by", Value: 1}},
			Options: options.Index().SetName("rejected_by_idx"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_idx"),
		},
	}

	_, err = col.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("error creating indexes: %v", err)
	}

	return nil
}

func (mdb *MongodbRepo) InsertBooking(ctx context.Context, booking *Booking) error {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if err := booking.BeforeCreate(); err != nil {
		return err
	}

	_, err = col.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("error inserting booking: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) FindBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var booking Booking
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding booking: %v", err)
	}
	return &booking, nil
}

// UpdateBookingFields sets the given fields unconditionally. Ownership and
// role checks happen in the service just before the write.
func (mdb *MongodbRepo) UpdateBookingFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	set["updated_at"] = time.Now()
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating booking: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimBooking is the single atomic conditional update for contractor
// self-assignment. The filter keys on "contractor_id is still null and the
// booking is still pending" so two racing claims can never both succeed and a
// terminal booking can never re-enter the pool; the race loser sees
// ErrConflict.
func (mdb *MongodbRepo) ClaimBooking(ctx context.Context, id, contractorID primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{
		"_id":           id,
		"contractor_id": nil,
		"status":        BookingPending,
		"rejected_by":   bson.M{"$ne": contractorID},
	}
	update := bson.M{"$set": bson.M{
		"contractor_id": contractorID,
		"status":        BookingAssigned,
		"updated_at":    time.Now(),
	}}

	err = col.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return mdb.claimFailure(ctx, col, id, contractorID)
	}
	if err != nil {
		return fmt.Errorf("error claiming booking: %v", err)
	}
	return nil
}

// claimFailure disambiguates a missed claim: the booking may be gone, already
// taken, or previously declined by this contractor.
func (mdb *MongodbRepo) claimFailure(ctx context.Context, col *mongo.Collection, id, contractorID primitive.ObjectID) error {
	var current Booking
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error re-reading booking: %v", err)
	}
	if current.ContractorID != nil {
		return fmt.Errorf("%w: booking is no longer available", ErrConflict)
	}
	if current.HasRejected(contractorID) {
		return fmt.Errorf("%w: booking was previously declined", ErrForbidden)
	}
	if current.Status != BookingPending {
		return Invalid("cannot claim a %s booking", current.Status)
	}
	return fmt.Errorf("%w: booking is no longer available", ErrConflict)
}

// RejectBooking records a contractor's refusal: the contractor joins
// rejected_by (set semantics, so repeats are no-ops there), the assignment is
// released and the booking re-enters the open pool. The conditional filter
// only matches bookings that are unassigned or assigned to this contractor.
func (mdb *MongodbRepo) RejectBooking(ctx context.Context, id, contractorID primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"contractor_id": nil},
			bson.M{"contractor_id": contractorID},
		},
	}
	update := bson.M{
		"$addToSet": bson.M{"rejected_by": contractorID},
		"$set": bson.M{
			"contractor_id": nil,
			"status":        BookingPending,
			"updated_at":    time.Now(),
		},
	}

	err = col.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		exists, checkErr := mdb.bookingExists(ctx, col, id)
		if checkErr != nil {
			return checkErr
		}
		if !exists {
			return ErrNotFound
		}
		return fmt.Errorf("%w: booking is assigned to another contractor", ErrForbidden)
	}
	if err != nil {
		return fmt.Errorf("error rejecting booking: %v", err)
	}
	return nil
}

// AssignContractor is the admin override: it forces the assignment regardless
// of current state and clears the contractor from the rejection history, so a
// booking is never simultaneously assigned to and declined by the same
// contractor.
func (mdb *MongodbRepo) AssignContractor(ctx context.Context, id, contractorID primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	update := bson.M{
		"$set": bson.M{
			"contractor_id": contractorID,
			"status":        BookingAssigned,
			"updated_at":    time.Now(),
		},
		"$pull": bson.M{"rejected_by": contractorID},
	}

	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error assigning contractor: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) DeleteBooking(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting booking: %v", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (mdb *MongodbRepo) bookingExists(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) (bool, error) {
	count, err := col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("error checking booking existence: %v", err)
	}
	return count > 0, nil
}
