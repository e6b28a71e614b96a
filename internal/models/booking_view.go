package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRef is the read-time projection of a user id into display fields.
type UserRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// ServiceRef is the read-time projection of a catalog service id.
type ServiceRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// BookingView is the booking as returned to callers: the stored record plus
// resolved customer/contractor/service lookups. Every read, including the
// read-after-write of a mutation, goes through this shape.
type BookingView struct {
	Booking    `bson:",inline"`
	Customer   *UserRef    `bson:"customer" json:"customer,omitempty"`
	Contractor *UserRef    `bson:"contractor" json:"contractor,omitempty"`
	Service    *ServiceRef `bson:"service" json:"service,omitempty"`
}

// bookingLookupStages joins users (customer, contractor) and services into
// the result. Unset contractor ids simply produce a nil lookup.
func bookingLookupStages() mongo.Pipeline {
	userProjection := bson.D{{Key: "$project", Value: bson.M{
		"name":  bson.M{"$concat": bson.A{"$first_name", " ", "$last_name"}},
		"email": 1,
	}}}

	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         UserColName,
			"localField":   "customer_id",
			"foreignField": "_id",
			"as":           "customer",
			"pipeline":     mongo.Pipeline{userProjection},
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         UserColName,
			"localField":   "contractor_id",
			"foreignField": "_id",
			"as":           "contractor",
			"pipeline":     mongo.Pipeline{userProjection},
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         ServiceColName,
			"localField":   "service_id",
			"foreignField": "_id",
			"as":           "service",
			"pipeline": mongo.Pipeline{
				bson.D{{Key: "$project", Value: bson.M{"name": 1}}},
			},
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"customer":   bson.M{"$first": "$customer"},
			"contractor": bson.M{"$first": "$contractor"},
			"service":    bson.M{"$first": "$service"},
		}}},
	}
}

// GetBookingView fetches a single booking with its cross-entity projection.
func (mdb *MongodbRepo) GetBookingView(ctx context.Context, id primitive.ObjectID) (*BookingView, error) {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": id}}},
	}
	pipeline = append(pipeline, bookingLookupStages()...)

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating booking: %v", err)
	}
	defer cursor.Close(ctx)

	var views []*BookingView
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("error decoding booking: %v", err)
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return views[0], nil
}

// ListBookingViews counts all matches for the predicate, then returns the
// requested page with projections resolved. The count deliberately ignores
// pagination so totalPages can be derived.
func (mdb *MongodbRepo) ListBookingViews(ctx context.Context, p BookingPredicate, page PageSpec) ([]*BookingView, int64, error) {
	col, err := mdb.GetCollection(ctx, BookingColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %v", err)
	}

	filter := p.ToBSON()

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting bookings: %v", err)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$sort", Value: page.SortDoc()}},
		bson.D{{Key: "$skip", Value: page.Skip()}},
		bson.D{{Key: "$limit", Value: page.Limit}},
	}
	pipeline = append(pipeline, bookingLookupStages()...)

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("error aggregating bookings: %v", err)
	}
	defer cursor.Close(ctx)

	views := make([]*BookingView, 0, page.Limit)
	if err := cursor.All(ctx, &views); err != nil {
		return nil, 0, fmt.Errorf("error decoding bookings: %v", err)
	}

	return views, total, nil
}
