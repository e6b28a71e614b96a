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

type ServiceRepo interface {
	ListServices(ctx context.Context) ([]*Service, error)
	GetServiceByID(ctx context.Context, id primitive.ObjectID) (*Service, error)
	CreateService(ctx context.Context, service *Service) error
	UpdateService(ctx context.Context, id primitive.ObjectID, set bson.M) (*Service, error)
	DeleteService(ctx context.Context, id primitive.ObjectID) error
}

func (mdb *MongodbRepo) ListServices(ctx context.Context) ([]*Service, error) {
	col, err := mdb.GetCollection(ctx, ServiceColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding services: %v", err)
	}
	defer cursor.Close(ctx)

	var services []*Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("error decoding services: %v", err)
	}
	return services, nil
}

func (mdb *MongodbRepo) GetServiceByID(ctx context.Context, id primitive.ObjectID) (*Service, error) {
	col, err := mdb.GetCollection(ctx, ServiceColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var service Service
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&service)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding service: %v", err)
	}
	return &service, nil
}

func (mdb *MongodbRepo) CreateService(ctx context.Context, service *Service) error {
	col, err := mdb.GetCollection(ctx, ServiceColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if err := service.BeforeCreate(); err != nil {
		return err
	}

	_, err = col.InsertOne(ctx, service)
	if err != nil {
		return fmt.Errorf("error inserting service: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) UpdateService(ctx context.Context, id primitive.ObjectID, set bson.M) (*Service, error) {
	col, err := mdb.GetCollection(ctx, ServiceColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Service
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating service: %v", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) DeleteService(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, ServiceColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting service: %v", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
