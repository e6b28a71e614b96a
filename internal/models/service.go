package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ServiceColName = "services"

// Service is a static catalog entry; bookings reference it by id and resolve
// its name at read time.
type Service struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" validate:"required"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	BasePrice   float64            `bson:"base_price,omitempty" json:"base_price,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	IconURL     string             `bson:"icon_url,omitempty" json:"icon_url,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

func (s *Service) BeforeCreate() error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}
