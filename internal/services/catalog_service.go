package services

import (
	"context"
	"fmt"

	"github.com/fixify/fixify-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogService manages the static service catalog. Reads are public to any
// authenticated actor; writes are admin only.
type CatalogService struct {
	serviceRepo models.ServiceRepo
}

func NewCatalogService(serviceRepo models.ServiceRepo) *CatalogService {
	return &CatalogService{
		serviceRepo: serviceRepo,
	}
}

func (cs *CatalogService) ListServices(ctx context.Context) ([]*models.Service, error) {
	return cs.serviceRepo.ListServices(ctx)
}

func (cs *CatalogService) GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	return cs.serviceRepo.GetServiceByID(ctx, id)
}

func (cs *CatalogService) CreateService(ctx context.Context, actor models.Actor, service *models.Service) (*models.Service, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can create services", models.ErrForbidden)
	}
	if err := models.Validate.Struct(service); err != nil {
		return nil, models.Invalid("invalid service data: %v", err)
	}

	if err := cs.serviceRepo.CreateService(ctx, service); err != nil {
		return nil, err
	}
	return service, nil
}

type ServiceUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	BasePrice   *float64 `json:"base_price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	IconURL     *string  `json:"icon_url,omitempty"`
}

func (cs *CatalogService) UpdateService(ctx context.Context, actor models.Actor, id primitive.ObjectID, in ServiceUpdate) (*models.Service, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can update services", models.ErrForbidden)
	}

	set := bson.M{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.BasePrice != nil {
		set["base_price"] = *in.BasePrice
	}
	if in.Category != nil {
		set["category"] = *in.Category
	}
	if in.IconURL != nil {
		set["icon_url"] = *in.IconURL
	}
	if len(set) == 0 {
		return nil, models.Invalid("no fields to update")
	}

	return cs.serviceRepo.UpdateService(ctx, id, set)
}

func (cs *CatalogService) DeleteService(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins can delete services", models.ErrForbidden)
	}
	return cs.serviceRepo.DeleteService(ctx, id)
}
