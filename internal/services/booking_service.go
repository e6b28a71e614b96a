package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fixify/fixify-server/internal/helpers"
	"github.com/fixify/fixify-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImageUploader stores raw image references and returns stable URLs.
type ImageUploader interface {
	Upload(ctx context.Context, files []string, folder string) ([]string, error)
}

type BookingService struct {
	bookingRepo models.BookingRepo
	images      ImageUploader
}

func NewBookingService(bookingRepo models.BookingRepo, images ImageUploader) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		images:      images,
	}
}

// BookingCreate is the creation payload. CustomerID is only honored for
// admins; for customers the authenticated id always wins.
type BookingCreate struct {
	CustomerID  string         `json:"customer_id"`
	ServiceID   string         `json:"service_id"`
	Address     models.Address `json:"address"`
	IssueImages []string       `json:"issue_images"`
	Notes       string         `json:"notes"`
	BookingDate *time.Time     `json:"booking_date"`
}

// BookingUpdate carries requested changes; nil fields are untouched. Which
// fields actually apply depends on the actor's role (see Update).
type BookingUpdate struct {
	Address         *models.Address `json:"address,omitempty"`
	IssueImages     *[]string       `json:"issue_images,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	BookingDate     *time.Time      `json:"booking_date,omitempty"`
	ContractorNotes *string         `json:"contractor_notes,omitempty"`
	Status          *string         `json:"status,omitempty"`
	ContractorID    *string         `json:"contractor_id,omitempty"`
	ServiceID       *string         `json:"service_id,omitempty"`
}

func (u BookingUpdate) empty() bool {
	return u.Address == nil && u.IssueImages == nil && u.Notes == nil &&
		u.BookingDate == nil && u.ContractorNotes == nil && u.Status == nil &&
		u.ContractorID == nil && u.ServiceID == nil
}

func (bs *BookingService) Create(ctx context.Context, actor models.Actor, in BookingCreate) (*models.BookingView, error) {
	if actor.Role == models.RoleContractor {
		return nil, fmt.Errorf("%w: contractors cannot create bookings", models.ErrForbidden)
	}

	customerID := actor.ID
	if actor.Role == models.RoleAdmin {
		id, err := primitive.ObjectIDFromHex(in.CustomerID)
		if err != nil {
			return nil, models.Invalid("customer_id is required and must be valid")
		}
		customerID = id
	}

	serviceID, err := primitive.ObjectIDFromHex(in.ServiceID)
	if err != nil {
		return nil, models.Invalid("service_id is required and must be valid")
	}

	booking := &models.Booking{
		CustomerID:  customerID,
		ServiceID:   serviceID,
		Address:     in.Address,
		IssueImages: in.IssueImages,
		Notes:       in.Notes,
		BookingDate: in.BookingDate,
	}
	if err := models.Validate.Struct(booking); err != nil {
		return nil, models.Invalid("invalid booking data: %v", err)
	}

	if len(booking.IssueImages) > 0 && bs.images != nil {
		urls, err := bs.images.Upload(ctx, booking.IssueImages, helpers.IssueFolder)
		if err != nil {
			return nil, fmt.Errorf("failed to upload issue images: %v", err)
		}
		booking.IssueImages = urls
	}

	if err := bs.bookingRepo.InsertBooking(ctx, booking); err != nil {
		return nil, err
	}

	return bs.bookingRepo.GetBookingView(ctx, booking.ID)
}

// List is the general role-scoped listing: admins see everything the filters
// allow, customers their own bookings, contractors their jobs plus the open
// pool minus anything they declined.
func (bs *BookingService) List(ctx context.Context, actor models.Actor, q models.BookingQuery) ([]*models.BookingView, models.PageSpec, int64, error) {
	pred, page := models.BuildBookingPredicate(q)
	pred.ScopeToActor(actor)

	views, total, err := bs.bookingRepo.ListBookingViews(ctx, pred, page)
	return views, page, total, err
}

func (bs *BookingService) ListForCustomer(ctx context.Context, actor models.Actor, customerID primitive.ObjectID, q models.BookingQuery) ([]*models.BookingView, models.PageSpec, int64, error) {
	if actor.Role == models.RoleContractor {
		return nil, models.PageSpec{}, 0, fmt.Errorf("%w: contractors cannot view customer bookings", models.ErrForbidden)
	}
	if actor.Role == models.RoleCustomer && actor.ID != customerID {
		return nil, models.PageSpec{}, 0, fmt.Errorf("%w: cannot view another customer's bookings", models.ErrForbidden)
	}

	pred, page := models.BuildBookingPredicate(q)
	pred.CustomerID = &customerID

	views, total, err := bs.bookingRepo.ListBookingViews(ctx, pred, page)
	return views, page, total, err
}

func (bs *BookingService) ListForContractor(ctx context.Context, actor models.Actor, contractorID primitive.ObjectID, q models.BookingQuery) ([]*models.BookingView, models.PageSpec, int64, error) {
	if err := scopedContractorAccess(actor, contractorID); err != nil {
		return nil, models.PageSpec{}, 0, err
	}

	pred, page := models.BuildBookingPredicate(q)
	pred.ContractorID = &contractorID

	views, total, err := bs.bookingRepo.ListBookingViews(ctx, pred, page)
	return views, page, total, err
}

func (bs *BookingService) ListRejectedForContractor(ctx context.Context, actor models.Actor, contractorID primitive.ObjectID, q models.BookingQuery) ([]*models.BookingView, models.PageSpec, int64, error) {
	if err := scopedContractorAccess(actor, contractorID); err != nil {
		return nil, models.PageSpec{}, 0, err
	}

	pred, page := models.BuildBookingPredicate(q)
	pred.RejectedBy = &contractorID

	views, total, err := bs.bookingRepo.ListBookingViews(ctx, pred, page)
	return views, page, total, err
}

func scopedContractorAccess(actor models.Actor, contractorID primitive.ObjectID) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleContractor:
		if actor.ID != contractorID {
			return fmt.Errorf("%w: cannot view another contractor's bookings", models.ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("%w: contractor listings are not available to this role", models.ErrForbidden)
	}
}

// Get returns a single projected booking. Records outside the actor's
// visibility come back as not-found so existence is never leaked.
func (bs *BookingService) Get(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.BookingView, error) {
	view, err := bs.bookingRepo.GetBookingView(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		return view, nil
	case models.RoleCustomer:
		if !view.OwnedBy(actor.ID) {
			return nil, models.ErrNotFound
		}
		return view, nil
	case models.RoleContractor:
		if view.AssignedTo(actor.ID) || view.ContractorID == nil || view.HasRejected(actor.ID) {
			return view, nil
		}
		return nil, models.ErrNotFound
	}
	return nil, models.ErrForbidden
}

// Update validates and applies role-scoped changes, consulting one permission
// table for every caller:
//
//	customer    owner, non-terminal   address, issue_images, notes, booking_date
//	contractor  booking unassigned    claim (atomic, sets assigned + self)
//	contractor  assigned to self      status in_progress/completed/rejected, contractor_notes
//	admin       any                   any field except created_at
func (bs *BookingService) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, in BookingUpdate) (*models.BookingView, error) {
	booking, err := bs.bookingRepo.FindBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleCustomer:
		if err := bs.applyCustomerUpdate(ctx, actor, booking, in); err != nil {
			return nil, err
		}
	case models.RoleContractor:
		if err := bs.applyContractorUpdate(ctx, actor, booking, in); err != nil {
			return nil, err
		}
	case models.RoleAdmin:
		if err := bs.applyAdminUpdate(ctx, booking, in); err != nil {
			return nil, err
		}
	default:
		return nil, models.ErrForbidden
	}

	return bs.bookingRepo.GetBookingView(ctx, id)
}

func (bs *BookingService) applyCustomerUpdate(ctx context.Context, actor models.Actor, booking *models.Booking, in BookingUpdate) error {
	if !booking.OwnedBy(actor.ID) {
		return fmt.Errorf("%w: cannot update this booking", models.ErrForbidden)
	}
	if booking.Status.Terminal() {
		return models.Invalid("cannot modify a %s booking", booking.Status)
	}

	set := bson.M{}
	if in.Address != nil {
		if err := models.Validate.Struct(in.Address); err != nil {
			return models.Invalid("invalid address: %v", err)
		}
		set["address"] = *in.Address
	}
	if in.IssueImages != nil {
		images := *in.IssueImages
		if len(images) > 0 && bs.images != nil {
			urls, err := bs.images.Upload(ctx, images, helpers.IssueFolder)
			if err != nil {
				return fmt.Errorf("failed to upload issue images: %v", err)
			}
			images = urls
		}
		set["issue_images"] = images
	}
	if in.Notes != nil {
		set["notes"] = *in.Notes
	}
	if in.BookingDate != nil {
		set["booking_date"] = *in.BookingDate
	}
	if len(set) == 0 {
		return models.Invalid("no permitted fields to update")
	}

	return bs.bookingRepo.UpdateBookingFields(ctx, booking.ID, set)
}

func (bs *BookingService) applyContractorUpdate(ctx context.Context, actor models.Actor, booking *models.Booking, in BookingUpdate) error {
	if booking.ContractorID == nil {
		if booking.Status.Terminal() {
			return models.Invalid("cannot modify a %s booking", booking.Status)
		}
		// Unassigned: a contractor either declines it outright or claims it.
		if in.Status != nil && models.BookingStatus(*in.Status) == models.BookingRejected {
			return bs.bookingRepo.RejectBooking(ctx, booking.ID, actor.ID)
		}
		if booking.HasRejected(actor.ID) {
			return fmt.Errorf("%w: booking was previously declined", models.ErrForbidden)
		}
		return bs.bookingRepo.ClaimBooking(ctx, booking.ID, actor.ID)
	}

	if !booking.AssignedTo(actor.ID) {
		return fmt.Errorf("%w: not assigned to this booking", models.ErrForbidden)
	}

	set := bson.M{}
	if in.ContractorNotes != nil {
		set["contractor_notes"] = *in.ContractorNotes
	}

	if in.Status != nil {
		target := models.BookingStatus(*in.Status)
		switch target {
		case models.BookingInProgress, models.BookingCompleted:
			set["status"] = target
		case models.BookingRejected:
			if err := bs.bookingRepo.RejectBooking(ctx, booking.ID, actor.ID); err != nil {
				return err
			}
			if len(set) == 0 {
				return nil
			}
			return bs.bookingRepo.UpdateBookingFields(ctx, booking.ID, set)
		default:
			return models.Invalid("invalid status change by contractor")
		}
	}

	if len(set) == 0 {
		return models.Invalid("no permitted fields to update")
	}
	return bs.bookingRepo.UpdateBookingFields(ctx, booking.ID, set)
}

func (bs *BookingService) applyAdminUpdate(ctx context.Context, booking *models.Booking, in BookingUpdate) error {
	if in.empty() {
		return models.Invalid("no fields to update")
	}

	// An admin providing contractor_id is an assignment; route it through the
	// same atomic update so the rejection history stays consistent. An empty
	// string is a release: the assignment is cleared and the booking re-enters
	// the open pool.
	contractorID := booking.ContractorID
	if in.ContractorID != nil {
		if *in.ContractorID == "" {
			release := bson.M{"contractor_id": nil, "status": models.BookingPending}
			if err := bs.bookingRepo.UpdateBookingFields(ctx, booking.ID, release); err != nil {
				return err
			}
			contractorID = nil
		} else {
			cid, err := primitive.ObjectIDFromHex(*in.ContractorID)
			if err != nil {
				return models.Invalid("contractor_id must be a valid id")
			}
			if err := bs.bookingRepo.AssignContractor(ctx, booking.ID, cid); err != nil {
				return err
			}
			contractorID = &cid
		}
	}

	set := bson.M{}
	if in.Address != nil {
		if err := models.Validate.Struct(in.Address); err != nil {
			return models.Invalid("invalid address: %v", err)
		}
		set["address"] = *in.Address
	}
	if in.IssueImages != nil {
		set["issue_images"] = *in.IssueImages
	}
	if in.Notes != nil {
		set["notes"] = *in.Notes
	}
	if in.ContractorNotes != nil {
		set["contractor_notes"] = *in.ContractorNotes
	}
	if in.BookingDate != nil {
		set["booking_date"] = *in.BookingDate
	}
	if in.ServiceID != nil {
		sid, err := primitive.ObjectIDFromHex(*in.ServiceID)
		if err != nil {
			return models.Invalid("service_id must be a valid id")
		}
		set["service_id"] = sid
	}
	if in.Status != nil {
		target := models.BookingStatus(*in.Status)
		if !target.Valid() {
			return models.Invalid("unknown status %q", *in.Status)
		}
		if target.RequiresContractor() && contractorID == nil {
			return models.Invalid("status %s requires an assigned contractor", target)
		}
		set["status"] = target
	}

	if len(set) == 0 {
		return nil
	}
	return bs.bookingRepo.UpdateBookingFields(ctx, booking.ID, set)
}

// Cancel moves a non-terminal booking to cancelled. Owner or admin only.
func (bs *BookingService) Cancel(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.BookingView, error) {
	booking, err := bs.bookingRepo.FindBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleContractor {
		return nil, fmt.Errorf("%w: contractors cannot cancel bookings", models.ErrForbidden)
	}
	if actor.Role == models.RoleCustomer && !booking.OwnedBy(actor.ID) {
		return nil, fmt.Errorf("%w: cannot cancel this booking", models.ErrForbidden)
	}
	if booking.Status.Terminal() {
		return nil, models.Invalid("cannot cancel a %s booking", booking.Status)
	}

	set := bson.M{"status": models.BookingCancelled}
	if err := bs.bookingRepo.UpdateBookingFields(ctx, id, set); err != nil {
		return nil, err
	}
	return bs.bookingRepo.GetBookingView(ctx, id)
}

// Assign is the admin override: any booking, any contractor, any prior state.
func (bs *BookingService) Assign(ctx context.Context, actor models.Actor, id primitive.ObjectID, contractorID string) (*models.BookingView, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can assign contractors", models.ErrForbidden)
	}

	cid, err := primitive.ObjectIDFromHex(contractorID)
	if err != nil {
		return nil, models.Invalid("contractor_id must be a valid id")
	}

	if err := bs.bookingRepo.AssignContractor(ctx, id, cid); err != nil {
		return nil, err
	}
	return bs.bookingRepo.GetBookingView(ctx, id)
}

// Reject records a contractor's refusal. Contractors may only reject as
// themselves; admins may record a rejection on a contractor's behalf.
func (bs *BookingService) Reject(ctx context.Context, actor models.Actor, id primitive.ObjectID, contractorID string) (*models.BookingView, error) {
	cid, err := primitive.ObjectIDFromHex(contractorID)
	if err != nil {
		return nil, models.Invalid("contractor_id must be a valid id")
	}

	switch actor.Role {
	case models.RoleContractor:
		if actor.ID != cid {
			return nil, fmt.Errorf("%w: contractors can only reject as themselves", models.ErrForbidden)
		}
	case models.RoleAdmin:
		// allowed for any contractor id
	default:
		return nil, fmt.Errorf("%w: customers cannot reject bookings", models.ErrForbidden)
	}

	if err := bs.bookingRepo.RejectBooking(ctx, id, cid); err != nil {
		return nil, err
	}
	return bs.bookingRepo.GetBookingView(ctx, id)
}

// Delete permanently removes a booking. Admin only; there is no soft delete.
func (bs *BookingService) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins can delete bookings", models.ErrForbidden)
	}
	return bs.bookingRepo.DeleteBooking(ctx, id)
}
