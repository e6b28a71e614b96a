package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixify/fixify-server/internal/models"
)

// fakeBookingRepo is an in-memory BookingRepo with the same conditional-update
// semantics as the Mongo implementation, guarded by a mutex so claim races can
// be exercised with real goroutines.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[primitive.ObjectID]*models.Booking)}
}

func (f *fakeBookingRepo) EnsureBookingIndexes(ctx context.Context) error { return nil }

func (f *fakeBookingRepo) InsertBooking(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := booking.BeforeCreate(); err != nil {
		return err
	}
	cp := *booking
	f.bookings[booking.ID] = &cp
	return nil
}

func (f *fakeBookingRepo) FindBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingRepo) GetBookingView(ctx context.Context, id primitive.ObjectID) (*models.BookingView, error) {
	b, err := f.FindBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.BookingView{Booking: *b}, nil
}

func (f *fakeBookingRepo) ListBookingViews(ctx context.Context, p models.BookingPredicate, page models.PageSpec) ([]*models.BookingView, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var views []*models.BookingView
	for _, b := range f.bookings {
		if matchesPredicate(p, b) {
			cp := *b
			views = append(views, &models.BookingView{Booking: cp})
		}
	}
	total := int64(len(views))

	skip := page.Skip()
	if skip >= total {
		return nil, total, nil
	}
	views = views[skip:]
	if int64(len(views)) > page.Limit {
		views = views[:page.Limit]
	}
	return views, total, nil
}

func matchesPredicate(p models.BookingPredicate, b *models.Booking) bool {
	if p.Status != "" && b.Status != p.Status {
		return false
	}
	if p.ServiceID != nil && b.ServiceID != *p.ServiceID {
		return false
	}
	if p.CustomerID != nil && b.CustomerID != *p.CustomerID {
		return false
	}
	if p.ContractorID != nil && !b.AssignedTo(*p.ContractorID) {
		return false
	}
	if p.CreatedFrom != nil && b.CreatedAt.Before(*p.CreatedFrom) {
		return false
	}
	if p.CreatedTo != nil && b.CreatedAt.After(*p.CreatedTo) {
		return false
	}
	if p.RejectedBy != nil && !b.HasRejected(*p.RejectedBy) {
		return false
	}
	if p.Rejected != nil && *p.Rejected != (len(b.RejectedBy) > 0) {
		return false
	}
	if p.OpenPoolFor != nil {
		me := *p.OpenPoolFor
		if !b.AssignedTo(me) && b.ContractorID != nil {
			return false
		}
		if b.HasRejected(me) {
			return false
		}
	}
	return true
}

func (f *fakeBookingRepo) UpdateBookingFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return models.ErrNotFound
	}
	for key, value := range set {
		switch key {
		case "status":
			b.Status = value.(models.BookingStatus)
		case "notes":
			b.Notes = value.(string)
		case "contractor_notes":
			b.ContractorNotes = value.(string)
		case "address":
			b.Address = value.(models.Address)
		case "issue_images":
			b.IssueImages = value.([]string)
		case "booking_date":
			d := value.(time.Time)
			b.BookingDate = &d
		case "service_id":
			b.ServiceID = value.(primitive.ObjectID)
		case "contractor_id":
			if value == nil {
				b.ContractorID = nil
			} else {
				cid := value.(primitive.ObjectID)
				b.ContractorID = &cid
			}
		}
	}
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookingRepo) ClaimBooking(ctx context.Context, id, contractorID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return models.ErrNotFound
	}
	if b.HasRejected(contractorID) {
		return models.ErrForbidden
	}
	if b.ContractorID != nil {
		return models.ErrConflict
	}
	if b.Status != models.BookingPending {
		return models.Invalid("cannot claim a %s booking", b.Status)
	}
	cid := contractorID
	b.ContractorID = &cid
	b.Status = models.BookingAssigned
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookingRepo) RejectBooking(ctx context.Context, id, contractorID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return models.ErrNotFound
	}
	if b.ContractorID != nil && *b.ContractorID != contractorID {
		return models.ErrForbidden
	}
	if !b.HasRejected(contractorID) {
		b.RejectedBy = append(b.RejectedBy, contractorID)
	}
	b.ContractorID = nil
	b.Status = models.BookingPending
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookingRepo) AssignContractor(ctx context.Context, id, contractorID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return models.ErrNotFound
	}
	cid := contractorID
	b.ContractorID = &cid
	b.Status = models.BookingAssigned
	var kept []primitive.ObjectID
	for _, r := range b.RejectedBy {
		if r != contractorID {
			kept = append(kept, r)
		}
	}
	b.RejectedBy = kept
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookingRepo) DeleteBooking(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

var _ models.BookingRepo = (*fakeBookingRepo)(nil)

func testAddress() models.Address {
	return models.Address{Line1: "12 Oak Street", City: "Accra", PostalCode: "GA-145"}
}

func seedBooking(t *testing.T, repo *fakeBookingRepo, customerID primitive.ObjectID) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		CustomerID: customerID,
		ServiceID:  primitive.NewObjectID(),
		Address:    testAddress(),
	}
	require.NoError(t, repo.InsertBooking(context.Background(), booking))
	return booking
}

func strPtr(s string) *string { return &s }

func TestCreateBookingByCustomer(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	customer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}

	view, err := svc.Create(context.Background(), customer, BookingCreate{
		ServiceID: primitive.NewObjectID().Hex(),
		Address:   testAddress(),
		Notes:     "leaking kitchen sink",
	})
	require.NoError(t, err)

	assert.Equal(t, customer.ID, view.CustomerID)
	assert.Equal(t, models.BookingPending, view.Status)
	assert.Nil(t, view.ContractorID)
	assert.Empty(t, view.RejectedBy)
}

func TestCreateBookingByContractorForbidden(t *testing.T) {
	svc := NewBookingService(newFakeBookingRepo(), nil)
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Create(context.Background(), contractor, BookingCreate{
		ServiceID: primitive.NewObjectID().Hex(),
		Address:   testAddress(),
	})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCreateBookingByAdminRequiresCustomer(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, BookingCreate{
		ServiceID: primitive.NewObjectID().Hex(),
		Address:   testAddress(),
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	customerID := primitive.NewObjectID()
	view, err := svc.Create(context.Background(), admin, BookingCreate{
		CustomerID: customerID.Hex(),
		ServiceID:  primitive.NewObjectID().Hex(),
		Address:    testAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, customerID, view.CustomerID)
}

func TestCreateBookingInvalidAddress(t *testing.T) {
	svc := NewBookingService(newFakeBookingRepo(), nil)
	customer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}

	_, err := svc.Create(context.Background(), customer, BookingCreate{
		ServiceID: primitive.NewObjectID().Hex(),
		Address:   models.Address{Line1: "12 Oak Street"},
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestContractorClaimsUnassignedBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	view, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
	require.NoError(t, err)

	assert.Equal(t, models.BookingAssigned, view.Status)
	require.NotNil(t, view.ContractorID)
	assert.Equal(t, contractor.ID, *view.ContractorID)
}

func TestClaimRaceHasOneWinner(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())

	const contenders = 8
	errs := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
			_, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			// Losers see either the conflict from the atomic claim or a
			// forbidden from re-reading the now-assigned booking.
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, contenders-1, losses)

	stored, err := repo.FindBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingAssigned, stored.Status)
	require.NotNil(t, stored.ContractorID)
}

func TestContractorCannotClaimCancelledBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	owner := models.Actor{ID: booking.CustomerID, Role: models.RoleCustomer}
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Cancel(context.Background(), owner, booking.ID)
	require.NoError(t, err)

	// A cancelled booking keeps contractor_id null but must stay out of the
	// pool: claiming it would resurrect it as assigned.
	_, err = svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
	assert.ErrorIs(t, err, models.ErrValidation)

	stored, err := repo.FindBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, stored.Status)
	assert.Nil(t, stored.ContractorID)
}

func TestContractorCannotClaimAfterRejecting(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Reject(context.Background(), contractor, booking.ID, contractor.ID.Hex())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestContractorUpdateOnForeignBookingForbidden(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())

	assigned := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	_, err := svc.Update(context.Background(), assigned, booking.ID, BookingUpdate{})
	require.NoError(t, err)

	other := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	status := string(models.BookingInProgress)
	_, err = svc.Update(context.Background(), other, booking.ID, BookingUpdate{Status: &status})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestContractorProgressAndNotes(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
	require.NoError(t, err)

	status := string(models.BookingInProgress)
	view, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{
		Status:          &status,
		ContractorNotes: strPtr("replacing the trap"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingInProgress, view.Status)
	assert.Equal(t, "replacing the trap", view.ContractorNotes)

	done := string(models.BookingCompleted)
	view, err = svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, view.Status)
}

func TestContractorCannotSetArbitraryStatus(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
	require.NoError(t, err)

	status := string(models.BookingCancelled)
	_, err = svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{Status: &status})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRejectReturnsBookingToPool(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
	require.NoError(t, err)

	status := string(models.BookingRejected)
	view, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, view.Status)
	assert.Nil(t, view.ContractorID)
	assert.True(t, view.HasRejected(contractor.ID))

	// Repeating the rejection does not duplicate the history entry.
	_, err = svc.Reject(context.Background(), contractor, booking.ID, contractor.ID.Hex())
	require.NoError(t, err)
	stored, err := repo.FindBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Len(t, stored.RejectedBy, 1)
}

func TestContractorDeclinesUnassignedBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	status := string(models.BookingRejected)
	view, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, view.Status)
	assert.Nil(t, view.ContractorID)
	assert.True(t, view.HasRejected(contractor.ID))
}

func TestRejectPermissions(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())

	customer := models.Actor{ID: booking.CustomerID, Role: models.RoleCustomer}
	_, err := svc.Reject(context.Background(), customer, booking.ID, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrForbidden)

	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	_, err = svc.Reject(context.Background(), contractor, booking.ID, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrForbidden)

	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	onBehalfOf := primitive.NewObjectID()
	view, err := svc.Reject(context.Background(), admin, booking.ID, onBehalfOf.Hex())
	require.NoError(t, err)
	assert.True(t, view.HasRejected(onBehalfOf))
}

func TestRejectedContractorExcludedFromListing(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	open := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Reject(context.Background(), contractor, booking.ID, contractor.ID.Hex())
	require.NoError(t, err)

	views, _, total, err := svc.List(context.Background(), contractor, models.BookingQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, open.ID, views[0].ID)

	rejected, _, _, err := svc.ListRejectedForContractor(context.Background(), contractor, contractor.ID, models.BookingQuery{})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, booking.ID, rejected[0].ID)
}

func TestCustomerUpdateOwnBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	owner := models.Actor{ID: booking.CustomerID, Role: models.RoleCustomer}

	when := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	view, err := svc.Update(context.Background(), owner, booking.ID, BookingUpdate{
		Notes:       strPtr("gate code is 4412"),
		BookingDate: &when,
	})
	require.NoError(t, err)
	assert.Equal(t, "gate code is 4412", view.Notes)
	require.NotNil(t, view.BookingDate)
	assert.True(t, view.BookingDate.Equal(when))
}

func TestCustomerUpdateRestrictedFieldsIgnored(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	owner := models.Actor{ID: booking.CustomerID, Role: models.RoleCustomer}

	// Only privileged fields supplied, nothing a customer may touch.
	status := string(models.BookingCompleted)
	_, err := svc.Update(context.Background(), owner, booking.ID, BookingUpdate{Status: &status})
	assert.ErrorIs(t, err, models.ErrValidation)

	stored, err := repo.FindBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)
}

func TestCustomerCannotUpdateForeignBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	stranger := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}

	_, err := svc.Update(context.Background(), stranger, booking.ID, BookingUpdate{Notes: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestTerminalBookingRejectsChanges(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	owner := models.Actor{ID: booking.CustomerID, Role: models.RoleCustomer}

	_, err := svc.Cancel(context.Background(), owner, booking.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), owner, booking.ID, BookingUpdate{Notes: strPtr("too late")})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Cancel(context.Background(), owner, booking.ID)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCancelPermissions(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())

	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	_, err := svc.Cancel(context.Background(), contractor, booking.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	stranger := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	_, err = svc.Cancel(context.Background(), stranger, booking.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	view, err := svc.Cancel(context.Background(), admin, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, view.Status)
}

func TestAdminAssignClearsRejection(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	_, err := svc.Reject(context.Background(), contractor, booking.ID, contractor.ID.Hex())
	require.NoError(t, err)

	view, err := svc.Assign(context.Background(), admin, booking.ID, contractor.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, models.BookingAssigned, view.Status)
	require.NotNil(t, view.ContractorID)
	assert.Equal(t, contractor.ID, *view.ContractorID)
	assert.False(t, view.HasRejected(contractor.ID))
}

func TestAssignRequiresAdmin(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}

	_, err := svc.Assign(context.Background(), contractor, booking.ID, contractor.ID.Hex())
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestAdminReleasesContractor(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	_, err := svc.Update(context.Background(), contractor, booking.ID, BookingUpdate{})
	require.NoError(t, err)

	// Empty contractor_id releases the assignment back to the pool.
	empty := ""
	view, err := svc.Update(context.Background(), admin, booking.ID, BookingUpdate{ContractorID: &empty})
	require.NoError(t, err)

	assert.Nil(t, view.ContractorID)
	assert.Equal(t, models.BookingPending, view.Status)
	// A release is not a rejection: the contractor stays eligible.
	assert.False(t, view.HasRejected(contractor.ID))

	// Releasing while also asking for a contractor-requiring status fails.
	status := string(models.BookingInProgress)
	_, err = svc.Update(context.Background(), admin, booking.ID, BookingUpdate{ContractorID: &empty, Status: &status})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAdminStatusRequiresContractor(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	status := string(models.BookingInProgress)
	_, err := svc.Update(context.Background(), admin, booking.ID, BookingUpdate{Status: &status})
	assert.ErrorIs(t, err, models.ErrValidation)

	cid := primitive.NewObjectID().Hex()
	view, err := svc.Update(context.Background(), admin, booking.ID, BookingUpdate{
		ContractorID: &cid,
		Status:       &status,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingInProgress, view.Status)
}

func TestGetVisibility(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())

	owner := models.Actor{ID: booking.CustomerID, Role: models.RoleCustomer}
	_, err := svc.Get(context.Background(), owner, booking.ID)
	require.NoError(t, err)

	// Another customer cannot learn the booking exists at all.
	stranger := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	_, err = svc.Get(context.Background(), stranger, booking.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Any contractor can inspect an unassigned booking.
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	_, err = svc.Get(context.Background(), contractor, booking.ID)
	require.NoError(t, err)

	// Once assigned elsewhere, it disappears for other contractors.
	winner := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	_, err = svc.Update(context.Background(), winner, booking.ID, BookingUpdate{})
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), contractor, booking.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	_, err = svc.Get(context.Background(), admin, booking.ID)
	require.NoError(t, err)
}

func TestListScoping(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)

	mine := seedBooking(t, repo, primitive.NewObjectID())
	seedBooking(t, repo, primitive.NewObjectID())

	owner := models.Actor{ID: mine.CustomerID, Role: models.RoleCustomer}
	views, page, total, err := svc.List(context.Background(), owner, models.BookingQuery{
		// Identity filters cannot widen a customer's scope.
		CustomerID: primitive.NewObjectID().Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, mine.ID, views[0].ID)
	assert.Equal(t, int64(1), page.TotalPages(total))

	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	_, _, total, err = svc.List(context.Background(), admin, models.BookingQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestScopedListingsAccess(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	contractor := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleContractor}
	otherContractor := primitive.NewObjectID()

	_, _, _, err := svc.ListForContractor(context.Background(), contractor, otherContractor, models.BookingQuery{})
	assert.ErrorIs(t, err, models.ErrForbidden)

	customer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	_, _, _, err = svc.ListForCustomer(context.Background(), customer, primitive.NewObjectID(), models.BookingQuery{})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, _, _, err = svc.ListForCustomer(context.Background(), customer, customer.ID, models.BookingQuery{})
	require.NoError(t, err)

	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	_, _, _, err = svc.ListForContractor(context.Background(), admin, otherContractor, models.BookingQuery{})
	require.NoError(t, err)
}

func TestDeleteBookingAdminOnly(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := NewBookingService(repo, nil)
	booking := seedBooking(t, repo, primitive.NewObjectID())

	owner := models.Actor{ID: booking.CustomerID, Role: models.RoleCustomer}
	err := svc.Delete(context.Background(), owner, booking.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	require.NoError(t, svc.Delete(context.Background(), admin, booking.ID))

	err = svc.Delete(context.Background(), admin, booking.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateMissingBooking(t *testing.T) {
	svc := NewBookingService(newFakeBookingRepo(), nil)
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	_, err := svc.Update(context.Background(), admin, primitive.NewObjectID(), BookingUpdate{Notes: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
