package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultSort  = "-createdAt"
)

// BookingQuery is the raw, client-supplied listing filter as bound from the
// query string. It is normalized into a BookingPredicate + PageSpec in exactly
// one place (BuildBookingPredicate); handlers never assemble filters ad hoc.
type BookingQuery struct {
	Status       string `form:"status"`
	ServiceID    string `form:"serviceId"`
	ContractorID string `form:"contractorId"`
	CustomerID   string `form:"customerId"`
	Start        string `form:"start"` // YYYY-MM-DD, inclusive
	End          string `form:"end"`   // YYYY-MM-DD, inclusive (normalized to end of day)
	Rejected     string `form:"rejected"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	Sort         string `form:"sort"`
}

// BookingPredicate is the typed read-scope over booking fields. Zero/nil
// members are absent from the resulting query.
type BookingPredicate struct {
	Status       BookingStatus
	ServiceID    *primitive.ObjectID
	ContractorID *primitive.ObjectID
	CustomerID   *primitive.ObjectID
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	// Rejected filters on whether rejected_by has any entries at all.
	Rejected *bool
	// OpenPoolFor scopes the result to "assigned to this contractor OR
	// unassigned, and not previously declined by them".
	OpenPoolFor *primitive.ObjectID
	// RejectedBy restricts to bookings a specific contractor has declined.
	RejectedBy *primitive.ObjectID
}

// PageSpec is a normalized pagination + sort specification.
type PageSpec struct {
	Page  int64
	Limit int64
	Sort  string // client-facing key with optional "-" prefix, e.g. "-createdAt"
}

func (p PageSpec) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

// TotalPages is never zero so clients can always render a page-1 control.
func (p PageSpec) TotalPages(total int64) int64 {
	pages := (total + p.Limit - 1) / p.Limit
	if pages < 1 {
		return 1
	}
	return pages
}

// sortFields maps client-facing sort keys to stored field names. Keys outside
// this map are ignored and the default sort applies.
var sortFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"bookingDate": "booking_date",
	"status":      "status",
}

// SortDoc resolves the sort key to a Mongo sort document.
func (p PageSpec) SortDoc() bson.D {
	key := p.Sort
	desc := false
	if strings.HasPrefix(key, "-") {
		desc = true
		key = key[1:]
	}
	field, ok := sortFields[key]
	if !ok {
		return bson.D{{Key: "created_at", Value: -1}}
	}
	order := 1
	if desc {
		order = -1
	}
	return bson.D{{Key: field, Value: order}}
}

// BuildBookingPredicate normalizes a raw query into a typed predicate and
// pagination spec. It is pure: no side effects, same input same output.
// Identifier filters that are not valid object ids are dropped silently
// rather than surfaced as errors.
func BuildBookingPredicate(q BookingQuery) (BookingPredicate, PageSpec) {
	p := BookingPredicate{}

	if q.Status != "" {
		p.Status = BookingStatus(q.Status)
	}
	p.ServiceID = parseIDFilter(q.ServiceID)
	p.ContractorID = parseIDFilter(q.ContractorID)
	p.CustomerID = parseIDFilter(q.CustomerID)

	if q.Start != "" {
		if t, err := time.ParseInLocation("2006-01-02", q.Start, time.Local); err == nil {
			p.CreatedFrom = &t
		}
	}
	if q.End != "" {
		if t, err := time.ParseInLocation("2006-01-02", q.End, time.Local); err == nil {
			end := t.Add(24*time.Hour - time.Millisecond)
			p.CreatedTo = &end
		}
	}

	switch strings.ToLower(q.Rejected) {
	case "true":
		v := true
		p.Rejected = &v
	case "false":
		v := false
		p.Rejected = &v
	}

	return p, NormalizePage(q.Page, q.Limit, q.Sort)
}

// NormalizePage clamps pagination input to sane bounds and fills defaults.
func NormalizePage(page, limit int, sort string) PageSpec {
	spec := PageSpec{
		Page:  int64(page),
		Limit: int64(limit),
		Sort:  sort,
	}
	if spec.Page < 1 {
		spec.Page = DefaultPage
	}
	if spec.Limit < 1 {
		spec.Limit = DefaultLimit
	}
	if spec.Limit > MaxLimit {
		spec.Limit = MaxLimit
	}
	if spec.Sort == "" {
		spec.Sort = DefaultSort
	}
	return spec
}

func parseIDFilter(raw string) *primitive.ObjectID {
	if raw == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &id
}

// ScopeToActor applies the role overlay for general listings. Client-supplied
// identity filters never widen what a role is allowed to see: customers are
// pinned to their own bookings and contractors to their jobs plus the open
// pool, minus anything they already declined. Admins are unconstrained.
func (p *BookingPredicate) ScopeToActor(actor Actor) {
	switch actor.Role {
	case RoleCustomer:
		id := actor.ID
		p.CustomerID = &id
	case RoleContractor:
		id := actor.ID
		p.OpenPoolFor = &id
	}
}

// ToBSON renders the predicate as a Mongo filter document.
func (p BookingPredicate) ToBSON() bson.M {
	m := bson.M{}
	var and []bson.M

	if p.Status != "" {
		m["status"] = p.Status
	}
	if p.ServiceID != nil {
		m["service_id"] = *p.ServiceID
	}
	if p.ContractorID != nil {
		m["contractor_id"] = *p.ContractorID
	}
	if p.CustomerID != nil {
		m["customer_id"] = *p.CustomerID
	}
	if p.CreatedFrom != nil || p.CreatedTo != nil {
		rng := bson.M{}
		if p.CreatedFrom != nil {
			rng["$gte"] = *p.CreatedFrom
		}
		if p.CreatedTo != nil {
			rng["$lte"] = *p.CreatedTo
		}
		m["created_at"] = rng
	}
	if p.RejectedBy != nil {
		m["rejected_by"] = *p.RejectedBy
	}
	if p.Rejected != nil {
		if *p.Rejected {
			// Rendered into $and so it intersects with RejectedBy rather than
			// overwriting it.
			and = append(and, bson.M{"rejected_by": bson.M{"$exists": true, "$ne": bson.A{}}})
		} else {
			and = append(and, bson.M{"$or": bson.A{
				bson.M{"rejected_by": bson.M{"$exists": false}},
				bson.M{"rejected_by": bson.M{"$size": 0}},
			}})
		}
	}
	if p.OpenPoolFor != nil {
		me := *p.OpenPoolFor
		and = append(and,
			bson.M{"$or": bson.A{
				bson.M{"contractor_id": me},
				bson.M{"contractor_id": nil},
			}},
			bson.M{"rejected_by": bson.M{"$ne": me}},
		)
	}
	if len(and) > 0 {
		m["$and"] = and
	}
	return m
}
