package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/thenamerahulkr/cems/internal/domain"
)

type CreateEventRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.EventCategory `json:"category"`
	Date        time.Time            `json:"date"`
	Venue       string               `json:"venue"`
	Capacity    int                  `json:"capacity"`
	IsPaid      bool                 `json:"isPaid"`
	Price       float64              `json:"price"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&req.Description, validation.Required, validation.Length(1, 5000)),
		validation.Field(&req.Category, validation.Required, validation.In(domain.EventCategories...)),
		validation.Field(&req.Date, validation.Required),
		validation.Field(&req.Venue, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Capacity, validation.Min(1)),
		validation.Field(&req.Price, validation.Min(0.0)),
	)
}

func (req *CreateEventRequest) Event() domain.Event {
	return domain.Event{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Venue:       req.Venue,
		Capacity:    req.Capacity,
		IsPaid:      req.IsPaid,
		Price:       req.Price,
	}
}

// UpdateEventRequest only touches the fields that are present.
type UpdateEventRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Category    *domain.EventCategory `json:"category"`
	Date        *time.Time            `json:"date"`
	Venue       *string               `json:"venue"`
	Capacity    *int                  `json:"capacity"`
	IsPaid      *bool                 `json:"isPaid"`
	Price       *float64              `json:"price"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(3, 200)),
		validation.Field(&req.Description, validation.NilOrNotEmpty, validation.Length(1, 5000)),
		validation.Field(&req.Category, validation.NilOrNotEmpty, validation.In(domain.EventCategories...)),
		validation.Field(&req.Venue, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&req.Capacity, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&req.Price, validation.Min(0.0)),
	)
}

func (req *UpdateEventRequest) Update() domain.EventUpdate {
	return domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Venue:       req.Venue,
		Capacity:    req.Capacity,
		IsPaid:      req.IsPaid,
		Price:       req.Price,
	}
}

type EventQuery struct {
	Category domain.EventCategory `form:"category"`
	Status   domain.EventStatus   `form:"status"`
	Search   string               `form:"search"`
}

func (q *EventQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Category, validation.In(domain.EventCategories...)),
		validation.Field(&q.Status, validation.In(domain.EventStatusPending, domain.EventStatusApproved, domain.EventStatusRejected)),
		validation.Field(&q.Search, validation.Length(0, 100)),
	)
}

func (q *EventQuery) Filter() domain.EventFilter {
	return domain.EventFilter{
		Category: q.Category,
		Status:   q.Status,
		Search:   q.Search,
	}
}
