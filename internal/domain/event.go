package domain

import (
	"math"
	"time"
)

type EventCategory string

const (
	CategoryTechnical EventCategory = "Technical"
	CategoryCultural  EventCategory = "Cultural"
	CategorySports    EventCategory = "Sports"
)

var EventCategories = []interface{}{CategoryTechnical, CategoryCultural, CategorySports}

type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
)

const DefaultCapacity = 100

type Event struct {
	ID           uint          `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     EventCategory `json:"category"`
	Date         time.Time     `json:"date"`
	Venue        string        `json:"venue"`
	Capacity     int           `json:"capacity"`
	BannerURL    string        `json:"bannerUrl,omitempty"`
	OrganizerID  uint          `json:"organizerId"`
	Organizer    *UserSummary  `json:"organizer,omitempty"`
	Status       EventStatus   `json:"status"`
	IsPaid       bool          `json:"isPaid"`
	Price        float64       `json:"price"`
	Participants []uint        `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (e Event) IsApproved() bool {
	return e.Status == EventStatusApproved
}

// RequiresPayment is true only for paid events with a positive price.
func (e Event) RequiresPayment() bool {
	return e.IsPaid && e.Price > 0
}

func (e Event) IsFull() bool {
	return len(e.Participants) >= e.Capacity
}

func (e Event) HasParticipant(userID uint) bool {
	for _, id := range e.Participants {
		if id == userID {
			return true
		}
	}

	return false
}

// AmountMinor converts the price to the gateway's smallest currency unit.
func (e Event) AmountMinor() int64 {
	return int64(math.Round(e.Price * 100))
}

type EventFilter struct {
	Category EventCategory
	Status   EventStatus
	Search   string
}

// EventUpdate carries the optional fields of a partial update.
type EventUpdate struct {
	Title       *string
	Description *string
	Category    *EventCategory
	Date        *time.Time
	Venue       *string
	Capacity    *int
	IsPaid      *bool
	Price       *float64
}
