package models

import "time"

// Status is the triage state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
	StatusResolved Status = "resolved"
)

// Statuses lists every valid status in triage order.
var Statuses = []Status{StatusPending, StatusReviewed, StatusResolved}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusResolved:
		return true
	}
	return false
}

const (
	AnonymousName    = "Anonim"
	PlaceholderKelas = "-"
)

// Aspirasi is a submitted suggestion or complaint.
type Aspirasi struct {
	ID            string    `json:"id"`
	Nama          string    `json:"nama"`
	Kelas         string    `json:"kelas"`
	Aspirasi      string    `json:"aspirasi"`
	Timestamp     time.Time `json:"timestamp"`
	Status        Status    `json:"status"`
	IsAnonymous   bool      `json:"isAnonymous"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	FormattedDate string    `json:"formattedDate,omitempty"`
}

// Filter narrows a submission listing. Zero values mean "no constraint".
type Filter struct {
	Search    string
	From      *time.Time
	To        *time.Time
	Status    Status
	Anonymous *bool
}

// Stats holds per-status counts. The counts come from independent queries
// and may not sum exactly under concurrent writes.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Reviewed  int `json:"reviewed"`
	Resolved  int `json:"resolved"`
	Anonymous int `json:"anonymous"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type Page struct {
	Data       []Aspirasi `json:"data"`
	Pagination Pagination `json:"pagination"`
}
