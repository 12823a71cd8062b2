package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// LeadStatus is the closed set of pipeline states a lead can be in.
type LeadStatus string

const (
	StatusNew           LeadStatus = "New"
	StatusInterested    LeadStatus = "Interested"
	StatusNotInterested LeadStatus = "Not Interested"
	StatusDeal          LeadStatus = "Deal"
)

// Lead sources
const (
	SourceAcres99     = "99acres"
	SourceMagicbricks = "magicbricks"
	SourceFacebook    = "facebook"
	SourceManual      = "manual"
)

// MetaExternalQueryID is the metaData key holding the upstream identifier.
// (source, metaData.externalQueryId) is the per-tenant dedupe key.
const MetaExternalQueryID = "externalQueryId"

// Engagement is a dated note recorded against a lead by its agent.
type Engagement struct {
	ID        string    `json:"id" bson:"id"`
	Date      string    `json:"date" bson:"date"` // YYYY-MM-DD, no time component
	Type      string    `json:"type" bson:"type"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

// Meeting is a scheduled appointment backed by a Google Calendar event.
// The calendar event must exist before the meeting is persisted.
type Meeting struct {
	ID             string    `json:"id" bson:"id"`
	Title          string    `json:"title" bson:"title"`
	Date           string    `json:"date" bson:"date"` // YYYY-MM-DD
	StartTimeLabel string    `json:"start_time" bson:"start_time"` // as entered, e.g. "02:30 PM"
	EndTimeLabel   string    `json:"end_time" bson:"end_time"`
	StartDateTime  string    `json:"start_date_time" bson:"start_date_time"` // RFC3339
	EndDateTime    string    `json:"end_date_time" bson:"end_date_time"`
	TimeZone       string    `json:"time_zone" bson:"time_zone"`
	Location       string    `json:"location,omitempty" bson:"location,omitempty"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty"`
	Attendees      []string  `json:"attendees" bson:"attendees"`
	GoogleEventID  string    `json:"google_event_id" bson:"google_event_id"`
	HangoutLink    string    `json:"hangout_link,omitempty" bson:"hangout_link,omitempty"`
	Status         string    `json:"status" bson:"status"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
	CreatedBy      string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
}

// Lead is the per-tenant lead document. Engagements and meetings are embedded
// sub-lists mutated with positional array updates, never full-document writes.
type Lead struct {
	ID          bson.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	Source      string            `json:"source" bson:"source"`
	Status      LeadStatus        `json:"status" bson:"status"`
	Name        string            `json:"name,omitempty" bson:"name,omitempty"`
	Email       string            `json:"email,omitempty" bson:"email,omitempty"`
	Phone       string            `json:"phone,omitempty" bson:"phone,omitempty"`
	AssignedTo  string            `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	MetaData    map[string]string `json:"meta_data,omitempty" bson:"meta_data,omitempty"`
	Engagements []Engagement      `json:"engagements" bson:"engagements"`
	Meetings    []Meeting         `json:"meetings" bson:"meetings"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}

// ExternalQueryID returns the upstream identifier from metaData, if any.
func (l *Lead) ExternalQueryID() string {
	if l.MetaData == nil {
		return ""
	}
	return l.MetaData[MetaExternalQueryID]
}

// OwnerScope restricts a lead query to the actor's own leads. Admins see the
// whole tenant; agents only leads assigned to them.
type OwnerScope struct {
	Email string
	Admin bool
}

// AdminScope is an unrestricted scope.
var AdminScope = OwnerScope{Admin: true}

// LeadFilter holds listing parameters for the lead collection.
type LeadFilter struct {
	Scope      OwnerScope
	Status     LeadStatus
	Source     string
	AssignedTo string
	Search     string
	Page       int
	Limit      int
}
