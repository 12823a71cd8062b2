package models

// ErrorResponse is the JSON error body returned by every handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// LoginRequest is the credential payload for POST /auth/login. Tenant is the
// customer database name; empty selects the single-tenant default.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Tenant   string `json:"tenant"`
}

// UpdateStatusRequest carries a free-form status that is normalized against
// the alias table before validation.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EngagementRequest creates or updates an embedded engagement. CustomType,
// when present, takes precedence over Type.
type EngagementRequest struct {
	ID         string `json:"id,omitempty"`
	Date       string `json:"date" validate:"required"`
	Type       string `json:"type"`
	CustomType string `json:"custom_type"`
	Note       string `json:"note"`
}

// MeetingRequest creates a meeting from human-entered 12-hour time labels.
type MeetingRequest struct {
	Title       string   `json:"title" validate:"required"`
	Date        string   `json:"date" validate:"required"`
	StartTime   string   `json:"start_time" validate:"required"` // "HH:MM AM/PM"
	EndTime     string   `json:"end_time" validate:"required"`
	TimeZone    string   `json:"time_zone"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
}

// CreateLeadRequest is the manual-entry payload.
type CreateLeadRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	AssignedTo string `json:"assigned_to"`
}

// AssignLeadRequest routes a lead to an agent.
type AssignLeadRequest struct {
	AgentEmail string `json:"agent_email" validate:"required,email"`
}

// CalendarEventRequest is the data handed to the calendar bridge when a
// meeting is recorded.
type CalendarEventRequest struct {
	Title       string
	Description string
	Location    string
	Start       string // RFC3339
	End         string
	TimeZone    string
	Attendees   []EventAttendee
}

// EventAttendee is an invitee on a calendar event.
type EventAttendee struct {
	Email string
	Name  string
}

// CalendarEventResult is what the provider reports back for a created event.
type CalendarEventResult struct {
	EventID     string
	HangoutLink string
	Status      string
}

// PaginationInfo describes a page of results.
type PaginationInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// LeadListResponse is a paginated page of leads.
type LeadListResponse struct {
	Data       []Lead         `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}
