// Package leads owns lead mutations: status transitions, embedded
// engagement and meeting sub-lists, assignment and favorites. Every mutation
// is tenant- and ownership-scoped through the repository filter, so an agent
// touching another agent's lead sees NotFound rather than partial data.
package leads

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

const defaultTimeZone = "Asia/Kolkata"

// Service implements lead store operations over a tenant's repositories.
type Service struct {
	events domain.EventCreator
	log    logger.Logger
}

// NewService creates a lead service. events backs meeting creation and may
// be nil only in deployments without a calendar integration.
func NewService(events domain.EventCreator, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{events: events, log: log}
}

func parseLeadID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, domain.NewValidationError("invalid lead id")
	}
	return oid, nil
}

// List returns a page of leads visible to the actor.
func (s *Service) List(ctx context.Context, tenant domain.TenantStore, actor *models.User, f models.LeadFilter) (*models.LeadListResponse, error) {
	f.Scope = actor.Scope()

	// The assignee filter is admin-only. An agent's scope already pins the
	// assignee, and a caller-supplied value must never widen it to another
	// agent's leads.
	if !actor.IsAdmin() {
		f.AssignedTo = ""
	}

	if f.Status != "" {
		normalized, ok := NormalizeStatus(string(f.Status))
		if !ok {
			return nil, domain.NewValidationError("unknown status filter")
		}
		f.Status = normalized
	}

	leads, total, err := tenant.Leads().List(ctx, f)
	if err != nil {
		return nil, err
	}

	for i := range leads {
		sortEngagements(leads[i].Engagements)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return &models.LeadListResponse{
		Data: leads,
		Pagination: models.PaginationInfo{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	}, nil
}

// Get returns one lead visible to the actor.
func (s *Service) Get(ctx context.Context, tenant domain.TenantStore, actor *models.User, leadID string) (*models.Lead, error) {
	oid, err := parseLeadID(leadID)
	if err != nil {
		return nil, err
	}

	lead, err := tenant.Leads().FindByID(ctx, oid, actor.Scope())
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, domain.NewNotFoundError("lead")
	}

	sortEngagements(lead.Engagements)
	return lead, nil
}

// Create records a manually entered lead.
func (s *Service) Create(ctx context.Context, tenant domain.TenantStore, actor *models.User, req models.CreateLeadRequest) (*models.Lead, error) {
	assignedTo := strings.ToLower(strings.TrimSpace(req.AssignedTo))
	if assignedTo == "" || !actor.IsAdmin() {
		assignedTo = actor.Email
	}

	lead := &models.Lead{
		Source:     models.SourceManual,
		Status:     models.StatusNew,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      strings.TrimSpace(req.Phone),
		AssignedTo: assignedTo,
	}

	if err := tenant.Leads().Insert(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// UpdateStatus normalizes the requested status through the alias table and
// applies it within the actor's scope.
func (s *Service) UpdateStatus(ctx context.Context, tenant domain.TenantStore, actor *models.User, leadID, rawStatus string) (models.LeadStatus, error) {
	oid, err := parseLeadID(leadID)
	if err != nil {
		return "", err
	}

	status, ok := NormalizeStatus(rawStatus)
	if !ok {
		return "", domain.NewValidationError("invalid status value")
	}

	matched, err := tenant.Leads().SetStatus(ctx, oid, actor.Scope(), status)
	if err != nil {
		return "", err
	}
	if matched == 0 {
		return "", domain.NewNotFoundError("lead")
	}
	return status, nil
}

// resolveEngagementType picks the explicit custom type over the selected one.
func resolveEngagementType(req models.EngagementRequest) (string, error) {
	if t := strings.TrimSpace(req.CustomType); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(req.Type); t != "" {
		return t, nil
	}
	return "", domain.NewValidationError("engagement type is required")
}

// UpsertEngagement creates or updates an embedded engagement and returns the
// full engagement list, re-sorted most recent first.
func (s *Service) UpsertEngagement(ctx context.Context, tenant domain.TenantStore, actor *models.User, leadID string, req models.EngagementRequest) ([]models.Engagement, error) {
	oid, err := parseLeadID(leadID)
	if err != nil {
		return nil, err
	}

	if !ValidDate(req.Date) {
		return nil, domain.NewValidationError("engagement date must be a valid YYYY-MM-DD date")
	}

	engType, err := resolveEngagementType(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	repo := tenant.Leads()
	scope := actor.Scope()

	var lead *models.Lead
	var engagementID string

	if req.ID == "" {
		engagementID = uuid.NewString()
		e := models.Engagement{
			ID:        engagementID,
			Date:      req.Date,
			Type:      engType,
			Note:      req.Note,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: actor.Email,
			UpdatedBy: actor.Email,
		}
		lead, err = repo.AppendEngagement(ctx, oid, scope, e)
	} else {
		engagementID = req.ID
		e := models.Engagement{
			ID:        engagementID,
			Date:      req.Date,
			Type:      engType,
			Note:      req.Note,
			UpdatedAt: now,
			UpdatedBy: actor.Email,
		}
		lead, err = repo.UpdateEngagement(ctx, oid, scope, e)
	}
	if err != nil {
		return nil, err
	}

	// The find-and-update round trip can report no document even though the
	// write landed. Re-read and trust the post-state over the call's return.
	if lead == nil {
		lead, err = repo.FindByID(ctx, oid, scope)
		if err != nil {
			return nil, err
		}
		if lead == nil || !hasEngagement(lead.Engagements, engagementID) {
			return nil, domain.NewNotFoundError("lead")
		}
	}

	sortEngagements(lead.Engagements)
	return lead.Engagements, nil
}

// DeleteEngagement removes an embedded engagement and returns the remaining
// list, re-sorted.
func (s *Service) DeleteEngagement(ctx context.Context, tenant domain.TenantStore, actor *models.User, leadID, engagementID string) ([]models.Engagement, error) {
	oid, err := parseLeadID(leadID)
	if err != nil {
		return nil, err
	}
	if engagementID == "" {
		return nil, domain.NewValidationError("engagement id is required")
	}

	repo := tenant.Leads()
	scope := actor.Scope()

	lead, err := repo.RemoveEngagement(ctx, oid, scope, engagementID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		lead, err = repo.FindByID(ctx, oid, scope)
		if err != nil {
			return nil, err
		}
		if lead == nil || hasEngagement(lead.Engagements, engagementID) {
			return nil, domain.NewNotFoundError("lead")
		}
	}

	sortEngagements(lead.Engagements)
	return lead.Engagements, nil
}

// RecordMeeting validates the meeting window, creates the backing calendar
// event, and only then appends the meeting sub-document. A calendar failure
// aborts the whole operation so no meeting exists without a backing event.
func (s *Service) RecordMeeting(ctx context.Context, tenant domain.TenantStore, actor *models.User, leadID string, req models.MeetingRequest) (*models.Meeting, error) {
	oid, err := parseLeadID(leadID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.NewValidationError("meeting title is required")
	}
	if !ValidDate(req.Date) {
		return nil, domain.NewValidationError("meeting date must be a valid YYYY-MM-DD date")
	}

	start24, err := To24Hour(req.StartTime)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	end24, err := To24Hour(req.EndTime)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if start24 >= end24 {
		return nil, domain.NewValidationError("meeting start time must be before end time")
	}

	tz := req.TimeZone
	if tz == "" {
		tz = defaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, domain.NewValidationError("unknown time zone")
	}

	startAt, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+start24, loc)
	if err != nil {
		return nil, domain.NewValidationError("invalid meeting date/time")
	}
	endAt, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+end24, loc)
	if err != nil {
		return nil, domain.NewValidationError("invalid meeting date/time")
	}

	repo := tenant.Leads()
	scope := actor.Scope()

	lead, err := repo.FindByID(ctx, oid, scope)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, domain.NewNotFoundError("lead")
	}

	attendees := buildAttendees(actor, lead, req.Attendees)

	if s.events == nil {
		return nil, domain.NewUpstreamError("calendar", nil)
	}

	result, err := s.events.CreateEvent(ctx, tenant, actor, models.CalendarEventRequest{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       startAt.Format(time.RFC3339),
		End:         endAt.Format(time.RFC3339),
		TimeZone:    tz,
		Attendees:   attendees,
	})
	if err != nil {
		return nil, err
	}
	if result == nil || result.EventID == "" {
		// No event on the provider side means no local meeting either.
		return nil, domain.NewUpstreamError("calendar", nil)
	}

	now := time.Now().UTC()
	meeting := models.Meeting{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		Date:           req.Date,
		StartTimeLabel: strings.ToUpper(strings.TrimSpace(req.StartTime)),
		EndTimeLabel:   strings.ToUpper(strings.TrimSpace(req.EndTime)),
		StartDateTime:  startAt.Format(time.RFC3339),
		EndDateTime:    endAt.Format(time.RFC3339),
		TimeZone:       tz,
		Location:       req.Location,
		Description:    req.Description,
		Attendees:      attendeeEmails(attendees),
		GoogleEventID:  result.EventID,
		HangoutLink:    result.HangoutLink,
		Status:         result.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      actor.Email,
	}

	updated, err := repo.AppendMeeting(ctx, oid, scope, meeting)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Verify by re-read before declaring failure.
		updated, err = repo.FindByID(ctx, oid, scope)
		if err != nil {
			return nil, err
		}
		if updated == nil || !hasMeeting(updated.Meetings, meeting.ID) {
			return nil, domain.NewNotFoundError("lead")
		}
	}

	return &meeting, nil
}

// ToggleFavorite flips the actor's favorite mark on a lead they can see.
func (s *Service) ToggleFavorite(ctx context.Context, tenant domain.TenantStore, actor *models.User, leadID string) (bool, error) {
	oid, err := parseLeadID(leadID)
	if err != nil {
		return false, err
	}

	lead, err := tenant.Leads().FindByID(ctx, oid, actor.Scope())
	if err != nil {
		return false, err
	}
	if lead == nil {
		return false, domain.NewNotFoundError("lead")
	}

	return tenant.Users().ToggleFavorite(ctx, actor.Email, oid)
}

// Assign routes a lead to an agent. Admin only; the target must be a known
// agent in the tenant.
func (s *Service) Assign(ctx context.Context, tenant domain.TenantStore, actor *models.User, leadID, agentEmail string) error {
	if !actor.IsAdmin() {
		return domain.NewForbiddenError("only admins can assign leads")
	}

	oid, err := parseLeadID(leadID)
	if err != nil {
		return err
	}

	agentEmail = strings.ToLower(strings.TrimSpace(agentEmail))
	agent, err := tenant.Users().FindByEmail(ctx, agentEmail)
	if err != nil {
		return err
	}
	if agent == nil {
		return domain.NewNotFoundError("agent")
	}

	matched, err := tenant.Leads().Assign(ctx, oid, agentEmail)
	if err != nil {
		return err
	}
	if matched == 0 {
		return domain.NewNotFoundError("lead")
	}
	return nil
}

// sortEngagements orders a list descending by (date, updatedAt): most recent
// day first, ties broken by last update.
func sortEngagements(engagements []models.Engagement) {
	sort.SliceStable(engagements, func(i, j int) bool {
		if engagements[i].Date != engagements[j].Date {
			return engagements[i].Date > engagements[j].Date
		}
		return engagements[i].UpdatedAt.After(engagements[j].UpdatedAt)
	})
}

func hasEngagement(engagements []models.Engagement, id string) bool {
	for _, e := range engagements {
		if e.ID == id {
			return true
		}
	}
	return false
}

func hasMeeting(meetings []models.Meeting, id string) bool {
	for _, m := range meetings {
		if m.ID == id {
			return true
		}
	}
	return false
}

// buildAttendees collects the agent, the lead, and any extra invitees,
// deduplicated by lower-cased email, with the lead's display name attached.
func buildAttendees(actor *models.User, lead *models.Lead, extra []string) []models.EventAttendee {
	seen := map[string]bool{}
	attendees := []models.EventAttendee{}

	add := func(email, name string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		attendees = append(attendees, models.EventAttendee{Email: email, Name: name})
	}

	add(actor.Email, actor.Name)
	add(lead.Email, lead.Name)
	for _, e := range extra {
		add(e, "")
	}
	return attendees
}

func attendeeEmails(attendees []models.EventAttendee) []string {
	emails := make([]string, 0, len(attendees))
	for _, a := range attendees {
		emails = append(emails, a.Email)
	}
	return emails
}
