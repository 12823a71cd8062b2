package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/metrics"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

const userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// Service runs the Google Calendar connection flow and creates events for
// connected users. One instance serves all tenants; per-user tokens live on
// the user document.
type Service struct {
	cfg      *oauth2.Config
	stateKey string
	log      logger.Logger
}

// NewService builds the bridge from the OAuth client registration.
func NewService(clientID, clientSecret, redirectURL, stateKey string, log logger.Logger) *Service {
	return &Service{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				gcal.CalendarEventsScope,
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		stateKey: stateKey,
		log:      log,
	}
}

// AuthURL starts an authorization flow for the given user. Offline access
// plus consent prompt so Google always hands back a refresh token.
func (s *Service) AuthURL(tenant, email, returnPath string) (string, error) {
	state, err := EncodeState(s.stateKey, State{
		Tenant:     tenant,
		Email:      email,
		ReturnPath: returnPath,
	})
	if err != nil {
		return "", domain.NewInternalError(err)
	}
	return s.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// DecodeCallbackState validates the state parameter from the redirect.
func (s *Service) DecodeCallbackState(encoded string) (*State, error) {
	st, err := DecodeState(s.stateKey, encoded)
	if err != nil {
		return nil, domain.NewBadRequestError("invalid oauth state")
	}
	return st, nil
}

// HandleCallback exchanges the authorization code and stores the connection
// on the user identified by the signed state.
func (s *Service) HandleCallback(ctx context.Context, tenant domain.TenantStore, st *State, code string) error {
	if code == "" {
		return domain.NewBadRequestError("missing authorization code")
	}

	token, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		return domain.NewUpstreamError("google oauth", err)
	}
	if token.RefreshToken == "" {
		// Without a refresh token the connection dies as soon as the access
		// token expires. Treat it as a failed connect rather than storing it.
		return domain.NewUpstreamError("google oauth", fmt.Errorf("token response missing refresh token"))
	}

	googleEmail, googleName, err := s.fetchUserinfo(ctx, token)
	if err != nil {
		return err
	}

	gc := &models.GoogleCalendar{
		GoogleEmail:  googleEmail,
		GoogleName:   googleName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		ConnectedAt:  time.Now(),
	}
	if err := tenant.Users().SetGoogleCalendar(ctx, st.Email, gc); err != nil {
		return err
	}

	s.log.Info("google calendar connected",
		"tenant", tenant.Name(), "user", st.Email, "google_email", googleEmail)
	return nil
}

// Disconnect drops the stored connection and tokens.
func (s *Service) Disconnect(ctx context.Context, tenant domain.TenantStore, email string) error {
	if err := tenant.Users().SetGoogleCalendar(ctx, email, nil); err != nil {
		return err
	}
	s.log.Info("google calendar disconnected", "tenant", tenant.Name(), "user", email)
	return nil
}

// CreateEvent creates a calendar event with a Meet conference on the user's
// primary calendar. Implements the creator contract used when meetings are
// recorded; rotated tokens are persisted before the event call.
func (s *Service) CreateEvent(ctx context.Context, tenant domain.TenantStore, user *models.User, req models.CalendarEventRequest) (*models.CalendarEventResult, error) {
	if user.GoogleCal == nil {
		return nil, domain.NewBadRequestError("google calendar is not connected")
	}

	stored := &oauth2.Token{
		AccessToken:  user.GoogleCal.AccessToken,
		RefreshToken: user.GoogleCal.RefreshToken,
		Expiry:       user.GoogleCal.ExpiresAt,
	}
	ts := s.cfg.TokenSource(ctx, stored)

	fresh, err := ts.Token()
	if err != nil {
		return nil, domain.NewUpstreamError("google oauth", err)
	}
	if fresh.AccessToken != stored.AccessToken {
		if err := s.persistRotatedToken(ctx, tenant, user, fresh); err != nil {
			// The event call below still works with the in-memory token;
			// the next request re-refreshes from the stored one.
			s.log.Warn("persisting rotated token failed",
				"tenant", tenant.Name(), "user", user.Email, "error", err)
		}
	}

	srv, err := gcal.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, domain.NewUpstreamError("google calendar", err)
	}

	event := &gcal.Event{
		Summary:     req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       &gcal.EventDateTime{DateTime: req.Start, TimeZone: req.TimeZone},
		End:         &gcal.EventDateTime{DateTime: req.End, TimeZone: req.TimeZone},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	for _, a := range req.Attendees {
		event.Attendees = append(event.Attendees, &gcal.EventAttendee{
			Email:       a.Email,
			DisplayName: a.Name,
		})
	}

	created, err := srv.Events.Insert("primary", event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		metrics.CalendarEvents.WithLabelValues("failed").Inc()
		return nil, domain.NewUpstreamError("google calendar", err)
	}

	metrics.CalendarEvents.WithLabelValues("created").Inc()
	s.log.Info("calendar event created",
		"tenant", tenant.Name(), "user", user.Email, "event_id", created.Id)

	return &models.CalendarEventResult{
		EventID:     created.Id,
		HangoutLink: created.HangoutLink,
		Status:      created.Status,
	}, nil
}

func (s *Service) persistRotatedToken(ctx context.Context, tenant domain.TenantStore, user *models.User, fresh *oauth2.Token) error {
	gc := *user.GoogleCal
	gc.AccessToken = fresh.AccessToken
	gc.ExpiresAt = fresh.Expiry
	if fresh.RefreshToken != "" {
		gc.RefreshToken = fresh.RefreshToken
	}
	user.GoogleCal = &gc
	return tenant.Users().SetGoogleCalendar(ctx, user.Email, &gc)
}

func (s *Service) fetchUserinfo(ctx context.Context, token *oauth2.Token) (email, name string, err error) {
	client := s.cfg.Client(ctx, token)
	resp, err := client.Get(userinfoEndpoint)
	if err != nil {
		return "", "", domain.NewUpstreamError("google userinfo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", "", domain.NewUpstreamError("google userinfo", fmt.Errorf("status %d", resp.StatusCode))
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", domain.NewUpstreamError("google userinfo", err)
	}
	return info.Email, info.Name, nil
}
