// Package calendar exchanges a Google service-account key for a short-lived
// OAuth access token and lists upcoming calendar events filtered by attendee
// email. No state is kept between calls; every request performs a fresh
// token exchange.
package calendar

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mindsell/tutor-portal-api/models"
)

const (
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultEventsURL = "https://www.googleapis.com/calendar/v3/calendars"

	readonlyScope = "https://www.googleapis.com/auth/calendar.readonly"
	grantType     = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionTTL = time.Hour
	maxResults   = 50
)

// ErrMissingEmail is returned before any network call when the attendee
// email is empty.
var ErrMissingEmail = errors.New("missing attendee email")

// ConfigError wraps a service-account key or signing failure
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("calendar config: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// UpstreamError carries the raw provider response body so callers can surface
// it for diagnosis.
type UpstreamError struct {
	Op         string // "token" or "events"
	StatusCode int
	Body       []byte
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar %s request: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("calendar %s request failed with status %d", e.Op, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Config holds the service-account credential and endpoint overrides.
// PrivateKey is the PEM-encoded RSA key; literal "\n" escapes (the usual
// env-var convention for multiline keys) are normalized before parsing.
type Config struct {
	ClientEmail string
	PrivateKey  string
	CalendarID  string

	TokenURL   string
	EventsURL  string
	HTTPClient *http.Client
}

// Service is the calendar bridge. Safe for concurrent use.
type Service struct {
	clientEmail string
	calendarID  string
	tokenURL    string
	eventsURL   string
	client      *http.Client
	key         *rsa.PrivateKey
	keyErr      error

	// now is swapped out in tests
	now func() time.Time
}

// New builds a Service from the given config. An unparseable key is not
// fatal here; it surfaces as a ConfigError on first use so a missing
// credential doesn't prevent the rest of the API from serving.
func New(cfg Config) *Service {
	s := &Service{
		clientEmail: cfg.ClientEmail,
		calendarID:  cfg.CalendarID,
		tokenURL:    cfg.TokenURL,
		eventsURL:   cfg.EventsURL,
		client:      cfg.HTTPClient,
		now:         time.Now,
	}
	if s.tokenURL == "" {
		s.tokenURL = defaultTokenURL
	}
	if s.eventsURL == "" {
		s.eventsURL = defaultEventsURL
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}

	pem := strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		s.keyErr = err
	}
	s.key = key
	return s
}

type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// assertion builds the signed RS256 JWT identifying the service account,
// valid from now for one hour.
func (s *Service) assertion() (string, error) {
	if s.keyErr != nil {
		return "", &ConfigError{Err: s.keyErr}
	}
	now := s.now()
	claims := assertionClaims{
		Scope: readonlyScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.clientEmail,
			Audience:  jwt.ClaimStrings{s.tokenURL},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", &ConfigError{Err: err}
	}
	return signed, nil
}

// exchangeToken trades the assertion for a bearer access token. A response
// without an access_token field is an upstream failure and the raw body is
// attached to the error.
func (s *Service) exchangeToken(ctx context.Context, assertion string) (string, error) {
	form := url.Values{
		"grant_type": {grantType},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &UpstreamError{Op: "token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &UpstreamError{Op: "token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Op: "token", StatusCode: resp.StatusCode, Err: err}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	_ = json.Unmarshal(body, &tokenResp)
	if tokenResp.AccessToken == "" {
		return "", &UpstreamError{Op: "token", StatusCode: resp.StatusCode, Body: body}
	}
	return tokenResp.AccessToken, nil
}

// listEvents fetches upcoming events: start time >= now, single occurrences
// expanded, ordered by start time, capped at 50 results.
func (s *Service) listEvents(ctx context.Context, accessToken string) ([]models.CalendarEvent, error) {
	q := url.Values{
		"timeMin":      {s.now().UTC().Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {fmt.Sprint(maxResults)},
	}
	eventsURL := fmt.Sprintf("%s/%s/events?%s", s.eventsURL, url.PathEscape(s.calendarID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eventsURL, nil)
	if err != nil {
		return nil, &UpstreamError{Op: "events", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "events", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "events", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Op: "events", StatusCode: resp.StatusCode, Body: body}
	}

	var eventsResp struct {
		Items []models.CalendarEvent `json:"items"`
	}
	if err := json.Unmarshal(body, &eventsResp); err != nil {
		return nil, &UpstreamError{Op: "events", StatusCode: resp.StatusCode, Body: body, Err: err}
	}
	return eventsResp.Items, nil
}

// UpcomingEvents returns the upcoming events on the configured calendar that
// list the given email as an attendee. Provider ordering is preserved.
func (s *Service) UpcomingEvents(ctx context.Context, email string) ([]models.CalendarEvent, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}

	assertion, err := s.assertion()
	if err != nil {
		return nil, err
	}

	accessToken, err := s.exchangeToken(ctx, assertion)
	if err != nil {
		return nil, err
	}

	events, err := s.listEvents(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return FilterByAttendee(events, email), nil
}

// FilterByAttendee keeps only events whose attendee list contains an attendee
// with the given email (case-insensitive exact match). Idempotent.
func FilterByAttendee(events []models.CalendarEvent, email string) []models.CalendarEvent {
	filtered := []models.CalendarEvent{}
	for _, e := range events {
		for _, a := range e.Attendees {
			if strings.EqualFold(a.Email, email) {
				filtered = append(filtered, e)
				break
			}
		}
	}
	return filtered
}
