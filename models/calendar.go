package models

// CalendarEvent mirrors the shape returned by the Google Calendar events API.
// Events are never stored locally; they are fetched fresh per request and
// passed straight through to the caller.
type CalendarEvent struct {
	ID          string          `json:"id"`
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Start       CalendarTime    `json:"start"`
	End         CalendarTime    `json:"end"`
	Attendees   []EventAttendee `json:"attendees,omitempty"`
	HangoutLink string          `json:"hangoutLink,omitempty"`
}

// CalendarTime is either a dateTime (timed event) or a date (all-day event)
type CalendarTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// EventAttendee is a single attendee on a calendar event
type EventAttendee struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// CalendarEventsResponse is the payload returned by the calendar bridge
type CalendarEventsResponse struct {
	Events []CalendarEvent `json:"events"`
}
