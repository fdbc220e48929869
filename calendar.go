package main

import (
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
)

const noTitlePlaceholder = "(No Title)"

// Best-effort text match for meetings held over a video link. Not
// authoritative; explicit conference metadata always wins.
var onlineKeywords = []string{"zoom", "meet.google", "teams"}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// endOfDay is 23:59:59.999999 of the same UTC day. Day windows are inclusive
// at both ends; stored data relies on this convention, so it must not change
// to midnight-of-next-day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Microsecond)
}

// normalizeEvent converts a raw calendar event into a Meeting owned by userID.
// Cancelled, unbounded, or unparseable events return false and are dropped
// silently.
func normalizeEvent(userID string, ev *calendar.Event) (*Meeting, bool) {
	if ev == nil || ev.Status == "cancelled" {
		return nil, false
	}
	if ev.Start == nil || ev.End == nil {
		return nil, false
	}
	start, ok := parseEventTime(ev.Start, false)
	if !ok {
		return nil, false
	}
	end, ok := parseEventTime(ev.End, true)
	if !ok {
		return nil, false
	}

	title := ev.Summary
	if title == "" {
		title = noTitlePlaceholder
	}

	var participants []string
	for _, att := range ev.Attendees {
		if att != nil && att.Email != "" {
			participants = append(participants, att.Email)
		}
	}

	return &Meeting{
		UserID:            userID,
		GoogleEventID:     ev.Id,
		Title:             title,
		StartTime:         start,
		EndTime:           end,
		IsOnline:          isOnlineMeeting(ev),
		OnlineMeetingLink: ev.HangoutLink,
		Location:          ev.Location,
		Summary:           ev.Description,
		Participants:      participants,
	}, true
}

// parseEventTime handles both timed bounds (RFC 3339, bare "Z" included) and
// all-day bounds (bare date). An all-day end lands on endOfDay of that date.
func parseEventTime(edt *calendar.EventDateTime, endBound bool) (time.Time, bool) {
	switch {
	case edt.DateTime != "":
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case edt.Date != "":
		d, err := time.ParseInLocation("2006-01-02", edt.Date, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		if endBound {
			return endOfDay(d), true
		}
		return d, true
	default:
		return time.Time{}, false
	}
}

func isOnlineMeeting(ev *calendar.Event) bool {
	if ev.ConferenceData != nil || ev.HangoutLink != "" {
		return true
	}
	location := strings.ToLower(ev.Location)
	description := strings.ToLower(ev.Description)
	for _, kw := range onlineKeywords {
		if strings.Contains(location, kw) || strings.Contains(description, kw) {
			return true
		}
	}
	return false
}
