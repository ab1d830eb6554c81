package gcal

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"memocal/internal/model"
)

var jst = time.FixedZone("JST", 9*60*60)

func mustParseQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		t.Fatalf("invalid query in %q: %v", raw, err)
	}
	return q
}

func TestEventURL_AllDay(t *testing.T) {
	b := NewBuilder(jst)
	d := model.EventDraft{
		Title:  "Dinner",
		Start:  time.Date(2025, 2, 25, 0, 0, 0, 0, jst),
		End:    time.Date(2025, 2, 25, 0, 0, 0, 0, jst),
		AllDay: true,
	}

	q := mustParseQuery(t, b.EventURL(d))
	if got := q.Get("action"); got != "TEMPLATE" {
		t.Errorf("action = %q", got)
	}
	if got := q.Get("text"); got != "Dinner" {
		t.Errorf("text = %q", got)
	}
	// Google's all-day convention: exclusive next-day end.
	if got := q.Get("dates"); got != "20250225/20250226" {
		t.Errorf("dates = %q, want 20250225/20250226", got)
	}
}

func TestEventURL_Timed(t *testing.T) {
	b := NewBuilder(jst)
	d := model.EventDraft{
		Title: "Team sync",
		Start: time.Date(2025, 2, 27, 13, 45, 0, 0, jst),
		End:   time.Date(2025, 2, 27, 15, 25, 0, 0, jst),
	}

	q := mustParseQuery(t, b.EventURL(d))
	// 13:45 JST is 04:45 UTC.
	if got := q.Get("dates"); got != "20250227T044500Z/20250227T062500Z" {
		t.Errorf("dates = %q, want 20250227T044500Z/20250227T062500Z", got)
	}
}

func TestEventURL_OmitsEmptyFields(t *testing.T) {
	b := NewBuilder(jst)
	d := model.EventDraft{
		Title:  "Dinner",
		Start:  time.Date(2025, 2, 25, 0, 0, 0, 0, jst),
		End:    time.Date(2025, 2, 25, 0, 0, 0, 0, jst),
		AllDay: true,
	}

	q := mustParseQuery(t, b.EventURL(d))
	if _, ok := q["details"]; ok {
		t.Error("details present for a draft without notes")
	}
	if _, ok := q["location"]; ok {
		t.Error("location present for a draft without location")
	}

	d.Notes = "bring slides"
	d.Location = "Shibuya"
	q = mustParseQuery(t, b.EventURL(d))
	if got := q.Get("details"); got != "bring slides" {
		t.Errorf("details = %q", got)
	}
	if got := q.Get("location"); got != "Shibuya" {
		t.Errorf("location = %q", got)
	}
}

func TestICS_Timed(t *testing.T) {
	b := NewBuilder(jst)
	d := model.EventDraft{
		Title:    "Team sync",
		Location: "Shibuya",
		Start:    time.Date(2025, 2, 27, 13, 45, 0, 0, jst),
		End:      time.Date(2025, 2, 27, 15, 25, 0, 0, jst),
	}

	ics := b.ICS(d, "fixed-uid@memocal")
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:fixed-uid@memocal",
		"DTSTART:20250227T044500Z",
		"DTEND:20250227T062500Z",
		"SUMMARY:Team sync",
		"LOCATION:Shibuya",
		"END:VEVENT",
		"END:VCALENDAR",
	} {
		if !strings.Contains(ics, want) {
			t.Errorf("ICS output missing %q:\n%s", want, ics)
		}
	}
	if !strings.Contains(ics, "DTSTAMP:") {
		t.Errorf("ICS output missing DTSTAMP:\n%s", ics)
	}
}

func TestICS_AllDayAndFreshUID(t *testing.T) {
	b := NewBuilder(jst)
	d := model.EventDraft{
		Title:  "Holiday",
		Start:  time.Date(2025, 2, 25, 0, 0, 0, 0, jst),
		End:    time.Date(2025, 2, 25, 0, 0, 0, 0, jst),
		AllDay: true,
	}

	ics := b.ICS(d, "")
	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20250225") {
		t.Errorf("ICS output missing all-day DTSTART:\n%s", ics)
	}
	if !strings.Contains(ics, "DTEND;VALUE=DATE:20250226") {
		t.Errorf("ICS output missing exclusive next-day DTEND:\n%s", ics)
	}
	if !strings.Contains(ics, "@memocal") {
		t.Errorf("generated UID missing domain suffix:\n%s", ics)
	}
}
