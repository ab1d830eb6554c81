// Package gcal renders an event draft as a Google Calendar template URL
// and as a single-event ICS payload.
package gcal

import (
	"net/url"
	"time"

	"memocal/internal/model"
)

const templateBase = "https://calendar.google.com/calendar/render"

const (
	stampLayout = "20060102T150405Z"
	dateLayout  = "20060102"
)

// Builder converts drafts to calendar links. Draft timestamps carry only a
// wall clock; the builder interprets them in the civil timezone and shifts
// to UTC where the target format demands it.
type Builder struct {
	loc *time.Location
}

func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	return &Builder{loc: loc}
}

// EventURL returns the "add this event" template URL for a draft.
//
// Timed drafts render dates as a UTC range with second precision. All-day
// drafts render a date-only range whose end is the exclusive next day, as
// Google's all-day convention requires. Empty location/notes are omitted
// from the query entirely.
func (b *Builder) EventURL(d model.EventDraft) string {
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", d.Title)
	if d.Notes != "" {
		params.Set("details", d.Notes)
	}
	if d.Location != "" {
		params.Set("location", d.Location)
	}

	if d.AllDay {
		start := d.Start.Format(dateLayout)
		endNext := d.Start.AddDate(0, 0, 1).Format(dateLayout)
		params.Set("dates", start+"/"+endNext)
	} else {
		params.Set("dates", b.utcStamp(d.Start)+"/"+b.utcStamp(d.End))
	}

	return templateBase + "?" + params.Encode()
}

// asCivil rebases t's wall clock into the builder's civil timezone. Drafts
// already carry that zone, but the builder does not depend on it.
func (b *Builder) asCivil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, b.loc)
}

func (b *Builder) utcStamp(t time.Time) string {
	return b.asCivil(t).UTC().Format(stampLayout)
}
