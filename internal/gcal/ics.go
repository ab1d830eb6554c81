package gcal

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"memocal/internal/model"
)

// ICS renders a draft as a single-VEVENT calendar document. An empty uid
// gets a fresh one. The library escapes text fields per RFC 5545, so
// newlines, commas and semicolons in titles survive consuming calendars.
func (b *Builder) ICS(d model.EventDraft, uid string) string {
	if uid == "" {
		uid = uuid.New().String() + "@memocal"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//memocal//JP//EN")
	cal.SetCalscale("GREGORIAN")

	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(time.Now().UTC())

	if d.AllDay {
		day := b.asCivil(d.Start)
		ev.SetAllDayStartAt(day)
		// Exclusive next-day end, same rule as the template URL.
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
	} else {
		ev.SetStartAt(b.asCivil(d.Start).UTC())
		ev.SetEndAt(b.asCivil(d.End).UTC())
	}

	ev.SetSummary(d.Title)
	if d.Location != "" {
		ev.SetLocation(d.Location)
	}
	if d.Notes != "" {
		ev.SetDescription(d.Notes)
	}

	return cal.Serialize()
}
