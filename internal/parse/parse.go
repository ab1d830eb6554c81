// Package parse extracts event drafts from memo lines.
//
// The grammar is a small ordered rule set, first match wins:
//
//	<main clause> ｜ <notes>          optional trailing notes split
//	M/D <title> H:MM-H:MM            timed event
//	M/D <title>                      all-day event
//
// Lines matching neither clause shape are not events; that is the common
// case for ordinary chat lines and is never an error.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"memocal/internal/model"
)

var (
	// Notes delimiter: fullwidth or ASCII vertical bar.
	noteSplitRE = regexp.MustCompile(`\s*[｜|]\s*`)

	// Timed clause: 2/27 title 13:45-15:25. Whitespace between title and
	// time range is optional, the title is captured lazily so it cannot
	// swallow the range, and several dash characters are accepted.
	timedRE = regexp.MustCompile(`(\d+)/(\d+)\s+(.+?)\s*(\d{1,2}):(\d{2})\s*[-–—〜~]\s*(\d{1,2}):(\d{2})`)

	// Day-only clause: 2/27 title.
	dayRE = regexp.MustCompile(`(\d+)/(\d+)\s+(.+)$`)
)

// Parser turns memo lines into event drafts. Naive timestamps are placed
// in the configured civil timezone.
type Parser struct {
	loc               *time.Location
	locationFromTitle bool
}

type Option func(*Parser)

// WithLocationFromTitle enables the grammar variant that reads the first
// whitespace-delimited token of the title as the event location.
func WithLocationFromTitle() Option {
	return func(p *Parser) { p.locationFromTitle = true }
}

func New(loc *time.Location, opts ...Option) *Parser {
	if loc == nil {
		loc = time.Local
	}
	p := &Parser{loc: loc}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// guessYear resolves the always-absent year. Dates in the memo channel are
// near-future, so a month earlier than the current one means next year.
func guessYear(month int, now time.Time) int {
	if month < int(now.Month()) {
		return now.Year() + 1
	}
	return now.Year()
}

// splitMainAndNotes splits a line at the first notes delimiter. Further
// delimiters stay inside the notes text.
func splitMainAndNotes(line string) (main, notes string) {
	parts := noteSplitRE.Split(line, 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(line), ""
}

// ParseLine parses a single memo line against reference instant now.
// It returns nil when the line is not an event line.
func (p *Parser) ParseLine(line string, now time.Time) *model.EventDraft {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	// Year inference must read the civil calendar, not the host's: near
	// a month boundary the two can disagree for several hours.
	now = now.In(p.loc)

	main, notes := splitMainAndNotes(line)

	if m := timedRE.FindStringSubmatch(main); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		sh, _ := strconv.Atoi(m[4])
		sm, _ := strconv.Atoi(m[5])
		eh, _ := strconv.Atoi(m[6])
		em, _ := strconv.Atoi(m[7])

		year := guessYear(month, now)
		if !validDate(year, month, day) || sh > 23 || sm > 59 || eh > 23 || em > 59 {
			return nil
		}

		draft := model.EventDraft{
			Title: strings.TrimSpace(m[3]),
			Start: time.Date(year, time.Month(month), day, sh, sm, 0, 0, p.loc),
			End:   time.Date(year, time.Month(month), day, eh, em, 0, 0, p.loc),
			Notes: notes,
		}
		return p.finish(draft)
	}

	if m := dayRE.FindStringSubmatch(main); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])

		year := guessYear(month, now)
		if !validDate(year, month, day) {
			return nil
		}

		// All-day: both instants are midnight; the exclusive next-day
		// end is the link builder's job.
		midnight := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.loc)
		draft := model.EventDraft{
			Title:  strings.TrimSpace(m[3]),
			Start:  midnight,
			End:    midnight,
			AllDay: true,
			Notes:  notes,
		}
		return p.finish(draft)
	}

	return nil
}

func (p *Parser) finish(draft model.EventDraft) *model.EventDraft {
	if draft.Title == "" {
		return nil
	}
	if p.locationFromTitle {
		fields := strings.Fields(draft.Title)
		if len(fields) > 1 {
			draft.Location = fields[0]
			draft.Title = strings.Join(fields[1:], " ")
		}
	}
	return &draft
}

// ParseMessage parses every line of a message independently and returns
// the drafts in line order. Non-matching lines are skipped silently.
func (p *Parser) ParseMessage(text string, now time.Time) []model.EventDraft {
	var drafts []model.EventDraft
	for _, line := range strings.Split(text, "\n") {
		if draft := p.ParseLine(line, now); draft != nil {
			drafts = append(drafts, *draft)
		}
	}
	return drafts
}

// validDate rejects month/day combinations that do not exist in the
// resolved year, relying on time.Date normalization to catch e.g. 2/30.
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(t.Month()) == month && t.Day() == day
}
