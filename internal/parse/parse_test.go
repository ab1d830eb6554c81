package parse

import (
	"testing"
	"time"
)

var jst = time.FixedZone("JST", 9*60*60)

func refNow(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, jst)
}

func TestParseLine_Timed(t *testing.T) {
	p := New(jst)
	now := refNow(2024, 3, 1)

	draft := p.ParseLine("2/27 Team sync 13:45-15:25", now)
	if draft == nil {
		t.Fatal("ParseLine returned nil for a timed line")
	}
	if draft.Title != "Team sync" {
		t.Errorf("Title = %q, want %q", draft.Title, "Team sync")
	}
	if draft.AllDay {
		t.Error("AllDay = true, want false")
	}
	// February is behind March, so the date rolls into next year.
	want := time.Date(2025, 2, 27, 13, 45, 0, 0, jst)
	if !draft.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", draft.Start, want)
	}
	wantEnd := time.Date(2025, 2, 27, 15, 25, 0, 0, jst)
	if !draft.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", draft.End, wantEnd)
	}
}

func TestParseLine_TimedDashVariants(t *testing.T) {
	p := New(jst)
	now := refNow(2025, 2, 1)

	for _, line := range []string{
		"2/27 打ち合わせ 13:45-15:25",
		"2/27 打ち合わせ 13:45–15:25",
		"2/27 打ち合わせ 13:45—15:25",
		"2/27 打ち合わせ 13:45〜15:25",
		"2/27 打ち合わせ 13:45~15:25",
		"2/27 打ち合わせ13:45-15:25", // no space before the time range
	} {
		draft := p.ParseLine(line, now)
		if draft == nil {
			t.Errorf("ParseLine(%q) = nil, want draft", line)
			continue
		}
		if draft.Title != "打ち合わせ" {
			t.Errorf("ParseLine(%q).Title = %q", line, draft.Title)
		}
		if draft.AllDay {
			t.Errorf("ParseLine(%q).AllDay = true", line)
		}
	}
}

func TestParseLine_DayOnly(t *testing.T) {
	p := New(jst)
	now := refNow(2025, 2, 1)

	draft := p.ParseLine("2/25 Dinner", now)
	if draft == nil {
		t.Fatal("ParseLine returned nil for a day-only line")
	}
	if !draft.AllDay {
		t.Error("AllDay = false, want true")
	}
	if draft.Title != "Dinner" {
		t.Errorf("Title = %q, want %q", draft.Title, "Dinner")
	}
	midnight := time.Date(2025, 2, 25, 0, 0, 0, 0, jst)
	if !draft.Start.Equal(midnight) || !draft.End.Equal(midnight) {
		t.Errorf("Start/End = %v/%v, want both %v", draft.Start, draft.End, midnight)
	}
}

func TestGuessYear(t *testing.T) {
	tests := []struct {
		month    int
		refMonth int
		refYear  int
		want     int
	}{
		{1, 12, 2024, 2025},  // January seen in December rolls over
		{12, 12, 2024, 2024}, // same month stays
		{3, 3, 2024, 2024},
		{2, 3, 2024, 2025},
		{11, 3, 2024, 2024},
	}
	for _, tt := range tests {
		now := refNow(tt.refYear, tt.refMonth, 15)
		if got := guessYear(tt.month, now); got != tt.want {
			t.Errorf("guessYear(%d, %d/%d) = %d, want %d",
				tt.month, tt.refYear, tt.refMonth, got, tt.want)
		}
	}
}

func TestParseLine_YearInferenceUsesCivilZone(t *testing.T) {
	p := New(jst)

	// 23:00 UTC on May 31 is already June 1 in JST, so a May date on
	// the line must roll over to next year.
	now := time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC)

	draft := p.ParseLine("5/10 Offsite", now)
	if draft == nil {
		t.Fatal("ParseLine returned nil")
	}
	want := time.Date(2026, 5, 10, 0, 0, 0, 0, jst)
	if !draft.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", draft.Start, want)
	}
}

func TestParseLine_Notes(t *testing.T) {
	p := New(jst)
	now := refNow(2025, 2, 1)

	draft := p.ParseLine("2/27 会議 13:45-15:25｜持ち物: 資料", now)
	if draft == nil {
		t.Fatal("ParseLine returned nil")
	}
	if draft.Notes != "持ち物: 資料" {
		t.Errorf("Notes = %q", draft.Notes)
	}
	if draft.Title != "会議" {
		t.Errorf("Title = %q", draft.Title)
	}

	// ASCII delimiter, and later delimiters stay inside the notes.
	draft = p.ParseLine("3/1 lunch | with Bob | at noon", now)
	if draft == nil {
		t.Fatal("ParseLine returned nil")
	}
	if draft.Notes != "with Bob | at noon" {
		t.Errorf("Notes = %q, want %q", draft.Notes, "with Bob | at noon")
	}
	if draft.Title != "lunch" {
		t.Errorf("Title = %q", draft.Title)
	}
}

func TestParseLine_Miss(t *testing.T) {
	p := New(jst)
	now := refNow(2025, 2, 1)

	for _, line := range []string{
		"",
		"hello team",
		"no date here 13:45-15:25",
		"13/5 bad month",
		"2/30 bad day",
		"2/27 ",              // no title
		"2/27",               // no title at all
		"2/27 x 25:00-26:00", // out-of-range hours
	} {
		if draft := p.ParseLine(line, now); draft != nil {
			t.Errorf("ParseLine(%q) = %+v, want nil", line, draft)
		}
	}
}

func TestParseMessage(t *testing.T) {
	p := New(jst)
	now := refNow(2025, 2, 1)

	text := "hello\n2/25 Dinner\nrandom chatter\n2/27 Team sync 13:45-15:25\n"
	drafts := p.ParseMessage(text, now)
	if len(drafts) != 2 {
		t.Fatalf("ParseMessage returned %d drafts, want 2", len(drafts))
	}
	if drafts[0].Title != "Dinner" || drafts[1].Title != "Team sync" {
		t.Errorf("drafts out of order: %q, %q", drafts[0].Title, drafts[1].Title)
	}

	if got := p.ParseMessage("nothing to see", now); len(got) != 0 {
		t.Errorf("ParseMessage on plain chat returned %d drafts", len(got))
	}
}

func TestParseLine_LocationFromTitle(t *testing.T) {
	p := New(jst, WithLocationFromTitle())
	now := refNow(2025, 2, 1)

	draft := p.ParseLine("2/27 Shibuya Team sync 13:45-15:25", now)
	if draft == nil {
		t.Fatal("ParseLine returned nil")
	}
	if draft.Location != "Shibuya" {
		t.Errorf("Location = %q, want %q", draft.Location, "Shibuya")
	}
	if draft.Title != "Team sync" {
		t.Errorf("Title = %q, want %q", draft.Title, "Team sync")
	}

	// A single-token title is never consumed as a location.
	draft = p.ParseLine("2/25 Dinner", now)
	if draft == nil {
		t.Fatal("ParseLine returned nil")
	}
	if draft.Location != "" || draft.Title != "Dinner" {
		t.Errorf("Location/Title = %q/%q, want \"\"/Dinner", draft.Location, draft.Title)
	}
}
