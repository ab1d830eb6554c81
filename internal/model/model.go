package model

import "time"

// EventDraft is a single event candidate extracted from one memo line.
// Drafts are values; the parser builds one and nothing mutates it afterwards.
type EventDraft struct {
	Title string

	// Location is only set by the location-from-title grammar variant.
	Location string

	// Notes is the trailing free text after the ｜ / | delimiter.
	Notes string

	// Start and End carry the wall-clock time in the configured civil
	// timezone. For all-day drafts both are midnight of the event day;
	// the exclusive next-day end is computed by the link builder and is
	// never stored here.
	Start time.Time
	End   time.Time

	AllDay bool
}

// Status is the confirmation state of a source message.
type Status string

const (
	StatusConfirmed   Status = "confirmed"
	StatusUnconfirmed Status = "unconfirmed"
)

// Record tracks the reconciliation state of one source message. ReplyID
// identifies the single reply artifact currently representing the message,
// or is empty when none exists. Records are never deleted: toggling back
// and forth only flips Status and ReplyID.
type Record struct {
	Status  Status `json:"status"`
	ReplyID string `json:"reply_id,omitempty"`
}
