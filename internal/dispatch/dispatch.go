// Package dispatch translates inbound reaction toggles into reconciliation
// calls. All filtering (trigger emoji, sole operator, designated channel)
// happens here; the engine never sees a signal it should ignore.
package dispatch

import (
	"context"
	"strings"
	"time"

	appLog "memocal/internal/log"
	"memocal/internal/metrics"
	"memocal/internal/model"
	"memocal/internal/parse"
)

type Direction string

const (
	DirectionAdd    Direction = "add"
	DirectionRemove Direction = "remove"
)

// Reaction is one toggle signal from the chat gateway.
type Reaction struct {
	Emoji       string
	Direction   Direction
	MessageID   string
	ChannelID   string
	ChannelName string
	GuildID     string
	UserID      string
}

// Message is the origin message a toggle points at.
type Message struct {
	ID        string
	ChannelID string
	Content   string
	AuthorID  string
}

// Fetcher resolves a toggle's origin message. A false ok means the message
// is gone or unreadable; that ends handling quietly.
type Fetcher interface {
	FetchMessage(ctx context.Context, channelID, messageID string) (msg Message, ok bool, err error)
}

// Reconciler is the engine surface the dispatcher drives.
type Reconciler interface {
	Confirm(ctx context.Context, channelID, originID string, draft *model.EventDraft) error
	Unconfirm(ctx context.Context, channelID, originID string) error
}

// Options are the toggle admission rules.
type Options struct {
	// TriggerEmoji is the reaction that drives toggles.
	TriggerEmoji string
	// ChannelName, when set, restricts toggles to that channel.
	ChannelName string
	// AdminUserID, when set, restricts toggles to that sole operator.
	AdminUserID string
	// SelfUserID is the bot's own user ID; its reactions are ignored.
	SelfUserID string
}

type Dispatcher struct {
	opts    Options
	fetch   Fetcher
	parser  *parse.Parser
	engine  Reconciler
	nowFunc func() time.Time
}

func New(opts Options, fetch Fetcher, parser *parse.Parser, engine Reconciler) *Dispatcher {
	return &Dispatcher{
		opts:    opts,
		fetch:   fetch,
		parser:  parser,
		engine:  engine,
		nowFunc: time.Now,
	}
}

// HandleReaction admits or drops one toggle signal and runs the matching
// reconciliation transition. Filtered signals and vanished origin messages
// return nil; only reconciliation failures surface.
func (d *Dispatcher) HandleReaction(ctx context.Context, r Reaction) error {
	dir := string(r.Direction)

	if !d.admit(r) {
		metrics.TogglesTotal.WithLabelValues(dir, "filtered").Inc()
		return nil
	}

	msg, ok, err := d.fetch.FetchMessage(ctx, r.ChannelID, r.MessageID)
	if err != nil {
		metrics.TogglesTotal.WithLabelValues(dir, "error").Inc()
		return err
	}
	if !ok {
		appLog.Debug("origin message unavailable, toggle dropped",
			"channel_id", r.ChannelID, "message_id", r.MessageID)
		metrics.TogglesTotal.WithLabelValues(dir, "filtered").Inc()
		return nil
	}

	switch r.Direction {
	case DirectionAdd:
		drafts := d.parser.ParseMessage(msg.Content, d.nowFunc())
		countParsedLines(msg.Content, len(drafts))
		if len(drafts) == 0 {
			metrics.TogglesTotal.WithLabelValues(dir, "miss").Inc()
			return nil
		}
		// Only the first parsed event of a message is acted on; later
		// drafts are discarded.
		if err := d.engine.Confirm(ctx, r.ChannelID, r.MessageID, &drafts[0]); err != nil {
			metrics.TogglesTotal.WithLabelValues(dir, "error").Inc()
			return err
		}
	case DirectionRemove:
		if err := d.engine.Unconfirm(ctx, r.ChannelID, r.MessageID); err != nil {
			metrics.TogglesTotal.WithLabelValues(dir, "error").Inc()
			return err
		}
	default:
		metrics.TogglesTotal.WithLabelValues(dir, "filtered").Inc()
		return nil
	}

	metrics.TogglesTotal.WithLabelValues(dir, "handled").Inc()
	return nil
}

// countParsedLines records one sample per non-empty line of the origin
// message: events parsed as drafts, the rest as misses.
func countParsedLines(content string, events int) {
	total := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			total++
		}
	}
	if events > 0 {
		metrics.ParsedLinesTotal.WithLabelValues("event").Add(float64(events))
	}
	if misses := total - events; misses > 0 {
		metrics.ParsedLinesTotal.WithLabelValues("miss").Add(float64(misses))
	}
}

func (d *Dispatcher) admit(r Reaction) bool {
	if d.opts.SelfUserID != "" && r.UserID == d.opts.SelfUserID {
		return false
	}
	if d.opts.AdminUserID != "" && r.UserID != d.opts.AdminUserID {
		return false
	}
	if r.Emoji != d.opts.TriggerEmoji {
		return false
	}
	if d.opts.ChannelName != "" && r.ChannelName != d.opts.ChannelName {
		return false
	}
	return true
}
