// Package reconcile maps confirm/unconfirm toggles for a source message
// onto a single, idempotently updated reply artifact.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"memocal/internal/gcal"
	appLog "memocal/internal/log"
	"memocal/internal/metrics"
	"memocal/internal/model"
	"memocal/internal/store"
)

// ErrArtifactNotFound is returned by a Sink when the edit target no longer
// resolves (deleted out-of-band, permission lost). The confirm path
// recovers from it by recreating the artifact; the unconfirm path swallows
// it.
var ErrArtifactNotFound = errors.New("artifact not found")

// Field is one labelled attribute in a rendered artifact.
type Field struct {
	Name  string
	Value string
}

// Content is the rendered artifact handed to the sink: a title line, a
// body, labelled fields, and at most one outbound link control. The link
// is present only in the confirmed rendering.
type Content struct {
	Title  string
	Body   string
	Fields []Field
	Footer string

	LinkLabel string
	LinkURL   string

	// FileName/FileBody describe the companion file attached to the
	// artifact (the offline ICS payload). Present only in the confirmed
	// rendering; an empty FileBody means no attachment.
	FileName string
	FileBody string
}

// Sink creates and edits reply artifacts under origin messages.
type Sink interface {
	Create(ctx context.Context, channelID, originID string, c Content) (artifactID string, err error)
	Edit(ctx context.Context, channelID, artifactID string, c Content) error
}

// Engine drives the per-message confirmation state machine. All decisions
// about when to create, edit or recreate the artifact live here; the sink
// and store are dumb collaborators.
type Engine struct {
	sink  Sink
	store store.Store
	links *gcal.Builder
	loc   *time.Location

	// Per-identity critical sections. The read-mutate-write cycle for one
	// message must never interleave with another toggle on the same
	// message, or two confirms could race to create two artifacts.
	mu    sync.Mutex
	inUse map[string]*sync.Mutex
}

func New(sink Sink, st store.Store, links *gcal.Builder, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	return &Engine{
		sink:  sink,
		store: st,
		links: links,
		loc:   loc,
		inUse: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockKey(key string) func() {
	e.mu.Lock()
	m, ok := e.inUse[key]
	if !ok {
		m = &sync.Mutex{}
		e.inUse[key] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Confirm applies a confirm toggle for the origin message. A nil draft
// (the message did not parse to any event) is a no-op. An existing reply
// is edited in place; a reply that can no longer be found is recreated and
// its new ID adopted, so repeated confirms never yield a second live
// artifact. The record write is a hard failure.
func (e *Engine) Confirm(ctx context.Context, channelID, originID string, draft *model.EventDraft) error {
	if draft == nil {
		return nil
	}

	timer := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(timer).Seconds()) }()

	unlock := e.lockKey(originID)
	defer unlock()

	rec, _, err := e.store.Get(originID)
	if err != nil {
		return err
	}

	content := e.renderConfirmed(*draft)

	if rec.ReplyID == "" {
		id, err := e.sink.Create(ctx, channelID, originID, content)
		if err != nil {
			metrics.ArtifactFailuresTotal.WithLabelValues("create").Inc()
			return err
		}
		metrics.ArtifactActionsTotal.WithLabelValues("create").Inc()
		rec.ReplyID = id
	} else {
		switch err := e.sink.Edit(ctx, channelID, rec.ReplyID, content); {
		case err == nil:
			metrics.ArtifactActionsTotal.WithLabelValues("edit").Inc()
		case errors.Is(err, ErrArtifactNotFound):
			appLog.Warn("confirm reply vanished, recreating",
				"origin_id", originID, "reply_id", rec.ReplyID)
			id, cerr := e.sink.Create(ctx, channelID, originID, content)
			if cerr != nil {
				metrics.ArtifactFailuresTotal.WithLabelValues("recreate").Inc()
				return cerr
			}
			metrics.ArtifactActionsTotal.WithLabelValues("recreate").Inc()
			rec.ReplyID = id
		default:
			metrics.ArtifactFailuresTotal.WithLabelValues("edit").Inc()
			return err
		}
	}

	rec.Status = model.StatusConfirmed
	if err := e.store.Put(originID, rec); err != nil {
		metrics.StoreWriteFailuresTotal.Inc()
		return err
	}
	return nil
}

// Unconfirm applies an unconfirm toggle. With no prior record there is
// nothing to withdraw and nothing is created. An existing reply is edited
// to the withdrawn rendering but never deleted: keeping the ID lets a
// later confirm re-edit the same artifact instead of creating a second
// one. The edit itself is best-effort; a vanished reply keeps its stale ID
// so the confirm path can retry and fall back to recreation.
func (e *Engine) Unconfirm(ctx context.Context, channelID, originID string) error {
	timer := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(timer).Seconds()) }()

	unlock := e.lockKey(originID)
	defer unlock()

	rec, ok, err := e.store.Get(originID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if rec.ReplyID != "" {
		if err := e.sink.Edit(ctx, channelID, rec.ReplyID, renderWithdrawn()); err != nil {
			metrics.ArtifactFailuresTotal.WithLabelValues("withdraw").Inc()
			appLog.Warn("withdraw edit failed, keeping stale reply id",
				"origin_id", originID, "reply_id", rec.ReplyID, "err", err)
		} else {
			metrics.ArtifactActionsTotal.WithLabelValues("withdraw").Inc()
		}
	}

	rec.Status = model.StatusUnconfirmed
	if err := e.store.Put(originID, rec); err != nil {
		metrics.StoreWriteFailuresTotal.Inc()
		return err
	}
	return nil
}
