// Package relay implements the event reconciliation and command-dispatch
// engine: per-source dedup, rule-command handling, modmail triage, and
// notification formatting for one monitored community.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"modbot/internal/model"
	"modbot/internal/queue"
	"modbot/internal/reasons"
	"modbot/internal/slack"
)

// How many recent comments to scan per cycle.
const commentFetchLimit = 100

// Modmail conversation states polled every cycle.
const (
	stateNew           = "new"
	stateInProgress    = "inprogress"
	stateNotifications = "notifications"
)

// Platform is the content-platform capability consumed by the relay.
type Platform interface {
	RecentComments(ctx context.Context, limit int) ([]model.Item, error)
	ModqueueReports(ctx context.Context) ([]model.Item, error)
	ModmailConversations(ctx context.Context, state string) ([]model.Conversation, error)
	UnreadInbox(ctx context.Context) ([]model.InboxMessage, error)
	Lookup(ctx context.Context, fullname string) (model.Item, error)
	Remove(ctx context.Context, fullname string) error
	SendRemovalMessage(ctx context.Context, item model.Item, message, title string) error
	ReplyMail(ctx context.Context, fullname, text string) error
	MarkMailRead(ctx context.Context, fullname string) error
	ArchiveConversation(ctx context.Context, id string) error
	Moderators(ctx context.Context) ([]string, error)
	RemovalReasons(ctx context.Context) ([]model.RemovalReason, error)
}

// Notifier delivers a formatted payload to the team chat channel.
type Notifier interface {
	Post(ctx context.Context, text string, blocks []slack.Block) error
}

// Auditor appends triage outcomes to the audit log. May be nil.
type Auditor interface {
	RecordOutcome(ctx context.Context, o *model.Outcome) error
}

// Relay holds the mutable per-community state: the moderator roster, the
// reason registry, and the four dedup trackers. All mutation happens on the
// single orchestrator goroutine.
type Relay struct {
	platform Platform
	notifier Notifier
	audit    Auditor
	log      *slog.Logger

	subreddit string
	mods      map[string]struct{}
	reasons   *reasons.Registry

	reportQueue       *queue.Tracker
	mailNew           *queue.Tracker
	mailInProgress    *queue.Tracker
	mailNotifications *queue.Tracker
}

// New creates a Relay for one community. Bootstrap must be called before
// the first cycle.
func New(platform Platform, notifier Notifier, audit Auditor, subreddit string, log *slog.Logger) *Relay {
	return &Relay{
		platform:          platform,
		notifier:          notifier,
		audit:             audit,
		log:               log,
		subreddit:         subreddit,
		mods:              make(map[string]struct{}),
		reportQueue:       queue.NewTracker(),
		mailNew:           queue.NewTracker(),
		mailInProgress:    queue.NewTracker(),
		mailNotifications: queue.NewTracker(),
	}
}

// Bootstrap loads the moderator roster and reason registry and checks the
// startup invariant that a generic removal reason exists. Any failure here
// is a configuration error and fatal to the process.
func (r *Relay) Bootstrap(ctx context.Context) error {
	if err := r.reload(ctx); err != nil {
		return err
	}
	if err := r.reasons.Validate(); err != nil {
		return err
	}
	return nil
}

// Refresh reloads the moderator roster and reason registry. Triggered by
// the @refresh mail command, never by a timer.
func (r *Relay) Refresh(ctx context.Context) error {
	return r.reload(ctx)
}

func (r *Relay) reload(ctx context.Context) error {
	names, err := r.platform.Moderators(ctx)
	if err != nil {
		return fmt.Errorf("load moderators: %w", err)
	}
	mods := make(map[string]struct{}, len(names))
	for _, name := range names {
		mods[name] = struct{}{}
	}
	r.mods = mods
	r.log.Info("moderators loaded", "subreddit", r.subreddit, "count", len(mods))

	registry, err := reasons.Load(ctx, r.platform, r.log)
	if err != nil {
		return fmt.Errorf("load removal reasons: %w", err)
	}
	r.reasons = registry
	r.log.Info("removal reasons loaded", "subreddit", r.subreddit, "count", registry.Len())
	return nil
}

// RunCycle executes one full triage pass: comments, reports, modmail, then
// inbox mail. The first failing stage aborts the remainder of the cycle;
// the error is the orchestrator's to log.
func (r *Relay) RunCycle(ctx context.Context) error {
	if err := r.checkComments(ctx); err != nil {
		return fmt.Errorf("check comments: %w", err)
	}
	if err := r.checkReports(ctx); err != nil {
		return fmt.Errorf("check reports: %w", err)
	}
	if err := r.checkModmail(ctx); err != nil {
		return fmt.Errorf("check modmail: %w", err)
	}
	if err := r.checkMail(ctx); err != nil {
		return fmt.Errorf("check mail: %w", err)
	}
	return nil
}

func (r *Relay) isMod(name string) bool {
	_, ok := r.mods[name]
	return ok
}

// notify delivers a payload, logging and dropping it on failure. Delivery
// failures never abort a cycle and are never retried.
func (r *Relay) notify(ctx context.Context, text string, blocks []slack.Block) bool {
	if err := r.notifier.Post(ctx, text, blocks); err != nil {
		r.log.Error("send notification", "text", text, "error", err)
		return false
	}
	return true
}

// recordOutcome appends to the audit log. The trail is advisory: failures
// are logged and swallowed so persistence can never break a cycle.
func (r *Relay) recordOutcome(ctx context.Context, o *model.Outcome) {
	if r.audit == nil {
		return
	}
	if err := r.audit.RecordOutcome(ctx, o); err != nil {
		r.log.Warn("record outcome", "kind", o.Kind, "error", err)
	}
}
