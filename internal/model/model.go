// Package model defines the domain types used across the application.
package model

import "time"

// ItemKind identifies what a platform fullname refers to.
type ItemKind string

// Known item kinds. Anything else is treated as unrecognized: the removal
// is still attempted but no removal notice is sent.
const (
	KindComment    ItemKind = "comment"
	KindSubmission ItemKind = "submission"
	KindUnknown    ItemKind = "unknown"
)

// Report is a single report filed against an item: the free-text reason
// and who filed it.
type Report struct {
	Reason string
	By     string
}

// Item is a comment or submission as returned by the platform.
type Item struct {
	Fullname    string
	Kind        ItemKind
	Author      string
	Title       string
	Body        string
	Permalink   string
	CreatedAt   time.Time
	Removed     bool
	ParentID    string
	ModReports  []Report
	UserReports []Report
}

// ConversationMessage is one message within a modmail conversation.
type ConversationMessage struct {
	Author string
	Body   string
}

// Conversation is a modmail thread. Messages are ordered oldest first.
type Conversation struct {
	ID       string
	Subject  string
	Messages []ConversationMessage
}

// First returns the oldest message of the conversation.
func (c *Conversation) First() ConversationMessage {
	if len(c.Messages) == 0 {
		return ConversationMessage{}
	}
	return c.Messages[0]
}

// Latest returns the newest message of the conversation.
func (c *Conversation) Latest() ConversationMessage {
	if len(c.Messages) == 0 {
		return ConversationMessage{}
	}
	return c.Messages[len(c.Messages)-1]
}

// InboxMessage is an unread private message in the bot account's inbox.
type InboxMessage struct {
	Fullname string
	Author   string
	Body     string
}

// RemovalReason is a removal reason as configured on the platform.
type RemovalReason struct {
	ID      string
	Title   string
	Message string
}

// OutcomeKind classifies what a triage pass did with an item.
type OutcomeKind string

// Triage outcome kinds.
const (
	OutcomeNone         OutcomeKind = "none"
	OutcomeRemoval      OutcomeKind = "removal"
	OutcomeNotification OutcomeKind = "notification"
	OutcomeArchived     OutcomeKind = "archived"
	OutcomeRefresh      OutcomeKind = "refresh"
)

// Outcome records what happened to a single triaged item. Outcomes feed the
// audit log and operator logging only; triage never reads them back.
type Outcome struct {
	ID        int64
	Kind      OutcomeKind
	RuleKey   string
	Title     string
	Permalink string
	Actor     string
	Detail    string
	CreatedAt time.Time
}
