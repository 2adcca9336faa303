package relay

import (
	"context"
	"regexp"
	"strings"

	"modbot/internal/model"
)

// Removal-notice threads open with a line like "Original post: <url>".
var originalTargetRe = regexp.MustCompile(`(?i)Original (post|comment): (.*)`)

// checkModmail triages the three modmail states. Moderator-authored new
// threads are archived (they are the bot's own removal notices); threads a
// human should see are dedup-tracked and forwarded to the chat channel.
func (r *Relay) checkModmail(ctx context.Context) error {
	r.log.Info("checking modmail", "subreddit", r.subreddit)

	newThreads, err := r.platform.ModmailConversations(ctx, stateNew)
	if err != nil {
		return err
	}
	inProgress, err := r.platform.ModmailConversations(ctx, stateInProgress)
	if err != nil {
		return err
	}
	notifications, err := r.platform.ModmailConversations(ctx, stateNotifications)
	if err != nil {
		return err
	}

	if len(newThreads) == 0 {
		r.mailNew.Reset()
	}
	if len(inProgress) == 0 {
		r.mailInProgress.Reset()
	}
	if len(notifications) == 0 {
		r.mailNotifications.Reset()
	}

	var forward []model.Conversation

	for _, conv := range newThreads {
		if r.isMod(conv.Latest().Author) {
			// the bot's own removal-notice thread; archive, and surface
			// the moderator-initiated removal when the opener names one
			if err := r.archive(ctx, conv); err != nil {
				return err
			}
			first := conv.First()
			if m := originalTargetRe.FindStringSubmatch(first.Body); m != nil {
				removalKind := strings.ToLower(m[1])
				link := strings.TrimSpace(m[2])
				if r.notify(ctx, "New Modmail", moderatorRemovalBlocks(first.Author, removalKind, link)) {
					r.recordOutcome(ctx, &model.Outcome{
						Kind:      model.OutcomeNotification,
						Permalink: link,
						Actor:     first.Author,
						Detail:    "moderator removed " + removalKind,
					})
				}
			}
			continue
		}
		if r.mailNew.Admit(conv.ID) {
			forward = append(forward, conv)
		}
	}

	for _, conv := range inProgress {
		if r.isMod(conv.Latest().Author) {
			// already being handled
			continue
		}
		if r.mailInProgress.Admit(conv.ID) {
			forward = append(forward, conv)
		}
	}

	for _, conv := range notifications {
		if conv.First().Author == "AutoModerator" {
			if r.mailNotifications.Admit(conv.ID) {
				forward = append(forward, conv)
			}
			continue
		}
		if err := r.archive(ctx, conv); err != nil {
			return err
		}
	}

	for _, conv := range forward {
		if r.notify(ctx, "New Modmail", modmailBlocks(conv)) {
			r.recordOutcome(ctx, &model.Outcome{
				Kind:   model.OutcomeNotification,
				Title:  conv.Subject,
				Actor:  conv.Latest().Author,
				Detail: "modmail " + conv.ID,
			})
		}
	}
	return nil
}

func (r *Relay) archive(ctx context.Context, conv model.Conversation) error {
	if err := r.platform.ArchiveConversation(ctx, conv.ID); err != nil {
		return err
	}
	r.log.Debug("archived modmail", "conversation", conv.ID, "subject", conv.Subject)
	r.recordOutcome(ctx, &model.Outcome{
		Kind:   model.OutcomeArchived,
		Title:  conv.Subject,
		Actor:  conv.Latest().Author,
		Detail: "modmail " + conv.ID,
	})
	return nil
}
