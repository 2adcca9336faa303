package relay

import (
	"context"
	"fmt"

	"modbot/internal/model"
)

// checkComments scans recent comments for moderator-authored @rule commands
// and executes them against the comment's parent, removing the comment
// itself as the source. Comments need no dedup queue: an executed command
// removes its comment, which drops it from subsequent fetches.
func (r *Relay) checkComments(ctx context.Context) error {
	r.log.Info("checking comments", "subreddit", r.subreddit)
	comments, err := r.platform.RecentComments(ctx, commentFetchLimit)
	if err != nil {
		return err
	}

	for _, comment := range comments {
		if comment.Removed || comment.Author == "" || !r.isMod(comment.Author) {
			continue
		}
		cmd, ok := ParseRuleCommand(comment.Body)
		if !ok {
			continue
		}
		target, err := r.platform.Lookup(ctx, comment.ParentID)
		if err != nil {
			return fmt.Errorf("resolve parent of %s: %w", comment.Fullname, err)
		}
		if err := r.executeRemoval(ctx, cmd, &comment, target, comment.Author); err != nil {
			return err
		}
	}
	return nil
}

// checkReports triages the moderation report queue. New items carrying a
// moderator report run through rule-command handling; items with only user
// reports are summarized to the chat channel and left for a human.
func (r *Relay) checkReports(ctx context.Context) error {
	r.log.Info("checking reports", "subreddit", r.subreddit)
	reported, err := r.platform.ModqueueReports(ctx)
	if err != nil {
		return err
	}
	if len(reported) == 0 {
		// empty modqueue clears the remembered set
		r.reportQueue.Reset()
		return nil
	}

	for _, item := range reported {
		if !r.reportQueue.Admit(item.Fullname) {
			r.log.Debug("already notified", "fullname", item.Fullname)
			continue
		}

		switch {
		case len(item.ModReports) > 0:
			// only the first moderator report drives the command
			first := item.ModReports[0]
			cmd, ok := ParseRuleCommand(first.Reason)
			if !ok {
				continue
			}
			if err := r.executeRemoval(ctx, cmd, nil, item, first.By); err != nil {
				return err
			}
		case len(item.UserReports) > 0:
			r.log.Info("processing user report", "fullname", item.Fullname)
			if r.notify(ctx, "User Report", userReportBlocks(item)) {
				r.recordOutcome(ctx, &model.Outcome{
					Kind:      model.OutcomeNotification,
					Permalink: item.Permalink,
					Actor:     item.Author,
					Detail:    "user report",
				})
			}
		}
	}
	return nil
}

// executeRemoval resolves the rule key, removes the source comment (when
// present) and the target, and sends the private removal notice. The
// sequence is not transactional: a failure part-way propagates with the
// earlier removals left in place.
func (r *Relay) executeRemoval(ctx context.Context, cmd RuleCommand, source *model.Item, target model.Item, actor string) error {
	r.log.Info("rule matched", "rule", cmd.Rule, "actor", actor)
	key, reason := r.reasons.Resolve(cmd.Rule)

	message := reason.Message
	if cmd.Note != "" {
		message = message + "\n\n" + cmd.Note
	}

	if source != nil {
		if err := r.platform.Remove(ctx, source.Fullname); err != nil {
			return fmt.Errorf("remove source %s: %w", source.Fullname, err)
		}
	}
	if err := r.platform.Remove(ctx, target.Fullname); err != nil {
		return fmt.Errorf("remove target %s: %w", target.Fullname, err)
	}

	if target.Kind == model.KindUnknown {
		r.log.Warn("unrecognized removal target, skipping removal notice", "fullname", target.Fullname)
	} else {
		r.log.Info("removed "+string(target.Kind), "permalink", target.Permalink)
		if err := r.platform.SendRemovalMessage(ctx, target, message, reason.Title); err != nil {
			return fmt.Errorf("send removal notice for %s: %w", target.Fullname, err)
		}
		r.log.Info("sent removal notice", "rule", key, "permalink", target.Permalink)
	}

	r.recordOutcome(ctx, &model.Outcome{
		Kind:      model.OutcomeRemoval,
		RuleKey:   key,
		Title:     reason.Title,
		Permalink: target.Permalink,
		Actor:     actor,
		Detail:    cmd.Note,
	})
	return nil
}
