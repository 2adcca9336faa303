package relay

import (
	"context"
	"fmt"

	"modbot/internal/model"
)

// checkMail consumes the bot account's unread inbox. Every item is marked
// read first, matching or not, so unmatched mail is consumed without a
// trace. Only the @refresh command gets a user-visible reply.
func (r *Relay) checkMail(ctx context.Context) error {
	r.log.Info("checking mail")
	mail, err := r.platform.UnreadInbox(ctx)
	if err != nil {
		return err
	}

	for _, m := range mail {
		if err := r.platform.MarkMailRead(ctx, m.Fullname); err != nil {
			return fmt.Errorf("mark mail read %s: %w", m.Fullname, err)
		}
		r.log.Info("new mail", "from", m.Author, "body", m.Body)

		sub, ok := ParseRefreshCommand(m.Body)
		if !ok {
			continue
		}

		var reply string
		switch {
		case sub != r.subreddit:
			reply = fmt.Sprintf("Unrecognized sub: %s.", sub)
		case !r.isMod(m.Author):
			reply = fmt.Sprintf("Unauthorized: not an r/%s mod", sub)
		default:
			if err := r.Refresh(ctx); err != nil {
				return fmt.Errorf("refresh %s: %w", sub, err)
			}
			reply = fmt.Sprintf("Refreshed mods and reasons for %s!", sub)
			r.recordOutcome(ctx, &model.Outcome{
				Kind:   model.OutcomeRefresh,
				Actor:  m.Author,
				Detail: "refreshed " + sub,
			})
		}
		if err := r.platform.ReplyMail(ctx, m.Fullname, reply); err != nil {
			return fmt.Errorf("reply to %s: %w", m.Fullname, err)
		}
	}
	return nil
}
