package relay

import (
	"fmt"
	"strings"
	"time"

	"modbot/internal/model"
	"modbot/internal/slack"
)

// Keep free-form bodies comfortably inside the 3000-rune section limit.
const bodyClamp = 2800

// userReportBlocks renders a user-reported item: headline, optional body,
// provenance context, and every report reason with its reporter.
func userReportBlocks(item model.Item) []slack.Block {
	headline := item.Title
	if headline == "" {
		headline = "comment"
	}

	blocks := []slack.Block{
		slack.Section(slack.Mrkdwn(fmt.Sprintf(
			":female-police-officer: *New Report:* <https://www.reddit.com%s|%s>",
			item.Permalink, headline,
		))),
	}

	if item.Body != "" {
		blocks = append(blocks, slack.Section(slack.Mrkdwn(slack.Truncate(item.Body, bodyClamp))))
	}

	verb := "Submitted by"
	if item.Kind == model.KindComment {
		verb = "Commented by"
	}
	blocks = append(blocks, slack.Context(
		slack.Mrkdwn(fmt.Sprintf("%s <https://www.reddit.com/u/%s|%s>", verb, item.Author, item.Author)),
		slack.Mrkdwn(item.CreatedAt.Format(time.ANSIC)),
	))

	var lines []string
	for _, report := range item.UserReports {
		lines = append(lines, fmt.Sprintf("%s: %s", report.By, report.Reason))
	}
	blocks = append(blocks, slack.Section(slack.Mrkdwn(
		slack.Truncate("*User Reports:*\n"+strings.Join(lines, "\n"), bodyClamp),
	)))

	return blocks
}

// moderatorRemovalBlocks renders a removal a moderator performed outside
// the bot, discovered via its removal-notice modmail thread.
func moderatorRemovalBlocks(author, removalKind, link string) []slack.Block {
	return []slack.Block{
		slack.Section(slack.Mrkdwn(fmt.Sprintf(
			":no_entry_sign: %s removed %s <%s>", author, removalKind, link,
		))),
	}
}

// modmailBlocks renders a modmail thread queued for notification, using
// the latest message's body and author.
func modmailBlocks(conv model.Conversation) []slack.Block {
	latest := conv.Latest()
	return []slack.Block{
		slack.Section(slack.Mrkdwn(fmt.Sprintf(
			":email: *New Modmail:* <https://mod.reddit.com/mail/all/%s|%s>\n%s",
			conv.ID, conv.Subject, slack.Truncate(latest.Body, bodyClamp),
		))),
		slack.Context(slack.Mrkdwn(fmt.Sprintf(
			"from <https://www.reddit.com/u/%s|%s>", latest.Author, latest.Author,
		))),
	}
}
