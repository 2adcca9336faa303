package relay

import (
	"regexp"
	"strings"
)

// Moderator commands are matched anywhere in the text, case-insensitively.
var (
	ruleCommandRe    = regexp.MustCompile(`(?i)@rule (\w*) *(.*)`)
	refreshCommandRe = regexp.MustCompile(`(?i)@refresh (\S+)`)
)

// RuleCommand is a parsed @rule command: the lowercased rule key and the
// free-text note appended to the removal message.
type RuleCommand struct {
	Rule string
	Note string
}

// ParseRuleCommand scans text for an @rule command. The rule key is the
// first whitespace-delimited word after the token; the trimmed remainder of
// the line is the note, raw, with no quoting semantics.
func ParseRuleCommand(text string) (RuleCommand, bool) {
	m := ruleCommandRe.FindStringSubmatch(text)
	if m == nil {
		return RuleCommand{}, false
	}
	return RuleCommand{
		Rule: strings.ToLower(m[1]),
		Note: strings.TrimSpace(m[2]),
	}, true
}

// ParseRefreshCommand scans text for an @refresh command and returns the
// lowercased community name argument.
func ParseRefreshCommand(text string) (string, bool) {
	m := refreshCommandRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}
