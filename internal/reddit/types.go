package reddit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"modbot/internal/model"
)

// Fullname type prefixes used by the platform.
const (
	prefixComment    = "t1_"
	prefixSubmission = "t3_"
)

type listing struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

type thingData struct {
	Name        string          `json:"name"`
	Author      string          `json:"author"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	Selftext    string          `json:"selftext"`
	Permalink   string          `json:"permalink"`
	CreatedUTC  float64         `json:"created_utc"`
	BannedBy    json.RawMessage `json:"banned_by"`
	ParentID    string          `json:"parent_id"`
	ModReports  [][]any         `json:"mod_reports"`
	UserReports [][]any         `json:"user_reports"`
}

func kindFromFullname(fullname string) model.ItemKind {
	switch {
	case strings.HasPrefix(fullname, prefixComment):
		return model.KindComment
	case strings.HasPrefix(fullname, prefixSubmission):
		return model.KindSubmission
	default:
		return model.KindUnknown
	}
}

// banned_by is null for live items and a moderator name (or, in old
// payloads, false) once removed.
func removedFromBannedBy(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "false"
}

func reportsFromPairs(pairs [][]any) []model.Report {
	var reports []model.Report
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		reports = append(reports, model.Report{
			Reason: stringifyField(pair[0]),
			By:     stringifyField(pair[1]),
		})
	}
	return reports
}

func stringifyField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// report counts decode as floats
		return fmt.Sprintf("%d", int64(t))
	default:
		return fmt.Sprintf("%v", t)
	}
}

func itemFromThing(t thing) model.Item {
	d := t.Data
	item := model.Item{
		Fullname:    d.Name,
		Kind:        kindFromFullname(d.Name),
		Author:      d.Author,
		Title:       d.Title,
		Permalink:   d.Permalink,
		CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
		Removed:     removedFromBannedBy(d.BannedBy),
		ParentID:    d.ParentID,
		ModReports:  reportsFromPairs(d.ModReports),
		UserReports: reportsFromPairs(d.UserReports),
	}
	switch item.Kind {
	case model.KindComment:
		item.Body = d.Body
	default:
		item.Body = d.Selftext
	}
	return item
}

func itemsFromListing(l listing) []model.Item {
	items := make([]model.Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		items = append(items, itemFromThing(child))
	}
	return items
}

type modmailResponse struct {
	ConversationIDs []string `json:"conversationIds"`
	Conversations   map[string]struct {
		ID      string `json:"id"`
		Subject string `json:"subject"`
		ObjIDs  []struct {
			Key string `json:"key"`
			ID  string `json:"id"`
		} `json:"objIds"`
	} `json:"conversations"`
	Messages map[string]struct {
		BodyMarkdown string `json:"bodyMarkdown"`
		Author       struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"messages"`
}

func conversationsFromResponse(resp modmailResponse) []model.Conversation {
	ids := resp.ConversationIDs
	if len(ids) == 0 {
		for id := range resp.Conversations {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	var convs []model.Conversation
	for _, id := range ids {
		raw, ok := resp.Conversations[id]
		if !ok {
			continue
		}
		conv := model.Conversation{ID: raw.ID, Subject: raw.Subject}
		if conv.ID == "" {
			conv.ID = id
		}
		for _, obj := range raw.ObjIDs {
			if obj.Key != "messages" {
				continue
			}
			msg, ok := resp.Messages[obj.ID]
			if !ok {
				continue
			}
			conv.Messages = append(conv.Messages, model.ConversationMessage{
				Author: msg.Author.Name,
				Body:   msg.BodyMarkdown,
			})
		}
		convs = append(convs, conv)
	}
	return convs
}

type removalReasonsResponse struct {
	Data map[string]struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"data"`
	Order []string `json:"order"`
}

func reasonsFromResponse(resp removalReasonsResponse) []model.RemovalReason {
	order := resp.Order
	if len(order) == 0 {
		for id := range resp.Data {
			order = append(order, id)
		}
		sort.Strings(order)
	}

	var reasons []model.RemovalReason
	for _, id := range order {
		raw, ok := resp.Data[id]
		if !ok {
			continue
		}
		if raw.ID == "" {
			raw.ID = id
		}
		reasons = append(reasons, model.RemovalReason{
			ID:      raw.ID,
			Title:   raw.Title,
			Message: raw.Message,
		})
	}
	return reasons
}

type moderatorsResponse struct {
	Data struct {
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	} `json:"data"`
}
