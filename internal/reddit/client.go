// Package reddit implements the content-platform client: authenticated
// fetches of comments, reports, modmail, and inbox mail, plus the
// moderation actions the relay performs.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"modbot/internal/model"
)

const (
	authBaseURL = "https://www.reddit.com"
	apiBaseURL  = "https://oauth.reddit.com"

	maxResponseBytes = 8 * 1024 * 1024

	// refresh the token slightly before the platform expires it
	tokenExpirySlack = 30 * time.Second
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials holds everything needed to authenticate as the bot account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Client talks to the platform API on behalf of one bot account managing
// one community. It is driven by a single goroutine; token state is not
// synchronized.
type Client struct {
	subreddit string
	creds     Credentials
	http      HTTPClient
	log       *slog.Logger

	token       string
	tokenExpiry time.Time
}

// NewClient creates a Client for the given community with a retrying HTTP
// client.
func NewClient(subreddit string, creds Credentials, log *slog.Logger) *Client {
	return NewClientWithHTTP(subreddit, creds, newHTTPClient(log), log)
}

// NewClientWithHTTP creates a Client with a custom HTTP client (useful for
// testing).
func NewClientWithHTTP(subreddit string, creds Credentials, client HTTPClient, log *slog.Logger) *Client {
	return &Client{
		subreddit: strings.ToLower(subreddit),
		creds:     creds,
		http:      client,
		log:       log,
	}
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.creds.Username},
		"password":   {c.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		authBaseURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch token: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string  `json:"access_token"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("fetch token: empty access token")
	}

	c.token = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpirySlack)
	c.log.Debug("platform token refreshed", "expires_in", payload.ExpiresIn)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	u := apiBaseURL + path
	if query == nil {
		query = url.Values{}
	}
	query.Set("raw_json", "1")
	u += "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.creds.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	return c.do(ctx, http.MethodPost, path, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil,
		strings.NewReader(string(body)), "application/json", nil)
}

// RecentComments fetches up to limit of the community's newest comments.
func (c *Client) RecentComments(ctx context.Context, limit int) ([]model.Item, error) {
	var l listing
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/r/"+c.subreddit+"/comments", query, &l); err != nil {
		return nil, err
	}
	return itemsFromListing(l), nil
}

// ModqueueReports fetches the current moderation report queue.
func (c *Client) ModqueueReports(ctx context.Context) ([]model.Item, error) {
	var l listing
	query := url.Values{"limit": {"100"}}
	if err := c.get(ctx, "/r/"+c.subreddit+"/about/modqueue", query, &l); err != nil {
		return nil, err
	}
	return itemsFromListing(l), nil
}

// ModmailConversations fetches modmail conversations in the given state
// (new, inprogress, notifications).
func (c *Client) ModmailConversations(ctx context.Context, state string) ([]model.Conversation, error) {
	var resp modmailResponse
	query := url.Values{"entity": {c.subreddit}, "state": {state}}
	if err := c.get(ctx, "/api/mod/conversations", query, &resp); err != nil {
		return nil, err
	}
	return conversationsFromResponse(resp), nil
}

// UnreadInbox fetches the bot account's unread private messages.
func (c *Client) UnreadInbox(ctx context.Context) ([]model.InboxMessage, error) {
	var l listing
	if err := c.get(ctx, "/message/unread", nil, &l); err != nil {
		return nil, err
	}
	mail := make([]model.InboxMessage, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		mail = append(mail, model.InboxMessage{
			Fullname: child.Data.Name,
			Author:   child.Data.Author,
			Body:     child.Data.Body,
		})
	}
	return mail, nil
}

// Lookup resolves a fullname to its item. Used to materialize a comment's
// parent before acting on it.
func (c *Client) Lookup(ctx context.Context, fullname string) (model.Item, error) {
	var l listing
	query := url.Values{"id": {fullname}}
	if err := c.get(ctx, "/api/info", query, &l); err != nil {
		return model.Item{}, err
	}
	if len(l.Data.Children) == 0 {
		return model.Item{}, fmt.Errorf("lookup %s: not found", fullname)
	}
	return itemFromThing(l.Data.Children[0]), nil
}

// Remove removes an item from the community (not marked as spam).
func (c *Client) Remove(ctx context.Context, fullname string) error {
	return c.postForm(ctx, "/api/remove", url.Values{
		"id":   {fullname},
		"spam": {"false"},
	})
}

// SendRemovalMessage sends the private removal notice for a removed item.
func (c *Client) SendRemovalMessage(ctx context.Context, item model.Item, message, title string) error {
	var path string
	switch item.Kind {
	case model.KindComment:
		path = "/api/v1/modactions/removal_comment_message"
	case model.KindSubmission:
		path = "/api/v1/modactions/removal_link_message"
	default:
		return fmt.Errorf("removal message for %s: unrecognized kind %q", item.Fullname, item.Kind)
	}
	return c.postJSON(ctx, path, map[string]any{
		"item_id": []string{item.Fullname},
		"message": message,
		"title":   title,
		"type":    "private",
	})
}

// ReplyMail replies to a private message.
func (c *Client) ReplyMail(ctx context.Context, fullname, text string) error {
	return c.postForm(ctx, "/api/comment", url.Values{
		"thing_id": {fullname},
		"text":     {text},
	})
}

// MarkMailRead marks a private message as read.
func (c *Client) MarkMailRead(ctx context.Context, fullname string) error {
	return c.postForm(ctx, "/api/read_message", url.Values{"id": {fullname}})
}

// ArchiveConversation archives a modmail conversation.
func (c *Client) ArchiveConversation(ctx context.Context, id string) error {
	return c.postForm(ctx, "/api/mod/conversations/"+id+"/archive", url.Values{})
}

// Moderators lists the account names holding moderator privilege.
func (c *Client) Moderators(ctx context.Context) ([]string, error) {
	var resp moderatorsResponse
	if err := c.get(ctx, "/r/"+c.subreddit+"/about/moderators", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		names = append(names, child.Name)
	}
	return names, nil
}

// RemovalReasons fetches the community's configured removal reasons.
func (c *Client) RemovalReasons(ctx context.Context) ([]model.RemovalReason, error) {
	var resp removalReasonsResponse
	if err := c.get(ctx, "/api/v1/"+c.subreddit+"/removal_reasons.json", nil, &resp); err != nil {
		return nil, err
	}
	return reasonsFromResponse(resp), nil
}
