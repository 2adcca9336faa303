package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"modbot/internal/model"
	"modbot/internal/slack"
)

type sentRemoval struct {
	Fullname string
	Message  string
	Title    string
}

type sentReply struct {
	Fullname string
	Text     string
}

// fakePlatform serves scripted fetch results and records every action.
type fakePlatform struct {
	comments []model.Item
	modqueue []model.Item
	modmail  map[string][]model.Conversation
	inbox    []model.InboxMessage
	items    map[string]model.Item
	mods     []string
	reasons  []model.RemovalReason

	removed     []string
	removalMsgs []sentRemoval
	replies     []sentReply
	markedRead  []string
	archived    []string

	lookupCalls int
	modCalls    int
	reasonCalls int
	fetchCalls  map[string]int

	failOn map[string]error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		modmail:    map[string][]model.Conversation{},
		items:      map[string]model.Item{},
		fetchCalls: map[string]int{},
		failOn:     map[string]error{},
		mods:       []string{"alice"},
		reasons: []model.RemovalReason{
			{ID: "r1", Title: "Generic", Message: "Your post broke the rules."},
			{ID: "r2", Title: "Spam", Message: "No spam."},
		},
	}
}

func (f *fakePlatform) fail(op string) error {
	f.fetchCalls[op]++
	return f.failOn[op]
}

func (f *fakePlatform) RecentComments(_ context.Context, _ int) ([]model.Item, error) {
	return f.comments, f.fail("comments")
}

func (f *fakePlatform) ModqueueReports(_ context.Context) ([]model.Item, error) {
	return f.modqueue, f.fail("modqueue")
}

func (f *fakePlatform) ModmailConversations(_ context.Context, state string) ([]model.Conversation, error) {
	return f.modmail[state], f.fail("modmail:" + state)
}

func (f *fakePlatform) UnreadInbox(_ context.Context) ([]model.InboxMessage, error) {
	return f.inbox, f.fail("inbox")
}

func (f *fakePlatform) Lookup(_ context.Context, fullname string) (model.Item, error) {
	f.lookupCalls++
	item, ok := f.items[fullname]
	if !ok {
		return model.Item{}, fmt.Errorf("lookup %s: not found", fullname)
	}
	return item, nil
}

func (f *fakePlatform) Remove(_ context.Context, fullname string) error {
	if err := f.failOn["remove"]; err != nil {
		return err
	}
	f.removed = append(f.removed, fullname)
	return nil
}

func (f *fakePlatform) SendRemovalMessage(_ context.Context, item model.Item, message, title string) error {
	f.removalMsgs = append(f.removalMsgs, sentRemoval{Fullname: item.Fullname, Message: message, Title: title})
	return nil
}

func (f *fakePlatform) ReplyMail(_ context.Context, fullname, text string) error {
	f.replies = append(f.replies, sentReply{Fullname: fullname, Text: text})
	return nil
}

func (f *fakePlatform) MarkMailRead(_ context.Context, fullname string) error {
	f.markedRead = append(f.markedRead, fullname)
	return nil
}

func (f *fakePlatform) ArchiveConversation(_ context.Context, id string) error {
	f.archived = append(f.archived, id)
	return nil
}

func (f *fakePlatform) Moderators(_ context.Context) ([]string, error) {
	f.modCalls++
	return f.mods, nil
}

func (f *fakePlatform) RemovalReasons(_ context.Context) ([]model.RemovalReason, error) {
	f.reasonCalls++
	return f.reasons, nil
}

type postedPayload struct {
	Text   string
	Blocks []slack.Block
}

type fakeNotifier struct {
	posts []postedPayload
	err   error
}

func (n *fakeNotifier) Post(_ context.Context, text string, blocks []slack.Block) error {
	if n.err != nil {
		return n.err
	}
	n.posts = append(n.posts, postedPayload{Text: text, Blocks: blocks})
	return nil
}

func newTestRelay(t *testing.T, platform *fakePlatform, notifier *fakeNotifier) *Relay {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(platform, notifier, nil, "testsub", log)
	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return r
}

func sectionText(t *testing.T, b slack.Block) string {
	t.Helper()
	section, ok := b.(*slack.SectionBlock)
	if !ok {
		t.Fatalf("expected section block, got %T", b)
	}
	return section.Text.Text
}

func TestBootstrapRequiresGenericReason(t *testing.T) {
	platform := newFakePlatform()
	platform.reasons = []model.RemovalReason{
		{ID: "r2", Title: "Spam", Message: "No spam."},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := New(platform, &fakeNotifier{}, nil, "testsub", log)
	if err := r.Bootstrap(context.Background()); err == nil {
		t.Fatal("expected bootstrap to fail without a generic reason")
	}
}

func TestCommentTriage(t *testing.T) {
	tests := []struct {
		name         string
		comment      model.Item
		wantRemoved  []string
		wantNotices  []sentRemoval
		wantLookedUp int
	}{
		{
			name: "moderator rule command removes target and source",
			comment: model.Item{
				Fullname: "t1_c1", Kind: model.KindComment, Author: "alice",
				Body: "@rule spam please stop", ParentID: "t3_p1",
			},
			wantRemoved: []string{"t1_c1", "t3_p1"},
			wantNotices: []sentRemoval{{
				Fullname: "t3_p1",
				Message:  "No spam.\n\nplease stop",
				Title:    "Spam",
			}},
			wantLookedUp: 1,
		},
		{
			name: "non-moderator comment is ignored",
			comment: model.Item{
				Fullname: "t1_c1", Kind: model.KindComment, Author: "randomuser",
				Body: "@rule spam please stop", ParentID: "t3_p1",
			},
		},
		{
			name: "already removed comment is ignored",
			comment: model.Item{
				Fullname: "t1_c1", Kind: model.KindComment, Author: "alice",
				Body: "@rule spam", ParentID: "t3_p1", Removed: true,
			},
		},
		{
			name: "authorless comment is ignored",
			comment: model.Item{
				Fullname: "t1_c1", Kind: model.KindComment,
				Body: "@rule spam", ParentID: "t3_p1",
			},
		},
		{
			name: "moderator comment without command takes no action",
			comment: model.Item{
				Fullname: "t1_c1", Kind: model.KindComment, Author: "alice",
				Body: "nice post!", ParentID: "t3_p1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform()
			platform.comments = []model.Item{tt.comment}
			platform.items["t3_p1"] = model.Item{
				Fullname: "t3_p1", Kind: model.KindSubmission, Author: "dave",
				Title: "A Post", Permalink: "/r/testsub/comments/p1",
			}
			r := newTestRelay(t, platform, &fakeNotifier{})

			if err := r.RunCycle(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.wantRemoved, platform.removed); diff != "" {
				t.Errorf("removed mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantNotices, platform.removalMsgs); diff != "" {
				t.Errorf("removal notices mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLookedUp, platform.lookupCalls); diff != "" {
				t.Errorf("lookup calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReportTriageModReport(t *testing.T) {
	platform := newFakePlatform()
	platform.modqueue = []model.Item{{
		Fullname: "t3_p1", Kind: model.KindSubmission, Author: "dave",
		Title: "A Post", Permalink: "/r/testsub/comments/p1",
		ModReports: []model.Report{
			{Reason: "@rule unknownkey too far", By: "alice"},
			{Reason: "@rule spam", By: "bob"},
		},
	}}
	r := newTestRelay(t, platform, &fakeNotifier{})

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// only the first report drives the command; unknown key falls back to generic
	wantNotices := []sentRemoval{{
		Fullname: "t3_p1",
		Message:  "Your post broke the rules.\n\ntoo far",
		Title:    "Generic",
	}}
	if diff := cmp.Diff([]string{"t3_p1"}, platform.removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantNotices, platform.removalMsgs); diff != "" {
		t.Errorf("removal notices mismatch (-want +got):\n%s", diff)
	}

	// same queue next cycle: suppressed by the dedup tracker
	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"t3_p1"}, platform.removed); diff != "" {
		t.Errorf("second cycle must not re-remove (-want +got):\n%s", diff)
	}
}

func TestReportTriageUserReports(t *testing.T) {
	platform := newFakePlatform()
	item := model.Item{
		Fullname: "t3_p1", Kind: model.KindSubmission, Author: "dave",
		Title: "A Post", Body: "some text", Permalink: "/r/testsub/comments/p1",
		UserReports: []model.Report{
			{Reason: "It's spam", By: "2"},
			{Reason: "Harassment", By: "1"},
		},
	}
	platform.modqueue = []model.Item{item}
	notifier := &fakeNotifier{}
	r := newTestRelay(t, platform, notifier)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(platform.removed) != 0 {
		t.Fatalf("user reports must not trigger removal, removed %v", platform.removed)
	}
	if len(notifier.posts) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.posts))
	}
	post := notifier.posts[0]
	if diff := cmp.Diff("User Report", post.Text); diff != "" {
		t.Errorf("summary text mismatch (-want +got):\n%s", diff)
	}
	head := sectionText(t, post.Blocks[0])
	if diff := cmp.Diff(":female-police-officer: *New Report:* <https://www.reddit.com/r/testsub/comments/p1|A Post>", head); diff != "" {
		t.Errorf("headline mismatch (-want +got):\n%s", diff)
	}
	last := sectionText(t, post.Blocks[len(post.Blocks)-1])
	if diff := cmp.Diff("*User Reports:*\n2: It's spam\n1: Harassment", last); diff != "" {
		t.Errorf("report summary mismatch (-want +got):\n%s", diff)
	}

	// second cycle with the same queue: no duplicate notification
	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.posts) != 1 {
		t.Fatalf("expected no duplicate notification, got %d", len(notifier.posts))
	}

	// queue drains, item reappears: notified again
	platform.modqueue = nil
	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	platform.modqueue = []model.Item{item}
	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.posts) != 2 {
		t.Fatalf("expected re-notification after queue drain, got %d posts", len(notifier.posts))
	}
}

func TestStageFailureAbortsRemainderOfCycle(t *testing.T) {
	platform := newFakePlatform()
	platform.failOn["modqueue"] = errors.New("gateway timeout")
	r := newTestRelay(t, platform, &fakeNotifier{})

	if err := r.RunCycle(context.Background()); err == nil {
		t.Fatal("expected cycle error, got nil")
	}

	if platform.fetchCalls["comments"] != 1 {
		t.Errorf("comments stage should have run, calls=%d", platform.fetchCalls["comments"])
	}
	if platform.fetchCalls["modmail:new"] != 0 {
		t.Errorf("modmail stage should have been skipped, calls=%d", platform.fetchCalls["modmail:new"])
	}
	if platform.fetchCalls["inbox"] != 0 {
		t.Errorf("mail stage should have been skipped, calls=%d", platform.fetchCalls["inbox"])
	}
}

func TestDeliveryFailureDoesNotAbortCycle(t *testing.T) {
	platform := newFakePlatform()
	platform.modqueue = []model.Item{{
		Fullname: "t3_p1", Kind: model.KindSubmission, Author: "dave",
		Title: "A Post", Permalink: "/r/testsub/comments/p1",
		UserReports: []model.Report{{Reason: "It's spam", By: "2"}},
	}}
	notifier := &fakeNotifier{err: errors.New("webhook post: unexpected status 500")}
	r := newTestRelay(t, platform, notifier)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("delivery failure must not abort the cycle: %v", err)
	}
	if platform.fetchCalls["inbox"] != 1 {
		t.Errorf("mail stage should still run after delivery failure, calls=%d", platform.fetchCalls["inbox"])
	}
}
