package showdown

import (
	"context"
	"errors"
	"strings"
	"testing"

	"showdown/model"
	"showdown/submission"
	"showdown/workflow"

	"github.com/bwmarrin/discordgo"
)

const (
	testGuild     = "guild"
	approvals     = "approvals"
	logChannel    = "log"
	errorsChannel = "errors"
)

func newTestSurface() (*Surface, *fakeSession) {
	fs := newFakeSession()
	fs.members = []*discordgo.Member{{User: &discordgo.User{ID: "42", Username: "zezima"}}}
	return NewSurface(fs, SurfaceConfig{
		GuildID:          testGuild,
		ApprovalsChannel: approvals,
		LogChannel:       logChannel,
		ErrorChannel:     errorsChannel,
	}), fs
}

func testSubmission() *model.Submission {
	return &model.Submission{
		User:      "zezima",
		RSN:       "Zezima",
		Team:      "Team Rock",
		Kind:      model.KindLMS,
		Params:    model.Params{{Name: "screenshot", Value: "https://cdn.example.com/a.png"}, {Name: "kills", Value: "3"}},
		ShortDesc: "3 kills in LMS",
		IDs:       []model.EntryID{"11"},
	}
}

func TestEnqueueAndLoad(t *testing.T) {
	s, fs := newTestSurface()
	ctx := context.Background()
	sub := testSubmission()

	ref, err := s.Enqueue(ctx, sub)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if ref.ChannelID != approvals {
		t.Fatalf("queued in %q", ref.ChannelID)
	}
	msg := fs.inChannel(approvals)[0]
	if !strings.HasPrefix(msg.Content, "New approval requested:\n") {
		t.Fatalf("unexpected body %q", msg.Content)
	}
	row := msg.Components[0].(discordgo.ActionsRow)
	if len(row.Components) != 2 ||
		row.Components[0].(discordgo.Button).CustomID != ApproveButtonID ||
		row.Components[1].(discordgo.Button).CustomID != DenyButtonID {
		t.Fatalf("unexpected buttons %+v", row.Components)
	}

	got, err := s.Load(ctx, ref)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(sub) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Member == nil || got.Member.ID != "42" {
		t.Fatalf("member not resolved: %+v", got.Member)
	}
}

func TestLoadErrors(t *testing.T) {
	s, fs := newTestSurface()
	ctx := context.Background()

	_, err := s.Load(ctx, workflow.MessageRef{ChannelID: approvals, MessageID: "9999"})
	if !errors.Is(err, workflow.ErrMessageNotFound) {
		t.Fatalf("missing message: got %v", err)
	}

	plain := fs.post(approvals, "just chatting", nil, nil)
	_, err = s.Load(ctx, workflow.MessageRef{ChannelID: approvals, MessageID: plain.ID})
	if !errors.Is(err, submission.ErrNotASubmission) {
		t.Fatalf("plain message: got %v", err)
	}
}

func TestRemoveDeletesReplies(t *testing.T) {
	s, fs := newTestSurface()
	ctx := context.Background()

	ref, err := s.Enqueue(ctx, testSubmission())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.Reply(ctx, ref, "Failed to approve submission"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	other := fs.post(approvals, "unrelated", nil, nil)

	if err := s.Remove(ctx, ref); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	left := fs.inChannel(approvals)
	if len(left) != 1 || left[0].ID != other.ID {
		t.Fatalf("expected only the unrelated message to remain, got %d messages", len(left))
	}

	if err := s.Remove(ctx, ref); !errors.Is(err, workflow.ErrMessageNotFound) {
		t.Fatalf("second remove: got %v", err)
	}
}

func TestRemoveDeletesLateReplies(t *testing.T) {
	s, fs := newTestSurface()
	ctx := context.Background()

	ref, err := s.Enqueue(ctx, testSubmission())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	for i := 0; i < 2*pageSize+10; i++ {
		fs.post(approvals, "chatter", nil, nil)
	}
	if err := s.Reply(ctx, ref, "Failed to deny submission"); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	if err := s.Remove(ctx, ref); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	for _, m := range fs.inChannel(approvals) {
		if m.MessageReference != nil {
			t.Fatalf("reply %s outlived its submission", m.ID)
		}
	}
}

func TestSnowflakeAfter(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"1000", "999", true},
		{"999", "1000", false},
		{"1235", "1234", true},
		{"1234", "1234", false},
	}
	for _, tc := range cases {
		if got := snowflakeAfter(tc.a, tc.b); got != tc.want {
			t.Errorf("snowflakeAfter(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestHeadersFitReserve(t *testing.T) {
	longest := strings.Repeat("n", 32)
	headers := []string{
		queueHeader,
		archiveVerb(model.OpApprove) + " by " + longest + ":\n",
		archiveVerb(model.OpDeny) + " by " + longest + ":\n",
	}
	for _, h := range headers {
		if len(h) > submission.HeaderReserve {
			t.Errorf("header %q is longer than the reserved %d", h, submission.HeaderReserve)
		}
	}
}

func TestArchive(t *testing.T) {
	s, fs := newTestSurface()
	ctx := context.Background()

	cases := []struct {
		op     model.Operation
		header string
	}{
		{model.OpApprove, "Approved by mod:\n"},
		{model.OpDeny, "Denied by mod:\n"},
	}
	for _, tc := range cases {
		ref, err := s.Archive(ctx, testSubmission(), tc.op, "mod")
		if err != nil {
			t.Fatalf("Archive: %v", err)
		}
		msg, _ := fs.ChannelMessage(logChannel, ref.MessageID)
		if !strings.HasPrefix(msg.Content, tc.header) {
			t.Fatalf("unexpected log body %q", msg.Content)
		}
		button := msg.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
		if button.CustomID != UndoButtonID {
			t.Fatalf("expected undo button, got %q", button.CustomID)
		}
		if _, err := s.Load(ctx, ref); err != nil {
			t.Fatalf("log message should load back: %v", err)
		}
	}
}

func TestPendingPaginates(t *testing.T) {
	s, fs := newTestSurface()
	ctx := context.Background()

	const n = pageSize + 5
	for i := 0; i < n; i++ {
		if _, err := s.Enqueue(ctx, testSubmission()); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	fs.post(approvals, "not a submission", nil, nil)

	queued, err := s.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(queued) != n {
		t.Fatalf("got %d pending, want %d", len(queued), n)
	}
}

func TestNotifyAndReportError(t *testing.T) {
	s, fs := newTestSurface()
	ctx := context.Background()

	if err := s.Notify(ctx, "team-rock", "<@42> Your thing has been approved by mod"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := s.ReportError(ctx, strings.Repeat("x", 3000)); err != nil {
		t.Fatalf("ReportError: %v", err)
	}
	if got := fs.inChannel("team-rock"); len(got) != 1 {
		t.Fatalf("expected one team message, got %d", len(got))
	}
	errs := fs.inChannel(errorsChannel)
	if len(errs) != 1 || len([]rune(errs[0].Content)) > 2000 {
		t.Fatalf("error report not posted or not truncated")
	}

	fs.sendErr = errors.New("discord down")
	if err := s.Notify(ctx, "team-rock", "hi"); err == nil {
		t.Fatalf("expected send failure to surface")
	}
}
