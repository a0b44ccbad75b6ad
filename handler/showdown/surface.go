package showdown

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"showdown/logger"
	"showdown/model"
	"showdown/submission"
	"showdown/utils"
	"showdown/workflow"

	"github.com/bwmarrin/discordgo"
)

// Button custom ids. The router dispatches on the part before the first ":".
const (
	ApproveButtonID = "showdown_approve"
	DenyButtonID    = "showdown_deny"
	UndoButtonID    = "showdown_undo"
)

const (
	queueHeader = "New approval requested:\n"
	// Discord caps ChannelMessages at 100 per page.
	pageSize = 100
	// 扫描队列时最多翻的页数
	maxScanPages = 20
)

// Session is the part of *discordgo.Session the surface uses.
type Session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	GuildMembersSearch(guildID, query string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// Surface keeps submissions as messages in the approvals and log channels.
// It implements workflow.SubmissionStore and workflow.Notifier.
type Surface struct {
	session          Session
	guildID          string
	approvalsChannel string
	logChannel       string
	errorChannel     string
}

// SurfaceConfig names the channels the surface posts to.
type SurfaceConfig struct {
	GuildID          string
	ApprovalsChannel string
	LogChannel       string
	ErrorChannel     string
}

// NewSurface creates a Surface over a Discord session.
func NewSurface(s Session, cfg SurfaceConfig) *Surface {
	return &Surface{
		session:          s,
		guildID:          cfg.GuildID,
		approvalsChannel: cfg.ApprovalsChannel,
		logChannel:       cfg.LogChannel,
		errorChannel:     cfg.ErrorChannel,
	}
}

var (
	_ workflow.SubmissionStore = (*Surface)(nil)
	_ workflow.Notifier        = (*Surface)(nil)
)

// Enqueue posts the submission to the approvals channel with approve and
// deny buttons.
func (s *Surface) Enqueue(ctx context.Context, sub *model.Submission) (workflow.MessageRef, error) {
	text, err := submission.Render(sub)
	if err != nil {
		return workflow.MessageRef{}, err
	}
	msg, err := s.session.ChannelMessageSendComplex(s.approvalsChannel, &discordgo.MessageSend{
		Content:         queueHeader + text,
		Components:      reviewButtons(),
		AllowedMentions: noMentions(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return workflow.MessageRef{}, fmt.Errorf("post to approvals channel: %w", err)
	}
	return workflow.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// Load reads a submission back from its message.
func (s *Surface) Load(ctx context.Context, ref workflow.MessageRef) (*model.Submission, error) {
	msg, err := s.session.ChannelMessage(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, notFound(err)
	}
	return submission.Extract(msg.Content, s.resolver(ctx))
}

// Remove deletes the message and the replies that reference it.
func (s *Surface) Remove(ctx context.Context, ref workflow.MessageRef) error {
	for _, id := range s.replies(ctx, ref) {
		if err := s.session.ChannelMessageDelete(ref.ChannelID, id, discordgo.WithContext(ctx)); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("message_id", id).Msg("Failed to delete reply")
		}
	}
	if err := s.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx)); err != nil {
		return notFound(err)
	}
	return nil
}

// replies pages forward from ref and collects the ids of messages replying
// to it.
func (s *Surface) replies(ctx context.Context, ref workflow.MessageRef) []string {
	var ids []string
	after := ref.MessageID
	for page := 0; page < maxScanPages; page++ {
		msgs, err := s.session.ChannelMessages(ref.ChannelID, pageSize, "", after, "", discordgo.WithContext(ctx))
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("message_id", ref.MessageID).Msg("Failed to list replies")
			return ids
		}
		for _, m := range msgs {
			if m.MessageReference != nil && m.MessageReference.MessageID == ref.MessageID {
				ids = append(ids, m.ID)
			}
			if snowflakeAfter(m.ID, after) {
				after = m.ID
			}
		}
		if len(msgs) < pageSize {
			break
		}
	}
	return ids
}

// snowflakeAfter reports whether id a is newer than id b.
func snowflakeAfter(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

// Archive posts a decided submission to the log channel with an undo button.
func (s *Surface) Archive(ctx context.Context, sub *model.Submission, op model.Operation, reviewer string) (workflow.MessageRef, error) {
	text, err := submission.Render(sub)
	if err != nil {
		return workflow.MessageRef{}, err
	}
	msg, err := s.session.ChannelMessageSendComplex(s.logChannel, &discordgo.MessageSend{
		Content:         fmt.Sprintf("%s by %s:\n%s", archiveVerb(op), reviewer, text),
		Components:      undoButton(),
		AllowedMentions: noMentions(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return workflow.MessageRef{}, fmt.Errorf("post to log channel: %w", err)
	}
	return workflow.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// Reply threads a short message on ref.
func (s *Surface) Reply(ctx context.Context, ref workflow.MessageRef, text string) error {
	_, err := s.session.ChannelMessageSendReply(ref.ChannelID, utils.TruncateMessage(text, utils.MaxMessageLength), &discordgo.MessageReference{
		MessageID: ref.MessageID,
		ChannelID: ref.ChannelID,
		GuildID:   s.guildID,
	}, discordgo.WithContext(ctx))
	return err
}

// Pending scans the approvals channel, newest first, for queued submissions.
func (s *Surface) Pending(ctx context.Context) ([]workflow.Queued, error) {
	resolve := s.resolver(ctx)
	var (
		queued []workflow.Queued
		before string
	)
	for page := 0; page < maxScanPages; page++ {
		msgs, err := s.session.ChannelMessages(s.approvalsChannel, pageSize, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			if !strings.HasPrefix(m.Content, queueHeader) {
				continue
			}
			sub, err := submission.Extract(m.Content, resolve)
			if err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("message_id", m.ID).Msg("Skipping unreadable queue message")
				continue
			}
			queued = append(queued, workflow.Queued{
				Ref:        workflow.MessageRef{ChannelID: s.approvalsChannel, MessageID: m.ID},
				Submission: sub,
			})
		}
		if len(msgs) < pageSize {
			break
		}
		before = msgs[len(msgs)-1].ID
	}
	return queued, nil
}

// Notify posts text to a channel. Mentions of users are allowed so team
// notifications ping the submitter.
func (s *Surface) Notify(ctx context.Context, channelID, text string) error {
	_, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: utils.TruncateMessage(text, utils.MaxMessageLength),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}, discordgo.WithContext(ctx))
	return err
}

// ReportError posts text to the error channel.
func (s *Surface) ReportError(ctx context.Context, text string) error {
	_, err := s.session.ChannelMessageSend(s.errorChannel, utils.TruncateMessage(text, utils.MaxMessageLength), discordgo.WithContext(ctx))
	return err
}

// resolver looks a stored username up among current guild members.
func (s *Surface) resolver(ctx context.Context) submission.MemberResolver {
	return submission.ResolverFunc(func(username string) (*model.Member, bool) {
		members, err := s.session.GuildMembersSearch(s.guildID, username, 10, discordgo.WithContext(ctx))
		if err != nil {
			logger.Ctx(ctx).Debug().Err(err).Str("user", username).Msg("Member lookup failed")
			return nil, false
		}
		for _, m := range members {
			if m.User != nil && strings.EqualFold(m.User.Username, username) {
				return &model.Member{ID: m.User.ID, Username: m.User.Username}, true
			}
		}
		return nil, false
	})
}

func archiveVerb(op model.Operation) string {
	switch op {
	case model.OpApprove:
		return "Approved"
	case model.OpDeny:
		return "Denied"
	default:
		return string(op)
	}
}

// notFound maps a Discord 404 to workflow.ErrMessageNotFound.
func notFound(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", workflow.ErrMessageNotFound, err)
	}
	return err
}

func noMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
}

func reviewButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: ApproveButtonID,
				},
				discordgo.Button{
					Label:    "Deny",
					Style:    discordgo.DangerButton,
					CustomID: DenyButtonID,
				},
			},
		},
	}
}

func undoButton() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Undo",
					Style:    discordgo.SecondaryButton,
					CustomID: UndoButtonID,
				},
			},
		},
	}
}
