package showdown

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"showdown/command/def"
	"showdown/handler"
	"showdown/logger"
	"showdown/model"
	"showdown/roster"
	"showdown/submission"
	"showdown/utils"
	"showdown/workflow"

	"github.com/bwmarrin/discordgo"
)

// maxChoices is Discord's cap on autocomplete suggestions.
const maxChoices = 25

// Responder is the part of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handlers answers the submission, review and staff interactions.
type Handlers struct {
	engine *workflow.Engine
}

// RegisterHandlers registers all handlers for the showdown package.
func RegisterHandlers(engine *workflow.Engine) *Handlers {
	h := &Handlers{engine: engine}
	for _, kind := range model.AllKinds {
		handler.AddCommandHandler(kind.Command(), func(s *discordgo.Session, i *discordgo.InteractionCreate) { h.Submit(s, i) })
		handler.AddAutocompleteHandler(kind.Command(), func(s *discordgo.Session, i *discordgo.InteractionCreate) { h.Autocomplete(s, i) })
	}

	// 审核按钮
	handler.AddComponentHandler(ApproveButtonID, func(s *discordgo.Session, i *discordgo.InteractionCreate) { h.Decide(s, i, workflow.Approve) })
	handler.AddComponentHandler(DenyButtonID, func(s *discordgo.Session, i *discordgo.InteractionCreate) { h.Decide(s, i, workflow.Deny) })
	handler.AddComponentHandler(UndoButtonID, func(s *discordgo.Session, i *discordgo.InteractionCreate) { h.Undo(s, i) })

	handler.AddCommandHandler(def.ReloadCommand.Name, func(s *discordgo.Session, i *discordgo.InteractionCreate) { h.Reload(s, i) })
	handler.AddCommandHandler(def.PendingCommand.Name, func(s *discordgo.Session, i *discordgo.InteractionCreate) { h.Pending(s, i) })
	return h
}

// Submit handles every submit_* command.
func (h *Handlers) Submit(r Responder, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	kind, err := model.KindFromCommand(data.Name)
	if err != nil {
		return
	}
	user := interactionUser(i)
	ctx, _ := logger.WithEvent(context.Background(), map[string]string{"user": user.Username, "kind": string(kind)})
	log := logger.Ctx(ctx)

	// 后端调用可能超过三秒，先延迟响应
	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error().Err(err).Msg("Error sending deferred response")
		return
	}

	params, err := ParamsFromOptions(data)
	if err != nil {
		h.fail(ctx, r, i, "submission", err, true)
		return
	}
	sub, err := h.engine.Submit(ctx, workflow.Submitter{Username: user.Username, ChannelID: i.ChannelID}, kind, params)
	if err != nil {
		h.fail(ctx, r, i, "submission", err, true)
		return
	}
	log.Info().Str("ids", sub.IDList()).Msg("Submission queued")
	content := utils.TruncateMessage("Request received:\n"+submission.Summary(sub), utils.MaxMessageLength)
	if _, err := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		log.Error().Err(err).Msg("Error editing interaction response")
	}
}

// Decide handles the approve and deny buttons.
func (h *Handlers) Decide(r Responder, i *discordgo.InteractionCreate, outcome workflow.Outcome) {
	reviewer := interactionReviewer(i)
	ctx, _ := logger.WithEvent(context.Background(), map[string]string{
		"reviewer": reviewer.Username, "op": string(outcome.Operation()), "message_id": messageID(i),
	})
	if !h.deferUpdate(ctx, r, i) {
		return
	}
	err := h.engine.Decide(ctx, reviewer, messageRef(i), outcome)
	if err != nil {
		h.fail(ctx, r, i, string(outcome.Operation()), err, false)
	}
}

// Undo handles the undo button on log messages.
func (h *Handlers) Undo(r Responder, i *discordgo.InteractionCreate) {
	reviewer := interactionReviewer(i)
	ctx, _ := logger.WithEvent(context.Background(), map[string]string{
		"reviewer": reviewer.Username, "op": string(model.OpUndo), "message_id": messageID(i),
	})
	if !h.deferUpdate(ctx, r, i) {
		return
	}
	if err := h.engine.Undo(ctx, reviewer, messageRef(i)); err != nil {
		h.fail(ctx, r, i, string(model.OpUndo), err, false)
	}
}

// Autocomplete suggests roster values for the focused option.
func (h *Handlers) Autocomplete(r Responder, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	kind, err := model.KindFromCommand(data.Name)
	if err != nil {
		return
	}
	focused := focusedOption(data.Options)
	if focused == nil {
		return
	}
	var from workflow.Choices
	for _, f := range workflow.Fields(kind) {
		if f.Name == focused.Name {
			from = f.Choices
		}
	}
	query, _ := focused.Value.(string)
	err = r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: AutocompleteChoices(h.engine.Snapshot(), from, query)},
	})
	if err != nil {
		logger.Ctx(context.Background()).Debug().Err(err).Str("command", data.Name).Msg("Autocomplete response failed")
	}
}

// Reload handles /reload.
func (h *Handlers) Reload(r Responder, i *discordgo.InteractionCreate) {
	ctx, ok := h.staffCommand(r, i, "reload")
	if !ok {
		return
	}
	if err := h.engine.Reload(ctx); err != nil {
		h.fail(ctx, r, i, "reload", err, false)
		return
	}
	snap := h.engine.Snapshot()
	h.edit(ctx, r, i, fmt.Sprintf("Reloaded %d teams and %d players", len(snap.Teams()), len(snap.Players())))
}

// Pending handles /pending.
func (h *Handlers) Pending(r Responder, i *discordgo.InteractionCreate) {
	ctx, ok := h.staffCommand(r, i, "pending")
	if !ok {
		return
	}
	queued, err := h.engine.Pending(ctx)
	if err != nil {
		h.fail(ctx, r, i, "pending", err, false)
		return
	}
	h.edit(ctx, r, i, FormatPending(i.GuildID, queued))
}

// staffCommand defers an ephemeral response and checks the staff role.
func (h *Handlers) staffCommand(r Responder, i *discordgo.InteractionCreate, name string) (context.Context, bool) {
	user := interactionUser(i)
	ctx, _ := logger.WithEvent(context.Background(), map[string]string{"user": user.Username, "command": name})
	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Error sending deferred response")
		return ctx, false
	}
	if err := h.engine.CheckAdmin(interactionReviewer(i).Roles); err != nil {
		h.fail(ctx, r, i, name, err, false)
		return ctx, false
	}
	return ctx, true
}

func (h *Handlers) deferUpdate(ctx context.Context, r Responder, i *discordgo.InteractionCreate) bool {
	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Error acknowledging button")
		return false
	}
	return true
}

func (h *Handlers) edit(ctx context.Context, r Responder, i *discordgo.InteractionCreate, text string) {
	content := utils.TruncateMessage(text, utils.MaxMessageLength)
	if _, err := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Error editing interaction response")
	}
}

// fail tells the actor what went wrong. public is set when the deferred
// response is visible to the channel; it is then replaced by a private one.
func (h *Handlers) fail(ctx context.Context, r Responder, i *discordgo.InteractionCreate, op string, err error, public bool) {
	log := logger.Ctx(ctx)
	reply, escalate := workflow.UserReply(err)
	if escalate {
		h.engine.ReportUnexpectedError(ctx, op, nil, err)
	} else {
		log.Debug().Err(err).Str("op", op).Msg("Interaction failed")
	}

	if public {
		if derr := r.InteractionResponseDelete(i.Interaction); derr != nil {
			log.Warn().Err(derr).Msg("Failed to delete deferred response")
		}
	}
	if reply == "" {
		return
	}
	if _, ferr := r.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: utils.TruncateMessage(reply, utils.MaxMessageLength),
		Flags:   discordgo.MessageFlagsEphemeral,
	}); ferr != nil {
		log.Error().Err(ferr).Msg("Failed to send error reply")
	}
}

// ParamsFromOptions turns command options into ordered params. Attachment
// options are replaced by their URLs.
func ParamsFromOptions(data discordgo.ApplicationCommandInteractionData) (model.Params, error) {
	pairs := make([]model.Param, 0, len(data.Options))
	for _, opt := range data.Options {
		var value string
		switch opt.Type {
		case discordgo.ApplicationCommandOptionAttachment:
			id, _ := opt.Value.(string)
			if data.Resolved == nil || data.Resolved.Attachments[id] == nil {
				return nil, model.Invalidf("Attachment %s could not be read", opt.Name)
			}
			value = data.Resolved.Attachments[id].URL
		case discordgo.ApplicationCommandOptionInteger:
			n, ok := opt.Value.(float64)
			if !ok {
				return nil, model.Invalidf("%s must be a whole number", opt.Name)
			}
			value = strconv.FormatInt(int64(n), 10)
		case discordgo.ApplicationCommandOptionString:
			value, _ = opt.Value.(string)
		default:
			value = fmt.Sprint(opt.Value)
		}
		pairs = append(pairs, model.Param{Name: opt.Name, Value: value})
	}
	params, err := model.NewParams(pairs...)
	if err != nil {
		return nil, model.Invalidf("%v", err)
	}
	return params, nil
}

// AutocompleteChoices filters a roster list by a case-insensitive substring.
func AutocompleteChoices(snap *roster.Snapshot, from workflow.Choices, query string) []*discordgo.ApplicationCommandOptionChoice {
	q := strings.ToLower(strings.TrimSpace(query))
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxChoices)
	add := func(name, value string) bool {
		if q != "" && !strings.Contains(strings.ToLower(name), q) {
			return true
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  utils.TruncateMessage(name, 100),
			Value: value,
		})
		return len(choices) < maxChoices
	}

	switch from {
	case workflow.ChoicesMonsters:
		for _, m := range snap.Monsters() {
			if !add(m, m) {
				break
			}
		}
	case workflow.ChoicesItems:
		for _, item := range snap.CollectionLogItems() {
			if !add(item, item) {
				break
			}
		}
	case workflow.ChoicesChallenges:
		for _, c := range snap.Challenges() {
			if !add(c.Label(), c.Key()) {
				break
			}
		}
	case workflow.ChoicesRecords:
		for _, rec := range snap.Records() {
			if !add(rec.Label(), rec.Key()) {
				break
			}
		}
	}
	return choices
}

// FormatPending lists queued submissions with links to their messages.
func FormatPending(guildID string, queued []workflow.Queued) string {
	if len(queued) == 0 {
		return "No submissions are waiting for review"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d submissions waiting for review:", len(queued))
	for _, q := range queued {
		sub := q.Submission
		fmt.Fprintf(&b, "\n- %s %s (%s): %s https://discord.com/channels/%s/%s/%s",
			sub.IDList(), sub.RSN, sub.Team, sub.ShortDesc, guildID, q.Ref.ChannelID, q.Ref.MessageID)
	}
	return b.String()
}

func focusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range opts {
		if opt.Focused {
			return opt
		}
	}
	return nil
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}

func interactionReviewer(i *discordgo.InteractionCreate) workflow.Reviewer {
	r := workflow.Reviewer{Username: interactionUser(i).Username}
	if i.Member != nil {
		r.Roles = i.Member.Roles
	}
	return r
}

func messageID(i *discordgo.InteractionCreate) string {
	if i.Message == nil {
		return ""
	}
	return i.Message.ID
}

func messageRef(i *discordgo.InteractionCreate) workflow.MessageRef {
	return workflow.MessageRef{ChannelID: i.ChannelID, MessageID: messageID(i)}
}
