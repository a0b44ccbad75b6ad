package showdown

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeSession keeps channel messages in memory and records interaction
// responses.
type fakeSession struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*discordgo.Message // by message id
	members  []*discordgo.Member
	sendErr  error

	responses []*discordgo.InteractionResponse
	edits     []string
	followups []*discordgo.WebhookParams
	deletes   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{messages: make(map[string]*discordgo.Message)}
}

func notFoundErr() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
}

func (f *fakeSession) post(channelID, content string, components []discordgo.MessageComponent, ref *discordgo.MessageReference) *discordgo.Message {
	f.seq++
	m := &discordgo.Message{
		ID:               fmt.Sprintf("%04d", f.seq),
		ChannelID:        channelID,
		Content:          content,
		Components:       components,
		MessageReference: ref,
	}
	f.messages[m.ID] = m
	return m
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.post(channelID, content, nil, nil), nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.post(channelID, data.Content, data.Components, data.Reference), nil
}

func (f *fakeSession) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.post(channelID, content, nil, ref), nil
}

func (f *fakeSession) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return nil, notFoundErr()
	}
	return m, nil
}

// ChannelMessages pages newest first like Discord does.
func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*discordgo.Message
	for _, m := range f.messages {
		if m.ChannelID != channelID {
			continue
		}
		if beforeID != "" && m.ID >= beforeID {
			continue
		}
		if afterID != "" && m.ID <= afterID {
			continue
		}
		out = append(out, m)
	}
	if afterID != "" {
		// after returns the oldest page following afterID, still newest first
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		if len(out) > limit {
			out = out[:limit]
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return notFoundErr()
	}
	delete(f.messages, messageID)
	return nil
}

func (f *fakeSession) GuildMembersSearch(_, query string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*discordgo.Member
	for _, m := range f.members {
		if len(out) < limit && m.User.Username == query {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if edit.Content != nil {
		f.edits = append(f.edits, *edit.Content)
	}
	return &discordgo.Message{}, nil
}

func (f *fakeSession) InteractionResponseDelete(_ *discordgo.Interaction, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *fakeSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) inChannel(channelID string) []*discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*discordgo.Message
	for _, m := range f.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
