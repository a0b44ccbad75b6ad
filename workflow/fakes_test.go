package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"showdown/backend"
	"showdown/model"
	"showdown/roster"
	"showdown/submission"
)

type fakeBackend struct {
	mu        sync.Mutex
	next      int
	state     map[model.EntryID]string
	created   []backend.Entry
	calls     []string
	createErr map[int]error
	callErr   map[model.EntryID]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		state:     make(map[model.EntryID]string),
		createErr: make(map[int]error),
		callErr:   make(map[model.EntryID]error),
	}
}

func (b *fakeBackend) CreateEntry(_ context.Context, entry backend.Entry) (model.EntryID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "create "+entry.Path())
	if err, ok := b.createErr[len(b.created)+1]; ok {
		return "", err
	}
	b.created = append(b.created, entry)
	b.next++
	id := model.EntryID(strconv.Itoa(b.next))
	b.state[id] = "OPEN"
	return id, nil
}

func (b *fakeBackend) transition(op string, id model.EntryID, from, to string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, op+" "+string(id))
	if err, ok := b.callErr[id]; ok {
		return err
	}
	if (from == "OPEN") != (b.state[id] == "OPEN") {
		return &backend.Error{Op: op, Status: 400, Err: backend.ErrStateConflict}
	}
	b.state[id] = to
	return nil
}

func (b *fakeBackend) Approve(_ context.Context, id model.EntryID, _ string) error {
	return b.transition("approve", id, "OPEN", "APPROVED")
}

func (b *fakeBackend) Deny(_ context.Context, id model.EntryID, _ string) error {
	return b.transition("deny", id, "OPEN", "DENIED")
}

func (b *fakeBackend) Undo(_ context.Context, id model.EntryID) error {
	return b.transition("undo", id, "DECIDED", "OPEN")
}

func (b *fakeBackend) countCalls(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

const (
	queueChannel = "approvals"
	logChannel   = "log"
)

// fakeStore keeps messages in memory using the real message format.
type fakeStore struct {
	mu         sync.Mutex
	seq        int
	messages   map[MessageRef]string
	replies    map[MessageRef][]string
	enqueueErr error
	removeErr  error
	archiveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[MessageRef]string), replies: make(map[MessageRef][]string)}
}

var testResolver = submission.ResolverFunc(func(username string) (*model.Member, bool) {
	if username == "zezima" {
		return &model.Member{ID: "42", Username: username}, true
	}
	return nil, false
})

func (s *fakeStore) post(channel, body string) MessageRef {
	s.seq++
	ref := MessageRef{ChannelID: channel, MessageID: fmt.Sprintf("m%03d", s.seq)}
	s.messages[ref] = body
	return ref
}

func (s *fakeStore) Enqueue(_ context.Context, sub *model.Submission) (MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enqueueErr != nil {
		return MessageRef{}, s.enqueueErr
	}
	text, err := submission.Render(sub)
	if err != nil {
		return MessageRef{}, err
	}
	return s.post(queueChannel, "New approval requested:\n"+text), nil
}

func (s *fakeStore) Load(_ context.Context, ref MessageRef) (*model.Submission, error) {
	s.mu.Lock()
	body, ok := s.messages[ref]
	s.mu.Unlock()
	if !ok {
		return nil, ErrMessageNotFound
	}
	return submission.Extract(body, testResolver)
}

func (s *fakeStore) Remove(_ context.Context, ref MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	if _, ok := s.messages[ref]; !ok {
		return ErrMessageNotFound
	}
	delete(s.messages, ref)
	delete(s.replies, ref)
	return nil
}

func (s *fakeStore) Archive(_ context.Context, sub *model.Submission, op model.Operation, reviewer string) (MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archiveErr != nil {
		return MessageRef{}, s.archiveErr
	}
	text, err := submission.Render(sub)
	if err != nil {
		return MessageRef{}, err
	}
	return s.post(logChannel, fmt.Sprintf("%s by %s:\n%s", op, reviewer, text)), nil
}

func (s *fakeStore) Reply(_ context.Context, ref MessageRef, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[ref] = append(s.replies[ref], text)
	return nil
}

func (s *fakeStore) Pending(_ context.Context) ([]Queued, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Queued
	for ref, body := range s.messages {
		if ref.ChannelID != queueChannel {
			continue
		}
		sub, err := submission.Extract(body, testResolver)
		if err != nil {
			continue
		}
		out = append(out, Queued{Ref: ref, Submission: sub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.MessageID < out[j].Ref.MessageID })
	return out, nil
}

func (s *fakeStore) inChannel(channel string) []MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []MessageRef
	for ref := range s.messages {
		if ref.ChannelID == channel {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].MessageID < refs[j].MessageID })
	return refs
}

func (s *fakeStore) body(ref MessageRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[ref]
}

type notification struct {
	channel string
	text    string
}

type fakeNotifier struct {
	mu        sync.Mutex
	notes     []notification
	reports   []string
	reportErr error
}

func (n *fakeNotifier) Notify(_ context.Context, channel, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, notification{channel, text})
	return nil
}

func (n *fakeNotifier) ReportError(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, text)
	return n.reportErr
}

type fakeLedger struct {
	mu           sync.Mutex
	unreconciled []model.Unreconciled
	decisions    []model.Decision
}

func (l *fakeLedger) RecordUnreconciled(_ context.Context, u model.Unreconciled) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unreconciled = append(l.unreconciled, u)
	return nil
}

func (l *fakeLedger) RecordDecision(_ context.Context, d model.Decision) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decisions = append(l.decisions, d)
	return nil
}

type staticRoster struct {
	snap *roster.Snapshot
	err  error
}

func (r staticRoster) Current() *roster.Snapshot { return r.snap }

func (r staticRoster) Reload(context.Context) (*roster.Snapshot, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.snap, nil
}

var errBoom = errors.New("boom")
