package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EntryID is the opaque identifier the scoring backend assigns to one entry.
type EntryID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *EntryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("entry id is null")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = EntryID(n.String())
	return nil
}

// Member is a resolved reference to the submitter on the chat platform.
type Member struct {
	ID       string
	Username string
}

// Mention returns the platform mention for the member.
func (m *Member) Mention() string {
	return "<@" + m.ID + ">"
}

// Submission is one reviewable claim. It is write-once: every field is set
// when the workflow constructs it and nothing mutates it afterwards.
type Submission struct {
	User      string
	RSN       string
	Team      string
	Kind      Kind
	Params    Params
	ShortDesc string
	IDs       []EntryID

	// Member is resolved at decode time and never serialized.
	Member *Member
}

// Mention returns a mention of the submitter, falling back to the plain
// username when the member could not be resolved.
func (s *Submission) Mention() string {
	if s.Member != nil && s.Member.ID != "" {
		return s.Member.Mention()
	}
	return "@" + s.User
}

// IDList formats the entry ids the way reviewers read them.
func (s *Submission) IDList() string {
	ids := make([]string, len(s.IDs))
	for i, id := range s.IDs {
		ids[i] = string(id)
	}
	return "[" + strings.Join(ids, ", ") + "]"
}

// Equal reports whether two submissions carry the same serialized content.
// The resolved member is ignored.
func (s *Submission) Equal(o *Submission) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.User != o.User || s.RSN != o.RSN || s.Team != o.Team || s.Kind != o.Kind || s.ShortDesc != o.ShortDesc {
		return false
	}
	if len(s.IDs) != len(o.IDs) {
		return false
	}
	for i := range s.IDs {
		if s.IDs[i] != o.IDs[i] {
			return false
		}
	}
	return s.Params.Equal(o.Params)
}
